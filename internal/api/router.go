package api

import (
	"net/http"
	"strings"

	"github.com/erazemk/spajza/internal/catalog"
	"github.com/erazemk/spajza/internal/metrics"
)

// DefaultBasePath prefixes every API route.
const DefaultBasePath = "/api"

// Options configures the router.
type Options struct {
	// BasePath prefixes all routes. Empty means DefaultBasePath.
	BasePath string
	// CORSOrigins lists the origins allowed to call the API from a browser.
	CORSOrigins []string
	// Metrics instruments requests when set; MetricsPath then serves them.
	Metrics     *metrics.Metrics
	MetricsPath string
}

// NewRouter creates the API router with all endpoints registered and the
// middleware chain applied.
func NewRouter(svc *catalog.Service, opts Options) http.Handler {
	base := strings.TrimRight(opts.BasePath, "/")
	if opts.BasePath == "" {
		base = DefaultBasePath
	}

	mux := http.NewServeMux()
	items := &ItemsHandler{Catalog: svc}

	mux.HandleFunc("GET "+base+"/items", items.List)
	mux.HandleFunc("POST "+base+"/items", items.Create)
	mux.HandleFunc("GET "+base+"/items/{id}", items.Get)
	mux.HandleFunc("PUT "+base+"/items/{id}", items.Update)
	mux.HandleFunc("DELETE "+base+"/items/{id}", items.Delete)

	mux.HandleFunc("GET "+base+"/items/search", items.Search)
	mux.HandleFunc("GET "+base+"/items/category/{category}", items.ByCategory)
	mux.HandleFunc("GET "+base+"/items/price-range", items.PriceRange)
	mux.HandleFunc("GET "+base+"/items/filter", items.Filter)
	mux.HandleFunc("GET "+base+"/items/low-stock", items.LowStock)
	mux.HandleFunc("GET "+base+"/items/categories", items.Categories)
	mux.HandleFunc("GET "+base+"/items/categories/{category}/count", items.CountByCategory)

	mux.HandleFunc("GET "+base+"/health", HealthHandler(svc))

	var handler http.Handler = RecoveryMiddleware(mux)
	if opts.Metrics != nil {
		if opts.MetricsPath != "" {
			mux.Handle("GET "+opts.MetricsPath, opts.Metrics.Handler())
		}
		handler = opts.Metrics.Middleware(handler)
	}
	handler = CORSMiddleware(opts.CORSOrigins)(handler)
	handler = LoggingMiddleware(handler)
	return RequestIDMiddleware(handler)
}
