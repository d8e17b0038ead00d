package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/spajza/internal/catalog"
	"github.com/erazemk/spajza/internal/model"
)

// maxBodyBytes limits item request bodies.
const maxBodyBytes = 1 << 20

// ItemsHandler handles the item catalog endpoints.
type ItemsHandler struct {
	Catalog *catalog.Service
}

type categoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// List handles GET /items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.List(r.Context())
	if err != nil {
		serviceError(w, r, err, "list items")
		return
	}
	itemsResponse(w, items)
}

// Create handles POST /items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req catalog.CreateRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Catalog.Create(r.Context(), req)
	if err != nil {
		serviceError(w, r, err, "create item")
		return
	}

	w.Header().Set("Location", r.URL.Path+"/"+strconv.FormatInt(item.ID, 10))
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	item, err := h.Catalog.Get(r.Context(), id)
	if err != nil {
		serviceError(w, r, err, "get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req catalog.UpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Catalog.Update(r.Context(), id, req)
	if err != nil {
		serviceError(w, r, err, "update item")
		return
	}

	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	if err := h.Catalog.Delete(r.Context(), id); err != nil {
		serviceError(w, r, err, "delete item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /items/search?name=.
func (h *ItemsHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("name") {
		jsonError(w, http.StatusBadRequest, "name query parameter required")
		return
	}

	items, err := h.Catalog.SearchByName(r.Context(), q.Get("name"))
	if err != nil {
		serviceError(w, r, err, "search items")
		return
	}
	itemsResponse(w, items)
}

// ByCategory handles GET /items/category/{category}.
func (h *ItemsHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.ByCategory(r.Context(), r.PathValue("category"))
	if err != nil {
		serviceError(w, r, err, "list items by category")
		return
	}
	itemsResponse(w, items)
}

// PriceRange handles GET /items/price-range?minPrice=&maxPrice=.
func (h *ItemsHandler) PriceRange(w http.ResponseWriter, r *http.Request) {
	minPrice, ok := priceParam(w, r, "minPrice")
	if !ok {
		return
	}
	maxPrice, ok := priceParam(w, r, "maxPrice")
	if !ok {
		return
	}
	if minPrice == nil || maxPrice == nil {
		jsonError(w, http.StatusBadRequest, "minPrice and maxPrice query parameters required")
		return
	}

	items, err := h.Catalog.ByPriceRange(r.Context(), *minPrice, *maxPrice)
	if err != nil {
		serviceError(w, r, err, "list items by price range")
		return
	}
	itemsResponse(w, items)
}

// Filter handles GET /items/filter?category=&minPrice=&maxPrice=.
func (h *ItemsHandler) Filter(w http.ResponseWriter, r *http.Request) {
	var params catalog.FilterParams
	if c := r.URL.Query().Get("category"); c != "" {
		params.Category = &c
	}

	var ok bool
	if params.MinPrice, ok = priceParam(w, r, "minPrice"); !ok {
		return
	}
	if params.MaxPrice, ok = priceParam(w, r, "maxPrice"); !ok {
		return
	}

	items, err := h.Catalog.Filter(r.Context(), params)
	if err != nil {
		serviceError(w, r, err, "filter items")
		return
	}
	itemsResponse(w, items)
}

// LowStock handles GET /items/low-stock?threshold=.
func (h *ItemsHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	threshold := catalog.DefaultLowStockThreshold
	if s := r.URL.Query().Get("threshold"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid threshold")
			return
		}
		threshold = n
	}

	items, err := h.Catalog.LowStock(r.Context(), threshold)
	if err != nil {
		serviceError(w, r, err, "list low stock items")
		return
	}
	itemsResponse(w, items)
}

// Categories handles GET /items/categories.
func (h *ItemsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Catalog.Categories(r.Context())
	if err != nil {
		serviceError(w, r, err, "list categories")
		return
	}
	if categories == nil {
		categories = []string{}
	}
	jsonResponse(w, http.StatusOK, categories)
}

// CountByCategory handles GET /items/categories/{category}/count.
func (h *ItemsHandler) CountByCategory(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	n, err := h.Catalog.CountByCategory(r.Context(), category)
	if err != nil {
		serviceError(w, r, err, "count items")
		return
	}
	jsonResponse(w, http.StatusOK, categoryCount{Category: category, Count: n})
}

func itemsResponse(w http.ResponseWriter, items []model.Item) {
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

func itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return 0, false
	}
	return id, true
}

// priceParam reads an optional price query parameter. An empty value is
// treated as absent.
func priceParam(w http.ResponseWriter, r *http.Request, key string) (*model.Price, bool) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return nil, true
	}
	p, err := model.ParsePrice(s)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid "+key)
		return nil, false
	}
	return &p, true
}
