package model

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Price is a monetary amount stored exactly, in cents.
type Price int64

// ErrInvalidPrice is returned when a price literal cannot be parsed.
var ErrInvalidPrice = errors.New("invalid price")

// NewPrice returns the price for whole units and cents, e.g. NewPrice(2, 99).
func NewPrice(units, cents int64) Price {
	return Price(units*100 + cents)
}

// Cents returns the amount in cents.
func (p Price) Cents() int64 { return int64(p) }

// String formats the price with exactly two fractional digits.
func (p Price) String() string {
	sign := ""
	// Magnitude as uint64 so the smallest int64 negates correctly.
	v := uint64(p)
	if p < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON encodes the price as a JSON number with two decimals.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string. A JSON null leaves
// the price unchanged.
func (p *Price) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	v, err := ParsePrice(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// maxPriceLiteral bounds the literal length so exponents stay small.
const (
	maxPriceLiteral  = 32
	maxPriceExponent = 4 // "e-12"
)

// ParsePrice parses a decimal literal such as "2.99", "3" or "1.5e1".
// Digits beyond the second fractional place are rounded half away from zero.
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxPriceLiteral || strings.Trim(s, "0123456789+-.eE") != "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}

	if i := strings.IndexAny(s, "eE"); i >= 0 && len(s)-i > maxPriceExponent {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}

	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}

	num := new(big.Int).Mul(r.Num(), big.NewInt(100))
	den := r.Denom()
	q, rem := new(big.Int).QuoRem(num, den, new(big.Int))

	// Round half away from zero.
	rem.Abs(rem).Lsh(rem, 1)
	if rem.Cmp(den) >= 0 {
		if num.Sign() < 0 {
			q.Sub(q, big.NewInt(1))
		} else {
			q.Add(q, big.NewInt(1))
		}
	}

	if !q.IsInt64() {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidPrice, s)
	}
	return Price(q.Int64()), nil
}
