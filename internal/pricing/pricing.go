// Package pricing applies price-band restriction and condition-based
// selection to product candidate sets. The embedding model has no notion of
// price, so both passes exist to keep semantic similarity from drifting
// customers into the wrong price tier.
package pricing

import (
	"math"
	"sort"

	"github.com/phonify-ai/retrieval-engine/internal/backend"
	"github.com/phonify-ai/retrieval-engine/internal/intent"
)

// DefaultSelectLimit caps how many products a price selection returns.
const DefaultSelectLimit = 3

// PreFilterByPrice restricts candidates to a band around the target value
// before semantic ranking.
//
// Bands: under keeps [0.7v, v], from and above keep [v, 1.3v], around and
// an unrecognized condition keep [0.7v, 1.3v]. A band that removes every
// candidate returns the original set unchanged so a band miss never
// destroys the candidate pool.
func PreFilterByPrice(products []backend.Product, cond intent.PriceCondition, value int64) []backend.Product {
	if len(products) == 0 || value <= 0 {
		return products
	}

	v := float64(value)
	var min, max float64
	switch cond {
	case intent.CondUnder:
		min, max = 0.7*v, v
	case intent.CondFrom, intent.CondAbove:
		min, max = v, 1.3*v
	default:
		min, max = 0.7*v, 1.3*v
	}

	filtered := make([]backend.Product, 0, len(products))
	for _, p := range products {
		if p.Price >= min && p.Price <= max {
			filtered = append(filtered, p)
		}
	}

	if len(filtered) == 0 {
		return products
	}
	return filtered
}

// SelectByPrice picks the products actually shown to the customer after
// brand filtering.
//
// Under keeps price <= value, from and above keep price >= value, around
// keeps within 20 percent of value. Survivors are sorted by absolute
// distance to the value ascending and capped to limit. When the strict
// condition leaves no survivors the original set is sorted by distance
// instead, so the customer always sees the closest available option rather
// than nothing.
func SelectByPrice(products []backend.Product, cond intent.PriceCondition, value int64, limit int) []backend.Product {
	if len(products) == 0 || value <= 0 {
		return products
	}
	if limit <= 0 {
		limit = DefaultSelectLimit
	}

	v := float64(value)
	keep := func(p backend.Product) bool {
		switch cond {
		case intent.CondUnder:
			return p.Price <= v
		case intent.CondFrom, intent.CondAbove:
			return p.Price >= v
		case intent.CondAround:
			return math.Abs(p.Price-v) <= 0.2*v
		default:
			return true
		}
	}

	filtered := make([]backend.Product, 0, len(products))
	for _, p := range products {
		if keep(p) {
			filtered = append(filtered, p)
		}
	}

	if len(filtered) == 0 {
		filtered = append(filtered, products...)
	}

	sort.SliceStable(filtered, func(a, b int) bool {
		return math.Abs(filtered[a].Price-v) < math.Abs(filtered[b].Price-v)
	})

	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered
}
