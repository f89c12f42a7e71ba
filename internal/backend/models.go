// Package backend provides the HTTP client for the product catalog and
// review service.
package backend

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Product is a catalog item returned by the backend search API.
type Product struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	StockQuantity int     `json:"stock_quantity"`
}

// UnmarshalJSON accepts both string and numeric product ids; some backend
// deployments return integers.
func (p *Product) UnmarshalJSON(data []byte) error {
	type alias Product
	aux := struct {
		ID json.RawMessage `json:"id"`
		*alias
	}{alias: (*alias)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if len(aux.ID) > 0 {
		var s string
		if err := json.Unmarshal(aux.ID, &s); err == nil {
			p.ID = s
		} else {
			var n json.Number
			if err := json.Unmarshal(aux.ID, &n); err != nil {
				return fmt.Errorf("product id: %w", err)
			}
			p.ID = n.String()
		}
	}

	return nil
}

// EmbeddingText builds the text fed to the sentence encoder for a product.
// The description is capped to keep encoder input bounded; name and category
// carry most of the matching signal anyway.
func (p Product) EmbeddingText(descriptionLimit int) string {
	desc := p.Description
	if descriptionLimit > 0 {
		if r := []rune(desc); len(r) > descriptionLimit {
			desc = string(r[:descriptionLimit])
		}
	}

	parts := make([]string, 0, 3)
	for _, s := range []string{p.Name, p.Category, desc} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Review is a customer review returned by the backend.
type Review struct {
	ProductID string  `json:"product_id"`
	Author    string  `json:"author"`
	Rating    float64 `json:"rating"`
	Comment   string  `json:"comment"`
}
