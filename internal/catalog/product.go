// Package catalog defines the canonical Product entity and the transformer
// that maps raw feed records onto it.
package catalog

import "time"

// Product is the canonical catalog entity persisted per sync generation.
// SalePrice is set only when it is strictly lower than Price; the discount
// fields are derived from that pair.
type Product struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Price              float64  `json:"price"`
	SalePrice          *float64 `json:"sale_price,omitempty"`
	HasDiscount        bool     `json:"has_discount"`
	DiscountPercentage int      `json:"discount_percentage"`
	Category           string   `json:"category"`
	Brand              string   `json:"brand"`
	Available          bool     `json:"available"`
	StockQuantity      int      `json:"stock_quantity"`
	Image              string   `json:"image,omitempty"`
	URL                string   `json:"url,omitempty"`
	EAN                string   `json:"ean,omitempty"`
	Currency           string   `json:"currency"`
}

// ScoredProduct pairs a product with its accumulated match score.
type ScoredProduct struct {
	Product
	Score int `json:"score"`
}

// Metadata describes the current catalog generation.
type Metadata struct {
	Count      int       `json:"count"`
	LastUpdate time.Time `json:"last_update"`
}

// NameCount is a category or brand name with its product count.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
