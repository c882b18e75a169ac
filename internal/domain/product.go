package domain

import "github.com/shopspring/decimal"

// Product is read-only catalog data cached on basket items for display.
type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Unit         string          `json:"unit"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image"`
	IsAvailable  bool            `json:"is_available"`
	CountInStock int             `json:"count_in_stock"`
}
