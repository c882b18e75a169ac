package domain

import "github.com/shopspring/decimal"

// PackageItem is a product offered by a package together with its quantity.
type PackageItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Package is a priced bundle of default products with optional swap alternatives.
type Package struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Image        string          `json:"image"`
	BasePrice    decimal.Decimal `json:"base_price"`
	ValuePrice   decimal.Decimal `json:"value_price"`
	DefaultItems []PackageItem   `json:"default_items"`
	SwapOptions  []PackageItem   `json:"swap_options"`
}
