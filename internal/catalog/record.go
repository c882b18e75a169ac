package catalog

import "github.com/shopspring/decimal"

// ProductRecord is a product as served by the package service. Optional
// fields are pointers so that absent values can be told apart from zero.
type ProductRecord struct {
	ID           string          `json:"_id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Unit         *string         `json:"unit,omitempty"`
	Description  *string         `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image"`
	IsAvailable  *bool           `json:"isAvailable,omitempty"`
	CountInStock *int            `json:"countInStock,omitempty"`
}

type ItemRecord struct {
	Product  *ProductRecord `json:"product"`
	Quantity int            `json:"quantity"`
}

type PackageRecord struct {
	ID           string          `json:"_id"`
	Name         string          `json:"name"`
	Description  *string         `json:"description,omitempty"`
	Image        string          `json:"image"`
	BasePrice    decimal.Decimal `json:"basePrice"`
	ValuePrice   decimal.Decimal `json:"valuePrice"`
	DefaultItems []ItemRecord    `json:"defaultItems"`
	SwapOptions  []ItemRecord    `json:"swapOptions"`
}
