package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type BasketItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// LineTotal is always derived from the current price and quantity.
func (i BasketItem) LineTotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// AtStockLimit reports whether another unit would exceed the stock count.
func (i BasketItem) AtStockLimit() bool {
	return i.Quantity >= i.Product.CountInStock
}

func (i BasketItem) MarshalJSON() ([]byte, error) {
	type item BasketItem
	return json.Marshal(struct {
		item
		LineTotal decimal.Decimal `json:"line_total"`
	}{item(i), i.LineTotal()})
}
