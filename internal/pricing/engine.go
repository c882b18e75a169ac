package pricing

import (
	"github.com/fjod/go_basket/internal/domain"
	"github.com/shopspring/decimal"
)

// Quote is the price breakdown for a basket against its package.
type Quote struct {
	ItemsTotal decimal.Decimal `json:"items_total"`
	BasePrice  decimal.Decimal `json:"base_price"`
	ValuePrice decimal.Decimal `json:"value_price"`
	Adjustment decimal.Decimal `json:"adjustment"`
	FinalPrice decimal.Decimal `json:"final_price"`
}

// ItemsTotal sums price × quantity over all items without rounding.
func ItemsTotal(items []domain.BasketItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Calculate derives the amount due for the basket.
//
// A basket worth more than the value benchmark pays the difference on top of
// the base price. A basket worth less gets a discount capped by the package
// margin (basePrice - valuePrice, never below zero). The final price never
// falls below the value benchmark. Malformed input (no benchmark, negative
// prices or quantities) yields no adjustment.
func Calculate(items []domain.BasketItem, basePrice, valuePrice decimal.Decimal) Quote {
	itemsTotal := ItemsTotal(items)
	q := Quote{
		ItemsTotal: itemsTotal,
		BasePrice:  basePrice,
		ValuePrice: valuePrice,
		Adjustment: decimal.Zero,
	}

	if dynamicPricing(items, basePrice, valuePrice) {
		q.Adjustment = adjustment(itemsTotal, basePrice, valuePrice)
	}

	final := basePrice.Add(q.Adjustment)
	if valuePrice.IsPositive() {
		final = decimal.Max(final, valuePrice)
	}
	q.FinalPrice = decimal.Max(final, decimal.Zero)
	return q
}

func dynamicPricing(items []domain.BasketItem, basePrice, valuePrice decimal.Decimal) bool {
	if !valuePrice.IsPositive() || basePrice.IsNegative() {
		return false
	}
	for _, item := range items {
		if item.Product.Price.IsNegative() || item.Quantity < 0 {
			return false
		}
	}
	return true
}

func adjustment(itemsTotal, basePrice, valuePrice decimal.Decimal) decimal.Decimal {
	switch itemsTotal.Cmp(valuePrice) {
	case 1:
		return itemsTotal.Sub(valuePrice)
	case -1:
		difference := valuePrice.Sub(itemsTotal)
		maxDeduction := decimal.Max(basePrice.Sub(valuePrice), decimal.Zero)
		return decimal.Min(difference, maxDeduction).Neg()
	default:
		return decimal.Zero
	}
}
