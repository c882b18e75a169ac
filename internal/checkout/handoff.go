package checkout

import (
	"time"

	"github.com/fjod/go_basket/internal/basket"
	"github.com/fjod/go_basket/internal/domain"
	"github.com/shopspring/decimal"
)

// Handoff is the final basket and price handed to checkout. It is built once
// and never mutated.
type Handoff struct {
	SessionID         string              `json:"session_id"`
	Basket            []domain.BasketItem `json:"basket"`
	Package           domain.Package      `json:"package"`
	PackageBasePrice  decimal.Decimal     `json:"package_base_price"`
	PackageValuePrice decimal.Decimal     `json:"package_value_price"`
	PriceAdjustment   decimal.Decimal     `json:"price_adjustment"`
	FinalPrice        decimal.Decimal     `json:"final_price"`
	ItemsTotalValue   decimal.Decimal     `json:"items_total_value"`
	CreatedAt         time.Time           `json:"created_at"`
}

// NewHandoff captures the session's basket and quote. An empty basket cannot
// proceed to checkout.
func NewHandoff(sessionID string, s *basket.Session) (*Handoff, error) {
	if s.IsEmpty() {
		return nil, ErrEmptyBasket
	}

	pkg := s.Package()
	quote := s.Quote()
	return &Handoff{
		SessionID:         sessionID,
		Basket:            s.Items(),
		Package:           pkg,
		PackageBasePrice:  pkg.BasePrice,
		PackageValuePrice: pkg.ValuePrice,
		PriceAdjustment:   quote.Adjustment,
		FinalPrice:        quote.FinalPrice,
		ItemsTotalValue:   quote.ItemsTotal,
		CreatedAt:         time.Now().UTC(),
	}, nil
}
