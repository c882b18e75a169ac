package http

import (
	"time"

	"github.com/fjod/go_basket/internal/checkout"
	"github.com/fjod/go_basket/internal/domain"
	"github.com/fjod/go_basket/internal/pricing"
	"github.com/fjod/go_basket/internal/service"
	"github.com/shopspring/decimal"
)

type StartSessionRequestDTO struct {
	PackageID string `json:"package_id"`
}

type AdjustQuantityRequestDTO struct {
	Delta int `json:"delta"`
}

type BeginSwapRequestDTO struct {
	ProductID string `json:"product_id"`
}

type CompleteSwapRequestDTO struct {
	OptionID string `json:"option_id"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type ProductResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	Unit         string `json:"unit"`
	Description  string `json:"description,omitempty"`
	Price        string `json:"price"`
	Image        string `json:"image"`
	IsAvailable  bool   `json:"is_available"`
	CountInStock int    `json:"count_in_stock"`
}

type BasketItemResponse struct {
	Product      ProductResponse `json:"product"`
	Quantity     int             `json:"quantity"`
	LineTotal    string          `json:"line_total"`
	AtStockLimit bool            `json:"at_stock_limit"`
}

type SwapOptionResponse struct {
	Product  ProductResponse `json:"product"`
	Quantity int             `json:"quantity"`
}

type QuoteResponse struct {
	ItemsTotal string `json:"items_total"`
	BasePrice  string `json:"base_price"`
	ValuePrice string `json:"value_price"`
	Adjustment string `json:"adjustment"`
	FinalPrice string `json:"final_price"`
}

type SessionResponse struct {
	SessionID   string               `json:"session_id"`
	PackageID   string               `json:"package_id"`
	PackageName string               `json:"package_name"`
	Items       []BasketItemResponse `json:"items"`
	SwapPool    []SwapOptionResponse `json:"swap_pool"`
	PendingSwap string               `json:"pending_swap,omitempty"`
	Quote       QuoteResponse        `json:"quote"`
	CanProceed  bool                 `json:"can_proceed"`
}

type HandoffResponse struct {
	SessionID         string               `json:"session_id"`
	PackageID         string               `json:"package_id"`
	Basket            []BasketItemResponse `json:"basket"`
	PackageBasePrice  string               `json:"package_base_price"`
	PackageValuePrice string               `json:"package_value_price"`
	PriceAdjustment   string               `json:"price_adjustment"`
	FinalPrice        string               `json:"final_price"`
	ItemsTotalValue   string               `json:"items_total_value"`
	CreatedAt         string               `json:"created_at"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		Category:     p.Category,
		Unit:         p.Unit,
		Description:  p.Description,
		Price:        money(p.Price),
		Image:        p.Image,
		IsAvailable:  p.IsAvailable,
		CountInStock: p.CountInStock,
	}
}

func toBasketItems(items []domain.BasketItem) []BasketItemResponse {
	out := make([]BasketItemResponse, len(items))
	for i, item := range items {
		out[i] = BasketItemResponse{
			Product:      toProductResponse(item.Product),
			Quantity:     item.Quantity,
			LineTotal:    money(item.LineTotal()),
			AtStockLimit: item.AtStockLimit(),
		}
	}
	return out
}

func toQuoteResponse(q pricing.Quote) QuoteResponse {
	return QuoteResponse{
		ItemsTotal: money(q.ItemsTotal),
		BasePrice:  money(q.BasePrice),
		ValuePrice: money(q.ValuePrice),
		Adjustment: money(q.Adjustment),
		FinalPrice: money(q.FinalPrice),
	}
}

func toSessionResponse(v *service.SessionView) SessionResponse {
	pool := make([]SwapOptionResponse, len(v.SwapPool))
	for i, o := range v.SwapPool {
		pool[i] = SwapOptionResponse{Product: toProductResponse(o.Product), Quantity: o.Quantity}
	}
	return SessionResponse{
		SessionID:   v.ID,
		PackageID:   v.Package.ID,
		PackageName: v.Package.Name,
		Items:       toBasketItems(v.Items),
		SwapPool:    pool,
		PendingSwap: v.PendingSwap,
		Quote:       toQuoteResponse(v.Quote),
		CanProceed:  v.CanProceed,
	}
}

func toHandoffResponse(h *checkout.Handoff) HandoffResponse {
	return HandoffResponse{
		SessionID:         h.SessionID,
		PackageID:         h.Package.ID,
		Basket:            toBasketItems(h.Basket),
		PackageBasePrice:  money(h.PackageBasePrice),
		PackageValuePrice: money(h.PackageValuePrice),
		PriceAdjustment:   money(h.PriceAdjustment),
		FinalPrice:        money(h.FinalPrice),
		ItemsTotalValue:   money(h.ItemsTotalValue),
		CreatedAt:         h.CreatedAt.Format(time.RFC3339),
	}
}
