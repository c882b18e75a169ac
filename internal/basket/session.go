package basket

import (
	"slices"

	"github.com/fjod/go_basket/internal/domain"
	"github.com/fjod/go_basket/internal/pricing"
)

// Session is the mutable working state of one package customization.
//
// A product is either in the basket or offered in the swap pool, never both.
// Options leave the pool when they are swapped in or added and do not return
// when the item is later removed from the basket.
type Session struct {
	pkg         domain.Package
	items       []domain.BasketItem
	pool        []domain.PackageItem
	pendingSwap *string
}

// NewSession seeds the basket from the package defaults and the pool from its
// swap options.
func NewSession(pkg domain.Package) *Session {
	s := &Session{
		pkg:   pkg,
		items: make([]domain.BasketItem, 0, len(pkg.DefaultItems)),
		pool:  make([]domain.PackageItem, 0, len(pkg.SwapOptions)),
	}
	for _, d := range pkg.DefaultItems {
		if d.Quantity <= 0 || s.indexOfItem(d.Product.ID) >= 0 {
			continue
		}
		s.items = append(s.items, domain.BasketItem{Product: d.Product, Quantity: d.Quantity})
	}
	for _, o := range pkg.SwapOptions {
		if s.indexOfItem(o.Product.ID) >= 0 || s.indexOfOption(o.Product.ID) >= 0 {
			continue
		}
		s.pool = append(s.pool, o)
	}
	return s
}

func (s *Session) Package() domain.Package {
	return s.pkg
}

// Items returns a copy of the basket in insertion order.
func (s *Session) Items() []domain.BasketItem {
	return slices.Clone(s.items)
}

// SwapPool returns a copy of the options still on offer.
func (s *Session) SwapPool() []domain.PackageItem {
	return slices.Clone(s.pool)
}

// PendingSwap returns the product currently marked for replacement.
func (s *Session) PendingSwap() (string, bool) {
	if s.pendingSwap == nil {
		return "", false
	}
	return *s.pendingSwap, true
}

func (s *Session) IsEmpty() bool {
	return len(s.items) == 0
}

// Quote recomputes the price from the current basket.
func (s *Session) Quote() pricing.Quote {
	return pricing.Calculate(s.items, s.pkg.BasePrice, s.pkg.ValuePrice)
}

// AdjustQuantity changes an item's quantity by delta, clamping at zero.
// An item that reaches zero is removed. Stock is not enforced here.
func (s *Session) AdjustQuantity(productID string, delta int) bool {
	i := s.indexOfItem(productID)
	if i < 0 {
		return false
	}
	quantity := max(0, s.items[i].Quantity+delta)
	if quantity == 0 {
		s.removeAt(i)
		return true
	}
	s.items[i].Quantity = quantity
	return true
}

// RemoveItem drops the item from the basket. The product is not offered again.
func (s *Session) RemoveItem(productID string) bool {
	i := s.indexOfItem(productID)
	if i < 0 {
		return false
	}
	s.removeAt(i)
	return true
}

// BeginSwap marks a basket item for replacement, overwriting any earlier mark.
func (s *Session) BeginSwap(productID string) bool {
	if s.indexOfItem(productID) < 0 {
		return false
	}
	s.pendingSwap = &productID
	return true
}

func (s *Session) CancelSwap() {
	s.pendingSwap = nil
}

// CompleteSwap replaces the pending item with the chosen option at the same
// quantity. Unavailable or unknown options leave the session untouched.
func (s *Session) CompleteSwap(optionID string) bool {
	if s.pendingSwap == nil {
		return false
	}
	oi := s.indexOfOption(optionID)
	if oi < 0 || !s.pool[oi].Product.IsAvailable {
		return false
	}
	target := s.indexOfItem(*s.pendingSwap)
	if target < 0 {
		s.pendingSwap = nil
		return false
	}

	option := s.pool[oi]
	s.items[target] = domain.BasketItem{Product: option.Product, Quantity: s.items[target].Quantity}
	s.pool = slices.Delete(s.pool, oi, oi+1)
	s.pendingSwap = nil
	return true
}

// AddFromSwapPool moves an option into the basket with quantity one, or
// bumps the quantity if the product is already there.
func (s *Session) AddFromSwapPool(optionID string) bool {
	oi := s.indexOfOption(optionID)
	if oi < 0 || !s.pool[oi].Product.IsAvailable {
		return false
	}

	option := s.pool[oi]
	if i := s.indexOfItem(optionID); i >= 0 {
		s.items[i].Quantity++
	} else {
		s.items = append(s.items, domain.BasketItem{Product: option.Product, Quantity: 1})
	}
	s.pool = slices.Delete(s.pool, oi, oi+1)
	return true
}

func (s *Session) removeAt(i int) {
	if s.pendingSwap != nil && *s.pendingSwap == s.items[i].Product.ID {
		s.pendingSwap = nil
	}
	s.items = slices.Delete(s.items, i, i+1)
}

func (s *Session) indexOfItem(productID string) int {
	return slices.IndexFunc(s.items, func(item domain.BasketItem) bool {
		return item.Product.ID == productID
	})
}

func (s *Session) indexOfOption(productID string) int {
	return slices.IndexFunc(s.pool, func(o domain.PackageItem) bool {
		return o.Product.ID == productID
	})
}
