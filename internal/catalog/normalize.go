package catalog

import (
	"github.com/fjod/go_basket/internal/domain"
)

const (
	DefaultUnit  = "unit"
	DefaultStock = 999
)

// Normalize converts a package record into the snapshot used by a session,
// filling absent product fields with permissive defaults.
func Normalize(rec *PackageRecord) domain.Package {
	pkg := domain.Package{
		ID:           rec.ID,
		Name:         rec.Name,
		Image:        rec.Image,
		BasePrice:    rec.BasePrice,
		ValuePrice:   rec.ValuePrice,
		DefaultItems: normalizeItems(rec.DefaultItems),
		SwapOptions:  normalizeItems(rec.SwapOptions),
	}
	if rec.Description != nil {
		pkg.Description = *rec.Description
	}
	return pkg
}

func normalizeItems(records []ItemRecord) []domain.PackageItem {
	items := make([]domain.PackageItem, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.Product == nil || r.Product.ID == "" {
			continue
		}
		if _, dup := seen[r.Product.ID]; dup {
			continue
		}
		seen[r.Product.ID] = struct{}{}

		quantity := r.Quantity
		if quantity < 1 {
			quantity = 1
		}
		items = append(items, domain.PackageItem{
			Product:  normalizeProduct(r.Product),
			Quantity: quantity,
		})
	}
	return items
}

func normalizeProduct(r *ProductRecord) domain.Product {
	p := domain.Product{
		ID:           r.ID,
		Name:         r.Name,
		Category:     r.Category,
		Unit:         DefaultUnit,
		Price:        r.Price,
		Image:        r.Image,
		IsAvailable:  true,
		CountInStock: DefaultStock,
	}
	if r.Unit != nil && *r.Unit != "" {
		p.Unit = *r.Unit
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.IsAvailable != nil {
		p.IsAvailable = *r.IsAvailable
	}
	if r.CountInStock != nil {
		p.CountInStock = max(0, *r.CountInStock)
	}
	return p
}
