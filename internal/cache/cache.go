package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_basket/internal/domain"
)

// SnapshotCache stores normalized package snapshots by package id.
type SnapshotCache interface {
	Get(ctx context.Context, packageID string) (*domain.Package, error)
	Set(ctx context.Context, packageID string, pkg *domain.Package) error
	Delete(ctx context.Context, packageID string) error
}

var ErrCacheMiss = errors.New("cache miss")
