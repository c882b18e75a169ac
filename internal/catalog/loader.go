package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_basket/internal/cache"
	"github.com/fjod/go_basket/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const DefaultFetchTimeout = 10 * time.Second

// Source reads raw package records from the package service or a local store.
type Source interface {
	GetPackage(ctx context.Context, packageID string) (*PackageRecord, error)
}

type Loader struct {
	source       Source
	cache        cache.SnapshotCache
	logger       *zap.Logger
	sfg          singleflight.Group
	fetchTimeout time.Duration
}

type LoaderOption func(*Loader)

// WithFetchTimeout bounds a shared fetch independently of the callers waiting on it.
func WithFetchTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		if d > 0 {
			l.fetchTimeout = d
		}
	}
}

// NewLoader builds a loader. snapshots may be nil to disable caching.
func NewLoader(source Source, snapshots cache.SnapshotCache, logger *zap.Logger, opts ...LoaderOption) *Loader {
	l := &Loader{
		source:       source,
		cache:        snapshots,
		logger:       logger,
		fetchTimeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the normalized snapshot of a package. Failures are reported as
// ErrPackageNotFound or ErrCatalogUnavailable.
//
// Concurrent loads of one package share a single fetch. The fetch is detached
// from the caller that started it, so a caller giving up only ends its own wait.
func (l *Loader) Load(ctx context.Context, packageID string) (*domain.Package, error) {
	ch := l.sfg.DoChan(packageID, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.fetchTimeout)
		defer cancel()
		return l.load(fetchCtx, packageID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Package), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, ctx.Err())
	}
}

func (l *Loader) load(ctx context.Context, packageID string) (*domain.Package, error) {
	if l.cache != nil {
		pkg, err := l.cache.Get(ctx, packageID)
		if err == nil {
			return pkg, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			l.logger.Warn("snapshot cache get failed", zap.String("package_id", packageID), zap.Error(err))
		}
	}

	rec, err := l.source.GetPackage(ctx, packageID)
	if err != nil {
		if errors.Is(err, ErrPackageNotFound) || errors.Is(err, ErrCatalogUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	pkg := Normalize(rec)
	if l.cache != nil {
		setCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := l.cache.Set(setCtx, packageID, &pkg); err != nil {
			l.logger.Warn("snapshot cache set failed", zap.String("package_id", packageID), zap.Error(err))
		}
	}
	return &pkg, nil
}
