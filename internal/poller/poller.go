package poller

import (
	"context"
	"encoding/json"
	"errors"

	c "github.com/fjod/go_basket/internal/cache"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	DefaultTopic   = "package-updates"
	DefaultGroupID = "basket-service-snapshots"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// packageUpdate is published by the package service whenever a package or one
// of its products changes.
type packageUpdate struct {
	PackageID string `json:"package_id"`
}

// Poller evicts cached package snapshots when the package service announces
// a change. Sessions already started keep their snapshot.
type Poller struct {
	reader messageReader
	cache  c.SnapshotCache
	logger *zap.Logger
}

func NewPoller(snapshots c.SnapshotCache, topic string, logger *zap.Logger, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  DefaultGroupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{reader: reader, cache: snapshots, logger: logger}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.evictUpdatedPackage(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.logger.Warn("error closing reader", zap.Error(err))
	}
}

func (p *Poller) evictUpdatedPackage(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			p.logger.Warn("error reading message", zap.Error(err))
		}
		return
	}

	var update packageUpdate
	if err := json.Unmarshal(m.Value, &update); err != nil {
		p.logger.Warn("error parsing message", zap.Int64("offset", m.Offset), zap.Error(err))
		return
	}
	if update.PackageID == "" {
		p.logger.Warn("missing package_id", zap.Int64("offset", m.Offset))
		return
	}

	if err := p.cache.Delete(ctx, update.PackageID); err != nil {
		p.logger.Warn("failed to evict snapshot", zap.String("package_id", update.PackageID), zap.Error(err))
		return
	}
	p.logger.Debug("snapshot evicted", zap.String("package_id", update.PackageID))
}
