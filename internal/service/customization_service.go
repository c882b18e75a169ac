package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/go_basket/internal/basket"
	"github.com/fjod/go_basket/internal/checkout"
	"github.com/fjod/go_basket/internal/domain"
	"github.com/fjod/go_basket/internal/pricing"
	"github.com/fjod/go_basket/internal/store"
	"go.uber.org/zap"
)

// SnapshotLoader fetches the catalog snapshot a session starts from.
type SnapshotLoader interface {
	Load(ctx context.Context, packageID string) (*domain.Package, error)
}

// SessionView is a read-only copy of a session taken under its lock.
type SessionView struct {
	ID          string
	Package     domain.Package
	Items       []domain.BasketItem
	SwapPool    []domain.PackageItem
	PendingSwap string
	Quote       pricing.Quote
	CanProceed  bool
}

type CustomizationService struct {
	loader         SnapshotLoader
	sessions       store.SessionStore
	publisher      checkout.Publisher
	logger         *zap.Logger
	publishTimeout time.Duration
}

func NewCustomizationService(
	loader SnapshotLoader,
	sessions store.SessionStore,
	publisher checkout.Publisher,
	logger *zap.Logger,
) *CustomizationService {
	return &CustomizationService{
		loader:         loader,
		sessions:       sessions,
		publisher:      publisher,
		logger:         logger,
		publishTimeout: 10 * time.Second,
	}
}

// StartSession loads the package once and seeds a new basket from it.
func (s *CustomizationService) StartSession(ctx context.Context, packageID string) (*SessionView, error) {
	pkg, err := s.loader.Load(ctx, packageID)
	if err != nil {
		s.logger.Warn("snapshot load failed", zap.String("package_id", packageID), zap.Error(err))
		return nil, fmt.Errorf("load package %s: %w", packageID, err)
	}

	session := basket.NewSession(*pkg)
	id, err := s.sessions.Create(session)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("session started",
		zap.String("session_id", id),
		zap.String("package_id", packageID),
		zap.Int("items", len(pkg.DefaultItems)),
		zap.Int("swap_options", len(pkg.SwapOptions)))

	return newView(id, session), nil
}

func (s *CustomizationService) GetSession(_ context.Context, sessionID string) (*SessionView, error) {
	var view *SessionView
	err := s.sessions.View(sessionID, func(session *basket.Session) error {
		view = newView(sessionID, session)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *CustomizationService) AdjustQuantity(_ context.Context, sessionID, productID string, delta int) (*SessionView, error) {
	return s.mutate(sessionID, "adjust_quantity", productID, func(session *basket.Session) bool {
		return session.AdjustQuantity(productID, delta)
	})
}

func (s *CustomizationService) RemoveItem(_ context.Context, sessionID, productID string) (*SessionView, error) {
	return s.mutate(sessionID, "remove_item", productID, func(session *basket.Session) bool {
		return session.RemoveItem(productID)
	})
}

func (s *CustomizationService) BeginSwap(_ context.Context, sessionID, productID string) (*SessionView, error) {
	return s.mutate(sessionID, "begin_swap", productID, func(session *basket.Session) bool {
		return session.BeginSwap(productID)
	})
}

func (s *CustomizationService) CompleteSwap(_ context.Context, sessionID, optionID string) (*SessionView, error) {
	return s.mutate(sessionID, "complete_swap", optionID, func(session *basket.Session) bool {
		return session.CompleteSwap(optionID)
	})
}

func (s *CustomizationService) CancelSwap(_ context.Context, sessionID string) (*SessionView, error) {
	return s.mutate(sessionID, "cancel_swap", "", func(session *basket.Session) bool {
		session.CancelSwap()
		return true
	})
}

func (s *CustomizationService) AddFromSwapPool(_ context.Context, sessionID, optionID string) (*SessionView, error) {
	return s.mutate(sessionID, "add_from_pool", optionID, func(session *basket.Session) bool {
		return session.AddFromSwapPool(optionID)
	})
}

// AbandonSession discards a session without handing it off.
func (s *CustomizationService) AbandonSession(_ context.Context, sessionID string) error {
	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	s.logger.Info("session abandoned", zap.String("session_id", sessionID))
	return nil
}

// Proceed hands the basket off to checkout and ends the session. The session
// stays open if the basket is empty or delivery fails. Other calls on the same
// session block until delivery returns, for up to publishTimeout.
func (s *CustomizationService) Proceed(ctx context.Context, sessionID string) (*checkout.Handoff, error) {
	var handoff *checkout.Handoff
	err := s.sessions.Finish(sessionID, func(session *basket.Session) error {
		h, err := checkout.NewHandoff(sessionID, session)
		if err != nil {
			return err
		}

		pubCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
		defer cancel()
		if err := s.publisher.Publish(pubCtx, h); err != nil {
			s.logger.Error("handoff delivery failed", zap.String("session_id", sessionID), zap.Error(err))
			return fmt.Errorf("%w: %v", ErrHandoffFailed, err)
		}

		handoff = h
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("session handed off",
		zap.String("session_id", sessionID),
		zap.String("final_price", handoff.FinalPrice.StringFixed(2)))
	return handoff, nil
}

func (s *CustomizationService) mutate(sessionID, op, productID string, fn func(*basket.Session) bool) (*SessionView, error) {
	var view *SessionView
	err := s.sessions.Update(sessionID, func(session *basket.Session) error {
		if !fn(session) {
			s.logger.Debug("basket operation ignored",
				zap.String("session_id", sessionID),
				zap.String("op", op),
				zap.String("product_id", productID))
		}
		view = newView(sessionID, session)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func newView(id string, session *basket.Session) *SessionView {
	pending, _ := session.PendingSwap()
	return &SessionView{
		ID:          id,
		Package:     session.Package(),
		Items:       session.Items(),
		SwapPool:    session.SwapPool(),
		PendingSwap: pending,
		Quote:       session.Quote(),
		CanProceed:  !session.IsEmpty(),
	}
}
