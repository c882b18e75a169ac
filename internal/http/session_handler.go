package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_basket/internal/catalog"
	"github.com/fjod/go_basket/internal/checkout"
	"github.com/fjod/go_basket/internal/service"
	"github.com/fjod/go_basket/internal/store"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxDelta = 99

// BasketService is the customization API the handlers drive.
type BasketService interface {
	StartSession(ctx context.Context, packageID string) (*service.SessionView, error)
	GetSession(ctx context.Context, sessionID string) (*service.SessionView, error)
	AdjustQuantity(ctx context.Context, sessionID, productID string, delta int) (*service.SessionView, error)
	RemoveItem(ctx context.Context, sessionID, productID string) (*service.SessionView, error)
	BeginSwap(ctx context.Context, sessionID, productID string) (*service.SessionView, error)
	CompleteSwap(ctx context.Context, sessionID, optionID string) (*service.SessionView, error)
	CancelSwap(ctx context.Context, sessionID string) (*service.SessionView, error)
	AddFromSwapPool(ctx context.Context, sessionID, optionID string) (*service.SessionView, error)
	Proceed(ctx context.Context, sessionID string) (*checkout.Handoff, error)
	AbandonSession(ctx context.Context, sessionID string) error
}

type SessionHandler struct {
	svc     BasketService
	timeout time.Duration
	logger  *zap.Logger
}

func NewSessionHandler(svc BasketService, timeout time.Duration, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		svc:     svc,
		timeout: timeout,
		logger:  logger,
	}
}

// Routes mounts the session endpoints on r.
func (h *SessionHandler) Routes(r chi.Router) {
	r.Post("/", h.StartSession)
	r.Route("/{session_id}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.AbandonSession)
		r.Post("/items/{product_id}/adjust", h.AdjustQuantity)
		r.Delete("/items/{product_id}", h.RemoveItem)
		r.Post("/swap", h.BeginSwap)
		r.Post("/swap/complete", h.CompleteSwap)
		r.Delete("/swap", h.CancelSwap)
		r.Post("/pool/{product_id}", h.AddFromSwapPool)
		r.Post("/checkout", h.Checkout)
	})
}

func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req StartSessionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	req.PackageID = strings.TrimSpace(req.PackageID)
	if req.PackageID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "package_id is required")
		return
	}

	view, err := h.svc.StartSession(ctx, req.PackageID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, toSessionResponse(view))
}

func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := h.svc.GetSession(ctx, chi.URLParam(r, "session_id"))
	h.respondView(w, r, view, err)
}

func (h *SessionHandler) AdjustQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AdjustQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Delta < -maxDelta || req.Delta > maxDelta {
		respondError(w, http.StatusBadRequest, "invalid_request", "delta must be between -99 and 99")
		return
	}

	view, err := h.svc.AdjustQuantity(ctx, chi.URLParam(r, "session_id"), chi.URLParam(r, "product_id"), req.Delta)
	h.respondView(w, r, view, err)
}

func (h *SessionHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := h.svc.RemoveItem(ctx, chi.URLParam(r, "session_id"), chi.URLParam(r, "product_id"))
	h.respondView(w, r, view, err)
}

func (h *SessionHandler) BeginSwap(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req BeginSwapRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "product_id is required")
		return
	}

	view, err := h.svc.BeginSwap(ctx, chi.URLParam(r, "session_id"), req.ProductID)
	h.respondView(w, r, view, err)
}

func (h *SessionHandler) CompleteSwap(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CompleteSwapRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OptionID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "option_id is required")
		return
	}

	view, err := h.svc.CompleteSwap(ctx, chi.URLParam(r, "session_id"), req.OptionID)
	h.respondView(w, r, view, err)
}

func (h *SessionHandler) CancelSwap(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := h.svc.CancelSwap(ctx, chi.URLParam(r, "session_id"))
	h.respondView(w, r, view, err)
}

func (h *SessionHandler) AddFromSwapPool(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := h.svc.AddFromSwapPool(ctx, chi.URLParam(r, "session_id"), chi.URLParam(r, "product_id"))
	h.respondView(w, r, view, err)
}

func (h *SessionHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	handoff, err := h.svc.Proceed(ctx, chi.URLParam(r, "session_id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toHandoffResponse(handoff))
}

func (h *SessionHandler) AbandonSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.svc.AbandonSession(ctx, chi.URLParam(r, "session_id")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) respondView(w http.ResponseWriter, r *http.Request, view *service.SessionView, err error) {
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSessionResponse(view))
}

func (h *SessionHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var httpStatus int
	var code string

	switch {
	case errors.Is(err, store.ErrSessionNotFound):
		httpStatus = http.StatusNotFound
		code = "session_not_found"
	case errors.Is(err, catalog.ErrPackageNotFound):
		httpStatus = http.StatusNotFound
		code = "package_not_found"
	case errors.Is(err, catalog.ErrCatalogUnavailable):
		httpStatus = http.StatusServiceUnavailable
		code = "catalog_unavailable"
	case errors.Is(err, checkout.ErrEmptyBasket):
		httpStatus = http.StatusUnprocessableEntity
		code = "empty_basket"
	case errors.Is(err, service.ErrHandoffFailed):
		httpStatus = http.StatusBadGateway
		code = "handoff_failed"
	case errors.Is(err, context.DeadlineExceeded):
		httpStatus = http.StatusGatewayTimeout
		code = "timeout"
	default:
		httpStatus = http.StatusInternalServerError
		code = "internal_error"
	}

	if httpStatus >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("request_id", getRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.String("code", code),
			zap.Error(err))
		respondError(w, httpStatus, code, http.StatusText(httpStatus))
		return
	}

	respondError(w, httpStatus, code, err.Error())
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
