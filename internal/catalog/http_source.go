package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// HTTPSource fetches packages from the package service REST API.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*PackageRecord]
}

type HTTPSourceOption func(*HTTPSource)

// WithHTTPClient replaces the default instrumented client.
func WithHTTPClient(client *http.Client) HTTPSourceOption {
	return func(s *HTTPSource) {
		s.client = client
	}
}

func NewHTTPSource(baseURL string, timeout time.Duration, logger *zap.Logger, opts ...HTTPSourceOption) *HTTPSource {
	s := &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.breaker = gobreaker.NewCircuitBreaker[*PackageRecord](gobreaker.Settings{
		Name:        "package-service",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrPackageNotFound) || errors.Is(err, errCallerAborted)
		},
	})
	return s
}

func (s *HTTPSource) GetPackage(ctx context.Context, packageID string) (*PackageRecord, error) {
	rec, err := s.breaker.Execute(func() (*PackageRecord, error) {
		rec, err := s.fetch(ctx, packageID)
		if err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("%w (%w): %w", errCallerAborted, ctx.Err(), err)
		}
		return rec, err
	})
	if err != nil {
		if errors.Is(err, ErrPackageNotFound) || errors.Is(err, ErrCatalogUnavailable) {
			return nil, err
		}
		// open or half-open breaker rejections
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return rec, nil
}

func (s *HTTPSource) fetch(ctx context.Context, packageID string) (*PackageRecord, error) {
	endpoint := fmt.Sprintf("%s/api/packages/%s", s.baseURL, url.PathEscape(packageID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrCatalogUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, packageID)
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: package service returned %d", ErrCatalogUnavailable, resp.StatusCode)
	}

	var rec PackageRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: decode package: %v", ErrCatalogUnavailable, err)
	}
	return &rec, nil
}
