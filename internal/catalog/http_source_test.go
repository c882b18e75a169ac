package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSource(t *testing.T, handler http.HandlerFunc) (*HTTPSource, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPSource(srv.URL, 2*time.Second, zap.NewNop(), WithHTTPClient(srv.Client())), srv
}

func TestHTTPSource_GetPackage_Success(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/packages/pkg-1", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(packageJSON))
	})

	rec, err := src.GetPackage(context.Background(), "pkg-1")
	require.NoError(t, err)
	assert.Equal(t, "pkg-1", rec.ID)
	assert.Len(t, rec.DefaultItems, 4)
	assert.Len(t, rec.SwapOptions, 1)
}

func TestHTTPSource_GetPackage_NotFound(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := src.GetPackage(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPackageNotFound)
}

func TestHTTPSource_GetPackage_ServerErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"InternalError", http.StatusInternalServerError, "boom"},
		{"BadGateway", http.StatusBadGateway, ""},
		{"Unauthorized", http.StatusUnauthorized, ""},
		{"MalformedBody", http.StatusOK, `{"_id": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := src.GetPackage(context.Background(), "pkg-1")
			assert.ErrorIs(t, err, ErrCatalogUnavailable)
		})
	}
}

func TestHTTPSource_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	var hits atomic.Int32
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	for i := 0; i < 8; i++ {
		_, err := src.GetPackage(context.Background(), "pkg-1")
		assert.ErrorIs(t, err, ErrCatalogUnavailable)
	}

	assert.Equal(t, int32(5), hits.Load())
}

func TestHTTPSource_CallerAbortsDoNotTripBreaker(t *testing.T) {
	var hits atomic.Int32
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-time.After(200 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(packageJSON))
	})

	for i := 0; i < 6; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		_, err := src.GetPackage(ctx, "pkg-1")
		cancel()
		assert.ErrorIs(t, err, ErrCatalogUnavailable)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	}

	rec, err := src.GetPackage(context.Background(), "pkg-1")
	require.NoError(t, err)
	assert.Equal(t, "pkg-1", rec.ID)
	assert.Equal(t, int32(7), hits.Load())
}

func TestHTTPSource_NotFoundDoesNotTripBreaker(t *testing.T) {
	var hits atomic.Int32
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	})

	for i := 0; i < 8; i++ {
		_, err := src.GetPackage(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrPackageNotFound)
	}

	assert.Equal(t, int32(8), hits.Load())
}

func TestHTTPSource_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	src := NewHTTPSource(srv.URL, time.Second, zap.NewNop())

	_, err := src.GetPackage(context.Background(), "pkg-1")
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}
