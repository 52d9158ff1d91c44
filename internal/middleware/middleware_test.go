package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"github.com/alovak/securepay/internal/metrics"
)

func newLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, nil))
}

func TestStructuredLogger_LogsRoutePatternNotPath(t *testing.T) {
	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(NewStructuredLogger(newLogger(&buf)))
	r.Get("/secure-payment/{token}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	secret := "eyJhbGciOiJIUzI1NiJ9.c2VjcmV0.c2ln"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/secure-payment/"+secret, nil))

	out := buf.String()
	require.Contains(t, out, `"route":"/secure-payment/{token}"`)
	require.Contains(t, out, `"status":403`)
	require.NotContains(t, out, secret)
}

func TestStructuredLogger_SkipsHealthyProbes(t *testing.T) {
	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(NewStructuredLogger(newLogger(&buf)))
	r.Get("/-/live", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/-/live", nil))
	require.Empty(t, buf.String())
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	t.Run("keeps valid client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		require.Equal(t, "abc-123", seen)
		require.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	})

	t.Run("replaces unsafe id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "bad id\nforged=1")
		h.ServeHTTP(httptest.NewRecorder(), req)
		_, err := uuid.Parse(seen)
		require.NoError(t, err)
	})

	t.Run("replaces oversized id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("a", MaxRequestIDLength+1))
		h.ServeHTTP(httptest.NewRecorder(), req)
		require.Len(t, seen, 36)
	})
}

func TestRecoverer(t *testing.T) {
	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(Recoverer(newLogger(&buf)))
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, buf.String(), "panic recovered")
}

func TestLatency(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(Latency(m))
	r.Get("/secure-payment/{token}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/secure-payment/x", nil))
	require.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequestDurationSeconds))
}
