package observability

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedRouter(t *testing.T) (chi.Router, *observer.ObservedLogs, *Metrics) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	metrics := NewMetrics()
	r := chi.NewRouter()
	r.Use(
		InjectLoggerMiddleware(zap.New(core)),
		RequestLoggerMiddleware(metrics),
		RecoveryMiddleware(nil),
	)
	return r, logs, metrics
}

func completed(t *testing.T, logs *observer.ObservedLogs) observer.LoggedEntry {
	t.Helper()
	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	return entries[0]
}

func TestRequestLoggerRecordsRoutePattern(t *testing.T) {
	r, logs, metrics := newObservedRouter(t)
	r.Get("/blog/{slug}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/blog/go-for-frontend-developers", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)

	entry := completed(t, logs)
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "/blog/{slug}", fields["route"])
	assert.Equal(t, "/blog/go-for-frontend-developers", fields["path"])
	assert.EqualValues(t, http.StatusNoContent, fields["status"])
	assert.Equal(t, "192.0.2.1", fields["remote_ip"])

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.httpRequests.WithLabelValues("GET", "/blog/{slug}", "204")))
}

func TestRequestLoggerLevels(t *testing.T) {
	r, logs, metrics := newObservedRouter(t)
	r.Get("/api/booking/slots", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad date", http.StatusBadRequest)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/booking/slots", nil))
	assert.Equal(t, zapcore.WarnLevel, completed(t, logs).Level)

	logs.TakeAll()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	entry := completed(t, logs)
	assert.Equal(t, unmatchedRoute, entry.ContextMap()["route"])
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.httpRequests.WithLabelValues("GET", unmatchedRoute, "404")))
}

func TestRecoveryWritesJSONError(t *testing.T) {
	r, logs, _ := newObservedRouter(t)
	r.Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("template exploded")
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "internal_server_error", body["error"])

	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
	assert.Equal(t, zapcore.ErrorLevel, completed(t, logs).Level)
}
