package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/models", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/models", nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestTotal.WithLabelValues("GET", "/api/models", "418")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.requestInFlight))
}

func TestObserveExtractionAndAnswer(t *testing.T) {
	m := New()

	m.ObserveExtraction("pdf", "ok", 1200)
	m.ObserveExtraction("", "unsupported", 0)
	m.ObserveAnswer("roberta-base", "answered", 20*time.Millisecond)
	m.ObserveTruncation()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.extractionsTotal.WithLabelValues("pdf", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.extractionsTotal.WithLabelValues("unknown", "unsupported")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.answersTotal.WithLabelValues("roberta-base", "answered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.truncationsTotal))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.ObserveTruncation()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "contexta_answer_context_truncations_total 1"))
}
