package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Metrics)
	router.Get("/widgets/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, id := range []string{"1", "2", "3"} {
		req := httptest.NewRequest(http.MethodGet, "/widgets/"+id, nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	// Three distinct URLs land on one label, the route pattern.
	count := testutil.ToFloat64(
		requestsTotal.WithLabelValues(http.MethodGet, "/widgets/{id}", "200"),
	)
	assert.Equal(t, 3.0, count)
}

func TestMetrics_UnmatchedRoutesShareLabel(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Metrics)
	router.Get("/known", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, path := range []string{"/nope", "/also/nope", "/still/nope"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	count := testutil.ToFloat64(
		requestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404"),
	)
	assert.Equal(t, 3.0, count)
}
