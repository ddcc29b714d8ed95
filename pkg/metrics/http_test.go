package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRecordsLabeledSeries(t *testing.T) {
	m := NewHTTPMetrics()
	m.Observe(http.MethodGet, "/users/all", 200, 25*time.Millisecond)
	m.Observe(http.MethodGet, "/users/all", 200, 30*time.Millisecond)
	m.Observe(http.MethodPost, "/users/signup", 409, time.Millisecond)

	families, err := m.registry.Gather()
	require.NoError(t, err)

	var requests *dto.MetricFamily
	for _, fam := range families {
		if fam.GetName() == "http_requests_total" {
			requests = fam
		}
	}
	require.NotNil(t, requests)

	byStatus := map[string]float64{}
	for _, metric := range requests.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "status" {
				byStatus[label.GetValue()] += metric.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, float64(2), byStatus["200"])
	assert.Equal(t, float64(1), byStatus["409"])
}

func TestMiddlewareCountsAndServesScrape(t *testing.T) {
	m := NewHTTPMetrics()
	handler := m.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/users/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	scrape := httptest.NewRecorder()
	m.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, scrape.Code)
	assert.True(t, strings.Contains(scrape.Body.String(), "http_requests_total"))
}
