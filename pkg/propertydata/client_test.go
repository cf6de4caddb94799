package propertydata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashdown-property/splitscan/internal/model"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(1000))
}

func TestSoldPrices(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sold-prices", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "L4 0TH", r.URL.Query().Get("postcode"))
		_, _ = w.Write([]byte(`{
			"status": "success",
			"data": {
				"raw_data": [
					{"address": "12 Oak Street", "price": 95000, "date": "2025-06-12", "type": "flat", "tenure": "L"},
					{"address": "7 Elm Road", "price": 120000, "date": "bad-date", "type": "terraced_house"}
				]
			}
		}`))
	})

	recs, err := c.SoldPrices(context.Background(), "L4 0TH")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "12 Oak Street", recs[0].Address)
	assert.Equal(t, int64(95000), recs[0].Price)
	assert.Equal(t, "F", recs[0].PropertyType)
	assert.Equal(t, model.SourcePropertyData, recs[0].Source)
}

func TestAreaStats(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/prices-per-sqm", r.URL.Path)
		_, _ = w.Write([]byte(`{"status": "success", "data": {"average_price_per_sqm": 1895.5, "points_analysed": 42}}`))
	})

	stats, err := c.AreaStats(context.Background(), "L4")
	require.NoError(t, err)
	assert.Equal(t, "L4", stats.PostcodeDistrict)
	assert.Equal(t, 1895.5, stats.AvgPricePerSqm)
	assert.Equal(t, 42, stats.SampleSize)
}

func TestAreaStatsNoData(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "success", "data": {"average_price_per_sqm": 0}}`))
	})

	_, err := c.AreaStats(context.Background(), "ZZ99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no pricing data")
}

func TestAVM(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/valuation-sale", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("bedrooms"))
		_, _ = w.Write([]byte(`{"status": "success", "result": {"estimate": 96000, "margin_low": 88000, "margin_high": 104000}}`))
	})

	est, err := c.AVM(context.Background(), "L4 0TH", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(96000), est)
}

func TestErrorStatuses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantMsg string
	}{
		{"unauthorized", http.StatusUnauthorized, "invalid API key"},
		{"rate limited", http.StatusTooManyRequests, "rate limit exceeded"},
		{"server error", http.StatusInternalServerError, "http 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := c.SoldPrices(context.Background(), "L4 0TH")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestMissingAPIKey(t *testing.T) {
	c := NewClient("")
	_, err := c.SoldPrices(context.Background(), "L4 0TH")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not configured")
}
