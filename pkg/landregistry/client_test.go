package landregistry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashdown-property/splitscan/internal/model"
)

const transactionsFixture = `{
  "result": {
    "items": [
      {
        "pricePaid": 95000,
        "transactionDate": "2025-06-12",
        "newBuild": false,
        "propertyAddress": {"paon": "12", "street": "OAK STREET", "town": "LIVERPOOL", "postcode": "L4 0TH"},
        "propertyType": {"label": ["flat-maisonette"]},
        "estateType": {"label": ["leasehold"]}
      },
      {
        "pricePaid": 120000,
        "transactionDate": "2025-03-02",
        "newBuild": true,
        "propertyAddress": {"paon": "7", "street": "ELM ROAD", "town": "LIVERPOOL", "postcode": "L4 2Qd"},
        "propertyType": {"label": ["terraced"]},
        "estateType": {"label": ["freehold"]}
      },
      {
        "pricePaid": 80000,
        "transactionDate": "not-a-date",
        "propertyAddress": {"paon": "9", "postcode": "L4 3AB"},
        "propertyType": {"label": ["flat-maisonette"]},
        "estateType": {"label": []}
      }
    ]
  }
}`

const hpiFixture = `{
  "result": {
    "items": [
      {"refMonth": "2025-12", "housePriceIndex": 108.4},
      {"refMonth": "2026-01", "housePriceIndex": 109.1}
    ]
  }
}`

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(
		WithBaseURLs(srv.URL+"/ppd", srv.URL+"/hpi"),
		WithRateLimit(1000),
	)
}

func TestPricesPaid(t *testing.T) {
	var gotQuery string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(transactionsFixture))
	})

	since := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	recs, err := c.PricesPaid(context.Background(), "L4", since)
	require.NoError(t, err)

	// the malformed third record is skipped, not fatal
	require.Len(t, recs, 2)

	assert.Equal(t, "12 OAK STREET", recs[0].Address)
	assert.Equal(t, int64(95000), recs[0].Price)
	assert.Equal(t, "F", recs[0].PropertyType)
	assert.Equal(t, "L", recs[0].TenureType)
	assert.Equal(t, model.SourceLandRegistry, recs[0].Source)

	assert.Equal(t, "T", recs[1].PropertyType)
	assert.Equal(t, "F", recs[1].TenureType)
	assert.True(t, recs[1].NewBuild)

	assert.Contains(t, gotQuery, "min-transactionDate=2025-01-01")
	assert.Contains(t, gotQuery, "L4")
}

func TestPricesPaidRetriesServerErrors(t *testing.T) {
	attempts := 0
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(transactionsFixture))
	})

	recs, err := c.PricesPaid(context.Background(), "L4", time.Now().AddDate(-1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Len(t, recs, 2)
}

func TestPricesPaidGivesUpAfterMaxRetries(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.PricesPaid(context.Background(), "L4", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retries exhausted")
}

func TestPricesPaidClientErrorIsNotRetried(t *testing.T) {
	attempts := 0
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.PricesPaid(context.Background(), "L4", time.Now())
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestPriceIndex(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "north-west")
		_, _ = w.Write([]byte(hpiFixture))
	})

	index, err := c.PriceIndex(context.Background(), "north-west")
	require.NoError(t, err)
	require.Len(t, index.Points, 2)

	latest, ok := index.Latest()
	require.True(t, ok)
	assert.Equal(t, 109.1, latest.Value)

	at, ok := index.At(time.Date(2025, time.December, 20, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 108.4, at)
}

func TestPriceIndexEmptySeries(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result": {"items": []}}`))
	})

	_, err := c.PriceIndex(context.Background(), "north-west")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty index series")
}
