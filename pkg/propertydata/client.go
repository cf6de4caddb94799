// Package propertydata provides a client for the PropertyData.co.uk API:
// sold prices, area statistics and automated valuation estimates.
package propertydata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ashdown-property/splitscan/internal/model"
)

const defaultBaseURL = "https://api.propertydata.co.uk"

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the API endpoint, primarily for tests.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = base }
}

// WithRateLimit sets the requests-per-second limit. The API contract is one
// request per second on standard plans.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// Client calls the PropertyData API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	log        *zap.Logger
}

// NewClient creates a PropertyData client with the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(1, 1),
		log:        zap.L().Named("propertydata"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type soldPricesResponse struct {
	Status string `json:"status"`
	Data   struct {
		RawData []struct {
			Address string `json:"address"`
			Price   int64  `json:"price"`
			Date    string `json:"date"`
			Type    string `json:"type"`
			Tenure  string `json:"tenure,omitempty"`
		} `json:"raw_data"`
	} `json:"data"`
}

// SoldPrices fetches recent sold transactions near a postcode.
func (c *Client) SoldPrices(ctx context.Context, postcode string) ([]model.ComparableRecord, error) {
	var resp soldPricesResponse
	if err := c.get(ctx, "/sold-prices", url.Values{"postcode": {postcode}}, &resp); err != nil {
		return nil, eris.Wrap(err, "propertydata: sold prices")
	}

	out := make([]model.ComparableRecord, 0, len(resp.Data.RawData))
	for _, raw := range resp.Data.RawData {
		saleDate, err := time.Parse("2006-01-02", raw.Date)
		if err != nil {
			c.log.Warn("skipping sold price with malformed date", zap.String("date", raw.Date))
			continue
		}
		out = append(out, model.ComparableRecord{
			Address:      raw.Address,
			Postcode:     postcode,
			Price:        raw.Price,
			SaleDate:     saleDate,
			PropertyType: typeCode(raw.Type),
			TenureType:   raw.Tenure,
			Source:       model.SourcePropertyData,
		})
	}
	return out, nil
}

func typeCode(t string) string {
	switch t {
	case "flat", "F":
		return "F"
	case "terraced_house", "T":
		return "T"
	case "semi-detached_house", "S":
		return "S"
	case "detached_house", "D":
		return "D"
	default:
		return "O"
	}
}

type areaStatsResponse struct {
	Status string `json:"status"`
	Data   struct {
		PricePerSqm float64 `json:"average_price_per_sqm"`
		SampleSize  int     `json:"points_analysed"`
	} `json:"data"`
}

// AreaStats fetches average pricing statistics for a postcode district.
func (c *Client) AreaStats(ctx context.Context, district string) (*model.AreaStatistics, error) {
	var resp areaStatsResponse
	if err := c.get(ctx, "/prices-per-sqm", url.Values{"postcode": {district}}, &resp); err != nil {
		return nil, eris.Wrap(err, "propertydata: area stats")
	}
	if resp.Data.PricePerSqm <= 0 {
		return nil, eris.Errorf("propertydata: no pricing data for district %s", district)
	}
	return &model.AreaStatistics{
		PostcodeDistrict: district,
		AvgPricePerSqm:   resp.Data.PricePerSqm,
		SampleSize:       resp.Data.SampleSize,
		AsOf:             time.Now().UTC(),
	}, nil
}

type valuationResponse struct {
	Status string `json:"status"`
	Result struct {
		Estimate int64 `json:"estimate"`
		Low      int64 `json:"margin_low"`
		High     int64 `json:"margin_high"`
	} `json:"result"`
}

// AVM fetches the automated valuation estimate for a unit in the postcode.
func (c *Client) AVM(ctx context.Context, postcode string, bedrooms int) (int64, error) {
	params := url.Values{"postcode": {postcode}}
	if bedrooms > 0 {
		params.Set("bedrooms", fmt.Sprintf("%d", bedrooms))
	}
	var resp valuationResponse
	if err := c.get(ctx, "/valuation-sale", params, &resp); err != nil {
		return 0, eris.Wrap(err, "propertydata: valuation")
	}
	if resp.Result.Estimate <= 0 {
		return 0, eris.Errorf("propertydata: no valuation estimate for %s", postcode)
	}
	return resp.Result.Estimate, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if c.apiKey == "" {
		return eris.New("propertydata: API key not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "rate limiter wait")
	}

	params.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrap(err, "do request")
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return eris.New("invalid API key")
	case http.StatusTooManyRequests:
		return eris.New("rate limit exceeded")
	default:
		return eris.Errorf("http %d from %s", resp.StatusCode, endpoint)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}
