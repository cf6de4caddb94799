// Package landregistry provides a client for HM Land Registry open data: the
// Price Paid linked-data API and the UK House Price Index.
package landregistry

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

const (
	defaultPPDBaseURL = "https://landregistry.data.gov.uk/data/ppi/transaction-record.json"
	defaultHPIBaseURL = "https://landregistry.data.gov.uk/data/ukhpi/region"
	defaultPageSize   = 100
)

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURLs overrides the API endpoints, primarily for tests.
func WithBaseURLs(ppd, hpi string) Option {
	return func(c *Client) {
		c.ppdBaseURL = ppd
		c.hpiBaseURL = hpi
	}
}

// WithRateLimit sets the requests-per-second limit for API calls.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// Client calls the Land Registry open data APIs.
type Client struct {
	httpClient *http.Client
	ppdBaseURL string
	hpiBaseURL string
	limiter    *rate.Limiter
	maxRetries int
	log        *zap.Logger
}

// NewClient creates a Land Registry client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		ppdBaseURL: defaultPPDBaseURL,
		hpiBaseURL: defaultHPIBaseURL,
		limiter:    rate.NewLimiter(2, 1),
		maxRetries: 3,
		log:        zap.L().Named("landregistry"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// transactionEnvelope mirrors the linked-data result wrapper.
type transactionEnvelope struct {
	Result struct {
		Items []transactionItem `json:"items"`
	} `json:"result"`
}

type transactionItem struct {
	PricePaid       int64  `json:"pricePaid"`
	TransactionDate string `json:"transactionDate"`
	NewBuild        bool   `json:"newBuild"`
	PropertyAddress struct {
		Paon     string `json:"paon"`
		Street   string `json:"street"`
		Town     string `json:"town"`
		Postcode string `json:"postcode"`
	} `json:"propertyAddress"`
	PropertyType struct {
		Label []string `json:"label"`
	} `json:"propertyType"`
	EstateType struct {
		Label []string `json:"label"`
	} `json:"estateType"`
}

// PricesPaid fetches sold transactions for a postcode district since the
// given date.
func (c *Client) PricesPaid(ctx context.Context, district string, since time.Time) ([]model.ComparableRecord, error) {
	params := url.Values{}
	params.Set("propertyAddress.postcode", district)
	params.Set("min-transactionDate", since.Format("2006-01-02"))
	params.Set("_pageSize", fmt.Sprintf("%d", defaultPageSize))

	var env transactionEnvelope
	if err := c.getJSON(ctx, c.ppdBaseURL+"?"+params.Encode(), &env); err != nil {
		return nil, eris.Wrap(err, "landregistry: prices paid")
	}

	out := make([]model.ComparableRecord, 0, len(env.Result.Items))
	for _, item := range env.Result.Items {
		rec, err := item.toRecord()
		if err != nil {
			c.log.Warn("skipping malformed transaction", zap.Error(err))
			continue
		}
		out = append(out, rec)
	}
	c.log.Debug("prices paid fetched", zap.String("district", district), zap.Int("count", len(out)))
	return out, nil
}

func (t transactionItem) toRecord() (model.ComparableRecord, error) {
	saleDate, err := time.Parse("2006-01-02", t.TransactionDate)
	if err != nil {
		return model.ComparableRecord{}, eris.Wrapf(err, "parse transaction date %q", t.TransactionDate)
	}
	address := t.PropertyAddress.Paon
	if t.PropertyAddress.Street != "" {
		address += " " + t.PropertyAddress.Street
	}
	return model.ComparableRecord{
		Address:      address,
		Postcode:     t.PropertyAddress.Postcode,
		Price:        t.PricePaid,
		SaleDate:     saleDate,
		PropertyType: propertyTypeCode(firstLabel(t.PropertyType.Label)),
		NewBuild:     t.NewBuild,
		TenureType:   tenureCode(firstLabel(t.EstateType.Label)),
		Source:       model.SourceLandRegistry,
	}, nil
}

func firstLabel(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	return labels[0]
}

func propertyTypeCode(label string) string {
	switch label {
	case "flat-maisonette", "Flat-maisonette":
		return "F"
	case "terraced", "Terraced":
		return "T"
	case "semi-detached", "Semi-detached":
		return "S"
	case "detached", "Detached":
		return "D"
	default:
		return "O"
	}
}

func tenureCode(label string) string {
	switch label {
	case "freehold", "Freehold":
		return "F"
	case "leasehold", "Leasehold":
		return "L"
	default:
		return ""
	}
}

// hpiEnvelope mirrors the UKHPI result wrapper.
type hpiEnvelope struct {
	Result struct {
		Items []struct {
			RefMonth        string  `json:"refMonth"`
			HousePriceIndex float64 `json:"housePriceIndex"`
		} `json:"items"`
	} `json:"result"`
}

// PriceIndex fetches the house price index series for a region.
func (c *Client) PriceIndex(ctx context.Context, region string) (*model.PriceIndex, error) {
	u := fmt.Sprintf("%s/%s.json", c.hpiBaseURL, url.PathEscape(region))

	var env hpiEnvelope
	if err := c.getJSON(ctx, u, &env); err != nil {
		return nil, eris.Wrap(err, "landregistry: price index")
	}

	index := &model.PriceIndex{Region: region}
	for _, item := range env.Result.Items {
		month, err := time.Parse("2006-01", item.RefMonth)
		if err != nil {
			c.log.Warn("skipping malformed index month", zap.String("month", item.RefMonth))
			continue
		}
		index.Points = append(index.Points, model.IndexPoint{Month: month, Value: item.HousePriceIndex})
	}
	if len(index.Points) == 0 {
		return nil, eris.Errorf("landregistry: empty index series for region %s", region)
	}
	return index, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return eris.Wrap(err, "create request")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			c.log.Warn("request failed, retrying", zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("http %d from %s", resp.StatusCode, rawURL)
			c.log.Warn("retryable status", zap.Int("status", resp.StatusCode), zap.Int("attempt", attempt+1))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return eris.Errorf("http %d from %s", resp.StatusCode, rawURL)
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		_ = resp.Body.Close()
		if err != nil {
			return eris.Wrap(err, "decode response")
		}
		return nil
	}
	return eris.Wrap(lastErr, "all retries exhausted")
}
