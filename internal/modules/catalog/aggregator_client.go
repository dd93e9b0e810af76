package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tripdesk/internal/domain"
)

// AggregatorClient is the HTTP implementation of InventoryAggregator.
type AggregatorClient struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func NewAggregatorClient(baseURL, apiKey string, timeout time.Duration) *AggregatorClient {
	return &AggregatorClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: timeout},
	}
}

func (c *AggregatorClient) SearchByCity(ctx context.Context, city, countryCode string) ([]HotelCandidate, error) {
	q := url.Values{}
	q.Set("city", city)
	q.Set("country", countryCode)

	var out []HotelCandidate
	if err := c.do(ctx, http.MethodGet, "/v1/hotels/search?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AggregatorClient) FindMatches(ctx context.Context, pkg *domain.TravelPackage) ([]HotelCandidate, error) {
	body := map[string]string{
		"name":         pkg.Name,
		"city":         pkg.City,
		"country_code": pkg.CountryCode,
	}
	var out []HotelCandidate
	if err := c.do(ctx, http.MethodPost, "/v1/hotels/match", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AggregatorClient) Link(ctx context.Context, localID, externalRef string) error {
	body := map[string]string{"local_id": localID, "external_ref": externalRef}
	return c.do(ctx, http.MethodPost, "/v1/hotels/link", body, nil)
}

func (c *AggregatorClient) Sync(ctx context.Context, localID string, fields SyncFields) error {
	return c.do(ctx, http.MethodPost, "/v1/hotels/"+localID+"/sync", fields, nil)
}

func (c *AggregatorClient) GetLivePricing(ctx context.Context, localID string, checkIn, checkOut time.Time, adults, children int) (float64, error) {
	q := url.Values{}
	q.Set("check_in", checkIn.Format("2006-01-02"))
	q.Set("check_out", checkOut.Format("2006-01-02"))
	q.Set("adults", fmt.Sprint(adults))
	q.Set("children", fmt.Sprint(children))

	var out struct {
		Price float64 `json:"price"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/hotels/"+localID+"/pricing?"+q.Encode(), nil, &out); err != nil {
		return 0, err
	}
	return out.Price, nil
}

func (c *AggregatorClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("aggregator %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("aggregator %s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("aggregator %s %s: status %d: %s", method, path, resp.StatusCode, string(raw))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("aggregator %s %s: decode: %w", method, path, err)
		}
	}
	return nil
}
