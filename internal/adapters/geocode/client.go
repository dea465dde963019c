// Package geocode resolves postcodes over HTTP using a postcodes.io style
// bulk lookup API.
package geocode

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/marmstr93ng/PostcodeParse/internal/domain"
	"github.com/marmstr93ng/PostcodeParse/internal/platform/httpx"
	"github.com/marmstr93ng/PostcodeParse/internal/platform/obs"
)

// The bulk endpoint accepts at most 100 postcodes per request.
const batchSize = 100

type bulkRequest struct {
	Postcodes []string `json:"postcodes"`
}

type bulkResponse struct {
	Status int `json:"status"`
	Result []struct {
		Query  string `json:"query"`
		Result *struct {
			Postcode  string   `json:"postcode"`
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
		} `json:"result"`
	} `json:"result"`
}

// Client implements ports.Locator against a postcodes.io style API.
//
// Batches are issued sequentially; transient failures are retried with
// backoff. Postcodes the service does not know are absent from the result
// rather than an error.
type Client struct {
	session *httpx.Client
	baseURL string
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("geocode: base URL is empty")
	}

	return &Client{
		session: httpx.NewClient(timeout),
		baseURL: baseURL,
	}, nil
}

func (c *Client) Name() string { return "geocoding api" }

// Locate resolves the given postcodes in sequential batches of up to 100.
func (c *Client) Locate(
	ctx context.Context,
	postcodes []domain.Postcode,
) (_ map[domain.Postcode]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.Locate")(&err)

	seen := make(map[domain.Postcode]struct{}, len(postcodes))
	uniq := make([]domain.Postcode, 0, len(postcodes))
	for _, p := range postcodes {
		if p.IsZero() {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		uniq = append(uniq, p)
	}

	out := make(map[domain.Postcode]domain.Coordinates, len(uniq))
	for start := 0; start < len(uniq); start += batchSize {
		end := start + batchSize
		if end > len(uniq) {
			end = len(uniq)
		}

		if err := c.locateBatch(ctx, uniq[start:end], out); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (c *Client) locateBatch(
	ctx context.Context,
	batch []domain.Postcode,
	out map[domain.Postcode]domain.Coordinates,
) error {
	endpoint := c.baseURL + "/postcodes"

	payload, err := json.Marshal(bulkRequest{Postcodes: postcodeStrings(batch)})
	if err != nil {
		return fmt.Errorf("geocode: encode bulk request: %w", err)
	}

	resp, err := c.session.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("geocode: execute bulk request: %w", err)
	}
	defer resp.Body.Close()

	var decoded bulkResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("geocode: decode bulk response: %w", err)
	}

	for _, entry := range decoded.Result {
		if entry.Result == nil || entry.Result.Latitude == nil || entry.Result.Longitude == nil {
			continue
		}

		p, perr := domain.ParsePostcode(entry.Result.Postcode)
		if perr != nil {
			p, perr = domain.ParsePostcode(entry.Query)
		}
		if perr != nil {
			continue
		}

		out[p] = domain.Coordinates{
			Lat: *entry.Result.Latitude,
			Lon: *entry.Result.Longitude,
		}
	}

	return nil
}

func postcodeStrings(postcodes []domain.Postcode) []string {
	out := make([]string, 0, len(postcodes))
	for _, p := range postcodes {
		out = append(out, p.String())
	}
	return out
}
