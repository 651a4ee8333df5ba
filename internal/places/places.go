// Package places proxies Google Places Autocomplete so the API key never leaves the server.
package places

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/geocoder89/schedulehub/internal/observability"
	"github.com/tidwall/gjson"
)

var (
	ErrNotConfigured = errors.New("places api key not configured")
	ErrUpstream      = errors.New("places upstream failure")
	ErrEmptyInput    = errors.New("input is required")
)

const DefaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// Prediction is the narrowed form of one autocomplete result.
type Prediction struct {
	PlaceID       string `json:"placeId"`
	Description   string `json:"description"`
	MainText      string `json:"mainText"`
	SecondaryText string `json:"secondaryText"`
}

type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	prom    *observability.Prom
}

func NewClient(apiKey, baseURL string, prom *observability.Prom) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
		prom:    prom,
	}
}

// Autocomplete returns predictions for input. Upstream statuses other than OK and
// ZERO_RESULTS, transport failures and non-2xx replies all wrap ErrUpstream.
func (c *Client) Autocomplete(ctx context.Context, input string) (out []Prediction, err error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	start := time.Now()
	defer func() { c.prom.ObserveUpstream("places", start, err) }()

	q := url.Values{}
	q.Set("input", input)
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/autocomplete/json?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("%w: http %d", ErrUpstream, res.StatusCode)
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: malformed response", ErrUpstream)
	}

	parsed := gjson.ParseBytes(body)

	switch status := parsed.Get("status").String(); status {
	case "OK", "ZERO_RESULTS":
	default:
		return nil, fmt.Errorf("%w: status %s %s", ErrUpstream, status, parsed.Get("error_message").String())
	}

	out = make([]Prediction, 0)
	parsed.Get("predictions").ForEach(func(_, p gjson.Result) bool {
		out = append(out, Prediction{
			PlaceID:       p.Get("place_id").String(),
			Description:   p.Get("description").String(),
			MainText:      p.Get("structured_formatting.main_text").String(),
			SecondaryText: p.Get("structured_formatting.secondary_text").String(),
		})
		return true
	})

	return out, nil
}
