package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// maxResponseBytes bounds how much of a provider response is read.
const maxResponseBytes = 64 << 10

// HTTPProvider queries GET <baseURL>?lat=..&lon=.. and expects a JSON body
// shaped like Sample.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) Name() string { return "http" }

func (p *HTTPProvider) Fetch(ctx context.Context, loc Location) (Sample, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return Sample{}, fmt.Errorf("weather url: %w", err)
	}
	q := u.Query()
	q.Set("lat", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Sample{}, fmt.Errorf("weather request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Sample{}, fmt.Errorf("weather fetch %s: %w", loc, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Sample{}, fmt.Errorf("weather fetch %s: unexpected status %d", loc, resp.StatusCode)
	}

	var s Sample
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&s); err != nil {
		return Sample{}, fmt.Errorf("weather decode %s: %w", loc, err)
	}
	return s, nil
}
