// Package upstream talks to the incident data API: filter options, the record
// set, the analytics summary and the static boundary files.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"crimewatch/dashboard-go/internal/incident"
)

const (
	filtersPath   = "/api/filters"
	dataPath      = "/api/data"
	analyticsPath = "/api/analytics"
	geojsonPrefix = "/static/geojson/"

	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 64 << 20
)

// StatusError is returned for any non-2xx upstream response.
type StatusError struct {
	Path   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d", e.Path, e.Status)
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	log        zerolog.Logger
}

// New returns a client for the data API at baseURL. A nil httpClient gets a
// default with a request timeout.
func New(baseURL string, httpClient *http.Client, log zerolog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("upstream url must be http or https, got %q", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: u, httpClient: httpClient, log: log}, nil
}

func (c *Client) FilterOptions(ctx context.Context) (incident.FilterOptions, error) {
	var out incident.FilterOptions
	if err := c.getJSON(ctx, filtersPath, &out); err != nil {
		return incident.FilterOptions{}, err
	}
	return out.WithDefaults(), nil
}

// ListIncidents implements incident.Source.
func (c *Client) ListIncidents(ctx context.Context) ([]incident.Record, error) {
	var out []incident.Record
	if err := c.getJSON(ctx, dataPath, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Analytics(ctx context.Context) (incident.Analytics, error) {
	var out incident.Analytics
	if err := c.getJSON(ctx, analyticsPath, &out); err != nil {
		return incident.Analytics{}, err
	}
	return out, nil
}

// Fetch implements boundary.Fetcher over /static/geojson/<file>.
func (c *Client) Fetch(ctx context.Context, file string) ([]byte, error) {
	if file == "" || strings.Contains(file, "/") {
		return nil, fmt.Errorf("invalid boundary file name %q", file)
	}
	body, err := c.get(ctx, geojsonPrefix+file)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(io.LimitReader(body, maxBodyBytes))
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	body, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(io.LimitReader(body, maxBodyBytes)).Decode(dst); err != nil {
		c.log.Error().Err(err).Str("path", path).Msg("upstream decode failed")
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) (io.ReadCloser, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawPath = ""
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("path", path).Msg("upstream request failed")
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	c.log.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("upstream_request")
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{Path: path, Status: resp.StatusCode}
	}
	return resp.Body, nil
}

// IsStatus reports whether err is an upstream response with the given status.
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}
