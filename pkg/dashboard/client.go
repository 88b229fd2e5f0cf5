// Package dashboard drives the grow box dashboard: one task group per tab
// or feature toggle refreshes panels of a shared View from the data API.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNoData indicates the data API had nothing to return
var ErrNoData = errors.New("no data available")

const defaultTimeout = 5 * time.Second

// HealthLists holds the open health issues split by severity.
type HealthLists struct {
	Warnings []json.RawMessage `json:"warnings"`
	Errors   []json.RawMessage `json:"errors"`
}

// Client fetches dashboard data from the data API and camera stills from
// the camera relay.
type Client struct {
	baseURL     string
	snapshotURL string
	httpClient  *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = h }
}

// WithSnapshotURL sets the camera still URL.
func WithSnapshotURL(u string) ClientOption {
	return func(c *Client) { c.snapshotURL = u }
}

// NewClient creates a client for the data API at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Latest returns the newest sample as [temperature, humidity, co2, tvoc].
func (c *Client) Latest(ctx context.Context) ([]float64, error) {
	var rows [][]float64
	if err := c.getJSON(ctx, "/data/now", &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	return rows[0], nil
}

// History returns samples over span, one row per 10 minutes.
func (c *Client) History(ctx context.Context, span Span) ([][]float64, error) {
	rows := [][]float64{}
	if err := c.getJSON(ctx, "/data?span="+url.QueryEscape(string(span)), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Devices returns the zigbee device records.
func (c *Client) Devices(ctx context.Context) ([]json.RawMessage, error) {
	var devices []json.RawMessage
	if err := c.getJSON(ctx, "/zigbee/devices", &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// ZigbeeState returns the zigbee state document.
func (c *Client) ZigbeeState(ctx context.Context) (json.RawMessage, error) {
	var state json.RawMessage
	if err := c.getJSON(ctx, "/zigbee/state", &state); err != nil {
		return nil, err
	}
	return state, nil
}

// CPUTemperature returns the current board temperature in °C.
func (c *Client) CPUTemperature(ctx context.Context) (float64, error) {
	var sensors map[string][][]any
	if err := c.getJSON(ctx, "/data/rpi-temperature", &sensors); err != nil {
		return 0, err
	}
	readings, ok := sensors["cpu_thermal"]
	if !ok {
		for _, r := range sensors {
			readings = r
			break
		}
	}
	if len(readings) == 0 || len(readings[0]) < 2 {
		return 0, ErrNoData
	}
	cur, ok := readings[0][1].(float64)
	if !ok {
		return 0, fmt.Errorf("%w: unexpected temperature %v", ErrNoData, readings[0][1])
	}
	return cur, nil
}

// FridgeState reports whether the fridge is switched on.
func (c *Client) FridgeState(ctx context.Context) (bool, error) {
	var on bool
	if err := c.getJSON(ctx, "/fridge_state", &on); err != nil {
		return false, err
	}
	return on, nil
}

// HealthErrors returns the open health issues.
func (c *Client) HealthErrors(ctx context.Context) (HealthLists, error) {
	var lists HealthLists
	if err := c.getJSON(ctx, "/health/errors", &lists); err != nil {
		return HealthLists{}, err
	}
	return lists, nil
}

// Settings returns the settings document.
func (c *Client) Settings(ctx context.Context) (json.RawMessage, error) {
	var doc json.RawMessage
	if err := c.getJSON(ctx, "/config", &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Snapshot fetches a camera still. The timestamp query parameter defeats
// intermediate caches.
func (c *Client) Snapshot(ctx context.Context, now time.Time) ([]byte, error) {
	if c.snapshotURL == "" {
		return nil, ErrNoData
	}
	u, err := url.Parse(c.snapshotURL)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot URL: %w", err)
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(now.UnixMilli(), 10))
	u.RawQuery = q.Encode()

	resp, err := c.do(ctx, u.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, c.baseURL+path)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// do performs a GET and turns non-2xx answers into errors carrying the
// server's error message.
func (c *Client) do(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode/100 == 2 {
		return resp, nil
	}
	defer func() { _ = resp.Body.Close() }()

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		return nil, fmt.Errorf("GET %s: %d %s: %s", req.URL.Path, resp.StatusCode, body.Error, body.Message)
	}
	return nil, fmt.Errorf("GET %s: status %d", req.URL.Path, resp.StatusCode)
}
