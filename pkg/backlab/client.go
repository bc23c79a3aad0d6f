// Package backlab provides a Go SDK for the backlab-server HTTP API.
package backlab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"backlab/internal/httpapi"
)

// Re-exported request and response types so SDK users do not import
// internal packages.
type (
	BacktestRequest     = httpapi.BacktestRequest
	CompareRequest      = httpapi.CompareRequest
	MultiTickerRequest  = httpapi.MultiTickerRequest
	BacktestResponse    = httpapi.BacktestResponse
	CompareResponse     = httpapi.CompareResponse
	MultiTickerResponse = httpapi.MultiTickerResponse
	BatchSummary        = httpapi.BatchSummary
	RunSummary          = httpapi.RunSummary
	RunRecord           = httpapi.RunRecordDTO
	Trade               = httpapi.TradeDTO
)

// Client provides a Go SDK for interacting with the backlab-server API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new backlab API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// Health checks server liveness.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/api/health", &struct{}{})
}

// Strategies lists the registered strategy names.
func (c *Client) Strategies(ctx context.Context) ([]string, error) {
	var body struct {
		Strategies []string `json:"strategies"`
	}
	if err := c.get(ctx, "/api/strategies", &body); err != nil {
		return nil, err
	}
	return body.Strategies, nil
}

// Backtest runs a single backtest and returns the full result bundle.
func (c *Client) Backtest(ctx context.Context, req BacktestRequest) (*BacktestResponse, error) {
	var resp BacktestResponse
	if err := c.post(ctx, "/api/backtest", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Compare runs every registered strategy against one symbol.
func (c *Client) Compare(ctx context.Context, req CompareRequest) (*CompareResponse, error) {
	var resp CompareResponse
	if err := c.post(ctx, "/api/compare", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MultiTicker runs one strategy against a list of symbols.
func (c *Client) MultiTicker(ctx context.Context, req MultiTickerRequest) (*MultiTickerResponse, error) {
	var resp MultiTickerResponse
	if err := c.post(ctx, "/api/multi-ticker", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Runs lists persisted run summaries, newest first. limit 0 uses the server
// default.
func (c *Client) Runs(ctx context.Context, limit int) ([]RunRecord, error) {
	path := "/api/runs"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var body struct {
		Runs []RunRecord `json:"runs"`
	}
	if err := c.get(ctx, path, &body); err != nil {
		return nil, err
	}
	return body.Runs, nil
}

// Run retrieves one persisted run summary by ID.
func (c *Client) Run(ctx context.Context, id int64) (*RunRecord, error) {
	var rec RunRecord
	if err := c.get(ctx, "/api/runs/"+strconv.FormatInt(id, 10), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// RunTrades retrieves the classified trades of a persisted run.
func (c *Client) RunTrades(ctx context.Context, id int64) ([]Trade, error) {
	var body struct {
		Trades []Trade `json:"trades"`
	}
	if err := c.get(ctx, "/api/runs/"+strconv.FormatInt(id, 10)+"/trades", &body); err != nil {
		return nil, err
	}
	return body.Trades, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		body, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", req.Method, req.URL.Path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
