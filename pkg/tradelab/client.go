// Package tradelab is a Go SDK for the tradelab-server HTTP API.
package tradelab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client provides a Go SDK for interacting with the tradelab-server API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new tradelab API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Strategies lists the strategies the server can run.
func (c *Client) Strategies(ctx context.Context) ([]string, error) {
	var resp struct {
		Strategies []string `json:"strategies"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/strategies", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Strategies, nil
}

// Backtest runs a single strategy.
func (c *Client) Backtest(ctx context.Context, req BacktestRequest) (*BacktestResult, error) {
	var res BacktestResult
	if err := c.do(ctx, http.MethodPost, "/api/backtest", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Compare ranks every strategy over [startDate, endDate].
func (c *Client) Compare(ctx context.Context, ticker, startDate, endDate string) (*Comparison, error) {
	q := url.Values{}
	q.Set("ticker", ticker)
	q.Set("start_date", startDate)
	q.Set("end_date", endDate)
	var cmp Comparison
	if err := c.do(ctx, http.MethodGet, "/api/compare?"+q.Encode(), nil, &cmp); err != nil {
		return nil, err
	}
	return &cmp, nil
}

// Results lists stored runs, newest first. A limit of zero uses the server
// default.
func (c *Client) Results(ctx context.Context, limit int) ([]RunSummary, error) {
	path := "/api/results"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp struct {
		Results []RunSummary `json:"results"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Result fetches a stored run by ID.
func (c *Client) Result(ctx context.Context, id string) (*RunDetail, error) {
	var detail RunDetail
	if err := c.do(ctx, http.MethodGet, "/api/results/"+url.PathEscape(id), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
