package datadog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/app-sre/explorer/pkg/env"
	ddenv "github.com/app-sre/explorer/pkg/env/datadog"
	"github.com/app-sre/explorer/pkg/timeframe"
	"github.com/app-sre/explorer/pkg/version"
)

const (
	APIKeyHeader = "DD-API-KEY"
	AppKeyHeader = "DD-APPLICATION-KEY"

	ValidatePath    = "/api/v1/validate"
	QueryPath       = "/api/v1/query"
	MetricsPath     = "/api/v1/metrics"
	LogsSearchPath  = "/api/v2/logs/events/search"
	SpansSearchPath = "/api/v2/spans/events/search"

	DefaultLimit = 100

	spansSearchType = "search_request"
	searchSort      = "timestamp"

	connectTimeout = 5 * time.Second
)

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

type Client struct {
	DatadogEnv *ddenv.Env

	baseURL string
	client  *http.Client
	timeout time.Duration
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.SetHTTPClient(client)
	}
}

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithTimeout bounds each request made by the default HTTP client.
// Non-positive values keep the default.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func NewClient(dde *ddenv.Env, options ...Option) *Client {
	c := &Client{DatadogEnv: dde, baseURL: dde.APIURL(), timeout: env.DefaultRequestTimeout}

	for _, option := range options {
		option(c)
	}

	if c.client == nil {
		c.client = &http.Client{
			Timeout: c.timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout: connectTimeout,
				}).DialContext,
			},
		}
	}

	return c
}

func (c *Client) SetHTTPClient(client *http.Client) {
	c.client = client
}

// Validate checks the API key. Only the API key is sent, so a wrong
// application key is reported by the first real request instead.
func (c *Client) Validate(ctx context.Context) error {
	var result struct {
		Valid bool `json:"valid"`
	}

	req, err := c.newRequest(ctx, http.MethodGet, ValidatePath, nil, nil)
	if err != nil {
		return err
	}
	req.Header.Del(AppKeyHeader)

	if _, err := c.do(req, &result); err != nil {
		return err
	}
	if !result.Valid {
		return errors.New("API key is not valid")
	}

	return nil
}

func (c *Client) QueryMetrics(ctx context.Context, query string, tf timeframe.Timeframe) (*MetricsResponse, error) {
	from, to := tf.Unix()

	params := url.Values{}
	params.Set("query", query)
	params.Set("from", strconv.FormatInt(from, 10))
	params.Set("to", strconv.FormatInt(to, 10))

	req, err := c.newRequest(ctx, http.MethodGet, QueryPath, params, nil)
	if err != nil {
		return nil, err
	}

	result := &MetricsResponse{}
	raw, err := c.do(req, result)
	if err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, fmt.Errorf("unable to query metrics: %s", result.Error)
	}
	result.Raw = raw

	return result, nil
}

// ListMetrics returns the metrics active since from, keeping only names that
// contain search (case-insensitive) when search is not empty.
func (c *Client) ListMetrics(ctx context.Context, search string, from time.Time) (*MetricList, error) {
	params := url.Values{}
	params.Set("from", strconv.FormatInt(from.Unix(), 10))

	req, err := c.newRequest(ctx, http.MethodGet, MetricsPath, params, nil)
	if err != nil {
		return nil, err
	}

	var response struct {
		Metrics []string `json:"metrics"`
	}
	if _, err := c.do(req, &response); err != nil {
		return nil, err
	}

	result := &MetricList{Metrics: filterMetrics(response.Metrics, search)}
	result.Count = len(result.Metrics)

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("unable to marshal metric list: %w", err)
	}
	result.Raw = raw

	return result, nil
}

func (c *Client) MetricMetadata(ctx context.Context, name string) (*MetricMetadata, error) {
	req, err := c.newRequest(ctx, http.MethodGet, MetricsPath+"/"+url.PathEscape(name), nil, nil)
	if err != nil {
		return nil, err
	}

	result := &MetricMetadata{}
	raw, err := c.do(req, result)
	if err != nil {
		return nil, err
	}
	result.Raw = raw

	return result, nil
}

func (c *Client) SearchLogs(ctx context.Context, query string, tf timeframe.Timeframe, limit int) (*LogsResponse, error) {
	body := newSearchRequest(query, tf, limit)

	req, err := c.newRequest(ctx, http.MethodPost, LogsSearchPath, nil, body)
	if err != nil {
		return nil, err
	}

	result := &LogsResponse{}
	raw, err := c.do(req, result)
	if err != nil {
		return nil, err
	}
	result.Raw = raw

	return result, nil
}

func (c *Client) SearchSpans(ctx context.Context, query string, tf timeframe.Timeframe, limit int) (*SpansResponse, error) {
	body := &spansSearchRequest{}
	body.Data.Type = spansSearchType
	body.Data.Attributes = *newSearchRequest(query, tf, limit)

	req, err := c.newRequest(ctx, http.MethodPost, SpansSearchPath, nil, body)
	if err != nil {
		return nil, err
	}

	result := &SpansResponse{}
	raw, err := c.do(req, result)
	if err != nil {
		return nil, err
	}
	result.Raw = raw

	return result, nil
}

func newSearchRequest(query string, tf timeframe.Timeframe, limit int) *logsSearchRequest {
	if limit <= 0 {
		limit = DefaultLimit
	}

	return &logsSearchRequest{
		Filter: searchFilter{
			From:  tf.From.UTC().Format(time.RFC3339),
			To:    tf.To.UTC().Format(time.RFC3339),
			Query: query,
		},
		Page: searchPage{Limit: limit},
		Sort: searchSort,
	}
}

func filterMetrics(metrics []string, search string) []string {
	result := []string{}

	search = strings.ToLower(search)
	for _, m := range metrics {
		if search == "" || strings.Contains(strings.ToLower(m), search) {
			result = append(result, m)
		}
	}

	return result
}

func (c *Client) newRequest(ctx context.Context, method, path string, params url.Values, body any) (*http.Request, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		content, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("unable to marshal Datadog request: %w", err)
		}
		reader = bytes.NewReader(content)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("unable to create request to Datadog: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(APIKeyHeader, c.DatadogEnv.APIKey)
	req.Header.Set(AppKeyHeader, c.DatadogEnv.AppKey)
	req.Header.Set("User-Agent", fmt.Sprintf("explorer/%s", version.Version()))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

func (c *Client) do(req *http.Request, out any) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to send request to Datadog: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read Datadog response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return nil, fmt.Errorf("unable to unmarshal Datadog response: %w", err)
		}
	}

	return body, nil
}
