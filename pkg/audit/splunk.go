package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/app-sre/explorer/pkg/env"
	"github.com/app-sre/explorer/pkg/env/splunk"
	"github.com/app-sre/explorer/pkg/version"
)

const (
	hecEventPath = "/services/collector/event"

	hecSource     = "dbexplorer"
	hecSourceType = "_json"

	connectTimeout = 5 * time.Second
)

// SplunkAudit sends every statement to a Splunk HTTP Event Collector.
type SplunkAudit struct {
	SplunkEnv *splunk.Env

	client  *http.Client
	timeout time.Duration
}

var _ Audit = (*SplunkAudit)(nil)

// StatementEvent is the payload indexed for each audited statement.
type StatementEvent struct {
	Tool        string `json:"tool"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	User        string `json:"user"`
	Query       string `json:"query"`
}

type hecEvent struct {
	Time       int64           `json:"time"`
	Host       string          `json:"host"`
	Index      string          `json:"index"`
	Source     string          `json:"source"`
	SourceType string          `json:"sourcetype"`
	Event      *StatementEvent `json:"event"`
}

type hecResponse struct {
	Text string `json:"text"`
	Code int    `json:"code"`
}

type Option func(*SplunkAudit)

func WithHTTPClient(client *http.Client) Option {
	return func(s *SplunkAudit) {
		s.SetHTTPClient(client)
	}
}

// WithTimeout bounds each request to the collector. Non-positive values
// keep the default.
func WithTimeout(timeout time.Duration) Option {
	return func(s *SplunkAudit) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

func NewSplunkAudit(splunk *splunk.Env, options ...Option) *SplunkAudit {
	s := &SplunkAudit{SplunkEnv: splunk, timeout: env.DefaultRequestTimeout}

	s.client = &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: connectTimeout,
			}).DialContext,
		},
	}

	for _, option := range options {
		option(s)
	}

	return s
}

func (s *SplunkAudit) SetHTTPClient(client *http.Client) {
	s.client = client
}

func (s *SplunkAudit) Write(ctx context.Context, q *QueryData) error {
	content, err := json.Marshal(s.event(q))
	if err != nil {
		return fmt.Errorf("unable to marshal Splunk audit: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	url := strings.TrimSuffix(s.SplunkEnv.Endpoint, "/") + hecEventPath

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("unable to create request to Splunk: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Splunk "+s.SplunkEnv.Token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("User-Agent", "explorer/"+version.Version())

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("unable to send request to Splunk: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var result hecResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if resp.StatusCode/100 != 2 {
			return fmt.Errorf("unable to write to Splunk: HTTP %d", resp.StatusCode)
		}
		return fmt.Errorf("unable to unmarshal Splunk response: %w", err)
	}
	if result.Code > 0 || resp.StatusCode/100 != 2 {
		return fmt.Errorf("unable to write to Splunk: %s (%d)", result.Text, result.Code)
	}

	return nil
}

func (s *SplunkAudit) event(q *QueryData) *hecEvent {
	host := s.SplunkEnv.Host
	if host == "" {
		host, _ = os.Hostname()
	}

	return &hecEvent{
		Time:       q.Timestamp,
		Host:       host,
		Index:      s.SplunkEnv.Index,
		Source:     hecSource,
		SourceType: hecSourceType,
		Event: &StatementEvent{
			Tool:        hecSource,
			Version:     version.Version(),
			Environment: q.Environment,
			User:        q.User,
			Query:       q.Query,
		},
	}
}
