package datadog

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

type MetricsResponse struct {
	Status   string   `json:"status"`
	Query    string   `json:"query"`
	FromDate int64    `json:"from_date"`
	ToDate   int64    `json:"to_date"`
	Error    string   `json:"error,omitempty"`
	Series   []Series `json:"series"`

	Raw json.RawMessage `json:"-"`
}

type Series struct {
	Metric      string  `json:"metric"`
	DisplayName string  `json:"display_name"`
	Scope       string  `json:"scope"`
	Expression  string  `json:"expression"`
	Length      int     `json:"length"`
	Pointlist   []Point `json:"pointlist"`
}

// Point is a [timestamp in milliseconds, value] pair; either side may be null.
type Point [2]*float64

func (p Point) Time() time.Time {
	if p[0] == nil {
		return time.Time{}
	}
	return time.UnixMilli(int64(*p[0]))
}

func (p Point) Value() (float64, bool) {
	if p[1] == nil {
		return 0, false
	}
	return *p[1], true
}

type Stats struct {
	Min   float64
	Max   float64
	Avg   float64
	Count int
}

// Stats summarises the non-null values of the series.
func (s Series) Stats() (Stats, bool) {
	st := Stats{Min: math.Inf(1), Max: math.Inf(-1)}

	var sum float64
	for _, p := range s.Pointlist {
		v, ok := p.Value()
		if !ok {
			continue
		}
		st.Min = math.Min(st.Min, v)
		st.Max = math.Max(st.Max, v)
		sum += v
		st.Count++
	}
	if st.Count == 0 {
		return Stats{}, false
	}
	st.Avg = sum / float64(st.Count)

	return st, true
}

type MetricList struct {
	Metrics []string `json:"metrics"`
	Count   int      `json:"count"`

	Raw json.RawMessage `json:"-"`
}

type MetricMetadata struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	ShortName   string `json:"short_name"`
	Unit        string `json:"unit"`
	PerUnit     string `json:"per_unit"`
	Integration string `json:"integration"`

	Raw json.RawMessage `json:"-"`
}

type LogsResponse struct {
	Data []LogEvent `json:"data"`
	Meta struct {
		Page struct {
			After string `json:"after"`
		} `json:"page"`
	} `json:"meta"`

	Raw json.RawMessage `json:"-"`
}

type LogEvent struct {
	ID         string        `json:"id"`
	Type       string        `json:"type"`
	Attributes LogAttributes `json:"attributes"`
}

type LogAttributes struct {
	Timestamp  string         `json:"timestamp"`
	Message    string         `json:"message"`
	Service    string         `json:"service"`
	Host       string         `json:"host"`
	Status     string         `json:"status"`
	Tags       []string       `json:"tags"`
	Attributes map[string]any `json:"attributes"`
}

type SpansResponse struct {
	Data []SpanEvent `json:"data"`

	Raw json.RawMessage `json:"-"`
}

type SpanEvent struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Attributes SpanAttributes `json:"attributes"`
}

type SpanAttributes struct {
	Service        string         `json:"service"`
	ResourceName   string         `json:"resource_name"`
	OperationName  string         `json:"operation_name"`
	Env            string         `json:"env"`
	Host           string         `json:"host"`
	TraceID        string         `json:"trace_id"`
	SpanID         string         `json:"span_id"`
	StartTimestamp string         `json:"start_timestamp"`
	EndTimestamp   string         `json:"end_timestamp"`
	Custom         map[string]any `json:"custom"`
	Attributes     map[string]any `json:"attributes"`
}

func (s SpanAttributes) Start() (time.Time, error) {
	return parseTimestamp(s.StartTimestamp)
}

// Duration prefers the reported duration (nanoseconds) and falls back to the
// distance between the start and end timestamps.
func (s SpanAttributes) Duration() (time.Duration, error) {
	if d, ok := s.Custom["duration"].(float64); ok {
		return time.Duration(d), nil
	}

	start, err := parseTimestamp(s.StartTimestamp)
	if err != nil {
		return 0, err
	}
	end, err := parseTimestamp(s.EndTimestamp)
	if err != nil {
		return 0, err
	}

	return end.Sub(start), nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse timestamp: %w", err)
	}
	return t, nil
}

type searchFilter struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Query string `json:"query"`
}

type searchPage struct {
	Limit int `json:"limit"`
}

type logsSearchRequest struct {
	Filter searchFilter `json:"filter"`
	Page   searchPage   `json:"page"`
	Sort   string       `json:"sort"`
}

type spansSearchRequest struct {
	Data struct {
		Type       string            `json:"type"`
		Attributes logsSearchRequest `json:"attributes"`
	} `json:"data"`
}
