package datadog

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/app-sre/explorer/pkg/timeframe"
)

// Linker builds web console deep links for the configured site.
type Linker struct {
	base string
}

func NewLinker(appURL string) *Linker {
	return &Linker{base: strings.TrimSuffix(appURL, "/")}
}

// Command returns the console view matching what the command requested.
func (l *Linker) Command(cmd Command, tf timeframe.Timeframe) string {
	switch cmd.Kind {
	case KindListMetrics:
		return l.MetricList(cmd.Query)
	case KindMetricInfo:
		return l.MetricInfo(cmd.Query)
	case KindLogs:
		return l.Logs(cmd.Query, tf)
	case KindSpans:
		return l.Spans(cmd.Query, tf)
	default:
		return l.Metrics(cmd.Query, tf)
	}
}

func (l *Linker) Metrics(query string, tf timeframe.Timeframe) string {
	params := url.Values{}
	params.Set("exp_metric", query)
	setRange(params, "from_ts", "to_ts", tf)
	params.Set("live", "false")

	return l.build("/metric/explorer", params)
}

func (l *Linker) MetricList(filter string) string {
	params := url.Values{}
	if filter != "" {
		params.Set("filter", filter)
	}

	return l.build("/metric/summary", params)
}

func (l *Linker) MetricInfo(name string) string {
	params := url.Values{}
	params.Set("metric", name)

	return l.build("/metric/summary", params)
}

func (l *Linker) Logs(query string, tf timeframe.Timeframe) string {
	params := url.Values{}
	params.Set("query", query)
	setRange(params, "from_ts", "to_ts", tf)
	params.Set("live", "false")

	return l.build("/logs", params)
}

func (l *Linker) LogEvent(id string, tf timeframe.Timeframe) string {
	params := url.Values{}
	params.Set("event", id)
	setRange(params, "from_ts", "to_ts", tf)

	return l.build("/logs", params)
}

func (l *Linker) Spans(query string, tf timeframe.Timeframe) string {
	params := url.Values{}
	params.Set("query", query)
	setRange(params, "start", "end", tf)
	params.Set("paused", "true")

	return l.build("/apm/traces", params)
}

func (l *Linker) Trace(traceID, spanID string) string {
	params := url.Values{}
	if spanID != "" {
		params.Set("spanID", spanID)
	}

	return l.build("/apm/trace/"+url.PathEscape(traceID), params)
}

func (l *Linker) build(path string, params url.Values) string {
	if len(params) == 0 {
		return l.base + path
	}
	return l.base + path + "?" + params.Encode()
}

// Console links take millisecond timestamps.
func setRange(params url.Values, fromKey, toKey string, tf timeframe.Timeframe) {
	params.Set(fromKey, strconv.FormatInt(tf.From.UnixMilli(), 10))
	params.Set(toKey, strconv.FormatInt(tf.To.UnixMilli(), 10))
}
