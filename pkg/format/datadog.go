package format

import (
	"fmt"
	"time"

	"github.com/app-sre/explorer/pkg/datadog"
)

var performanceFields = []struct {
	key    string
	label  string
	suffix string
}{
	{"total_db_queries_time", "DB Query Time", "s"},
	{"hydration_time", "Hydration Time", "s"},
	{"cache_hit", "Cache Hit", ""},
	{"total_row_count", "Total Rows", ""},
	{"sheet", "Sheet ID", ""},
}

func (p *Printer) MetricList(list *datadog.MetricList) {
	fmt.Fprintf(p.out, "\n%s\n", p.heading.Render(fmt.Sprintf("📊 Found %d metrics:", list.Count)))

	for i, name := range list.Metrics {
		if i == MetricListLimit {
			break
		}
		fmt.Fprintf(p.out, "  • %s\n", name)
	}

	p.more(len(list.Metrics)-MetricListLimit, "metrics")
}

func (p *Printer) Metrics(resp *datadog.MetricsResponse) {
	if len(resp.Series) == 0 {
		fmt.Fprintln(p.out, "📊 Query completed but no series data returned")
		return
	}

	fmt.Fprintf(p.out, "\n%s\n", p.heading.Render(fmt.Sprintf("📊 Query returned %d series:", len(resp.Series))))

	for i, s := range resp.Series {
		if i == SeriesLimit {
			break
		}

		fmt.Fprintf(p.out, "\n  %s\n", p.label.Render(fmt.Sprintf("Series %d:", i+1)))
		fmt.Fprintf(p.out, "    Metric: %s\n", s.Metric)
		fmt.Fprintf(p.out, "    Scope: %s\n", s.Scope)
		fmt.Fprintf(p.out, "    Points: %d\n", len(s.Pointlist))

		if len(s.Pointlist) > 0 {
			p.point("First point: ", s.Pointlist[0])
			p.point("Last point:  ", s.Pointlist[len(s.Pointlist)-1])
		}

		if st, ok := s.Stats(); ok {
			fmt.Fprintf(p.out, "    Stats: min=%.2f, max=%.2f, avg=%.2f\n", st.Min, st.Max, st.Avg)
		}
	}

	p.more(len(resp.Series)-SeriesLimit, "series")
}

func (p *Printer) point(label string, pt datadog.Point) {
	value := "null"
	if v, ok := pt.Value(); ok {
		value = formatValue(v)
	}

	fmt.Fprintf(p.out, "    %s%s = %s\n", label, p.timestamp(pt.Time()), value)
}

func (p *Printer) MetricMetadata(md *datadog.MetricMetadata) error {
	return p.Raw(md.Raw)
}

// Logs prints the first entries of a log search. When link is not nil the
// deep link of every entry is printed as well.
func (p *Printer) Logs(resp *datadog.LogsResponse, link func(datadog.LogEvent) string) {
	if len(resp.Data) == 0 {
		fmt.Fprintln(p.out, "📝 No log entries found")
		return
	}

	fmt.Fprintf(p.out, "\n%s\n", p.heading.Render(fmt.Sprintf("📝 Found %d log entries:", len(resp.Data))))

	for i, e := range resp.Data {
		if i == LogLimit {
			break
		}

		a := e.Attributes
		fmt.Fprintf(p.out, "\n  %s\n", p.label.Render(fmt.Sprintf("Log %d:", i+1)))
		fmt.Fprintf(p.out, "    Time: %s\n", p.logTime(a.Timestamp))
		fmt.Fprintf(p.out, "    Service: %s\n", orDefault(a.Service, "unknown"))
		fmt.Fprintf(p.out, "    Host: %s\n", orDefault(logHost(a), "unknown"))
		fmt.Fprintf(p.out, "    Status: %s\n", orDefault(a.Status, "info"))
		fmt.Fprintf(p.out, "    Message: %s\n", orDefault(a.Message, "no message"))

		p.performance(a.Attributes)

		if link != nil {
			fmt.Fprintf(p.out, "    URL: %s\n", p.link.Render(link(e)))
		}
	}

	p.more(len(resp.Data)-LogLimit, "log entries")
}

func (p *Printer) logTime(ts string) string {
	if ts == "" {
		return "unknown"
	}

	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}

	return p.timestamp(t)
}

// Performance fields are looked up under "performance" first and then at
// the top level of the custom attributes.
func (p *Printer) performance(attrs map[string]any) {
	nested, _ := attrs["performance"].(map[string]any)

	for _, f := range performanceFields {
		v, ok := nested[f.key]
		if !ok {
			v, ok = attrs[f.key]
		}
		if !ok || v == nil {
			continue
		}
		fmt.Fprintf(p.out, "    %s: %v%s\n", f.label, v, f.suffix)
	}

	info, ok := nested["file_info"].(map[string]any)
	if !ok {
		info, ok = attrs["file_info"].(map[string]any)
	}
	if ok {
		if file, _ := info["file"].(string); file != "" {
			fmt.Fprintf(p.out, "    Source: %s:%v\n", file, info["line"])
		}
	}
}

func logHost(a datadog.LogAttributes) string {
	if a.Host != "" {
		return a.Host
	}
	host, _ := a.Attributes["host"].(string)
	return host
}

// Spans prints one line per span. When link is not nil the trace link of
// every span is printed below it.
func (p *Printer) Spans(resp *datadog.SpansResponse, link func(datadog.SpanEvent) string) {
	if len(resp.Data) == 0 {
		fmt.Fprintln(p.out, "🔎 No spans found")
		return
	}

	fmt.Fprintf(p.out, "\n%s\n\n", p.heading.Render(fmt.Sprintf("🔎 Found %d spans:", len(resp.Data))))

	for i, e := range resp.Data {
		if i == SpanLimit {
			break
		}

		a := e.Attributes

		start := "unknown"
		if t, err := a.Start(); err == nil {
			start = p.timestamp(t)
		}

		duration := "?"
		if d, err := a.Duration(); err == nil {
			duration = fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
		}

		fmt.Fprintf(p.out, "  %s  %s  %s  %s\n", start, orDefault(a.Service, "unknown"), orDefault(a.ResourceName, "unknown"), duration)

		if link != nil && a.TraceID != "" {
			fmt.Fprintf(p.out, "    URL: %s\n", p.link.Render(link(e)))
		}
	}

	p.more(len(resp.Data)-SpanLimit, "spans")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
