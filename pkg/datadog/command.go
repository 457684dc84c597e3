package datadog

import "strings"

const (
	listMetricsCommand = "list-metrics"

	infoPrefix   = "info:"
	logsPrefix   = "logs:"
	tracesPrefix = "traces:"
	spansPrefix  = "spans:"
)

type Kind int

const (
	KindMetrics Kind = iota
	KindListMetrics
	KindMetricInfo
	KindLogs
	KindSpans
)

func (k Kind) String() string {
	switch k {
	case KindMetrics:
		return "metrics"
	case KindListMetrics:
		return "list-metrics"
	case KindMetricInfo:
		return "info"
	case KindLogs:
		return "logs"
	case KindSpans:
		return "spans"
	default:
		return "unknown"
	}
}

// Command is the query argument resolved into what should be requested.
// Query holds the remainder after the prefix: a metric expression, a metric
// name, a search filter or a log/span search query depending on Kind.
type Command struct {
	Kind  Kind
	Query string
}

func ParseCommand(s string) Command {
	s = strings.TrimSpace(s)

	switch {
	case s == listMetricsCommand:
		return Command{Kind: KindListMetrics}
	case strings.HasPrefix(s, listMetricsCommand+":"):
		return Command{Kind: KindListMetrics, Query: strings.TrimSpace(s[len(listMetricsCommand)+1:])}
	case strings.HasPrefix(s, infoPrefix):
		return Command{Kind: KindMetricInfo, Query: strings.TrimSpace(s[len(infoPrefix):])}
	case strings.HasPrefix(s, logsPrefix):
		return Command{Kind: KindLogs, Query: strings.TrimSpace(s[len(logsPrefix):])}
	case strings.HasPrefix(s, tracesPrefix):
		return Command{Kind: KindSpans, Query: strings.TrimSpace(s[len(tracesPrefix):])}
	case strings.HasPrefix(s, spansPrefix):
		return Command{Kind: KindSpans, Query: strings.TrimSpace(s[len(spansPrefix):])}
	default:
		return Command{Kind: KindMetrics, Query: s}
	}
}
