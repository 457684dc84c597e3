package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/etherlabsio/healthcheck/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/app-sre/explorer/pkg/datadog"
	"github.com/app-sre/explorer/pkg/env"
	ddenv "github.com/app-sre/explorer/pkg/env/datadog"
	"github.com/app-sre/explorer/pkg/format"
	"github.com/app-sre/explorer/pkg/precheck"
	"github.com/app-sre/explorer/pkg/timeframe"
)

const datadogKeysRemedy = "Set DD_API_KEY and DD_APP_KEY, or datadog.api_key and datadog.app_key in ~/.config/explorer/explorer.yaml"

var errMetricName = errors.New("metric name is required: use info:<metric>")

type datadogOptions struct {
	config    string
	timeframe string
	search    string
	raw       bool
	noURL     bool
	eventURLs bool
	limit     int
	debug     bool
}

func NewDatadogCommand(logger *zap.SugaredLogger, level zap.AtomicLevel) *cobra.Command {
	o := &datadogOptions{}

	c := &cobra.Command{
		Use:   "ddexplorer <query>",
		Short: "Query Datadog metrics, logs and APM spans",
		Long: `Query the Datadog API from the command line.

The query selects what is requested:

  list-metrics[:<filter>]   list active metric names
  info:<metric>             show metric metadata
  logs:<query>              search logs
  traces:<query>            search APM spans (alias: spans:<query>)
  <metric query>            anything else is a metric query`,
		Example: `  ddexplorer "avg:system.cpu.idle{*}" --timeframe 4h
  ddexplorer list-metrics --search postgres
  ddexplorer "logs:service:web status:error" --timeframe 2025-01-03 --event-urls
  ddexplorer "traces:service:web" --raw`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			enableDebug(logger, level, o.debug)

			return runDatadog(cmd.Context(), logger, cmd.OutOrStdout(), cmd.ErrOrStderr(), o, args[0])
		},
	}

	f := c.Flags()
	f.StringVarP(&o.timeframe, "timeframe", "t", "1h", "time range: 30m, 4h, 7d, YYYY-MM-DD or a comma separated start,end pair")
	f.StringVarP(&o.search, "search", "s", "", "filter for list-metrics (case-insensitive substring)")
	f.BoolVar(&o.raw, "raw", false, "print the raw JSON response")
	f.BoolVar(&o.noURL, "no-url", false, "do not print the Datadog web link")
	f.BoolVar(&o.eventURLs, "event-urls", false, "print a web link for every log entry or span")
	f.IntVarP(&o.limit, "limit", "l", datadog.DefaultLimit, "maximum number of log entries or spans requested")
	f.StringVarP(&o.config, "config", "c", "", "configuration file (default: ~/.config/explorer/explorer.yaml)")
	f.BoolVar(&o.debug, "debug", false, "enable debug logging")

	c.AddCommand(newVersionCommand("ddexplorer"))

	return c
}

func runDatadog(ctx context.Context, logger *zap.SugaredLogger, stdout, stderr io.Writer, o *datadogOptions, query string) error {
	command := datadog.ParseCommand(query)
	if command.Kind == datadog.KindListMetrics && o.search != "" {
		command.Query = o.search
	}
	if command.Kind == datadog.KindMetricInfo && command.Query == "" {
		return errMetricName
	}

	v, err := env.Load(o.config)
	if err != nil {
		return err
	}

	dde := ddenv.NewDatadogEnv()
	if err := dde.Populate(v); err != nil {
		fmt.Fprintln(stderr, "❌ Datadog API keys are not configured")
		fmt.Fprintf(stderr, "💡 %s\n", datadogKeysRemedy)
		return fmt.Errorf("unable to configure Datadog: %w", err)
	}
	logger.Debugf("Using Datadog site: %s (API endpoint: %s)", dde.Site, dde.APIURL())

	r := &datadogRun{
		opts:    o,
		client:  datadog.NewClient(dde, datadog.WithTimeout(env.RequestTimeout(v))),
		linker:  datadog.NewLinker(dde.AppURL()),
		printer: format.NewPrinter(stdout),
		status:  status{w: stderr, quiet: o.raw},
		stderr:  stderr,
	}

	r.status.Printf("🔐 Validating Datadog API connection...")
	err = precheck.Run(ctx, logger, precheck.Check{
		Name:    "credentials",
		Checker: healthcheck.CheckerFunc(r.client.Validate),
		Remedy:  datadogKeysRemedy,
	})
	if err != nil {
		reportFailure(stderr, err)
		return err
	}
	r.status.Printf("✅ Connected to Datadog API")

	tf := timeframe.NewParser(logger).Parse(o.timeframe)
	logger.Debugf("Running %s command: %q (timeframe: %s)", command.Kind, command.Query, tf)

	return r.run(ctx, command, tf)
}

type datadogRun struct {
	opts    *datadogOptions
	client  *datadog.Client
	linker  *datadog.Linker
	printer *format.Printer
	status  status
	stderr  io.Writer
}

// run prints the result of a single command. Request failures are reported
// but do not fail the command.
func (r *datadogRun) run(ctx context.Context, command datadog.Command, tf timeframe.Timeframe) error {
	var err error

	switch command.Kind {
	case datadog.KindListMetrics:
		err = r.listMetrics(ctx, command, tf)
	case datadog.KindMetricInfo:
		err = r.metricInfo(ctx, command)
	case datadog.KindLogs:
		err = r.logs(ctx, command, tf)
	case datadog.KindSpans:
		err = r.spans(ctx, command, tf)
	default:
		err = r.metrics(ctx, command, tf)
	}

	if err != nil {
		fmt.Fprintf(r.stderr, "❌ Query failed: %s\n", err)
		return nil
	}

	if !r.opts.raw && !r.opts.noURL {
		r.printer.URL(r.linker.Command(command, tf))
	}

	return nil
}

func (r *datadogRun) listMetrics(ctx context.Context, command datadog.Command, tf timeframe.Timeframe) error {
	if command.Query != "" {
		r.status.Printf("🔍 Listing metrics matching %q...", command.Query)
	} else {
		r.status.Printf("🔍 Listing metrics...")
	}

	list, err := r.client.ListMetrics(ctx, command.Query, tf.From)
	if err != nil {
		return err
	}

	if r.opts.raw {
		return r.printer.Raw(list.Raw)
	}
	r.printer.MetricList(list)

	return nil
}

func (r *datadogRun) metricInfo(ctx context.Context, command datadog.Command) error {
	r.status.Printf("ℹ️  Getting metadata for metric: %s", command.Query)

	md, err := r.client.MetricMetadata(ctx, command.Query)
	if err != nil {
		return err
	}

	return r.printer.MetricMetadata(md)
}

func (r *datadogRun) logs(ctx context.Context, command datadog.Command, tf timeframe.Timeframe) error {
	r.status.Printf("📝 Querying logs: %s", command.Query)
	r.status.Printf("⏰ Timeframe: %s", tf)

	resp, err := r.client.SearchLogs(ctx, command.Query, tf, r.opts.limit)
	if err != nil {
		return err
	}

	if r.opts.raw {
		return r.printer.Raw(resp.Raw)
	}

	var link func(datadog.LogEvent) string
	if r.opts.eventURLs {
		link = func(e datadog.LogEvent) string {
			return r.linker.LogEvent(e.ID, tf)
		}
	}
	r.printer.Logs(resp, link)

	return nil
}

func (r *datadogRun) spans(ctx context.Context, command datadog.Command, tf timeframe.Timeframe) error {
	r.status.Printf("🔎 Querying spans: %s", command.Query)
	r.status.Printf("⏰ Timeframe: %s", tf)

	resp, err := r.client.SearchSpans(ctx, command.Query, tf, r.opts.limit)
	if err != nil {
		return err
	}

	if r.opts.raw {
		return r.printer.Raw(resp.Raw)
	}

	var link func(datadog.SpanEvent) string
	if r.opts.eventURLs {
		link = func(e datadog.SpanEvent) string {
			return r.linker.Trace(e.Attributes.TraceID, e.Attributes.SpanID)
		}
	}
	r.printer.Spans(resp, link)

	return nil
}

func (r *datadogRun) metrics(ctx context.Context, command datadog.Command, tf timeframe.Timeframe) error {
	r.status.Printf("📊 Querying: %s", command.Query)
	r.status.Printf("⏰ Timeframe: %s", tf)

	resp, err := r.client.QueryMetrics(ctx, command.Query, tf)
	if err != nil {
		return err
	}

	if r.opts.raw {
		return r.printer.Raw(resp.Raw)
	}
	r.printer.Metrics(resp)

	return nil
}
