package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/app-sre/explorer/internal/test"
	"github.com/app-sre/explorer/pkg/precheck"
)

type result struct {
	stdout string
	stderr string
	err    error
}

func runDatadogCommand(t *testing.T, config string, args ...string) result {
	t.Helper()

	var stdout, stderr bytes.Buffer

	c := NewDatadogCommand(test.DummyLogger(io.Discard).Sugar(), zap.NewAtomicLevel())
	c.SetArgs(append(args, "--config", config))
	c.SetOut(&stdout)
	c.SetErr(&stderr)

	err := c.ExecuteContext(context.Background())

	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func datadogConfig(t *testing.T, apiURL, apiKey string) string {
	t.Helper()

	return writeConfig(t, fmt.Sprintf("datadog:\n  api_key: %s\n  app_key: %s\n  api_url: %s\n", apiKey, test.DatadogAppKey, apiURL))
}

func TestDatadogListMetrics(t *testing.T) {
	t.Parallel()

	cases := []struct {
		description string
		args        []string
		contains    []string
		excludes    []string
	}{
		{
			"search flag filters case-insensitively",
			[]string{"list-metrics", "--search", "postgres"},
			[]string{
				"📊 Found 3 metrics:",
				"  • postgresql.connections\n",
				"  • postgresql.rows_fetched\n",
				"  • PostgreSQL.Locks\n",
				"🔗 View in Datadog: https://app.datadoghq.com/metric/summary?filter=postgres\n",
			},
			[]string{"system.cpu.idle"},
		},
		{
			"inline filter",
			[]string{"list-metrics:cpu"},
			[]string{"📊 Found 1 metrics:", "  • system.cpu.idle\n"},
			[]string{"postgresql"},
		},
		{
			"search flag wins over inline filter",
			[]string{"list-metrics:cpu", "--search", "mem", "--no-url"},
			[]string{"📊 Found 1 metrics:", "  • system.mem.used\n"},
			[]string{"system.cpu.idle", "View in Datadog"},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.description, func(t *testing.T) {
			t.Parallel()

			server, _ := test.NewDatadogServer(t)

			actual := runDatadogCommand(t, datadogConfig(t, server.URL, test.DatadogAPIKey), tc.args...)

			require.NoError(t, actual.err)
			assert.Contains(t, actual.stderr, "✅ Connected to Datadog API")
			for _, s := range tc.contains {
				assert.Contains(t, actual.stdout, s)
			}
			for _, s := range tc.excludes {
				assert.NotContains(t, actual.stdout, s)
			}
		})
	}
}

func TestDatadogRawOutput(t *testing.T) {
	server, _ := test.NewDatadogServer(t)

	actual := runDatadogCommand(t, datadogConfig(t, server.URL, test.DatadogAPIKey), "list-metrics", "--search", "postgres", "--raw")
	require.NoError(t, actual.err)

	var list struct {
		Metrics []string `json:"metrics"`
		Count   int      `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(actual.stdout), &list))
	assert.Equal(t, 3, list.Count)
	assert.Len(t, list.Metrics, list.Count)
	assert.Empty(t, actual.stderr)
}

func TestDatadogQueries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		description string
		args        []string
		stdout      []string
		stderr      []string
	}{
		{
			"metric query",
			[]string{"avg:system.cpu.idle{*}", "--timeframe", "4h"},
			[]string{"📊 Query returned 1 series:", "Metric: system.cpu.idle", "Stats: min=10.00, max=30.00, avg=20.00", "/metric/explorer?exp_metric="},
			[]string{"📊 Querying: avg:system.cpu.idle{*}"},
		},
		{
			"metric metadata",
			[]string{"info:system.cpu.idle"},
			[]string{`"type": "gauge"`, "/metric/summary?metric=system.cpu.idle"},
			[]string{"Getting metadata for metric: system.cpu.idle"},
		},
		{
			"log search with event links",
			[]string{"logs:service:web", "--event-urls", "--timeframe", "2025-01-03"},
			[]string{"📝 Found 2 log entries:", "DB Query Time: 0.42s", "URL: https://app.datadoghq.com/logs?event=AQAAAYdX1&from_ts=", "live=false&query=service%3Aweb"},
			[]string{"📝 Querying logs: service:web"},
		},
		{
			"span search with trace links",
			[]string{"traces:service:web", "--event-urls"},
			[]string{"🔎 Found 2 spans:", "125.00ms", "URL: https://app.datadoghq.com/apm/trace/7233462891923942471?spanID=1407768292931548829", "/apm/traces?"},
			[]string{"🔎 Querying spans: service:web"},
		},
		{
			"unparseable timeframe falls back to the last hour",
			[]string{"avg:system.cpu.idle{*}", "--timeframe", "bogus", "--no-url"},
			[]string{"📊 Query returned 1 series:"},
			[]string{"⏰ Timeframe:"},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.description, func(t *testing.T) {
			t.Parallel()

			server, _ := test.NewDatadogServer(t)

			actual := runDatadogCommand(t, datadogConfig(t, server.URL, test.DatadogAPIKey), tc.args...)

			require.NoError(t, actual.err)
			for _, s := range tc.stdout {
				assert.Contains(t, actual.stdout, s)
			}
			for _, s := range tc.stderr {
				assert.Contains(t, actual.stderr, s)
			}
		})
	}
}

func TestDatadogQueryFailureIsReported(t *testing.T) {
	server, _ := test.NewDatadogServer(t)

	actual := runDatadogCommand(t, datadogConfig(t, server.URL, test.DatadogAPIKey), "info:no.such.metric")

	require.NoError(t, actual.err)
	assert.Contains(t, actual.stderr, "❌ Query failed: API error 404")
	assert.NotContains(t, actual.stdout, "View in Datadog")
}

func TestDatadogInvalidKey(t *testing.T) {
	server, _ := test.NewDatadogServer(t)

	actual := runDatadogCommand(t, datadogConfig(t, server.URL, "wrong"), "list-metrics")

	var checkErr *precheck.Error
	require.True(t, errors.As(actual.err, &checkErr))
	assert.Equal(t, "credentials", checkErr.Name)
	assert.Contains(t, actual.stderr, "❌ API error 403")
	assert.Contains(t, actual.stderr, "💡 Set DD_API_KEY and DD_APP_KEY")
	assert.Empty(t, actual.stdout)
}

func TestDatadogMissingKeys(t *testing.T) {
	t.Setenv("DD_API_KEY", "")
	t.Setenv("DD_APP_KEY", "")
	t.Setenv("EXPLORER_DATADOG_API_KEY", "")
	t.Setenv("EXPLORER_DATADOG_APP_KEY", "")

	actual := runDatadogCommand(t, writeConfig(t, "datadog:\n  site: datadoghq.eu\n"), "list-metrics")

	assert.EqualError(t, actual.err, "unable to configure Datadog: unable to access configuration key: datadog.api_key")
	assert.Contains(t, actual.stderr, "❌ Datadog API keys are not configured")
}

func TestDatadogArguments(t *testing.T) {
	t.Parallel()

	cases := []struct {
		description string
		args        []string
		message     string
	}{
		{
			"no query given",
			[]string{},
			`accepts 1 arg(s), received 0`,
		},
		{
			"metric metadata without a name",
			[]string{"info:"},
			`metric name is required: use info:<metric>`,
		},
		{
			"limit is not a number",
			[]string{"logs:*", "--limit", "many"},
			`invalid argument "many"`,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.description, func(t *testing.T) {
			t.Parallel()

			actual := runDatadogCommand(t, writeConfig(t, ""), tc.args...)

			require.Error(t, actual.err)
			assert.Contains(t, actual.err.Error(), tc.message)
		})
	}
}

func TestDatadogVersion(t *testing.T) {
	var stdout bytes.Buffer

	c := NewDatadogCommand(test.DummyLogger(io.Discard).Sugar(), zap.NewAtomicLevel())
	c.SetArgs([]string{"version"})
	c.SetOut(&stdout)

	require.NoError(t, c.Execute())
	assert.Contains(t, stdout.String(), "ddexplorer dev (commit: none)")
}
