package timeframe

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/app-sre/explorer/internal/test"
)

var (
	berlin = mustLoadLocation("Europe/Berlin")
	now    = time.Date(2025, 8, 7, 12, 30, 0, 0, time.UTC)
)

func mustLoadLocation(name string) *time.Location {
	l, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("CET", 3600)
	}
	return l
}

func newTestParser(output *bytes.Buffer, location *time.Location) *Parser {
	logger := test.DummyLogger(output).Sugar()

	return NewParser(logger,
		WithClock(func() time.Time { return now }),
		WithLocation(location),
	)
}

func TestNewParser(t *testing.T) {
	t.Parallel()

	actual := NewParser(nil)

	require.NotNil(t, actual)
	assert.NotNil(t, actual.logger)
	assert.Equal(t, time.Local, actual.location)
}

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		description string
		given       string
		location    *time.Location
		from        time.Time
		to          time.Time
		warning     bool
	}{
		{
			"relative duration in minutes",
			"15m",
			time.UTC,
			now.Add(-15 * time.Minute),
			now,
			false,
		},
		{
			"relative duration in hours",
			"24h",
			time.UTC,
			now.Add(-24 * time.Hour),
			now,
			false,
		},
		{
			"relative duration in days",
			"7d",
			time.UTC,
			now.Add(-7 * 24 * time.Hour),
			now,
			false,
		},
		{
			"relative duration with surrounding whitespace",
			" 5m ",
			time.UTC,
			now.Add(-5 * time.Minute),
			now,
			false,
		},
		{
			"comma separated timestamps in seconds",
			"1754539200,1754711999",
			time.UTC,
			time.Unix(1754539200, 0),
			time.Unix(1754711999, 0),
			false,
		},
		{
			"comma separated timestamps in milliseconds",
			"1754539200000,1754711999999",
			time.UTC,
			time.Unix(1754539200, 0),
			time.UnixMilli(1754711999999),
			false,
		},
		{
			"largest ten digit value is treated as seconds",
			"9999999999,9999999999",
			time.UTC,
			time.Unix(9999999999, 0),
			time.Unix(9999999999, 0),
			false,
		},
		{
			"smallest eleven digit value is treated as milliseconds",
			"10000000000,10000000000",
			time.UTC,
			time.Unix(10000000, 0),
			time.Unix(10000000, 0),
			false,
		},
		{
			"mixed seconds and milliseconds with whitespace",
			"1754539200, 1754711999999",
			time.UTC,
			time.Unix(1754539200, 0),
			time.UnixMilli(1754711999999),
			false,
		},
		{
			"comma separated dates resolve to the start of each day",
			"2025-01-03,2025-01-05",
			berlin,
			time.Date(2025, 1, 3, 0, 0, 0, 0, berlin),
			time.Date(2025, 1, 5, 0, 0, 0, 0, berlin),
			false,
		},
		{
			"comma separated dates using slashes",
			"2025/01/03,01/05/2025",
			time.UTC,
			time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
			false,
		},
		{
			"comma separated dates in month first order",
			"01-03-2025,01-05-2025",
			time.UTC,
			time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
			false,
		},
		{
			"comma separated ISO 8601 values with offsets",
			"2025-01-03T10:00:00Z,2025-01-03T12:00:00+02:00",
			time.UTC,
			time.Date(2025, 1, 3, 10, 0, 0, 0, time.UTC),
			time.Date(2025, 1, 3, 10, 0, 0, 0, time.UTC),
			false,
		},
		{
			"comma separated ISO 8601 values in local time",
			"2025-01-03T10:00:00,2025-01-03T10:30",
			berlin,
			time.Date(2025, 1, 3, 10, 0, 0, 0, berlin),
			time.Date(2025, 1, 3, 10, 30, 0, 0, berlin),
			false,
		},
		{
			"comma separated ISO 8601 value with fractional seconds",
			"2025-01-03T10:00:00.250Z,2025-01-03 11:00:00",
			time.UTC,
			time.Date(2025, 1, 3, 10, 0, 0, 250000000, time.UTC),
			time.Date(2025, 1, 3, 11, 0, 0, 0, time.UTC),
			false,
		},
		{
			"bare date expands to the whole local day",
			"2025-01-03",
			berlin,
			time.Date(2025, 1, 3, 0, 0, 0, 0, berlin),
			time.Date(2025, 1, 3, 23, 59, 59, 999999000, berlin),
			false,
		},
		{
			"bare date in month first order",
			"01-03-2025",
			time.UTC,
			time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 1, 3, 23, 59, 59, 999999000, time.UTC),
			false,
		},
		{
			"bare date time expands to its whole day",
			"2025-01-03T15:04:05",
			time.UTC,
			time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 1, 3, 23, 59, 59, 999999000, time.UTC),
			false,
		},
		{
			"unparseable value falls back to the last hour",
			"bogus",
			time.UTC,
			now.Add(-time.Hour),
			now,
			true,
		},
		{
			"empty value falls back to the last hour",
			"",
			time.UTC,
			now.Add(-time.Hour),
			now,
			true,
		},
		{
			"unsupported relative unit falls back to the last hour",
			"2w",
			time.UTC,
			now.Add(-time.Hour),
			now,
			true,
		},
		{
			"negative relative duration falls back to the last hour",
			"-5m",
			time.UTC,
			now.Add(-time.Hour),
			now,
			true,
		},
		{
			"invalid bare date falls back to the last hour",
			"2025-13-45",
			time.UTC,
			now.Add(-time.Hour),
			now,
			true,
		},
		{
			"range with an invalid side falls back to the last hour",
			"1754539200,bogus",
			time.UTC,
			now.Add(-time.Hour),
			now,
			true,
		},
		{
			"range ending before it starts falls back to the last hour",
			"2025-01-03T10:00:00Z,2025-01-03T11:00:00+02:00",
			time.UTC,
			now.Add(-time.Hour),
			now,
			true,
		},
		{
			"range of timestamps in reverse order falls back to the last hour",
			"1754542800,1754539200",
			time.UTC,
			now.Add(-time.Hour),
			now,
			true,
		},
		{
			"range with more than two values falls back to the last hour",
			"1,2,3",
			time.UTC,
			now.Add(-time.Hour),
			now,
			true,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.description, func(t *testing.T) {
			t.Parallel()

			var output bytes.Buffer

			actual := newTestParser(&output, tc.location).Parse(tc.given)

			assert.True(t, tc.from.Equal(actual.From), "from: want %s, got %s", tc.from, actual.From)
			assert.True(t, tc.to.Equal(actual.To), "to: want %s, got %s", tc.to, actual.To)
			if tc.warning {
				assert.Contains(t, output.String(), "Invalid timeframe")
			} else {
				assert.NotContains(t, output.String(), "Invalid timeframe")
			}
		})
	}
}

func TestParseUnix(t *testing.T) {
	t.Parallel()

	var output bytes.Buffer

	from, to := newTestParser(&output, berlin).Parse("2025-01-03").Unix()

	assert.Equal(t, time.Date(2025, 1, 3, 0, 0, 0, 0, berlin).Unix(), from)
	assert.Equal(t, time.Date(2025, 1, 3, 23, 59, 59, 0, berlin).Unix(), to)
}

func TestParseDefaultWindowIsExactlyOneHour(t *testing.T) {
	t.Parallel()

	var output bytes.Buffer

	actual := NewParser(test.DummyLogger(&output).Sugar()).Parse("bogus")
	from, to := actual.Unix()

	assert.Equal(t, time.Hour, actual.Duration())
	assert.Equal(t, int64(3600), to-from)
	assert.WithinDuration(t, time.Now(), actual.To, 5*time.Second)
	assert.Contains(t, output.String(), "Invalid timeframe 'bogus'")
}

func TestTimeframeString(t *testing.T) {
	t.Parallel()

	actual := Timeframe{
		From: time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 1, 3, 1, 0, 0, 0, time.UTC),
	}

	assert.Equal(t, "2025-01-03 00:00:00 UTC - 2025-01-03 01:00:00 UTC", actual.String())
}
