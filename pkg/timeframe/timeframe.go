// Package timeframe resolves user supplied time window strings such as "1h",
// "2025-01-03" or "1754539200,1754711999" into a pair of instants.
package timeframe

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultWindow = time.Hour

	// Integers above this many seconds (more than 10 digits) are milliseconds.
	millisecondThreshold = 9_999_999_999

	displayLayout = "2006-01-02 15:04:05 MST"
)

var (
	relativePattern = regexp.MustCompile(`^(\d+)([mhd])$`)
	integerPattern  = regexp.MustCompile(`^\d+$`)

	// Layouts without an offset are interpreted in the parser location.
	layouts = []string{
		"2006-01-02",
		"2006/01/02",
		"01-02-2006",
		"01/02/2006",
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04Z07:00",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
	}

	units = map[string]time.Duration{
		"m": time.Minute,
		"h": time.Hour,
		"d": 24 * time.Hour,
	}

	errUnrecognized = errors.New("unrecognized timeframe")
)

type Timeframe struct {
	From time.Time
	To   time.Time
}

// Unix returns the window bounds as Unix seconds.
func (t Timeframe) Unix() (int64, int64) {
	return t.From.Unix(), t.To.Unix()
}

func (t Timeframe) Duration() time.Duration {
	return t.To.Sub(t.From)
}

func (t Timeframe) String() string {
	return fmt.Sprintf("%s - %s", t.From.Format(displayLayout), t.To.Format(displayLayout))
}

type Option func(*Parser)

func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		p.now = now
	}
}

func WithLocation(location *time.Location) Option {
	return func(p *Parser) {
		p.location = location
	}
}

type Parser struct {
	logger   *zap.SugaredLogger
	now      func() time.Time
	location *time.Location
}

func NewParser(logger *zap.SugaredLogger, options ...Option) *Parser {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	p := &Parser{
		logger:   logger,
		now:      time.Now,
		location: time.Local,
	}

	for _, option := range options {
		option(p)
	}

	return p
}

// Parse never fails: input that matches none of the supported forms is
// reported as a warning and resolves to the last hour.
func (p *Parser) Parse(s string) Timeframe {
	s = strings.TrimSpace(s)
	now := p.now().In(p.location)

	tf, err := p.parse(s, now)
	if err == nil {
		return tf
	}

	p.logger.Warnf("Invalid timeframe '%s' (%s), using default %s", s, err, DefaultWindow)
	return Timeframe{From: now.Add(-DefaultWindow), To: now}
}

func (p *Parser) parse(s string, now time.Time) (Timeframe, error) {
	switch {
	case strings.Contains(s, ","):
		return p.parseRange(s)
	case strings.Contains(s, "-") && !strings.HasPrefix(s, "-"):
		return p.parseDay(s)
	}

	m := relativePattern.FindStringSubmatch(s)
	if m == nil {
		return Timeframe{}, errUnrecognized
	}

	value, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return Timeframe{}, fmt.Errorf("unable to parse relative duration: %w", err)
	}
	delta := time.Duration(value) * units[m[2]]
	if delta < 0 || delta/units[m[2]] != time.Duration(value) {
		return Timeframe{}, fmt.Errorf("relative duration out of range: %s", s)
	}

	return Timeframe{From: now.Add(-delta), To: now}, nil
}

// parseRange handles "from,to" where each side is an integer timestamp or a
// date/time string. Date-only endpoints both resolve to the start of the day.
func (p *Parser) parseRange(s string) (Timeframe, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Timeframe{}, fmt.Errorf("expected two comma separated values, got %d", len(parts))
	}

	from, err := p.parseInstant(parts[0])
	if err != nil {
		return Timeframe{}, err
	}
	to, err := p.parseInstant(parts[1])
	if err != nil {
		return Timeframe{}, err
	}
	if to.Before(from) {
		return Timeframe{}, fmt.Errorf("end %s is before start %s", to.Format(time.RFC3339), from.Format(time.RFC3339))
	}

	return Timeframe{From: from, To: to}, nil
}

func (p *Parser) parseDay(s string) (Timeframe, error) {
	t, err := p.parseTime(s)
	if err != nil {
		return Timeframe{}, err
	}

	y, m, d := t.Date()
	return Timeframe{
		From: time.Date(y, m, d, 0, 0, 0, 0, p.location),
		To:   time.Date(y, m, d, 23, 59, 59, 999999000, p.location),
	}, nil
}

func (p *Parser) parseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	if integerPattern.MatchString(s) {
		value, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("unable to parse timestamp: %w", err)
		}
		if value > millisecondThreshold {
			return time.UnixMilli(value).In(p.location), nil
		}
		return time.Unix(value, 0).In(p.location), nil
	}

	return p.parseTime(s)
}

func (p *Parser) parseTime(s string) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, p.location); err == nil {
			return t.In(p.location), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %q", s)
}
