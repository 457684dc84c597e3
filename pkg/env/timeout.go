package env

import (
	"strconv"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultRequestTimeout   = 30 * time.Second
	DefaultStatementTimeout = 60 * time.Second

	requestTimeoutKey   = "request_timeout"
	statementTimeoutKey = "statement_timeout"
)

// RequestTimeout bounds every outbound HTTP call.
func RequestTimeout(v *viper.Viper) time.Duration {
	return duration(v, requestTimeoutKey, DefaultRequestTimeout)
}

// StatementTimeout bounds the execution of a single SQL statement.
func StatementTimeout(v *viper.Viper) time.Duration {
	return duration(v, statementTimeoutKey, DefaultStatementTimeout)
}

// duration reads key as a duration. Values without a unit are seconds;
// anything unparseable or not positive yields fallback.
func duration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	d := v.GetDuration(key)
	if n, err := strconv.Atoi(v.GetString(key)); err == nil {
		d = time.Duration(n) * time.Second
	}
	if d <= 0 {
		return fallback
	}
	return d
}
