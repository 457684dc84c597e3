package precheck

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/etherlabsio/healthcheck/v2"
	"go.uber.org/zap"
)

const pingTimeout = 10 * time.Second

// Check is a named precondition together with what the user can do when it
// does not hold.
type Check struct {
	Name    string
	Checker healthcheck.Checker
	Remedy  string
}

type Error struct {
	Name   string
	Remedy string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s check failed: %s", e.Name, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Run executes the checks in order and stops at the first failure.
func Run(ctx context.Context, logger *zap.SugaredLogger, checks ...Check) error {
	for _, c := range checks {
		logger.Debugf("Running %s check", c.Name)

		if err := c.Checker.Check(ctx); err != nil {
			logger.Debugf("Check %s failed: %s", c.Name, err)
			return &Error{Name: c.Name, Remedy: c.Remedy, Err: err}
		}
	}

	return nil
}

// Database pings the database, opening the first connection of the pool.
func Database(conn *sql.DB) healthcheck.Checker {
	return healthcheck.CheckerFunc(
		func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, pingTimeout)
			defer cancel()

			if err := conn.PingContext(ctx); err != nil {
				return fmt.Errorf("unable to connect to database: %w", err)
			}
			return nil
		},
	)
}
