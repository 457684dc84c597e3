package audit

import (
	"context"
	"os"
	"os/user"
)

type Audit interface {
	Write(context.Context, *QueryData) error
}

type QueryData struct {
	Query       string
	User        string
	Environment string
	Timestamp   int64
}

// Chain writes to every audit in order and stops at the first failure.
type Chain []Audit

var _ Audit = (Chain)(nil)

func (c Chain) Write(ctx context.Context, q *QueryData) error {
	for _, a := range c {
		if err := a.Write(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// CurrentUser is the name of the local account running the command.
func CurrentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "unknown"
}
