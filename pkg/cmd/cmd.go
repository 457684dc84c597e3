package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/app-sre/explorer/pkg/precheck"
	"github.com/app-sre/explorer/pkg/version"
)

// status writes progress lines meant for a person, never for a pipe.
type status struct {
	w     io.Writer
	quiet bool
}

func (s status) Printf(format string, args ...any) {
	if !s.quiet {
		fmt.Fprintf(s.w, format+"\n", args...)
	}
}

func reportFailure(w io.Writer, err error) {
	var checkErr *precheck.Error
	if !errors.As(err, &checkErr) {
		fmt.Fprintf(w, "❌ %s\n", err)
		return
	}

	fmt.Fprintf(w, "❌ %s\n", checkErr.Err)
	if checkErr.Remedy != "" {
		fmt.Fprintf(w, "💡 %s\n", checkErr.Remedy)
	}
}

func enableDebug(logger *zap.SugaredLogger, level zap.AtomicLevel, debug bool) {
	if debug {
		level.SetLevel(zap.DebugLevel)
		logger.Debugf("Debug logging enabled (version: %s, commit: %s)", version.Version(), version.Commit())
	}
}

func newVersionCommand(name string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (commit: %s)\n", name, version.Version(), version.Commit())
		},
	}
}
