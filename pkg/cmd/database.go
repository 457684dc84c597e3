package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/app-sre/explorer/pkg/audit"
	"github.com/app-sre/explorer/pkg/database"
	"github.com/app-sre/explorer/pkg/env"
	"github.com/app-sre/explorer/pkg/env/db"
	"github.com/app-sre/explorer/pkg/env/splunk"
	"github.com/app-sre/explorer/pkg/format"
	"github.com/app-sre/explorer/pkg/precheck"
)

const vpnRemedy = "Connect to the VPN first (tailscale up), or pass --no-vpn-check if the database is reachable without it"

type databaseOptions struct {
	config      string
	environment db.Environment
	output      format.Output
	noVPNCheck  bool
	debug       bool
}

// databaseDeps are the side effects of a run that tests replace.
type databaseDeps struct {
	open     func(*db.Env) (*sql.DB, error)
	run      precheck.Runner
	resolver precheck.Resolver
}

func NewDatabaseCommand(logger *zap.SugaredLogger, level zap.AtomicLevel) *cobra.Command {
	return newDatabaseCommand(logger, level, databaseDeps{open: database.Open})
}

func newDatabaseCommand(logger *zap.SugaredLogger, level zap.AtomicLevel, deps databaseDeps) *cobra.Command {
	o := &databaseOptions{environment: db.Staging, output: format.JSON}

	c := &cobra.Command{
		Use:   "dbexplorer <sql>",
		Short: "Run read-only SQL against the staging or production database",
		Long: `Run a single SQL statement against the staging or production database.

Statements run as the environment's read-only role inside a read-only
transaction that is always rolled back. Every statement is audited before
it runs.`,
		Example: `  dbexplorer "select id, name from sheets limit 5"
  dbexplorer --env prod --output yaml "select count(*) from users"`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			enableDebug(logger, level, o.debug)

			r := &databaseRun{
				logger:  logger,
				opts:    o,
				deps:    deps,
				printer: format.NewPrinter(cmd.OutOrStdout()),
				status:  status{w: cmd.ErrOrStderr()},
				stderr:  cmd.ErrOrStderr(),
			}
			return r.run(cmd.Context(), args[0])
		},
	}

	f := c.Flags()
	f.VarP(&o.environment, "env", "e", "database environment (staging, prod)")
	f.VarP(&o.output, "output", "o", "output format (json, yaml)")
	f.StringVarP(&o.config, "config", "c", "", "configuration file (default: ~/.config/explorer/explorer.yaml)")
	f.BoolVar(&o.noVPNCheck, "no-vpn-check", false, "skip the VPN and DNS checks")
	f.BoolVar(&o.debug, "debug", false, "enable debug logging")

	c.AddCommand(newVersionCommand("dbexplorer"))

	return c
}

type databaseRun struct {
	logger  *zap.SugaredLogger
	opts    *databaseOptions
	deps    databaseDeps
	printer *format.Printer
	status  status
	stderr  io.Writer
}

func (r *databaseRun) run(ctx context.Context, query string) error {
	environment := r.opts.environment

	v, err := env.Load(r.opts.config)
	if err != nil {
		return err
	}

	dbe := db.NewDBEnv()
	if err := dbe.Populate(v, environment); err != nil {
		fmt.Fprintf(r.stderr, "❌ Database for %s is not configured\n", environment)
		fmt.Fprintf(r.stderr, "💡 Set database.%s.host, user, password and name in ~/.config/explorer/explorer.yaml\n", environment)
		return fmt.Errorf("unable to configure database: %w", err)
	}
	r.logger.Debugf("Using database driver: %s (host: %s, port: %d)", dbe.Driver, dbe.Host, dbe.Port)

	audits, err := r.audits(v)
	if err != nil {
		return err
	}

	if v.GetBool("vpn.enabled") && !r.opts.noVPNCheck {
		r.status.Printf("🔐 Checking VPN connection...")
		err := precheck.Run(ctx, r.logger,
			precheck.Check{
				Name:    "VPN",
				Checker: precheck.VPN(r.logger, v.GetString("vpn.command"), r.deps.run),
				Remedy:  vpnRemedy,
			},
			precheck.Check{
				Name:    "DNS",
				Checker: precheck.DNS(dbe.Host, r.deps.resolver),
				Remedy:  fmt.Sprintf("Unable to resolve %s: check that the VPN is connected and its DNS is enabled", dbe.Host),
			},
		)
		if err != nil {
			reportFailure(r.stderr, err)
			return err
		}
	}

	conn, err := r.deps.open(dbe)
	if err != nil {
		return err
	}
	defer func() {
		_ = conn.Close()
		r.status.Printf("🔌 Disconnected")
	}()

	err = precheck.Run(ctx, r.logger, precheck.Check{
		Name:    "database",
		Checker: precheck.Database(conn),
		Remedy:  fmt.Sprintf("Check the %s credentials and that %s:%d is reachable", environment, dbe.Host, dbe.Port),
	})
	if err != nil {
		reportFailure(r.stderr, err)
		return err
	}
	r.status.Printf("✅ Connected to %s database", environment)

	err = audits.Write(ctx, &audit.QueryData{
		Query:       query,
		User:        audit.CurrentUser(),
		Environment: string(environment),
		Timestamp:   time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("unable to audit query: %w", err)
	}

	rows, err := database.Query(ctx, conn, dbe.Driver, query, env.StatementTimeout(v))
	if err != nil {
		fmt.Fprintf(r.stderr, "❌ Query failed: %s\n", err)
	}

	if len(rows) == 0 {
		r.status.Printf("📊 Query completed - no results returned")
		return nil
	}

	content, err := format.EncodeRows(rows, r.opts.output)
	if err != nil {
		fmt.Fprintf(r.stderr, "❌ Query failed: %s\n", err)
		return nil
	}

	r.status.Printf("📊 Query results (%d rows):", len(rows))
	return r.printer.Encoded(content)
}

func (r *databaseRun) audits(v *viper.Viper) (audit.Chain, error) {
	audits := audit.Chain{audit.NewLoggerAudit(r.logger)}

	se := splunk.NewSplunkEnv()
	if !se.Enabled(v) {
		return audits, nil
	}
	if err := se.Populate(v); err != nil {
		return nil, fmt.Errorf("unable to configure Splunk: %w", err)
	}
	r.logger.Debugf("Sending audit to Splunk endpoint: %s", se.Endpoint)

	return append(audits, audit.NewSplunkAudit(se, audit.WithTimeout(env.RequestTimeout(v)))), nil
}
