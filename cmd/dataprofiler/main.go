package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/guillermoBallester/dataprofiler/internal/config"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// rootFlags are the persistent flags shared by every subcommand.
type rootFlags struct {
	dbType         string
	dbURL          string
	schema         string
	application    string
	environment    string
	metricsBackend string
	logLevel       string
	policyFile     string
	otel           bool
}

// cli carries state resolved in the root pre-run to the subcommands.
type cli struct {
	flags  rootFlags
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	return newRoot(&cli{})
}

func newRoot(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "dataprofiler",
		Short:         "Profile tables, compare schemas and predict auto-increment overflow",
		Long:          "dataprofiler computes column statistics, diffs table structure across environments and forecasts when auto-increment columns run out, on PostgreSQL, SQL Server, MySQL and Oracle.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.dbType, "db-type", "", "source database type: postgresql, mssql, mysql or oracle (env: DATAPROFILER_DB_TYPE)")
	pf.StringVar(&c.flags.dbURL, "db-url", "", "source connection URL (env: DATAPROFILER_DB_URL)")
	pf.StringVar(&c.flags.schema, "schema", "", "schema to read, engine default when empty (env: DATAPROFILER_SCHEMA)")
	pf.StringVar(&c.flags.application, "app", "", "application name stored with results (env: DATAPROFILER_APPLICATION)")
	pf.StringVar(&c.flags.environment, "env", "", "environment name stored with results (env: DATAPROFILER_ENVIRONMENT)")
	pf.StringVar(&c.flags.metricsBackend, "metrics-backend", "", "metrics store: clickhouse, postgres or none (env: DATAPROFILER_METRICS_BACKEND)")
	pf.StringVar(&c.flags.logLevel, "log-level", "", "log level: debug, info, warn, error (env: LOG_LEVEL)")
	pf.StringVar(&c.flags.policyFile, "policy-file", "", "path to a YAML table policy (env: DATAPROFILER_POLICY_FILE)")
	pf.BoolVar(&c.flags.otel, "otel", false, "enable OpenTelemetry export (env: OTEL_ENABLED)")

	root.AddCommand(
		newProfileCmd(c),
		newCompareCmd(c),
		newOverflowCmd(c),
		newTablesCmd(c),
		newMigrateCmd(c),
		newServeCmd(c),
	)
	return root
}

// load resolves configuration from env, file and flags, then builds the
// logger. Logs go to stderr; stdout carries reports and the MCP stream.
func (c *cli) load(cmd *cobra.Command) error {
	cfg, err := config.Load(c.overrides(cmd.Flags().Changed))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	c.cfg = cfg
	c.logger = newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	return nil
}

// overrides maps flags the user actually set onto config overrides.
func (c *cli) overrides(changed func(name string) bool) config.Overrides {
	var o config.Overrides
	pick := func(name string, v *string) *string {
		if changed(name) {
			return v
		}
		return nil
	}
	o.DBType = pick("db-type", &c.flags.dbType)
	o.DBURL = pick("db-url", &c.flags.dbURL)
	o.Schema = pick("schema", &c.flags.schema)
	o.Application = pick("app", &c.flags.application)
	o.Environment = pick("env", &c.flags.environment)
	o.MetricsBackend = pick("metrics-backend", &c.flags.metricsBackend)
	o.LogLevel = pick("log-level", &c.flags.logLevel)
	o.PolicyFile = pick("policy-file", &c.flags.policyFile)
	o.OTelEnabled = c.flags.otel
	return o
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
