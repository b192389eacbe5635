package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/guillermoBallester/dataprofiler/internal/adapter/mcp"
	"github.com/guillermoBallester/dataprofiler/internal/adapter/policy"
	"github.com/guillermoBallester/dataprofiler/internal/adapter/registry"
	"github.com/guillermoBallester/dataprofiler/internal/config"
	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
	"github.com/guillermoBallester/dataprofiler/internal/core/port"
	"github.com/guillermoBallester/dataprofiler/internal/core/service"
	"github.com/guillermoBallester/dataprofiler/internal/report"
)

// outputFlags are shared by the commands that render a report.
type outputFlags struct {
	tables []string
	format string
	output string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&o.tables, "tables", nil, "comma-separated tables, every table of the schema when empty")
	cmd.Flags().StringVar(&o.format, "format", report.FormatMarkdown, "report format: markdown, json, csv or table")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "write the report to this file instead of stdout")
}

// compareFlags describe the second connection of a comparison.
type compareFlags struct {
	url    string
	dbType string
	env    string
	schema string
}

func (f *compareFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.url, "compare-url", "", "connection URL of the database to compare against")
	cmd.Flags().StringVar(&f.dbType, "compare-type", "", "database type of the compare connection, the source type when empty")
	cmd.Flags().StringVar(&f.env, "compare-env", "compare", "environment name of the compare connection")
	cmd.Flags().StringVar(&f.schema, "compare-schema", "", "schema on the compare connection, the source schema when empty")
}

// open connects the compare side. Records from it carry the source
// application and the compare environment name.
func (f *compareFlags) open(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (*service.Environment, error) {
	t := cfg.Source.Type
	if f.dbType != "" {
		parsed, err := domain.ParseDatabaseType(f.dbType)
		if err != nil {
			return nil, fmt.Errorf("invalid --compare-type: %w", err)
		}
		t = parsed
	}
	engine, _, err := registry.Default().Open(cmd.Context(), t, f.url,
		port.EngineOptions{QueryTimeout: cfg.Source.QueryTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("compare connection: %w", err)
	}

	target := engine.Target()
	target.Application = cfg.Application
	target.Environment = f.env
	target.SchemaName = cfg.Source.Schema
	if f.schema != "" {
		target.SchemaName = f.schema
	}
	return &service.Environment{Name: f.env, Engine: engine, Target: target}, nil
}

func newProfileCmd(c *cli) *cobra.Command {
	var (
		out     outputFlags
		noStore bool
	)
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Compute column statistics for tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			formatter, err := report.New(out.format)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, c.cfg, c.logger, appOptions{source: true, sink: !noStore})
			if err != nil {
				return err
			}
			defer a.close(ctx)

			var profiler port.TableProfiler = service.NewMetricsEngine(a.engine, a.engine.Capabilities(), a.validator, c.logger)
			if a.policy != nil {
				profiler = policy.NewProfiler(profiler, a.policy)
			}
			svc := service.NewProfilerService(a.engine, profiler, a.sink, a.journal, c.logger,
				a.telemetry.Tracer(), a.telemetry.Instruments())

			res, err := svc.ProfileTables(ctx, a.target(), out.tables)
			if err != nil {
				return err
			}

			w, closeOut, err := openOutput(out.output, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer closeOut()
			for _, p := range res.Profiles {
				if err := formatter.Profile(w, p); err != nil {
					return fmt.Errorf("writing report: %w", err)
				}
			}

			c.logger.InfoContext(ctx, "profile run complete",
				slog.String("run_id", res.RunID),
				slog.Int("profiled", len(res.Profiles)),
				slog.Int("skipped", len(res.Skipped)),
				slog.Int("failed", len(res.Failures)),
			)
			if len(res.Failures) > 0 {
				return fmt.Errorf("%d table(s) failed, first: %s (%s): %s",
					len(res.Failures), res.Failures[0].Table, res.Failures[0].Stage, res.Failures[0].Error)
			}
			return nil
		},
	}
	out.register(cmd)
	cmd.Flags().BoolVar(&noStore, "no-store", false, "do not write results to the metrics store")
	return cmd
}

func newCompareCmd(c *cli) *cobra.Command {
	var (
		out         outputFlags
		cmp         compareFlags
		strict      bool
		failOnDrift bool
	)
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Diff table structure between the source and a second database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmp.url == "" {
				return fmt.Errorf("--compare-url is required")
			}
			formatter, err := report.New(out.format)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("strict") {
				c.cfg.Strict = strict
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, c.cfg, c.logger, appOptions{source: true, sink: c.cfg.StoreSchema})
			if err != nil {
				return err
			}
			defer a.close(ctx)

			after, err := cmp.open(cmd, c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer after.Engine.Close()
			before := service.Environment{Name: c.cfg.Environment, Engine: a.engine, Target: a.target()}

			svc := service.NewDriftService(domain.Comparator{Strict: c.cfg.Strict}, a.sink, c.cfg.StoreSchema,
				a.journal, c.logger, a.telemetry.Tracer(), a.telemetry.Instruments()).
				WithStrictness(a.policy.StrictFor)

			drifts, err := svc.CompareTables(ctx, before, *after, out.tables)
			if err != nil {
				return err
			}

			w, closeOut, err := openOutput(out.output, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer closeOut()

			changed, failed := 0, 0
			for _, d := range drifts {
				if err := formatter.Diff(w, d); err != nil {
					return fmt.Errorf("writing report: %w", err)
				}
				switch {
				case d.Error != "":
					failed++
				case !d.Diff.IsEmpty():
					changed++
				}
			}

			c.logger.InfoContext(ctx, "compare run complete",
				slog.Int("tables", len(drifts)),
				slog.Int("drifted", changed),
				slog.Int("failed", failed),
			)
			if failed > 0 {
				return fmt.Errorf("%d table(s) could not be compared", failed)
			}
			if failOnDrift && changed > 0 {
				return fmt.Errorf("schema drift in %d table(s)", changed)
			}
			return nil
		},
	}
	out.register(cmd)
	cmp.register(cmd)
	cmd.Flags().BoolVar(&strict, "strict", true, "compare default expressions verbatim and index methods (env: DATAPROFILER_STRICT)")
	cmd.Flags().BoolVar(&failOnDrift, "fail-on-drift", false, "exit non-zero when any table differs")
	return cmd
}

func newOverflowCmd(c *cli) *cobra.Command {
	var (
		out            outputFlags
		lookback       int
		failOnCritical bool
	)
	cmd := &cobra.Command{
		Use:   "overflow",
		Short: "Forecast auto-increment exhaustion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			formatter, err := report.New(out.format)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("lookback-days") {
				if lookback <= 0 {
					return fmt.Errorf("--lookback-days must be positive")
				}
				c.cfg.LookbackDays = lookback
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, c.cfg, c.logger, appOptions{source: true, sink: true})
			if err != nil {
				return err
			}
			defer a.close(ctx)

			svc := service.NewOverflowService(a.engine, a.sink, c.cfg.LookbackDays, a.journal, c.logger,
				a.telemetry.Tracer(), a.telemetry.Instruments())
			forecasts, err := svc.CheckTables(ctx, a.target(), out.tables)
			if err != nil {
				return err
			}

			w, closeOut, err := openOutput(out.output, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer closeOut()
			if err := formatter.Overflow(w, forecasts); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}

			critical := 0
			for _, f := range forecasts {
				if f.AlertStatus == domain.AlertCritical {
					critical++
				}
			}
			if failOnCritical && critical > 0 {
				return fmt.Errorf("%d column(s) in CRITICAL state", critical)
			}
			return nil
		},
	}
	out.register(cmd)
	cmd.Flags().IntVar(&lookback, "lookback-days", domain.DefaultLookbackDays, "days of growth history to regress over (env: DATAPROFILER_LOOKBACK_DAYS)")
	cmd.Flags().BoolVar(&failOnCritical, "fail-on-critical", false, "exit non-zero when any column is CRITICAL")
	return cmd
}

func newTablesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the source schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, c.cfg, c.logger, appOptions{source: true})
			if err != nil {
				return err
			}
			defer a.close(ctx)

			schema := a.target().SchemaName
			tables, err := a.engine.ListTables(ctx, schema)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, t := range tables {
				note := a.policy.Describe(schema, t)
				if a.policy.Excluded(schema, t) {
					note = "(excluded) " + note
				}
				fmt.Fprintf(tw, "%s\t%s\n", t, note)
			}
			return tw.Flush()
		},
	}
}

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the metrics store tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if c.cfg.Metrics.Backend == config.BackendNone {
				c.logger.InfoContext(ctx, "no metrics backend configured, nothing to migrate")
				return nil
			}
			a, err := newApp(ctx, c.cfg, c.logger, appOptions{sink: true})
			if err != nil {
				return err
			}
			a.close(ctx)
			return nil
		},
	}
}

func newServeCmd(c *cli) *cobra.Command {
	var cmp compareFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the profiling tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, c.cfg, c.logger, appOptions{source: true, sink: true})
			if err != nil {
				return err
			}
			defer a.close(ctx)

			tracer, inst := a.telemetry.Tracer(), a.telemetry.Instruments()
			var profiler port.TableProfiler = service.NewMetricsEngine(a.engine, a.engine.Capabilities(), a.validator, c.logger)
			if a.policy != nil {
				profiler = policy.NewProfiler(profiler, a.policy)
			}

			deps := mcp.Deps{
				Engine:   a.engine,
				Target:   a.target(),
				Policy:   a.policy,
				Profiler: service.NewProfilerService(a.engine, profiler, a.sink, a.journal, c.logger, tracer, inst),
				Overflow: service.NewOverflowService(a.engine, a.sink, c.cfg.LookbackDays, a.journal, c.logger, tracer, inst),
				Drift: service.NewDriftService(domain.Comparator{Strict: c.cfg.Strict}, a.sink, c.cfg.StoreSchema,
					a.journal, c.logger, tracer, inst).WithStrictness(a.policy.StrictFor),
			}
			if cmp.url != "" {
				env, err := cmp.open(cmd, c.cfg, c.logger)
				if err != nil {
					return err
				}
				defer env.Engine.Close()
				deps.Compare = env
			}

			server := mcp.NewServer(version, deps, c.logger, tracer, inst)
			c.logger.InfoContext(ctx, "serving MCP over stdio",
				slog.String("version", version),
				slog.String("db_type", string(c.cfg.Source.Type)),
				slog.Bool("compare", deps.Compare != nil),
			)
			if err := mcpserver.NewStdioServer(server).Listen(ctx, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("stdio server: %w", err)
			}
			c.logger.InfoContext(ctx, "shutdown complete")
			return nil
		},
	}
	cmp.register(cmd)
	return cmd
}
