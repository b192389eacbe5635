package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/guillermoBallester/dataprofiler/internal/adapter/policy"
	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
	"github.com/guillermoBallester/dataprofiler/internal/core/port"
	"github.com/guillermoBallester/dataprofiler/internal/core/service"
)

const serverName = "dataprofiler"

const (
	descListTables = "List the tables of the source schema with the operator description " +
		"from the policy file, when one is configured. Call this first to pick tables to profile."

	descProfileTable = "Profile one table: row count and, per column, the not-null and distinct proportions, " +
		"uniqueness, min/max, average, median and standard deviations where the column type supports them, " +
		"plus a cardinality class. Columns that could not be measured carry warnings instead of values. " +
		"Profiling scans the table; prefer it on tables you actually need to understand."

	descCompareSchemas = "Compare the structure of tables between the source database and the compare database: " +
		"added, removed and modified columns, primary key, index, foreign key and check constraint changes, " +
		"and likely column renames. Leave tables empty to compare every table of either side."

	descCheckOverflow = "Find auto-increment, serial and identity columns and forecast when each runs out of values, " +
		"from the current value, the type limit and the growth observed in stored history. " +
		"Returns usage percentage, remaining values, daily growth, days until full and an alert status."

	descTableParam  = "Name of the table"
	descSchemaParam = "Schema name (optional, defaults to the configured schema)"
	descTablesParam = "Comma-separated table names (optional, defaults to every table)"
)

// Deps are the collaborators the tools call. Compare is optional; without
// it compare_schemas is not registered.
type Deps struct {
	Engine   port.Engine
	Target   domain.Target
	Policy   *policy.Policy
	Profiler *service.ProfilerService
	Overflow *service.OverflowService
	Drift    *service.DriftService
	Compare  *service.Environment
}

// tableEntry is one list_tables row.
type tableEntry struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func RegisterTools(s *server.MCPServer, deps Deps) {
	s.AddTool(
		mcp.NewTool("list_tables",
			mcp.WithDescription(descListTables),
			mcp.WithString("schema", mcp.Description(descSchemaParam)),
		),
		listTablesHandler(deps),
	)

	s.AddTool(
		mcp.NewTool("profile_table",
			mcp.WithDescription(descProfileTable),
			mcp.WithString("table_name", mcp.Required(), mcp.Description(descTableParam)),
			mcp.WithString("schema", mcp.Description(descSchemaParam)),
		),
		profileTableHandler(deps),
	)

	if deps.Drift != nil && deps.Compare != nil {
		s.AddTool(
			mcp.NewTool("compare_schemas",
				mcp.WithDescription(descCompareSchemas),
				mcp.WithString("tables", mcp.Description(descTablesParam)),
				mcp.WithString("schema", mcp.Description(descSchemaParam)),
			),
			compareSchemasHandler(deps),
		)
	}

	s.AddTool(
		mcp.NewTool("check_overflow",
			mcp.WithDescription(descCheckOverflow),
			mcp.WithString("tables", mcp.Description(descTablesParam)),
			mcp.WithString("schema", mcp.Description(descSchemaParam)),
		),
		checkOverflowHandler(deps),
	)
}

func listTablesHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		target := targetFor(deps.Target, request)
		tables, err := deps.Engine.ListTables(ctx, target.SchemaName)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list tables: %v", err)), nil
		}

		out := make([]tableEntry, 0, len(tables))
		for _, t := range tables {
			if deps.Policy.Excluded(target.SchemaName, t) {
				continue
			}
			out = append(out, tableEntry{Name: t, Description: deps.Policy.Describe(target.SchemaName, t)})
		}
		return jsonResult(out)
	}
}

func profileTableHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, err := request.RequireString("table_name")
		if err != nil || table == "" {
			return mcp.NewToolResultError("table_name is required"), nil
		}

		res, err := deps.Profiler.ProfileTables(ctx, targetFor(deps.Target, request), []string{table})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to profile table: %v", err)), nil
		}
		if len(res.Skipped) > 0 {
			return mcp.NewToolResultError(fmt.Sprintf("table %s is excluded by policy", table)), nil
		}
		// A profile whose store failed is still returned.
		if len(res.Profiles) == 0 {
			if len(res.Failures) > 0 {
				f := res.Failures[0]
				return mcp.NewToolResultError(fmt.Sprintf("failed to profile table (%s): %s", f.Stage, f.Error)), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("no profile produced for %s", table)), nil
		}
		return jsonResult(res.Profiles[0])
	}
}

func compareSchemasHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		before := service.Environment{Name: "source", Engine: deps.Engine, Target: targetFor(deps.Target, request)}
		after := *deps.Compare
		if schema := request.GetString("schema", ""); schema != "" {
			after.Target.SchemaName = schema
		}

		drifts, err := deps.Drift.CompareTables(ctx, before, after, splitTables(request.GetString("tables", "")))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to compare schemas: %v", err)), nil
		}
		return jsonResult(drifts)
	}
}

func checkOverflowHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		forecasts, err := deps.Overflow.CheckTables(ctx, targetFor(deps.Target, request), splitTables(request.GetString("tables", "")))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to check overflow: %v", err)), nil
		}
		if forecasts == nil {
			forecasts = []domain.OverflowForecast{}
		}
		return jsonResult(forecasts)
	}
}

// targetFor applies the optional schema argument to the configured target.
func targetFor(base domain.Target, request mcp.CallToolRequest) domain.Target {
	if schema := request.GetString("schema", ""); schema != "" {
		base.SchemaName = schema
	}
	return base
}

func splitTables(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
