package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/guillermoBallester/dataprofiler/internal/core/port"
)

type callState struct {
	start time.Time
	span  trace.Span
}

// inflight tracks tool calls between their before and after hooks.
type inflight struct {
	calls sync.Map // request id -> *callState
}

// finish removes the call and reports how long it ran. The span is nil
// when tracing is off or the id was never seen.
func (f *inflight) finish(id any) (time.Duration, trace.Span) {
	v, ok := f.calls.LoadAndDelete(id)
	if !ok {
		return 0, nil
	}
	state := v.(*callState)
	return time.Since(state.start), state.span
}

// ToolCallHooks logs every tool call and, when tracer or inst are set,
// records a span and the call duration under the "mcp.<tool>" operation.
func ToolCallHooks(logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *server.Hooks {
	hooks := &server.Hooks{}
	calls := &inflight{}

	hooks.AddBeforeCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest) {
		state := &callState{start: time.Now()}
		if tracer != nil {
			_, state.span = tracer.Start(ctx, "mcp.tool "+req.Params.Name,
				trace.WithAttributes(attribute.String("mcp.tool", req.Params.Name)),
			)
		}
		calls.calls.Store(id, state)
	})

	hooks.AddAfterCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest, result any) {
		duration, span := calls.finish(id)

		failed := false
		if r, ok := result.(*mcp.CallToolResult); ok && r.IsError {
			failed = true
		}
		level := slog.LevelInfo
		if failed {
			level = slog.LevelWarn
		}
		logger.LogAttrs(ctx, level, "tool call",
			slog.String("mcp.tool", req.Params.Name),
			slog.Int64("duration_ms", duration.Milliseconds()),
			slog.Bool("error", failed),
		)

		if inst != nil {
			inst.RecordTableDuration(ctx, "mcp."+req.Params.Name, float64(duration.Milliseconds()))
		}
		if span != nil {
			if failed {
				span.RecordError(fmt.Errorf("tool %s returned an error result", req.Params.Name))
				span.SetStatus(codes.Error, "tool error")
			}
			span.End()
		}
	})

	hooks.AddOnError(func(ctx context.Context, id any, _ mcp.MCPMethod, message any, err error) {
		duration, span := calls.finish(id)

		if req, ok := message.(*mcp.CallToolRequest); ok {
			logger.LogAttrs(ctx, slog.LevelError, "tool call failed",
				slog.String("mcp.tool", req.Params.Name),
				slog.Int64("duration_ms", duration.Milliseconds()),
				slog.String("error", err.Error()),
			)
		}
		if span != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
		}
	})

	return hooks
}
