package mcp

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
	"github.com/guillermoBallester/dataprofiler/internal/core/port"
)

type recordingInst struct {
	port.NoopInstrumentation
	mu  sync.Mutex
	ops []string
}

func (r *recordingInst) RecordTableDuration(_ context.Context, operation string, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, operation)
}

func TestToolCallHooks(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")
	inst := &recordingInst{}

	engine := testEngine()
	s := server.NewMCPServer("test", "0.1.0",
		server.WithToolCapabilities(true),
		server.WithHooks(ToolCallHooks(logger, tracer, inst)),
	)
	RegisterTools(s, Deps{Engine: engine, Target: domain.Target{SchemaName: "public"}})

	result := callTool(t, s, "list_tables", nil)
	require.False(t, result.IsError)

	assert.Equal(t, []string{"mcp.list_tables"}, inst.ops)
	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "mcp.tool list_tables", spans[0].Name())
	assert.Contains(t, logs.String(), `"mcp.tool":"list_tables"`)
	assert.Contains(t, logs.String(), `"error":false`)
}

func TestToolCallHooks_ErrorResult(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	engine := testEngine()
	engine.listErr = assert.AnError
	s := server.NewMCPServer("test", "0.1.0",
		server.WithToolCapabilities(true),
		server.WithHooks(ToolCallHooks(logger, nil, nil)),
	)
	RegisterTools(s, Deps{Engine: engine})

	result := callTool(t, s, "list_tables", nil)
	assert.True(t, result.IsError)
	assert.Contains(t, logs.String(), `"level":"WARN"`)
	assert.Contains(t, logs.String(), `"error":true`)
}
