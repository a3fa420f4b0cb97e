package tools

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"ghtriage/server/internal/middleware"
	"ghtriage/server/internal/observability"
)

// ErrUnknownTool is returned by Invoke when the requested tool name is not
// registered.
var ErrUnknownTool = errors.New("unknown tool")

// registration pairs a tool definition with its handler.
type registration struct {
	tool    Tool
	handler Handler
}

// Gateway owns the registry of tools and routes validated requests to
// handlers. All registration happens at startup; the registry is read-only
// afterwards, so invocations need no locking.
type Gateway struct {
	order   []string
	entries map[string]registration

	tracer      trace.Tracer
	invocations metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewGateway creates an empty gateway.
func NewGateway() *Gateway {
	meter := otel.Meter("ghtriage/server/internal/tools")
	invocations, _ := meter.Int64Counter("tool.invocations",
		metric.WithDescription("Number of tool invocations by tool and status"))
	duration, _ := meter.Float64Histogram("tool.duration",
		metric.WithDescription("Tool invocation duration"),
		metric.WithUnit("ms"))

	return &Gateway{
		entries:     make(map[string]registration),
		tracer:      otel.Tracer("ghtriage/server/internal/tools"),
		invocations: invocations,
		duration:    duration,
	}
}

// Register adds a tool to the registry. Registering a name twice is rejected:
// duplicate names are wiring bugs and should fail at startup, not silently
// shadow an earlier tool.
func (g *Gateway) Register(tool Tool, handler Handler) error {
	if tool.Name == "" {
		return errors.New("tool name must not be empty")
	}
	if handler == nil {
		return errors.Errorf("tool %q: handler must not be nil", tool.Name)
	}
	if _, exists := g.entries[tool.Name]; exists {
		return errors.Errorf("tool %q already registered", tool.Name)
	}
	g.entries[tool.Name] = registration{tool: tool, handler: handler}
	g.order = append(g.order, tool.Name)
	return nil
}

// Tools returns the tool catalog in registration order.
func (g *Gateway) Tools() []Tool {
	out := make([]Tool, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.entries[name].tool)
	}
	return out
}

// Invoke validates rawArgs against the named tool's schema and dispatches to
// its handler.
//
// Error contract:
//   - unregistered name: (nil, ErrUnknownTool) — wrapped with the name
//   - schema violation: (nil, *ValidationError) — no handler call, no
//     external request is ever attempted
//   - handler failure: failure envelope, nil error (upstream errors are a
//     tool result, not a protocol error)
//   - handler success: success envelope, nil error
func (g *Gateway) Invoke(ctx context.Context, name string, rawArgs map[string]any) (*ToolCallResult, error) {
	entry, ok := g.entries[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownTool, name)
	}

	params, err := ValidateParams(entry.tool.InputSchema, rawArgs)
	if err != nil {
		return nil, err
	}

	ctx, span := g.tracer.Start(ctx, "tools/call")
	span.SetAttributes(attribute.String("tool.name", name))
	defer span.End()

	start := time.Now()
	text, err := entry.handler(ctx, params)
	durationMs := time.Since(start).Milliseconds()

	status := "success"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("status", status),
	)
	g.invocations.Add(ctx, 1, attrs)
	g.duration.Record(ctx, float64(durationMs), attrs)

	requestID := middleware.GetRequestID(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		observability.LogToolCall(requestID, name, durationMs, "error", err.Error())
		return ErrorResult(err.Error()), nil
	}

	observability.LogToolCall(requestID, name, durationMs, "success", "")
	return TextResult(text), nil
}
