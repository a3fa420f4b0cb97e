// Package mcp routes MCP protocol methods to the tool gateway.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"

	"ghtriage/server/internal/jsonrpc"
	"ghtriage/server/internal/tools"
)

// Handler implements the MCP method surface over a tool gateway.
type Handler struct {
	gateway *tools.Gateway
}

// NewHandler creates a handler backed by the given gateway.
func NewHandler(gateway *tools.Gateway) *Handler {
	return &Handler{gateway: gateway}
}

// ProcessRequest routes a JSON-RPC request to the appropriate handler.
// Called by the transport middleware.
func (h *Handler) ProcessRequest(ctx context.Context, req *jsonrpc.Request) (interface{}, *jsonrpc.Error) {
	switch req.Method {
	case "initialize":
		return h.handleInitialize(), nil
	case "initialized", "notifications/initialized":
		return nil, nil
	case "tools/list":
		return &ToolsListResult{Tools: h.gateway.Tools()}, nil
	case "tools/call":
		return h.handleToolCall(ctx, req)
	default:
		return nil, &jsonrpc.Error{Code: jsonrpc.MethodNotFound, Message: "Method not found"}
	}
}

func (h *Handler) handleInitialize() *InitializeResult {
	return &InitializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities: ServerCapabilities{
			Tools: &ToolsCapability{},
		},
		ServerInfo: ServerInfo{
			Name:    serverName,
			Version: serverVersion,
		},
	}
}

func (h *Handler) handleToolCall(ctx context.Context, req *jsonrpc.Request) (*ToolCallResult, *jsonrpc.Error) {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, &jsonrpc.Error{Code: jsonrpc.InvalidParams, Message: "Invalid params structure"}
	}
	if params.Name == "" {
		return nil, &jsonrpc.Error{Code: jsonrpc.InvalidParams, Message: "name is required"}
	}

	result, err := h.gateway.Invoke(ctx, params.Name, params.Arguments)
	if err != nil {
		return nil, invokeErrorToRPC(params.Name, err)
	}
	return result, nil
}

// invokeErrorToRPC maps gateway errors to JSON-RPC errors. Validation
// failures carry their field-level violations in the error data.
func invokeErrorToRPC(toolName string, err error) *jsonrpc.Error {
	var valErr *tools.ValidationError
	switch {
	case errors.Is(err, tools.ErrUnknownTool):
		return &jsonrpc.Error{Code: jsonrpc.InvalidParams, Message: fmt.Sprintf("Unknown tool: %s", toolName)}
	case errors.As(err, &valErr):
		return &jsonrpc.Error{
			Code:    jsonrpc.InvalidParams,
			Message: valErr.Error(),
			Data:    map[string]any{"violations": valErr.Violations},
		}
	default:
		return &jsonrpc.Error{Code: jsonrpc.InternalError, Message: err.Error()}
	}
}
