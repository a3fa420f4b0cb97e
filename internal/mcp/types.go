package mcp

import "ghtriage/server/internal/tools"

// Server identity reported on initialize.
const (
	serverName      = "ghtriage"
	serverVersion   = "0.1.0"
	protocolVersion = "2025-03-26"
)

// MCP Protocol Types

type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
}

type ServerCapabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type ToolsListResult struct {
	Tools []tools.Tool `json:"tools"`
}

type ToolCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// Result envelopes come straight from the tools package.
type ToolCallResult = tools.ToolCallResult
type ContentBlock = tools.ContentBlock
