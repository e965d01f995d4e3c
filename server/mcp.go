package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/xasher20/HMI-Design-Development-in-IIOT/audit"
)

// MCPServer exposes read-only gateway diagnostics over stdio for
// operator tooling. It has no control authority: commands only enter
// through the authenticated transports.
type MCPServer struct {
	Server *server.MCPServer
}

func NewMCPServer(control *ControlServer, auditLog *audit.Logger) *MCPServer {
	s := server.NewMCPServer("Train Control Gateway", "1.0.0")

	listSessions := mcp.NewTool("list_sessions", mcp.WithDescription("List the currently connected control sessions"))
	s.AddTool(listSessions, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		type sessionElement struct {
			ID            string `json:"id"`
			RemoteAddr    string `json:"remote_addr"`
			Identity      string `json:"identity,omitempty"`
			Authenticated bool   `json:"authenticated"`
		}

		clients := control.Sessions()
		res := make([]sessionElement, 0, len(clients))
		for _, client := range clients {
			sess := client.Session()
			res = append(res, sessionElement{
				ID:            sess.ID,
				RemoteAddr:    sess.RemoteAddr,
				Identity:      sess.Identity(),
				Authenticated: sess.Authenticated(),
			})
		}

		return toolJSON(res)
	})

	if auditLog != nil {
		recentCommands := mcp.NewTool("recent_commands", mcp.WithDescription("Show the most recent entries of the command audit log"))
		s.AddTool(recentCommands, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			entries, err := auditLog.Recent(20)
			if err != nil {
				return nil, err
			}
			return toolJSON(entries)
		})
	}

	return &MCPServer{Server: s}
}

func toolJSON(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		}}, nil
}

func (s *MCPServer) Start() error {
	slog.Info("Started stdio MCP server")
	defer func() {
		slog.Info("Shut down stdio MCP server")
	}()
	return server.ServeStdio(s.Server)
}
