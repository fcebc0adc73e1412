package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a configured MCP server with all Lumenguard tools registered.
func NewMCPServer(cfg Config) *server.MCPServer {
	s := server.NewMCPServer("lumenguard", "1.0.0")
	client := NewLumenguardClient(cfg)
	h := NewHandlers(client)

	s.AddTool(ToolAnalyzeAccount, h.HandleAnalyzeAccount)
	s.AddTool(ToolCheckBlacklist, h.HandleCheckBlacklist)
	s.AddTool(ToolGetAnalysisHistory, h.HandleGetAnalysisHistory)
	s.AddTool(ToolReportScam, h.HandleReportScam)
	s.AddTool(ToolListReports, h.HandleListReports)

	return s
}
