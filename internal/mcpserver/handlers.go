package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	client *LumenguardClient
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client *LumenguardClient) *Handlers {
	return &Handlers{client: client}
}

// HandleAnalyzeAccount runs a full analysis and renders it for the LLM.
func (h *Handlers) HandleAnalyzeAccount(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	address := req.GetString("address", "")
	if address == "" {
		return mcp.NewToolResultError("address is required"), nil
	}
	sender := req.GetString("sender_address", "")
	amount := req.GetFloat("amount", 0)
	assetCode := req.GetString("asset_code", "")

	raw, err := h.client.Analyze(ctx, address, sender, amount, assetCode)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Analysis failed: %v", err)), nil
	}

	text, err := formatAnalysis(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse analysis: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// HandleCheckBlacklist checks the curated blacklist.
func (h *Handlers) HandleCheckBlacklist(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	address := req.GetString("address", "")
	if address == "" {
		return mcp.NewToolResultError("address is required"), nil
	}

	raw, err := h.client.CheckBlacklist(ctx, address)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Blacklist check failed: %v", err)), nil
	}

	text, err := formatBlacklistCheck(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse response: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// HandleGetAnalysisHistory lists past analyses.
func (h *Handlers) HandleGetAnalysisHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	address := req.GetString("address", "")
	if address == "" {
		return mcp.NewToolResultError("address is required"), nil
	}
	limit := req.GetInt("limit", 0)

	raw, err := h.client.GetHistory(ctx, address, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("History lookup failed: %v", err)), nil
	}

	text, err := formatHistory(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse history: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// HandleReportScam files a community report.
func (h *Handlers) HandleReportScam(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	address := req.GetString("address", "")
	if address == "" {
		return mcp.NewToolResultError("address is required"), nil
	}
	category := req.GetString("category", "")
	if category == "" {
		return mcp.NewToolResultError("category is required"), nil
	}
	description := req.GetString("description", "")
	reporter := req.GetString("reporter", "")

	raw, err := h.client.ReportScam(ctx, address, category, description, reporter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Report submission failed: %v", err)), nil
	}

	var report map[string]any
	if err := json.Unmarshal(raw, &report); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse report: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("Report filed.\n")
	fmt.Fprintf(&sb, "  ID: %s\n", getString(report, "id"))
	fmt.Fprintf(&sb, "  Address: %s\n", getString(report, "address"))
	fmt.Fprintf(&sb, "  Category: %s\n", getString(report, "category"))
	sb.WriteString("The report is unverified until an operator reviews it.")
	return mcp.NewToolResultText(sb.String()), nil
}

// HandleListReports lists reports against an address.
func (h *Handlers) HandleListReports(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	address := req.GetString("address", "")
	if address == "" {
		return mcp.NewToolResultError("address is required"), nil
	}

	raw, err := h.client.ListReports(ctx, address)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Report lookup failed: %v", err)), nil
	}

	text, err := formatReports(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse reports: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// -----------------------------------------------------------------------------
// Formatting
// -----------------------------------------------------------------------------

func formatAnalysis(raw json.RawMessage) (string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Risk analysis for %s\n", getString(m, "address"))
	if score, ok := getFloat(m, "riskScore"); ok {
		fmt.Fprintf(&sb, "  Score: %.0f/100 (%s)\n", score, getString(m, "riskLevel"))
	}

	if threats, ok := m["threats"].([]any); ok && len(threats) > 0 {
		sb.WriteString("\nDetected threats:\n")
		for _, t := range threats {
			tm, ok := t.(map[string]any)
			if !ok {
				continue
			}
			fmt.Fprintf(&sb, "  - %s [%s]: %s\n",
				getString(tm, "name"),
				getString(tm, "severity"),
				getString(tm, "description"))
		}
	}

	if conns, ok := m["connections"].(map[string]any); ok {
		if flagged, _ := conns["hasScamConnections"].(bool); flagged {
			fmt.Fprintf(&sb, "\nScam connections: %s risk\n", getString(conns, "riskLevel"))
			if list, ok := conns["connections"].([]any); ok {
				for _, c := range list {
					cm, ok := c.(map[string]any)
					if !ok {
						continue
					}
					fmt.Fprintf(&sb, "  - %s (%s, %s)\n",
						getString(cm, "counterpartyAddress"),
						getString(cm, "scamCategory"),
						getString(cm, "direction"))
				}
			}
		}
	}

	if explanation := getString(m, "explanation"); explanation != "" {
		fmt.Fprintf(&sb, "\n%s\n", explanation)
	}

	if recs, ok := m["recommendations"].([]any); ok && len(recs) > 0 {
		sb.WriteString("\nRecommendations:\n")
		for _, r := range recs {
			if s, ok := r.(string); ok {
				fmt.Fprintf(&sb, "  - %s\n", s)
			}
		}
	}

	return sb.String(), nil
}

func formatBlacklistCheck(raw json.RawMessage) (string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", err
	}

	address := getString(m, "address")
	if flagged, _ := m["blacklisted"].(bool); !flagged {
		return fmt.Sprintf("%s is not on the blacklist.", address), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s IS BLACKLISTED.\n", address)
	if entry, ok := m["entry"].(map[string]any); ok {
		fmt.Fprintf(&sb, "  Category: %s\n", getString(entry, "category"))
		if reason := getString(entry, "reason"); reason != "" {
			fmt.Fprintf(&sb, "  Reason: %s\n", reason)
		}
	}
	sb.WriteString("Do not send funds to this address.")
	return sb.String(), nil
}

func formatHistory(raw json.RawMessage) (string, error) {
	var resp struct {
		Address string           `json:"address"`
		Records []map[string]any `json:"records"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}

	if len(resp.Records) == 0 {
		return fmt.Sprintf("No past analyses for %s.", resp.Address), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Past analyses for %s (%d):\n", resp.Address, len(resp.Records))
	for _, r := range resp.Records {
		score, _ := getFloat(r, "score")
		fmt.Fprintf(&sb, "  %s: %.0f/100 (%s)\n",
			getString(r, "createdAt"), score, getString(r, "level"))
	}
	return sb.String(), nil
}

func formatReports(raw json.RawMessage) (string, error) {
	var resp struct {
		Reports []map[string]any `json:"reports"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}

	if len(resp.Reports) == 0 {
		return "No community reports on file.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d report(s):\n\n", len(resp.Reports))
	for i, r := range resp.Reports {
		status := "unverified"
		if v, _ := r["verified"].(bool); v {
			status = "VERIFIED"
		}
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, status, getString(r, "category"))
		if desc := getString(r, "description"); desc != "" {
			fmt.Fprintf(&sb, "   %s\n", desc)
		}
	}
	return sb.String(), nil
}

// getString extracts a string value from a map, trying multiple key names.
func getString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
			if f, ok := v.(float64); ok {
				return fmt.Sprintf("%g", f)
			}
		}
	}
	return ""
}

// getFloat extracts a float64 value from a map, trying multiple key names.
func getFloat(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if f, ok := v.(float64); ok {
				return f, true
			}
		}
	}
	return 0, false
}
