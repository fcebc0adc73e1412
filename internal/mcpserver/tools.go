package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the Lumenguard MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolAnalyzeAccount = mcp.NewTool("analyze_account",
	mcp.WithDescription(
		"Run a full risk analysis on a Stellar account before sending funds or "+
			"trusting an asset. Returns a 0-100 risk score, a risk level "+
			"(SAFE/LOW/MEDIUM/HIGH/CRITICAL), detected fraud patterns, connections "+
			"to known scam addresses, and a plain-language explanation with "+
			"recommendations. Use this whenever a user asks whether an address is safe."),
	mcp.WithString("address",
		mcp.Required(),
		mcp.Description("The Stellar account ID to analyze (starts with 'G', 56 characters)")),
	mcp.WithString("sender_address",
		mcp.Description("Optional: the account that would send the payment, for transaction-aware checks like lookalike detection")),
	mcp.WithNumber("amount",
		mcp.Description("Optional: the payment amount about to be sent")),
	mcp.WithString("asset_code",
		mcp.Description("Optional: the asset code of the payment (e.g. 'XLM', 'USDC')")),
)

var ToolCheckBlacklist = mcp.NewTool("check_blacklist",
	mcp.WithDescription(
		"Check whether a Stellar address is on the curated scam blacklist. "+
			"Faster than a full analysis; use it for a quick yes/no before digging deeper."),
	mcp.WithString("address",
		mcp.Required(),
		mcp.Description("The Stellar account ID to check")),
)

var ToolGetAnalysisHistory = mcp.NewTool("get_analysis_history",
	mcp.WithDescription(
		"Get past risk analyses for a Stellar address, newest first. "+
			"Useful to see whether an address's risk profile has changed over time."),
	mcp.WithString("address",
		mcp.Required(),
		mcp.Description("The Stellar account ID")),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of records to return (default 20)")),
)

var ToolReportScam = mcp.NewTool("report_scam",
	mcp.WithDescription(
		"File a community scam report against a Stellar address. Reports are "+
			"reviewed by operators; verified reports raise the risk of accounts "+
			"that transact with the reported address."),
	mcp.WithString("address",
		mcp.Required(),
		mcp.Description("The Stellar account ID being reported")),
	mcp.WithString("category",
		mcp.Required(),
		mcp.Description("Scam category (e.g. 'phishing', 'ponzi', 'fake_exchange', 'theft')")),
	mcp.WithString("description",
		mcp.Description("What happened, in the reporter's words")),
	mcp.WithString("reporter",
		mcp.Description("Optional: the reporting account ID")),
)

var ToolListReports = mcp.NewTool("list_reports",
	mcp.WithDescription(
		"List community scam reports filed against a Stellar address, including "+
			"whether each report has been verified by an operator."),
	mcp.WithString("address",
		mcp.Required(),
		mcp.Description("The Stellar account ID")),
)
