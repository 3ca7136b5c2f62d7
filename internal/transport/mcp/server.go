// Package mcp exposes routing, document search and fact recall as MCP tools
// so agent clients can use the compliance corpus directly.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sandevgo/riskmon/internal/core"
	"github.com/sandevgo/riskmon/internal/service/conversation"
)

const (
	ToolRouteIntent = "route_intent"
	ToolSearchDocs  = "search_docs"
	ToolRecallFacts = "recall_facts"
)

type Recaller interface {
	RetrieveFacts(ctx context.Context, userID, query string, topK int) core.FactsResult
}

// Tools holds the handlers. Facts is nil when long-term memory is off.
type Tools struct {
	Intents  conversation.IntentRouter
	Docs     conversation.Retriever
	Facts    Recaller
	TopK     int
	FactsTop int
}

func NewServer(t *Tools) *server.MCPServer {
	s := server.NewMCPServer(
		core.AppName,
		core.AppVersion,
		server.WithToolCapabilities(false),
	)

	s.AddTool(mcp.NewTool(ToolRouteIntent,
		mcp.WithDescription("Classify a compliance question into an intent"),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question to classify")),
		mcp.WithBoolean("grounded", mcp.Description("Whether the caller asked for grounded answers")),
	), t.routeIntent)

	s.AddTool(mcp.NewTool(ToolSearchDocs,
		mcp.WithDescription("Search the policy corpus and return cited passages"),
		mcp.WithString("question", mcp.Required(), mcp.Description("What to look for")),
		mcp.WithNumber("k", mcp.Description("Maximum number of citations")),
	), t.searchDocs)

	s.AddTool(mcp.NewTool(ToolRecallFacts,
		mcp.WithDescription("Recall long-term facts stored for a user"),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Owner of the facts")),
		mcp.WithString("query", mcp.Description("Ranks facts by similarity when set")),
		mcp.WithNumber("top_k", mcp.Description("Maximum number of facts")),
	), t.recallFacts)

	return s
}

func (t *Tools) routeIntent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	intent := core.IntentQA
	if t.Intents != nil && t.Intents.Enabled() {
		intent = t.Intents.Classify(ctx, q, req.GetBool("grounded", false))
	}
	return mcp.NewToolResultText(string(intent)), nil
}

type searchResult struct {
	Answer    string          `json:"answer"`
	Citations []core.Citation `json:"citations"`
	Meta      map[string]any  `json:"meta"`
}

func (t *Tools) searchDocs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ans := t.Docs.AnswerWithCitations(ctx, q, req.GetInt("k", t.TopK))
	return jsonResult(searchResult{
		Answer:    ans.Answer,
		Citations: ans.Citations,
		Meta:      ans.Meta.Fields(),
	})
}

func (t *Tools) recallFacts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.Facts == nil {
		return mcp.NewToolResultError("long-term memory is disabled"), nil
	}
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res := t.Facts.RetrieveFacts(ctx, userID, req.GetString("query", ""), req.GetInt("top_k", t.FactsTop))
	facts := res.Facts
	if facts == nil {
		facts = []core.Fact{}
	}
	return jsonResult(facts)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
