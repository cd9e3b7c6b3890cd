package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/dvloznov/budgetrak/internal/ledger/memory"
	"github.com/mark3labs/mcp-go/mcp"
)

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("got %d content items, want 1", len(res.Content))
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", res.Content[0])
	}
	return text.Text
}

func TestMCPHandler(t *testing.T) {
	d := NewService(Deps{Ledger: memory.New(seedRows()...)}).NewDispatcher()
	if NewMCPServer(d, "budgetrak", "test") == nil {
		t.Fatal("NewMCPServer returned nil")
	}

	h := mcpHandler(d, "get_recent_transactions")
	res, err := h(context.Background(), callRequest("get_recent_transactions", map[string]any{"limit": float64(1)}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	if text := resultText(t, res); !strings.Contains(text, `"count":1`) || !strings.Contains(text, "Starbucks Reserve") {
		t.Errorf("text = %s", text)
	}
}

func TestMCPHandler_ErrorPayload(t *testing.T) {
	d := NewService(Deps{Ledger: memory.New()}).NewDispatcher()

	h := mcpHandler(d, "search_transactions")
	res, err := h(context.Background(), callRequest("search_transactions", map[string]any{"start_date": "March"}))
	if err != nil {
		t.Fatalf("protocol errors are reserved for transport failures: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected IsError")
	}
	if text := resultText(t, res); !strings.Contains(text, `"kind":"invalid_input"`) {
		t.Errorf("text = %s", text)
	}
}
