package tools

import (
	"context"
	"io"

	"github.com/dvloznov/budgetrak/internal/logger"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer exposes every tool in d over the Model Context Protocol.
func NewMCPServer(d *Dispatcher, name, version string) *server.MCPServer {
	s := server.NewMCPServer(name, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	for _, t := range d.Tools() {
		s.AddTool(mcp.NewToolWithRawSchema(t.Name, t.Description, t.InputSchema), mcpHandler(d, t.Name))
	}
	return s
}

func mcpHandler(d *Dispatcher, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		body, isError := d.CallJSON(ctx, name, req.GetArguments())
		if isError {
			return mcp.NewToolResultError(string(body)), nil
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}

// ServeStdio runs the protocol over in and out until ctx is cancelled.
// The logger in ctx is carried into every tool call.
func ServeStdio(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer) error {
	log := logger.FromContext(ctx)
	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(logger.StdLogger(log))
	return stdio.Listen(ctx, in, out)
}
