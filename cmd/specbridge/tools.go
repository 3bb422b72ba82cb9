package main

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/specbridge/specbridge/internal/common"
	"github.com/specbridge/specbridge/internal/dispatch"
	"github.com/specbridge/specbridge/internal/registry"
)

// registerCatalogTools registers one MCP tool per catalog binding, each
// carrying the input schema derived from the operation's parameters.
func registerCatalogTools(s *server.MCPServer, reg *registry.Registry, d *dispatch.Dispatcher, logger *common.Logger) {
	for _, b := range reg.Tools() {
		raw, err := json.Marshal(b.InputSchema)
		if err != nil {
			logger.Warn().Err(err).Str("tool", b.Name).Msg("Failed to encode input schema; skipping tool")
			continue
		}
		tool := mcp.NewToolWithRawSchema(b.Name, b.Description, raw)
		s.AddTool(tool, handleInvoke(d, b.Name, logger))
		logger.Debug().Str("tool", b.Name).Str("method", b.Method).Str("path", b.Path).Msg("Registered tool")
	}
}

// registerSimpleTools registers the two-tool surface: a catalog listing tool
// and a generic invoker. Useful for clients with small tool-count limits.
func registerSimpleTools(s *server.MCPServer, reg *registry.Registry, d *dispatch.Dispatcher, logger *common.Logger) {
	s.AddTool(createListFunctionsTool(), handleListFunctions(reg))
	s.AddTool(createCallFunctionTool(), handleCallFunction(d, logger))
}

func createListFunctionsTool() mcp.Tool {
	return mcp.NewTool("list_functions",
		mcp.WithDescription("List all callable API functions with their HTTP method, path, description, and input schema."),
	)
}

func createCallFunctionTool() mcp.Tool {
	return mcp.NewTool("call_function",
		mcp.WithDescription("Call an API function by name with a map of arguments. Use list_functions to discover names and schemas."),
		mcp.WithString("function_name", mcp.Required(), mcp.Description("Name of the function to call, as returned by list_functions")),
		mcp.WithObject("arguments", mcp.Description("Arguments for the function, keyed by parameter name")),
	)
}
