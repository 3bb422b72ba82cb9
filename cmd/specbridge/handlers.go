package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/specbridge/specbridge/internal/common"
	"github.com/specbridge/specbridge/internal/dispatch"
	"github.com/specbridge/specbridge/internal/registry"
)

// --- Helpers ---

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

// callEnvelope is the uniform shape every invocation returns, regardless of
// what the downstream API produced.
type callEnvelope struct {
	Status         int             `json:"status"`
	Classification string          `json:"classification"`
	Body           json.RawMessage `json:"body,omitempty"`
	Text           string          `json:"text,omitempty"`
}

func renderResult(res *dispatch.Result) *mcp.CallToolResult {
	env := callEnvelope{
		Status:         res.StatusCode,
		Classification: string(res.Classification),
	}
	if res.Classification == dispatch.ClassificationJSON {
		env.Body = json.RawMessage(res.Body)
	} else {
		env.Text = res.Body
	}
	out, err := json.Marshal(env)
	if err != nil {
		return errorResult(fmt.Sprintf("Error encoding response: %v", err))
	}
	return textResult(string(out))
}

// --- Handlers ---

// handleInvoke returns the handler for one catalog tool. Each invocation gets
// a correlation ID so downstream log lines can be tied to the request.
func handleInvoke(d *dispatch.Dispatcher, name string, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		correlationID := uuid.New().String()
		reqLogger := logger.WithCorrelationId(correlationID)

		args := request.GetArguments()
		reqLogger.Debug().Str("tool", name).Int("args", len(args)).Msg("Tool invocation")

		res, err := d.Call(ctx, name, args)
		if err != nil {
			var callErr *dispatch.CallError
			if errors.As(err, &callErr) {
				reqLogger.Warn().Str("tool", name).Str("kind", string(callErr.Kind)).Msg(callErr.Message)
				return errorResult(callErr.Message), nil
			}
			reqLogger.Error().Err(err).Str("tool", name).Msg("Tool invocation failed")
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		reqLogger.Debug().Str("tool", name).Int("status", res.StatusCode).Msg("Tool invocation complete")
		return renderResult(res), nil
	}
}

// functionEntry is one row in the list_functions output.
type functionEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	InputSchema any    `json:"input_schema"`
}

func handleListFunctions(reg *registry.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		bindings := reg.Tools()
		entries := make([]functionEntry, 0, len(bindings))
		for _, b := range bindings {
			entries = append(entries, functionEntry{
				Name:        b.Name,
				Description: b.Description,
				Method:      b.Method,
				Path:        b.Path,
				InputSchema: b.InputSchema,
			})
		}
		out, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return errorResult(fmt.Sprintf("Error encoding catalog: %v", err)), nil
		}
		return textResult(string(out)), nil
	}
}

func handleCallFunction(d *dispatch.Dispatcher, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("function_name")
		if err != nil {
			return errorResult("Missing required parameter: function_name"), nil
		}

		var args map[string]any
		if raw, ok := request.GetArguments()["arguments"]; ok && raw != nil {
			args, ok = raw.(map[string]any)
			if !ok {
				return errorResult("Parameter 'arguments' must be an object"), nil
			}
		}

		correlationID := uuid.New().String()
		reqLogger := logger.WithCorrelationId(correlationID)
		reqLogger.Debug().Str("function", name).Int("args", len(args)).Msg("Function call")

		res, err := d.Call(ctx, name, args)
		if err != nil {
			var callErr *dispatch.CallError
			if errors.As(err, &callErr) {
				reqLogger.Warn().Str("function", name).Str("kind", string(callErr.Kind)).Msg(callErr.Message)
				return errorResult(callErr.Message), nil
			}
			reqLogger.Error().Err(err).Str("function", name).Msg("Function call failed")
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return renderResult(res), nil
	}
}
