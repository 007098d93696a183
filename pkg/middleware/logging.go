// Package middleware provides MCP protocol-level middleware.
package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// methodToolsCall is the MCP method name for tool invocations.
const methodToolsCall = "tools/call"

// ToolLogging creates MCP protocol-level middleware that logs every
// tools/call with a unique invocation ID, the tool name, duration, and
// outcome. Other methods pass through untouched.
func ToolLogging(logger *slog.Logger) mcp.Middleware {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != methodToolsCall {
				return next(ctx, method, req)
			}

			invocationID := uuid.NewString()
			toolName := extractToolName(req)
			start := time.Now()

			logger.Info("tool call started",
				"invocation_id", invocationID,
				"tool", toolName)

			result, err := next(ctx, method, req)

			attrs := []any{
				"invocation_id", invocationID,
				"tool", toolName,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			switch {
			case err != nil:
				logger.Error("tool call failed", append(attrs, "error", err)...)
			case isErrorResult(result):
				logger.Warn("tool call returned error envelope", attrs...)
			default:
				logger.Info("tool call completed", attrs...)
			}

			return result, err
		}
	}
}

// extractToolName extracts the tool name from a tools/call request.
func extractToolName(req mcp.Request) string {
	params, ok := req.GetParams().(*mcp.CallToolParamsRaw)
	if !ok || params == nil {
		return "unknown"
	}
	return params.Name
}

// isErrorResult reports whether the handler produced an error envelope.
func isErrorResult(result mcp.Result) bool {
	ctr, ok := result.(*mcp.CallToolResult)
	return ok && ctr != nil && ctr.IsError
}
