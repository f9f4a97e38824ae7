package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kookyleo/pwrzv/internal/engine"
	"github.com/kookyleo/pwrzv/internal/metrics"
)

// evaluateTimeout bounds one full gather-and-score round.
const evaluateTimeout = 30 * time.Second

// detectSource is swapped out in tests to stub the platform.
var detectSource = metrics.Detect

// runEvaluation performs one gather-and-score round against the live host.
func runEvaluation(ctx context.Context) (*engine.DetailedResult, error) {
	src, err := detectSource()
	if err != nil {
		return nil, err
	}

	snap := metrics.Gather(ctx, src, metrics.DefaultGatherConfig())

	table, warnings := engine.Resolve(src.Platform())
	res, err := engine.Evaluate(snap, table)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		res.Warnings = append(res.Warnings, w.String())
	}
	return res, nil
}

// handleGetPowerReserve returns the level plus a one-line summary.
func handleGetPowerReserve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, cancel := context.WithTimeout(ctx, evaluateTimeout)
	defer cancel()

	res, err := runEvaluation(ctx)
	if err != nil {
		return errResult(fmt.Sprintf("evaluation failed: %v", err)), nil
	}

	summary := map[string]interface{}{
		"power_reserve_level": res.Level,
		"level_label":         res.LevelLabel,
		"bottlenecks":         res.Bottlenecks,
		"message":             "Power reserve check complete. Use 'get_power_reserve_details' for per-metric scores.",
	}

	jsonData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return errResult(fmt.Sprintf("json marshal failed: %v", err)), nil
	}
	return newTextResult(string(jsonData)), nil
}

// handleGetPowerReserveDetails returns the full evaluation as JSON.
func handleGetPowerReserveDetails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, cancel := context.WithTimeout(ctx, evaluateTimeout)
	defer cancel()

	res, err := runEvaluation(ctx)
	if err != nil {
		return errResult(fmt.Sprintf("evaluation failed: %v", err)), nil
	}

	jsonData, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return errResult(fmt.Sprintf("json marshal failed: %v", err)), nil
	}
	return newTextResult(string(jsonData)), nil
}

// newTextResult creates a successful MCP tool result with text content.
func newTextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}
}

// errResult creates an MCP tool error result (IsError=true).
// This is returned as a tool-level error, not a transport-level JSON-RPC error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: msg,
			},
		},
	}
}
