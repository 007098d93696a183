package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// promptName is the MCP prompt name for query guidance.
const promptName = "athena_query_guidance"

// registerPrompt registers the query guidance prompt.
func (*Toolkit) registerPrompt(s *mcp.Server) {
	s.AddPrompt(&mcp.Prompt{
		Name:        promptName,
		Description: "Guidance on exploring and querying Athena efficiently through these tools",
	}, func(_ context.Context, _ *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return &mcp.GetPromptResult{
			Messages: []*mcp.PromptMessage{
				{
					Role:    "user",
					Content: &mcp.TextContent{Text: queryGuidancePrompt},
				},
			},
		}, nil
	})
}

// queryGuidancePrompt guides the AI agent toward cheap, bounded queries.
const queryGuidancePrompt = `## Athena Query Guidance

### Explore before you query

1. Call list_databases to see what databases exist in the catalog.
2. Call list_tables for the database you care about.
3. Call get_table_metadata before writing SQL. It returns column types and,
   separately, the table's partition keys.

### Write bounded, partition-aware SQL

- Athena bills by data scanned. Always filter on partition key columns when
  the table has them; get_table_metadata lists them under partition_keys.
- Prefer explicit column lists over SELECT *.
- Add a LIMIT that matches what you actually need. Results are capped at
  max_results rows regardless, and the response's truncated flag tells you
  when the real result set was larger.

### Understand the execution model

- execute_query submits the query and polls until it finishes or
  max_wait_seconds elapses. A timeout does NOT cancel the query: it keeps
  running in Athena and may finish (and incur cost) unobserved.
- Numeric decimal values are returned as exact text to avoid floating point
  precision loss. Null cells are JSON null, distinct from empty strings.
- A failed query returns the engine's error message verbatim in the error
  envelope; fix the SQL and resubmit rather than retrying unchanged.`
