package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-athena/pkg/query"
)

// newPollObserver returns a poll observer that forwards progress to the MCP
// client, or nil when the caller supplied no progress token. Notification
// failures are ignored; progress is best-effort.
func newPollObserver(ctx context.Context, req *mcp.CallToolRequest, maxWait time.Duration) query.PollObserver {
	if req == nil || req.Session == nil || req.Params == nil {
		return nil
	}
	token := req.Params.GetProgressToken()
	if token == nil {
		return nil
	}

	session := req.Session
	total := maxWait.Seconds()

	return func(status query.Status, elapsed time.Duration) {
		err := session.NotifyProgress(ctx, &mcp.ProgressNotificationParams{
			ProgressToken: token,
			Progress:      elapsed.Seconds(),
			Total:         total,
			Message:       fmt.Sprintf("query %s (%.0fs elapsed)", status, elapsed.Seconds()),
		})
		if err != nil {
			slog.Debug("progress notification failed", "error", err)
		}
	}
}
