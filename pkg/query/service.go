package query

import (
	"context"
	"log/slog"
	"time"

	"github.com/txn2/mcp-athena/pkg/athena"
)

// Service orchestrates one execute_query call end to end: submit, await the
// terminal state, then assemble the bounded result. All state for the handle
// is discarded once the outcome is reported; nothing is retried implicitly
// and nothing is cached.
type Service struct {
	controller *Controller
	assembler  *Assembler
	logger     *slog.Logger
}

// NewService creates a query service from its two components.
func NewService(controller *Controller, assembler *Assembler, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{controller: controller, assembler: assembler, logger: logger}
}

// Execute runs the full lifecycle for an already-validated, defaulted
// request. The observe callback, when non-nil, is invoked after each status
// poll. On TIMEOUT the remote query is deliberately left running
// (fire-and-observe); the error message says so.
func (s *Service) Execute(ctx context.Context, req Request, observe PollObserver) (*Result, error) {
	start := time.Now()

	handle, err := s.controller.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("query submitted", "query_execution_id", handle, "database", req.Database)

	deadline := start.Add(req.MaxWait)
	exec, err := s.controller.AwaitTerminal(ctx, handle, deadline, observe)
	if err != nil {
		return nil, err
	}

	switch exec.Status {
	case StatusTimeout:
		return nil, athena.Errorf(athena.KindTimeout,
			"query %s exceeded the maximum wait of %s; it may still be running in Athena and consuming resources",
			handle, req.MaxWait)

	case StatusFailed:
		reason := exec.StateChangeReason
		if reason == "" {
			reason = "query failed without a state change reason"
		}
		return nil, athena.NewError(athena.KindEngineFailure, reason)

	case StatusCancelled:
		msg := "query was cancelled"
		if exec.StateChangeReason != "" {
			msg += ": " + exec.StateChangeReason
		}
		return nil, athena.NewError(athena.KindEngineFailure, msg)

	case StatusSucceeded:
		columns, rows, truncated, err := s.assembler.Fetch(ctx, handle, req.MaxResults, deadline)
		if err != nil {
			return nil, err
		}
		result := &Result{
			QueryExecutionID: handle,
			Status:           StatusSucceeded,
			Columns:          columns,
			Rows:             rows,
			Truncated:        truncated,
			ElapsedMS:        time.Since(start).Milliseconds(),
			Statistics:       exec.Statistics,
		}
		s.logger.Debug("query completed",
			"query_execution_id", handle,
			"rows", len(rows),
			"truncated", truncated,
			"elapsed_ms", result.ElapsedMS)
		return result, nil

	default:
		return nil, athena.Errorf(athena.KindPoll,
			"query %s reported unexpected terminal state %s", handle, exec.Status)
	}
}
