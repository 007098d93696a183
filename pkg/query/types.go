// Package query drives the asynchronous Athena query lifecycle: submission,
// status polling, and paginated result assembly.
package query

import "time"

// Status is a query execution state. QUEUED, RUNNING, SUCCEEDED, FAILED and
// CANCELLED are reported by the engine; TIMEOUT is synthesized locally when
// the wait budget runs out while the query is still in flight.
type Status string

// Query execution states.
const (
	StatusQueued    Status = "QUEUED"
	StatusRunning   Status = "RUNNING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
	StatusTimeout   Status = "TIMEOUT"
)

// Terminal reports whether no further engine-driven transition occurs.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled, StatusTimeout:
		return true
	default:
		return false
	}
}

// Request is an immutable description of one query execution. Defaults are
// applied by the tool dispatcher before construction; Request itself never
// fills in or mutates anything.
type Request struct {
	SQL            string
	Database       string
	Catalog        string
	OutputLocation string
	Workgroup      string
	MaxResults     int
	MaxWait        time.Duration
}

// ColumnDescriptor describes one result column. Column order is significant
// and fixed for the life of a result set.
type ColumnDescriptor struct {
	Name     string     `json:"name"`
	Type     ColumnType `json:"type"`
	Nullable bool       `json:"nullable"`
}

// Row is a positional sequence of cell values, one per schema column.
type Row []Value

// Statistics carries engine-reported execution statistics.
type Statistics struct {
	TotalExecutionTimeMS    int64 `json:"total_execution_time_ms,omitempty"`
	EngineExecutionTimeMS   int64 `json:"engine_execution_time_ms,omitempty"`
	QueryQueueTimeMS        int64 `json:"query_queue_time_ms,omitempty"`
	ServiceProcessingTimeMS int64 `json:"service_processing_time_ms,omitempty"`
	DataScannedBytes        int64 `json:"data_scanned_bytes,omitempty"`
}

// Execution is a snapshot of a query's remote state as observed by one poll.
type Execution struct {
	ID                string
	Status            Status
	StateChangeReason string
	Statistics        *Statistics
}

// Result is the terminal, immutable outcome of one execute_query call.
type Result struct {
	QueryExecutionID string             `json:"query_execution_id"`
	Status           Status             `json:"status"`
	Columns          []ColumnDescriptor `json:"columns"`
	Rows             []Row              `json:"rows"`
	// Truncated is true when the true result set holds more rows than the
	// caller's max_results cap.
	Truncated  bool        `json:"truncated"`
	ElapsedMS  int64       `json:"elapsed_ms"`
	Statistics *Statistics `json:"statistics,omitempty"`
}
