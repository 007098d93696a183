// Package tools provides the MCP toolkit exposing the four Athena tools:
// list_databases, list_tables, get_table_metadata, and execute_query.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-athena/pkg/athena"
	"github.com/txn2/mcp-athena/pkg/catalog"
	"github.com/txn2/mcp-athena/pkg/config"
	"github.com/txn2/mcp-athena/pkg/query"
)

// Config holds the per-call defaults the dispatcher applies before any
// remote call. All values are resolved at startup from the server config.
type Config struct {
	Catalog        string
	Database       string
	Workgroup      string
	OutputLocation string
	MaxResults     int
	MaxWaitSeconds int
}

// Runner executes the full query lifecycle. *query.Service implements it.
type Runner interface {
	Execute(ctx context.Context, req query.Request, observe query.PollObserver) (*query.Result, error)
}

// CatalogReader exposes the catalog read operations. *catalog.Adapter
// implements it.
type CatalogReader interface {
	ListDatabases(ctx context.Context, catalogName string) ([]string, error)
	ListTables(ctx context.Context, database, catalogName string) ([]string, error)
	DescribeTable(ctx context.Context, table, database, catalogName string) (*catalog.TableMetadata, error)
}

// Toolkit maps the four tool names onto the query service and catalog
// adapter. It never talks to the engine directly.
type Toolkit struct {
	name    string
	config  Config
	runner  Runner
	catalog CatalogReader
}

// New creates the Athena toolkit.
func New(name string, cfg Config, runner Runner, reader CatalogReader) *Toolkit {
	return &Toolkit{
		name:    name,
		config:  cfg,
		runner:  runner,
		catalog: reader,
	}
}

// Kind returns the toolkit kind.
func (*Toolkit) Kind() string {
	return "athena"
}

// Name returns the toolkit instance name.
func (t *Toolkit) Name() string {
	return t.name
}

// Tools returns the list of tool names provided by this toolkit.
func (*Toolkit) Tools() []string {
	return []string{
		"list_databases",
		"list_tables",
		"get_table_metadata",
		"execute_query",
	}
}

// Close releases resources.
func (*Toolkit) Close() error {
	return nil
}

// readOnly marks a tool as non-mutating for MCP clients.
func readOnly() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{ReadOnlyHint: true}
}

// RegisterTools registers the four Athena tools with the MCP server.
func (t *Toolkit) RegisterTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name: "list_databases",
		Description: "List the databases in an Athena data catalog. " +
			"Returns database names in catalog order.",
		Annotations: readOnly(),
	}, t.handleListDatabases)

	mcp.AddTool(s, &mcp.Tool{
		Name: "list_tables",
		Description: "List the tables in an Athena database. " +
			"Returns table names in catalog order.",
		Annotations: readOnly(),
	}, t.handleListTables)

	mcp.AddTool(s, &mcp.Tool{
		Name: "get_table_metadata",
		Description: "Get column definitions for an Athena table. " +
			"Partition keys are reported separately from regular columns.",
		Annotations: readOnly(),
	}, t.handleGetTableMetadata)

	mcp.AddTool(s, &mcp.Tool{
		Name: "execute_query",
		Description: "Execute an Athena SQL query and wait for its results. " +
			"Execution is asynchronous server-side: the query is submitted and polled until it " +
			"finishes or max_wait_seconds elapses. On timeout the query keeps running in Athena " +
			"and may still consume resources; no cancellation is sent. Results are capped at " +
			"max_results rows and flagged truncated when the result set is larger.",
	}, t.handleExecuteQuery)

	t.registerPrompt(s)
}

// --- inputs ---

// listDatabasesInput defines the input schema for list_databases.
type listDatabasesInput struct {
	Catalog string `json:"catalog,omitempty"`
}

// listTablesInput defines the input schema for list_tables.
type listTablesInput struct {
	Database string `json:"database"`
	Catalog  string `json:"catalog,omitempty"`
}

// getTableMetadataInput defines the input schema for get_table_metadata.
type getTableMetadataInput struct {
	Table    string `json:"table"`
	Database string `json:"database"`
	Catalog  string `json:"catalog,omitempty"`
}

// executeQueryInput defines the input schema for execute_query.
type executeQueryInput struct {
	Query          string `json:"query"`
	Database       string `json:"database,omitempty"`
	Catalog        string `json:"catalog,omitempty"`
	OutputLocation string `json:"output_location,omitempty"`
	Workgroup      string `json:"workgroup,omitempty"`
	MaxResults     int    `json:"max_results,omitempty"`
	MaxWaitSeconds int    `json:"max_wait_seconds,omitempty"`
}

// --- outputs ---

// listDatabasesOutput is the list_databases success payload.
type listDatabasesOutput struct {
	Catalog   string   `json:"catalog"`
	Databases []string `json:"databases"`
}

// listTablesOutput is the list_tables success payload.
type listTablesOutput struct {
	Catalog  string   `json:"catalog"`
	Database string   `json:"database"`
	Tables   []string `json:"tables"`
}

// --- handlers ---

// handleListDatabases handles the list_databases tool call.
func (t *Toolkit) handleListDatabases(ctx context.Context, _ *mcp.CallToolRequest, input listDatabasesInput) (*mcp.CallToolResult, any, error) {
	catalogName := orDefault(input.Catalog, t.config.Catalog)

	databases, err := t.catalog.ListDatabases(ctx, catalogName)
	if err != nil {
		return errorResult(err), nil, nil //nolint:nilerr // MCP protocol: tool errors go in CallToolResult.IsError
	}
	return successResult(listDatabasesOutput{Catalog: catalogName, Databases: databases})
}

// handleListTables handles the list_tables tool call.
func (t *Toolkit) handleListTables(ctx context.Context, _ *mcp.CallToolRequest, input listTablesInput) (*mcp.CallToolResult, any, error) {
	database := orDefault(input.Database, t.config.Database)
	if database == "" {
		return validationError("database is required"), nil, nil
	}
	catalogName := orDefault(input.Catalog, t.config.Catalog)

	tables, err := t.catalog.ListTables(ctx, database, catalogName)
	if err != nil {
		return errorResult(err), nil, nil //nolint:nilerr // MCP protocol: tool errors go in CallToolResult.IsError
	}
	return successResult(listTablesOutput{Catalog: catalogName, Database: database, Tables: tables})
}

// handleGetTableMetadata handles the get_table_metadata tool call.
func (t *Toolkit) handleGetTableMetadata(ctx context.Context, _ *mcp.CallToolRequest, input getTableMetadataInput) (*mcp.CallToolResult, any, error) {
	if input.Table == "" {
		return validationError("table is required"), nil, nil
	}
	database := orDefault(input.Database, t.config.Database)
	if database == "" {
		return validationError("database is required"), nil, nil
	}
	catalogName := orDefault(input.Catalog, t.config.Catalog)

	meta, err := t.catalog.DescribeTable(ctx, input.Table, database, catalogName)
	if err != nil {
		return errorResult(err), nil, nil //nolint:nilerr // MCP protocol: tool errors go in CallToolResult.IsError
	}
	return successResult(meta)
}

// handleExecuteQuery handles the execute_query tool call.
func (t *Toolkit) handleExecuteQuery(ctx context.Context, req *mcp.CallToolRequest, input executeQueryInput) (*mcp.CallToolResult, any, error) {
	request, err := t.buildRequest(input)
	if err != nil {
		return errorResult(err), nil, nil //nolint:nilerr // MCP protocol: tool errors go in CallToolResult.IsError
	}

	result, err := t.runner.Execute(ctx, request, newPollObserver(ctx, req, request.MaxWait))
	if err != nil {
		return errorResult(err), nil, nil //nolint:nilerr // MCP protocol: tool errors go in CallToolResult.IsError
	}
	return successResult(result)
}

// buildRequest validates parameters and applies configured defaults,
// producing the immutable query request. Validation failures occur before
// any remote call.
func (t *Toolkit) buildRequest(input executeQueryInput) (query.Request, error) {
	if strings.TrimSpace(input.Query) == "" {
		return query.Request{}, athena.NewError(athena.KindValidation, "query text is required")
	}

	maxResults := input.MaxResults
	if maxResults == 0 {
		maxResults = t.config.MaxResults
	}
	if maxResults < 1 || maxResults > config.MaxResultsLimit {
		return query.Request{}, athena.Errorf(athena.KindValidation,
			"max_results must be between 1 and %d", config.MaxResultsLimit)
	}

	maxWait := input.MaxWaitSeconds
	if maxWait == 0 {
		maxWait = t.config.MaxWaitSeconds
	}
	if maxWait < 1 || maxWait > config.MaxWaitSecondsLimit {
		return query.Request{}, athena.Errorf(athena.KindValidation,
			"max_wait_seconds must be between 1 and %d", config.MaxWaitSecondsLimit)
	}

	outputLocation := orDefault(input.OutputLocation, t.config.OutputLocation)
	if outputLocation == "" {
		return query.Request{}, athena.NewError(athena.KindValidation,
			"output_location is required: pass it per call or configure a default")
	}

	return query.Request{
		SQL:            input.Query,
		Database:       orDefault(input.Database, t.config.Database),
		Catalog:        orDefault(input.Catalog, t.config.Catalog),
		OutputLocation: outputLocation,
		Workgroup:      orDefault(input.Workgroup, t.config.Workgroup),
		MaxResults:     maxResults,
		MaxWait:        time.Duration(maxWait) * time.Second,
	}, nil
}

// orDefault returns value, or fallback when value is empty.
func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

// --- envelopes ---

// errorEnvelope is the uniform error shape returned to callers.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// errorBody carries the machine-readable kind and human-readable message.
type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// errorResult creates an error CallToolResult carrying the classified kind.
func errorResult(err error) *mcp.CallToolResult {
	env := errorEnvelope{Error: errorBody{
		Kind:    string(athena.KindOf(err)),
		Message: err.Error(),
	}}
	data, merr := json.Marshal(env)
	if merr != nil {
		data = []byte(fmt.Sprintf(`{"error":{"kind":"internal_error","message":%q}}`, err.Error()))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}

// validationError creates a validation_error envelope.
func validationError(msg string) *mcp.CallToolResult {
	return errorResult(athena.NewError(athena.KindValidation, msg))
}

// successResult creates a success CallToolResult with a JSON payload.
func successResult(payload any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return errorResult(athena.WrapError(athena.KindInternal, "marshaling response", err)), nil, nil //nolint:nilerr // MCP protocol: tool errors go in CallToolResult.IsError
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

// Verify interface compliance.
var _ interface {
	Kind() string
	Name() string
	RegisterTools(s *mcp.Server)
	Tools() []string
	Close() error
} = (*Toolkit)(nil)
