package query

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
)

// fakeEngine scripts Athena responses for lifecycle and assembler tests.
type fakeEngine struct {
	mu sync.Mutex

	handle      string
	startErr    error
	startInputs []*awsathena.StartQueryExecutionInput

	// pollErrs are consumed one per GetQueryExecution call before statuses.
	pollErrs []error
	// statuses are consumed one per successful poll; the last repeats.
	statuses          []types.QueryExecutionState
	stateChangeReason string
	statistics        *types.QueryExecutionStatistics
	pollCalls         int

	pages         []*awsathena.GetQueryResultsOutput
	resultsErr    error
	resultsCalls  int
	resultsInputs []*awsathena.GetQueryResultsInput
}

func (f *fakeEngine) StartQueryExecution(_ context.Context, params *awsathena.StartQueryExecutionInput, _ ...func(*awsathena.Options)) (*awsathena.StartQueryExecutionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startInputs = append(f.startInputs, params)
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &awsathena.StartQueryExecutionOutput{QueryExecutionId: aws.String(f.handle)}, nil
}

func (f *fakeEngine) GetQueryExecution(_ context.Context, _ *awsathena.GetQueryExecutionInput, _ ...func(*awsathena.Options)) (*awsathena.GetQueryExecutionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pollCalls++

	if len(f.pollErrs) > 0 {
		err := f.pollErrs[0]
		f.pollErrs = f.pollErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	state := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}

	return &awsathena.GetQueryExecutionOutput{
		QueryExecution: &types.QueryExecution{
			QueryExecutionId: aws.String(f.handle),
			Status: &types.QueryExecutionStatus{
				State:             state,
				StateChangeReason: optionalString(f.stateChangeReason),
			},
			Statistics: f.statistics,
		},
	}, nil
}

func (f *fakeEngine) GetQueryResults(_ context.Context, params *awsathena.GetQueryResultsInput, _ ...func(*awsathena.Options)) (*awsathena.GetQueryResultsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resultsErr != nil {
		return nil, f.resultsErr
	}
	f.resultsInputs = append(f.resultsInputs, params)
	out := f.pages[f.resultsCalls]
	f.resultsCalls++
	return out, nil
}

func (f *fakeEngine) ListDatabases(context.Context, *awsathena.ListDatabasesInput, ...func(*awsathena.Options)) (*awsathena.ListDatabasesOutput, error) {
	return &awsathena.ListDatabasesOutput{}, nil
}

func (f *fakeEngine) ListTableMetadata(context.Context, *awsathena.ListTableMetadataInput, ...func(*awsathena.Options)) (*awsathena.ListTableMetadataOutput, error) {
	return &awsathena.ListTableMetadataOutput{}, nil
}

func (f *fakeEngine) GetTableMetadata(context.Context, *awsathena.GetTableMetadataInput, ...func(*awsathena.Options)) (*awsathena.GetTableMetadataOutput, error) {
	return &awsathena.GetTableMetadataOutput{}, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}

// resultPage builds a GetQueryResults page. Cells may be string or nil
// (engine null). A non-nil next token links to another page. Column
// metadata is included unless cols is nil.
func resultPage(cols []string, colType string, cells [][]any, next *string) *awsathena.GetQueryResultsOutput {
	var meta *types.ResultSetMetadata
	if cols != nil {
		info := make([]types.ColumnInfo, 0, len(cols))
		for _, name := range cols {
			info = append(info, types.ColumnInfo{
				Name:     aws.String(name),
				Type:     aws.String(colType),
				Nullable: types.ColumnNullableNullable,
			})
		}
		meta = &types.ResultSetMetadata{ColumnInfo: info}
	}

	rows := make([]types.Row, 0, len(cells))
	for _, rowCells := range cells {
		data := make([]types.Datum, 0, len(rowCells))
		for _, cell := range rowCells {
			if cell == nil {
				data = append(data, types.Datum{})
				continue
			}
			data = append(data, types.Datum{VarCharValue: aws.String(cell.(string))})
		}
		rows = append(rows, types.Row{Data: data})
	}

	return &awsathena.GetQueryResultsOutput{
		ResultSet: &types.ResultSet{
			ResultSetMetadata: meta,
			Rows:              rows,
		},
		NextToken: next,
	}
}

// headerRow converts column names to a header row cell slice.
func headerRow(cols []string) []any {
	row := make([]any, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	return row
}

// fastPoll returns a poll config suited to tests: tight intervals, jitter
// disabled so timing assertions stay deterministic.
func fastPoll() PollConfig {
	return PollConfig{
		InitialInterval:     time.Millisecond,
		MaxInterval:         5 * time.Millisecond,
		Multiplier:          2,
		RandomizationFactor: 0,
		TransientRetries:    2,
		RetryInterval:       time.Millisecond,
	}
}
