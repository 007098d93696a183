package query

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"

	"github.com/txn2/mcp-athena/pkg/athena"
)

// enginePageLimit is the engine's maximum rows per GetQueryResults page.
const enginePageLimit = 1000

// Assembler pages through a succeeded query's result set and builds a
// bounded, typed result. It fetches no more pages than needed to fill the
// row cap.
type Assembler struct {
	engine athena.API
}

// NewAssembler creates a result page assembler over the engine facade.
func NewAssembler(engine athena.API) *Assembler {
	return &Assembler{engine: engine}
}

// Fetch retrieves up to maxRows rows for a query that reached SUCCEEDED.
// The column schema is read once from the first page; a later page reporting
// a different column count fails with a schema mismatch rather than coercing
// values. Continuation tokens are consumed exactly once. The deadline covers
// paging as well as polling: crossing it mid-page fails with a timeout.
func (a *Assembler) Fetch(ctx context.Context, handle string, maxRows int, deadline time.Time) ([]ColumnDescriptor, []Row, bool, error) {
	var (
		columns   []ColumnDescriptor
		token     *string
		truncated bool
		firstPage = true
	)
	// Non-nil even for zero-row results, so the payload carries [] not null.
	rows := []Row{}

	for {
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return nil, nil, false, athena.Errorf(athena.KindTimeout,
				"wait budget exhausted while fetching results of query %s", handle)
		}

		out, err := a.engine.GetQueryResults(ctx, &awsathena.GetQueryResultsInput{
			QueryExecutionId: aws.String(handle),
			MaxResults:       aws.Int32(pageSize(maxRows-len(rows), firstPage)),
			NextToken:        token,
		})
		if err != nil {
			return nil, nil, false, athena.Classify("fetching results of query "+handle, err)
		}
		if out.ResultSet == nil {
			break
		}

		pageRows := out.ResultSet.Rows
		if firstPage {
			columns = describeColumns(out.ResultSet.ResultSetMetadata)
			pageRows = dropHeaderRow(pageRows, columns)
			firstPage = false
		} else if err := checkSchema(out.ResultSet.ResultSetMetadata, columns, handle); err != nil {
			return nil, nil, false, err
		}

		for _, raw := range pageRows {
			if len(rows) >= maxRows {
				// Cap reached: discard the remainder of this page instead
				// of fetching more.
				truncated = true
				return columns, rows, truncated, nil
			}
			row, err := convertRow(raw, columns, handle)
			if err != nil {
				return nil, nil, false, err
			}
			rows = append(rows, row)
		}

		if out.NextToken == nil {
			break
		}
		if len(rows) >= maxRows {
			// The cap is filled exactly and the engine still holds more.
			truncated = true
			break
		}
		token = out.NextToken
	}

	return columns, rows, truncated, nil
}

// pageSize bounds a page request by the remaining row budget. The first page
// carries the header row, so one extra row is requested for it.
func pageSize(remaining int, firstPage bool) int32 {
	want := remaining
	if firstPage {
		want++
	}
	if want < 1 {
		want = 1
	}
	if want > enginePageLimit {
		want = enginePageLimit
	}
	return int32(want)
}

// describeColumns normalizes engine column metadata into the closed type
// enumeration. Column order is preserved.
func describeColumns(meta *types.ResultSetMetadata) []ColumnDescriptor {
	if meta == nil {
		return nil
	}
	columns := make([]ColumnDescriptor, 0, len(meta.ColumnInfo))
	for _, info := range meta.ColumnInfo {
		columns = append(columns, ColumnDescriptor{
			Name:     aws.ToString(info.Name),
			Type:     NormalizeColumnType(aws.ToString(info.Type)),
			Nullable: info.Nullable != types.ColumnNullableNotNull,
		})
	}
	return columns
}

// checkSchema verifies a later page still matches the first page's layout.
func checkSchema(meta *types.ResultSetMetadata, columns []ColumnDescriptor, handle string) error {
	if meta == nil || len(meta.ColumnInfo) == 0 {
		return nil
	}
	if len(meta.ColumnInfo) != len(columns) {
		return athena.Errorf(athena.KindSchemaMismatch,
			"query %s: result page reports %d columns, first page had %d",
			handle, len(meta.ColumnInfo), len(columns))
	}
	return nil
}

// dropHeaderRow removes the engine's echoed header row from the first page.
// SELECT results repeat the column names as the first row; DDL and UTILITY
// results do not, so the row is only dropped when it matches the schema.
func dropHeaderRow(pageRows []types.Row, columns []ColumnDescriptor) []types.Row {
	if len(pageRows) == 0 || len(pageRows[0].Data) != len(columns) {
		return pageRows
	}
	for i, datum := range pageRows[0].Data {
		if datum.VarCharValue == nil || *datum.VarCharValue != columns[i].Name {
			return pageRows
		}
	}
	return pageRows[1:]
}

// convertRow maps engine cells to typed values. Missing trailing cells
// become explicit nulls; extra cells violate the schema invariant.
func convertRow(raw types.Row, columns []ColumnDescriptor, handle string) (Row, error) {
	if len(raw.Data) > len(columns) {
		return nil, athena.Errorf(athena.KindSchemaMismatch,
			"query %s: row has %d cells, schema has %d columns",
			handle, len(raw.Data), len(columns))
	}

	row := make(Row, len(columns))
	for i, col := range columns {
		if i >= len(raw.Data) || raw.Data[i].VarCharValue == nil {
			row[i] = NullValue(col.Type)
			continue
		}
		row[i] = Value{Type: col.Type, Text: *raw.Data[i].VarCharValue}
	}
	return row, nil
}
