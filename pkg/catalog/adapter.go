// Package catalog is a thin typed facade over the Athena data catalog:
// listing databases and tables and describing table layouts. It holds no
// state.
package catalog

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"

	"github.com/txn2/mcp-athena/pkg/athena"
	"github.com/txn2/mcp-athena/pkg/query"
)

// TableMetadata describes one table. Partition keys are reported separately
// from regular columns; callers depend on the split to build partition-aware
// predicates.
type TableMetadata struct {
	Name          string                   `json:"name"`
	Database      string                   `json:"database"`
	Catalog       string                   `json:"catalog"`
	TableType     string                   `json:"table_type,omitempty"`
	Columns       []query.ColumnDescriptor `json:"columns"`
	PartitionKeys []query.ColumnDescriptor `json:"partition_keys"`
	Comments      map[string]string        `json:"column_comments,omitempty"`
	Parameters    map[string]string        `json:"parameters,omitempty"`
}

// Adapter exposes the catalog read operations.
type Adapter struct {
	engine athena.API
}

// New creates a catalog adapter over the engine facade.
func New(engine athena.API) *Adapter {
	return &Adapter{engine: engine}
}

// ListDatabases returns the database names in a catalog, in engine order.
// An empty catalog yields an empty, non-error result. The underlying list
// may be paginated; the token loop runs until exhaustion.
func (a *Adapter) ListDatabases(ctx context.Context, catalogName string) ([]string, error) {
	names := []string{}
	var token *string

	for {
		out, err := a.engine.ListDatabases(ctx, &awsathena.ListDatabasesInput{
			CatalogName: aws.String(catalogName),
			NextToken:   token,
		})
		if err != nil {
			return nil, athena.Classify("listing databases in catalog "+catalogName, err)
		}
		for _, db := range out.DatabaseList {
			names = append(names, aws.ToString(db.Name))
		}
		if out.NextToken == nil {
			return names, nil
		}
		token = out.NextToken
	}
}

// ListTables returns the table names in a database, in engine order. A
// missing database surfaces as not_found.
func (a *Adapter) ListTables(ctx context.Context, database, catalogName string) ([]string, error) {
	names := []string{}
	var token *string

	for {
		out, err := a.engine.ListTableMetadata(ctx, &awsathena.ListTableMetadataInput{
			CatalogName:  aws.String(catalogName),
			DatabaseName: aws.String(database),
			NextToken:    token,
		})
		if err != nil {
			return nil, athena.Classify("listing tables in database "+database, err)
		}
		for _, tbl := range out.TableMetadataList {
			names = append(names, aws.ToString(tbl.Name))
		}
		if out.NextToken == nil {
			return names, nil
		}
		token = out.NextToken
	}
}

// DescribeTable returns the metadata for one table, splitting partition keys
// out of the column list. A missing table or database surfaces as not_found.
func (a *Adapter) DescribeTable(ctx context.Context, table, database, catalogName string) (*TableMetadata, error) {
	out, err := a.engine.GetTableMetadata(ctx, &awsathena.GetTableMetadataInput{
		CatalogName:  aws.String(catalogName),
		DatabaseName: aws.String(database),
		TableName:    aws.String(table),
	})
	if err != nil {
		return nil, athena.Classify("describing table "+database+"."+table, err)
	}
	if out.TableMetadata == nil {
		return nil, athena.Errorf(athena.KindNotFound,
			"table %s not found in database %s", table, database)
	}

	tm := out.TableMetadata
	meta := &TableMetadata{
		Name:          aws.ToString(tm.Name),
		Database:      database,
		Catalog:       catalogName,
		TableType:     aws.ToString(tm.TableType),
		Columns:       make([]query.ColumnDescriptor, 0, len(tm.Columns)),
		PartitionKeys: make([]query.ColumnDescriptor, 0, len(tm.PartitionKeys)),
		Parameters:    tm.Parameters,
	}

	comments := map[string]string{}
	for _, col := range tm.Columns {
		meta.Columns = append(meta.Columns, columnDescriptor(aws.ToString(col.Name), aws.ToString(col.Type)))
		if c := aws.ToString(col.Comment); c != "" {
			comments[aws.ToString(col.Name)] = c
		}
	}
	for _, col := range tm.PartitionKeys {
		meta.PartitionKeys = append(meta.PartitionKeys, columnDescriptor(aws.ToString(col.Name), aws.ToString(col.Type)))
	}
	if len(comments) > 0 {
		meta.Comments = comments
	}
	return meta, nil
}

// columnDescriptor builds a descriptor for a catalog column. The catalog
// does not report nullability, so columns are assumed nullable.
func columnDescriptor(name, engineType string) query.ColumnDescriptor {
	return query.ColumnDescriptor{
		Name:     name,
		Type:     query.NormalizeColumnType(engineType),
		Nullable: true,
	}
}
