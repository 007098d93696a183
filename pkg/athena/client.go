// Package athena provides a narrow facade over the AWS Athena API and the
// error taxonomy shared by the query and catalog packages.
package athena

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/athena"
)

// API is the subset of the Athena service client used by this server.
// Tests substitute fakes for it.
type API interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, params *athena.GetQueryResultsInput, optFns ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error)
	ListDatabases(ctx context.Context, params *athena.ListDatabasesInput, optFns ...func(*athena.Options)) (*athena.ListDatabasesOutput, error)
	ListTableMetadata(ctx context.Context, params *athena.ListTableMetadataInput, optFns ...func(*athena.Options)) (*athena.ListTableMetadataOutput, error)
	GetTableMetadata(ctx context.Context, params *athena.GetTableMetadataInput, optFns ...func(*athena.Options)) (*athena.GetTableMetadataOutput, error)
}

// Config holds client connection settings.
type Config struct {
	// Region overrides the ambient AWS region when non-empty.
	Region string
}

// New creates an Athena client using the ambient AWS credential chain.
// Credentials are passed through as-is; this server adds no auth of its own.
func New(ctx context.Context, cfg Config) (API, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return athena.NewFromConfig(awsCfg), nil
}

// Verify the real client satisfies the facade.
var _ API = (*athena.Client)(nil)
