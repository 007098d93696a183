package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/mcp-athena/pkg/config"
)

// stubEngine satisfies the engine facade with canned catalog data.
type stubEngine struct {
	listErr error
}

func (s *stubEngine) StartQueryExecution(context.Context, *awsathena.StartQueryExecutionInput, ...func(*awsathena.Options)) (*awsathena.StartQueryExecutionOutput, error) {
	return &awsathena.StartQueryExecutionOutput{QueryExecutionId: aws.String("q-stub")}, nil
}

func (s *stubEngine) GetQueryExecution(context.Context, *awsathena.GetQueryExecutionInput, ...func(*awsathena.Options)) (*awsathena.GetQueryExecutionOutput, error) {
	return &awsathena.GetQueryExecutionOutput{
		QueryExecution: &types.QueryExecution{
			QueryExecutionId: aws.String("q-stub"),
			Status:           &types.QueryExecutionStatus{State: types.QueryExecutionStateSucceeded},
		},
	}, nil
}

func (s *stubEngine) GetQueryResults(context.Context, *awsathena.GetQueryResultsInput, ...func(*awsathena.Options)) (*awsathena.GetQueryResultsOutput, error) {
	return &awsathena.GetQueryResultsOutput{ResultSet: &types.ResultSet{}}, nil
}

func (s *stubEngine) ListDatabases(context.Context, *awsathena.ListDatabasesInput, ...func(*awsathena.Options)) (*awsathena.ListDatabasesOutput, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return &awsathena.ListDatabasesOutput{
		DatabaseList: []types.Database{{Name: aws.String("sales")}},
	}, nil
}

func (s *stubEngine) ListTableMetadata(context.Context, *awsathena.ListTableMetadataInput, ...func(*awsathena.Options)) (*awsathena.ListTableMetadataOutput, error) {
	return &awsathena.ListTableMetadataOutput{}, nil
}

func (s *stubEngine) GetTableMetadata(context.Context, *awsathena.GetTableMetadataInput, ...func(*awsathena.Options)) (*awsathena.GetTableMetadataOutput, error) {
	return &awsathena.GetTableMetadataOutput{}, nil
}

func testServerConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Name = "mcp-athena-test"
	cfg.Server.Version = "0.0.1"
	cfg.Athena.Catalog = "AwsDataCatalog"
	cfg.Athena.Workgroup = "primary"
	cfg.Athena.OutputLocation = "s3://results/"
	cfg.Athena.MaxResults = 100
	cfg.Athena.MaxWaitSeconds = 300
	return cfg
}

func TestNewWithEngine_WiresComponents(t *testing.T) {
	srv := newWithEngine(testServerConfig(), &stubEngine{})

	require.NotNil(t, srv.MCP)
	require.NotNil(t, srv.Toolkit)
	require.NotNil(t, srv.Health)
	assert.Equal(t, "mcp-athena-test", srv.Toolkit.Name())
	assert.Equal(t, "athena", srv.Toolkit.Kind())
}

func TestNewWithEngine_ToolsReachableOverSession(t *testing.T) {
	ctx := context.Background()
	srv := newWithEngine(testServerConfig(), &stubEngine{})

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	_, err := srv.MCP.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer func() { _ = session.Close() }()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "list_databases",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "sales")
}

// probeReadiness runs the readiness handler once and returns the status code.
func probeReadiness(t *testing.T, srv *Server) int {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Health.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	return rec.Code
}

func TestNewWithEngine_HealthProbeUsesCatalog(t *testing.T) {
	healthy := newWithEngine(testServerConfig(), &stubEngine{})
	assert.Equal(t, http.StatusOK, probeReadiness(t, healthy))

	broken := newWithEngine(testServerConfig(), &stubEngine{listErr: errors.New("catalog unreachable")})
	assert.Equal(t, http.StatusServiceUnavailable, probeReadiness(t, broken))
}
