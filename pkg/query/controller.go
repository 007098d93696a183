package query

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/cenkalti/backoff/v4"

	"github.com/txn2/mcp-athena/pkg/athena"
)

// Default poll cadence. The floor keeps short queries responsive; the
// ceiling bounds the request rate against the engine for long ones.
const (
	defaultInitialInterval     = 500 * time.Millisecond
	defaultMaxInterval         = 5 * time.Second
	defaultMultiplier          = 1.6
	defaultRandomizationFactor = 0.25
	defaultTransientRetries    = 3
	defaultRetryInterval       = 200 * time.Millisecond
)

// PollConfig tunes the status poll loop.
type PollConfig struct {
	// InitialInterval is the first sleep between status polls.
	InitialInterval time.Duration `yaml:"initial_interval"`
	// MaxInterval caps the sleep between status polls.
	MaxInterval time.Duration `yaml:"max_interval"`
	// Multiplier grows the interval after each poll.
	Multiplier float64 `yaml:"multiplier"`
	// RandomizationFactor jitters intervals to avoid thundering herds when
	// many queries poll concurrently. Zero disables jitter.
	RandomizationFactor float64 `yaml:"randomization_factor"`
	// TransientRetries bounds retries of a single failed status call,
	// separate from the poll cadence above.
	TransientRetries uint64 `yaml:"transient_retries"`
	// RetryInterval is the starting backoff for those transient retries.
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// withDefaults fills unset fields. Jitter is only defaulted when the whole
// config is unset: a caller tuning any field keeps an explicit zero, since
// zero means jitter disabled.
func (p PollConfig) withDefaults() PollConfig {
	if p == (PollConfig{}) {
		p.RandomizationFactor = defaultRandomizationFactor
	}
	if p.InitialInterval == 0 {
		p.InitialInterval = defaultInitialInterval
	}
	if p.MaxInterval == 0 {
		p.MaxInterval = defaultMaxInterval
	}
	if p.Multiplier == 0 {
		p.Multiplier = defaultMultiplier
	}
	if p.TransientRetries == 0 {
		p.TransientRetries = defaultTransientRetries
	}
	if p.RetryInterval == 0 {
		p.RetryInterval = defaultRetryInterval
	}
	return p
}

// PollObserver is invoked after each successful status poll.
type PollObserver func(status Status, elapsed time.Duration)

// Controller owns the lifecycle of one query handle between submission and
// the observed terminal state. It holds no cross-request state; concurrent
// queries each drive their own poll loop.
type Controller struct {
	engine athena.API
	poll   PollConfig
}

// NewController creates a lifecycle controller over the engine facade.
func NewController(engine athena.API, poll PollConfig) *Controller {
	return &Controller{engine: engine, poll: poll.withDefaults()}
}

// Submit forwards the request verbatim to the engine and returns the query
// execution handle. A synchronous rejection is a submission error and is
// never retried.
func (c *Controller) Submit(ctx context.Context, req Request) (string, error) {
	input := &awsathena.StartQueryExecutionInput{
		QueryString: aws.String(req.SQL),
	}
	if req.Workgroup != "" {
		input.WorkGroup = aws.String(req.Workgroup)
	}
	if req.Catalog != "" || req.Database != "" {
		qec := &types.QueryExecutionContext{}
		if req.Catalog != "" {
			qec.Catalog = aws.String(req.Catalog)
		}
		if req.Database != "" {
			qec.Database = aws.String(req.Database)
		}
		input.QueryExecutionContext = qec
	}
	if req.OutputLocation != "" {
		input.ResultConfiguration = &types.ResultConfiguration{
			OutputLocation: aws.String(req.OutputLocation),
		}
	}

	out, err := c.engine.StartQueryExecution(ctx, input)
	if err != nil {
		return "", athena.WrapError(athena.KindSubmission, "submitting query", err)
	}
	return aws.ToString(out.QueryExecutionId), nil
}

// AwaitTerminal polls the engine until the query reaches a terminal state or
// the deadline passes. When the deadline is reached with the query still
// QUEUED or RUNNING it returns a synthetic TIMEOUT execution; no cancellation
// is sent, so the remote query keeps running unobserved. Transient status
// call failures are retried a bounded number of times before surfacing a
// poll error.
func (c *Controller) AwaitTerminal(ctx context.Context, handle string, deadline time.Time, observe PollObserver) (*Execution, error) {
	start := time.Now()
	bo := c.newPollBackOff()

	for {
		exec, err := c.pollOnce(ctx, handle)
		if err != nil {
			return nil, err
		}
		if observe != nil {
			observe(exec.Status, time.Since(start))
		}
		if exec.Status.Terminal() {
			return exec, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return &Execution{
				ID:         handle,
				Status:     StatusTimeout,
				Statistics: exec.Statistics,
			}, nil
		}

		timer := time.NewTimer(c.nextWait(bo, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, athena.WrapError(athena.KindPoll, "awaiting query "+handle, ctx.Err())
		case <-timer.C:
		}
	}
}

// nextWait returns the next poll sleep. MaxInterval is a hard ceiling: the
// generator jitters after capping, so its output is clamped again here. The
// remaining budget bounds the final sleep before the deadline.
func (c *Controller) nextWait(bo backoff.BackOff, remaining time.Duration) time.Duration {
	wait := bo.NextBackOff()
	if wait > c.poll.MaxInterval {
		wait = c.poll.MaxInterval
	}
	if wait > remaining {
		wait = remaining
	}
	return wait
}

// newPollBackOff builds the status poll cadence generator.
func (c *Controller) newPollBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.poll.InitialInterval
	bo.MaxInterval = c.poll.MaxInterval
	bo.Multiplier = c.poll.Multiplier
	bo.RandomizationFactor = c.poll.RandomizationFactor
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}

// pollOnce fetches the current execution state, retrying transient failures
// on a short backoff distinct from the poll cadence.
func (c *Controller) pollOnce(ctx context.Context, handle string) (*Execution, error) {
	var out *awsathena.GetQueryExecutionOutput

	op := func() error {
		var err error
		out, err = c.engine.GetQueryExecution(ctx, &awsathena.GetQueryExecutionInput{
			QueryExecutionId: aws.String(handle),
		})
		if err != nil && !athena.Transient(err) {
			return backoff.Permanent(err)
		}
		return err //nolint:wrapcheck // classified below after retries
	}

	rb := backoff.NewExponentialBackOff()
	rb.InitialInterval = c.poll.RetryInterval
	rb.MaxInterval = 8 * c.poll.RetryInterval
	rb.MaxElapsedTime = 0

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(rb, c.poll.TransientRetries), ctx))
	if err != nil {
		return nil, athena.Classify("polling status of query "+handle, err)
	}
	return executionFromOutput(handle, out)
}

// executionFromOutput converts the engine response to an Execution snapshot.
func executionFromOutput(handle string, out *awsathena.GetQueryExecutionOutput) (*Execution, error) {
	if out == nil || out.QueryExecution == nil || out.QueryExecution.Status == nil {
		return nil, athena.Errorf(athena.KindPoll, "engine returned no execution state for query %s", handle)
	}

	qe := out.QueryExecution
	return &Execution{
		ID:                handle,
		Status:            Status(qe.Status.State),
		StateChangeReason: aws.ToString(qe.Status.StateChangeReason),
		Statistics:        statisticsFrom(qe.Statistics),
	}, nil
}

// statisticsFrom maps engine statistics, dropping the block when absent.
func statisticsFrom(s *types.QueryExecutionStatistics) *Statistics {
	if s == nil {
		return nil
	}
	return &Statistics{
		TotalExecutionTimeMS:    aws.ToInt64(s.TotalExecutionTimeInMillis),
		EngineExecutionTimeMS:   aws.ToInt64(s.EngineExecutionTimeInMillis),
		QueryQueueTimeMS:        aws.ToInt64(s.QueryQueueTimeInMillis),
		ServiceProcessingTimeMS: aws.ToInt64(s.ServiceProcessingTimeInMillis),
		DataScannedBytes:        aws.ToInt64(s.DataScannedInBytes),
	}
}
