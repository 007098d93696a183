package athena

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/athena/types"
)

// Kind classifies an error for the tool response envelope.
type Kind string

// Error kinds surfaced to callers.
const (
	// KindSubmission is a synchronous rejection of a query submission
	// (malformed SQL, missing output location, unknown workgroup). Not retried.
	KindSubmission Kind = "submission_error"

	// KindPoll is transient network or service trouble talking to the
	// engine, surfaced after bounded retries are exhausted.
	KindPoll Kind = "poll_error"

	// KindEngineFailure means the engine itself reported the query FAILED
	// or CANCELLED; the message carries the engine's reason verbatim.
	KindEngineFailure Kind = "engine_failure"

	// KindTimeout means the wait budget was exhausted with the query still
	// in flight. The remote query keeps running server-side.
	KindTimeout Kind = "timeout"

	// KindNotFound means the catalog, database, or table does not exist.
	KindNotFound Kind = "not_found"

	// KindSchemaMismatch means a later result page reported a column
	// layout differing from the first page.
	KindSchemaMismatch Kind = "result_schema_mismatch"

	// KindValidation means a required tool parameter was missing or
	// malformed; rejected before any remote call.
	KindValidation Kind = "validation_error"

	// KindInternal covers faults in this server rather than the engine.
	KindInternal Kind = "internal_error"
)

// Error is a classified error carried through the tool dispatch path.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified error.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf creates a classified error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError wraps a cause with a classification and context message.
func WrapError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the classification of err, or KindInternal when err was
// never classified.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Classify maps an AWS Athena API error to the taxonomy. InvalidRequest is a
// user-fixable bad request, Metadata means a missing catalog entity, and
// everything else is treated as transient engine trouble.
func Classify(message string, err error) *Error {
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	var invalid *types.InvalidRequestException
	if errors.As(err, &invalid) {
		return WrapError(KindSubmission, message, err)
	}

	var metadata *types.MetadataException
	if errors.As(err, &metadata) {
		return WrapError(KindNotFound, message, err)
	}

	return WrapError(KindPoll, message, err)
}

// Transient reports whether err is worth retrying against the engine.
func Transient(err error) bool {
	return Classify("", err).Kind == KindPoll
}
