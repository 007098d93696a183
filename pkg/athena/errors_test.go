package athena

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_InvalidRequestIsSubmission(t *testing.T) {
	cause := &types.InvalidRequestException{Message: aws.String("missing output location")}
	err := Classify("submitting query", cause)

	assert.Equal(t, KindSubmission, err.Kind)
	assert.Contains(t, err.Error(), "submitting query")
	assert.Contains(t, err.Error(), "missing output location")
}

func TestClassify_MetadataIsNotFound(t *testing.T) {
	cause := &types.MetadataException{Message: aws.String("database does not exist")}
	err := Classify("listing tables", cause)

	assert.Equal(t, KindNotFound, err.Kind)
}

func TestClassify_UnknownIsPoll(t *testing.T) {
	err := Classify("polling", errors.New("connection reset"))
	assert.Equal(t, KindPoll, err.Kind)
}

func TestClassify_PreservesExistingClassification(t *testing.T) {
	original := NewError(KindTimeout, "budget exhausted")
	wrapped := fmt.Errorf("outer: %w", original)

	err := Classify("ignored", wrapped)
	assert.Equal(t, KindTimeout, err.Kind)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"classified", NewError(KindValidation, "bad input"), KindValidation},
		{"wrapped classified", fmt.Errorf("ctx: %w", NewError(KindNotFound, "gone")), KindNotFound},
		{"unclassified", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestTransient(t *testing.T) {
	assert.True(t, Transient(errors.New("connection refused")))
	assert.True(t, Transient(&types.InternalServerException{}))
	assert.False(t, Transient(&types.InvalidRequestException{}))
	assert.False(t, Transient(&types.MetadataException{}))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := WrapError(KindPoll, "polling", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "polling: root cause", err.Error())
}

func TestErrorf(t *testing.T) {
	err := Errorf(KindTimeout, "query %s timed out after %d seconds", "q-1", 30)
	assert.Equal(t, KindTimeout, err.Kind)
	assert.Equal(t, "query q-1 timed out after 30 seconds", err.Error())
}
