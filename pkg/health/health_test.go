package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRequest(t *testing.T, handler http.HandlerFunc) (*httptest.ResponseRecorder, healthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestLivenessHandler_AlwaysOK(t *testing.T) {
	c := NewChecker(func(context.Context) error { return errors.New("engine down") })

	rec, body := doRequest(t, c.LivenessHandler())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestReadinessHandler_NilProbe(t *testing.T) {
	c := NewChecker(nil)

	rec, body := doRequest(t, c.ReadinessHandler())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body.Status)
}

func TestReadinessHandler_ProbeSucceeds(t *testing.T) {
	probed := false
	c := NewChecker(func(ctx context.Context) error {
		probed = true
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline, "probe context should carry a deadline")
		return nil
	})

	rec, body := doRequest(t, c.ReadinessHandler())
	assert.True(t, probed)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body.Status)
}

func TestReadinessHandler_ProbeFails(t *testing.T) {
	c := NewChecker(func(context.Context) error {
		return errors.New("catalog unreachable")
	})

	rec, body := doRequest(t, c.ReadinessHandler())
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", body.Status)
	assert.Contains(t, body.Error, "catalog unreachable")
}
