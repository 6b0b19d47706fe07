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

func up(context.Context) ComponentHealth { return ComponentHealth{Status: StatusUp} }

func TestRunAllUp(t *testing.T) {
	c := NewChecker()
	c.Register("corpus", up)
	c.RegisterOptional("redis", up)

	report := c.Run(context.Background())
	assert.Equal(t, StatusUp, report.Status)
	assert.Len(t, report.Components, 2)
}

func TestOptionalFailureDegrades(t *testing.T) {
	c := NewChecker()
	c.Register("corpus", up)
	c.RegisterOptional("redis", Ping(func(context.Context) error { return errors.New("refused") }))

	report := c.Run(context.Background())
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, "refused", report.Components["redis"].Message)
}

func TestRequiredFailureIsDown(t *testing.T) {
	c := NewChecker()
	c.RegisterOptional("redis", Ping(func(context.Context) error { return errors.New("refused") }))
	c.Register("corpus", Ping(func(context.Context) error { return errors.New("not loaded") }))

	report := c.Run(context.Background())
	assert.Equal(t, StatusDown, report.Status)

	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var got Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, StatusDown, got.Status)
}

func TestLiveHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker().LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}
