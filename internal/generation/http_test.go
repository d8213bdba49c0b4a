package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *HTTPClient) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewHTTPClient(HTTPConfig{BaseURL: srv.URL, APIKey: "test-key", Timeout: 5 * time.Second})
	return srv, client
}

func TestGetPhasesDecodesPlan(t *testing.T) {
	var gotEnvelope requestEnvelope
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/generate", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotEnvelope))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"phases": []map[string]any{
				{"name": "structure", "required": true, "sections": []string{"nav", "hero"}},
				{"name": "content", "required": false},
			},
			"designSeed": map[string]any{"backgroundColor": "#0f0f0f"},
		})
	})

	plan, err := client.GetPhases(context.Background(), "a landing page", map[string]any{"pageId": "home"})
	require.NoError(t, err)
	assert.Equal(t, ModeGetPhases, gotEnvelope.Mode)
	assert.Equal(t, "a landing page", gotEnvelope.Prompt)
	require.Len(t, plan.Phases, 2)
	assert.True(t, plan.Phases[0].Required)
	assert.Equal(t, []string{"nav", "hero"}, plan.Phases[0].Sections)
	require.NotNil(t, plan.DesignSeed)
	assert.Equal(t, "#0f0f0f", plan.DesignSeed.BackgroundColor)
}

func TestGeneratePhaseDecodesSteps(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"steps": []map[string]any{
				{"type": "component", "data": map[string]any{"id": "hero-section", "type": "section"}},
				{"type": "progress", "message": "building hero"},
			},
		})
	})

	resp, err := client.GeneratePhase(context.Background(), "hero", PhaseContext{PhaseName: "structure"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.Len(t, resp.Steps, 2)
	assert.Equal(t, "building hero", resp.Steps[1].Message)
}

func TestRateLimitMapsToSignal(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "12")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	resp, err := client.Generate(context.Background(), "anything", nil)
	require.NoError(t, err, "throttling is a signal, not an error")
	assert.True(t, resp.IsRateLimited)
	assert.True(t, resp.Recoverable)
}

func TestRateLimitOnPlanCallStaysAnError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.GetPhases(context.Background(), "plan", nil)
	require.Error(t, err)
	require.True(t, IsRateLimit(err))
	var rl *RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 3*time.Second, rl.RetryAfter)
}

func TestAuthFailureMapsToSignal(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	resp, err := client.Generate(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.True(t, resp.AuthError)
	assert.False(t, resp.Recoverable)
}

func TestServerErrorStaysAnError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.Generate(context.Background(), "anything", nil)
	require.Error(t, err)
	assert.False(t, IsRateLimit(err))
	assert.False(t, IsAuth(err))
}

func TestMapTransportError(t *testing.T) {
	resp := mapTransportError(&RateLimitError{})
	require.NotNil(t, resp)
	assert.True(t, resp.IsRateLimited)

	resp = mapTransportError(&AuthError{Status: 403})
	require.NotNil(t, resp)
	assert.True(t, resp.AuthError)

	resp = mapTransportError(context.DeadlineExceeded)
	require.NotNil(t, resp)
	assert.True(t, resp.IsTimeout)

	assert.Nil(t, mapTransportError(errors.New("connection refused")))
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 12*time.Second, parseRetryAfter("12"))
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	assert.Equal(t, time.Duration(0), parseRetryAfter("Wed, 21 Oct 2026 07:28:00 GMT"))
}

func TestThrottleSpacesCalls(t *testing.T) {
	calls := 0
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	})
	client.minInterval = 50 * time.Millisecond

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Generate(context.Background(), "x", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}
