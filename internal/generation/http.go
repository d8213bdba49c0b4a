package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"pagecraft/internal/logging"
)

// HTTPClient speaks to the hosted generation backend. One POST per call,
// mode-discriminated payload, JSON response. Rate-limit, auth, and timeout
// conditions are mapped onto the Response signal fields so the orchestrator
// handles them uniformly with body-level signals.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	mu          sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

// HTTPConfig configures the hosted backend client.
type HTTPConfig struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MinInterval time.Duration
}

// NewHTTPClient creates a client for the hosted generation backend.
func NewHTTPClient(config HTTPConfig) *HTTPClient {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 3 * time.Minute
	}
	return &HTTPClient{
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		apiKey:      config.APIKey,
		httpClient:  &http.Client{Timeout: timeout},
		minInterval: config.MinInterval,
	}
}

type requestEnvelope struct {
	Mode    Mode           `json:"mode"`
	Prompt  string         `json:"prompt"`
	Context map[string]any `json:"context,omitempty"`
}

// GetPhases requests a full-page build plan.
func (c *HTTPClient) GetPhases(ctx context.Context, prompt string, pageContext map[string]any) (*Plan, error) {
	body, err := c.post(ctx, ModeGetPhases, prompt, pageContext)
	if err != nil {
		return nil, err
	}
	var plan Plan
	if err := json.Unmarshal(body, &plan); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	return &plan, nil
}

// GeneratePhase runs one phase of a full-page build.
func (c *HTTPClient) GeneratePhase(ctx context.Context, prompt string, phase PhaseContext) (*Response, error) {
	payload := map[string]any{
		"phaseName":         phase.PhaseName,
		"phaseInstructions": phase.PhaseInstructions,
		"phaseSections":     phase.PhaseSections,
	}
	if phase.DesignSeed != nil {
		payload["designSeed"] = phase.DesignSeed
	}
	if phase.DesignDirective != "" {
		payload["designDirective"] = phase.DesignDirective
	}
	if phase.BlueprintDirective != "" {
		payload["blueprintDirective"] = phase.BlueprintDirective
	}
	return c.postResponse(ctx, ModeSinglePhase, prompt, payload)
}

// EditSection requests a replacement subtree for one matched section.
func (c *HTTPClient) EditSection(ctx context.Context, prompt string, section SectionContext) (*Response, error) {
	payload := map[string]any{
		"existingSection": section.ExistingSection,
		"sectionType":     section.SectionType,
		"sectionIndex":    section.SectionIndex,
	}
	if section.DesignSeed != nil {
		payload["designSeed"] = section.DesignSeed
	}
	if len(section.NeighborSections) > 0 {
		payload["neighborSections"] = section.NeighborSections
	}
	return c.postResponse(ctx, ModeSectionEdit, prompt, payload)
}

// ClassifyIntent asks which canvas section, if any, a prompt targets.
func (c *HTTPClient) ClassifyIntent(ctx context.Context, prompt string, sections []SectionHint) (*Classification, error) {
	body, err := c.post(ctx, ModeClassifyIntent, prompt, map[string]any{
		"prompt":         prompt,
		"canvasSections": sections,
	})
	if err != nil {
		return nil, err
	}
	var out Classification
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode classification: %w", err)
	}
	return &out, nil
}

// Generate runs a direct non-phased call for focused builds.
func (c *HTTPClient) Generate(ctx context.Context, prompt string, pageContext map[string]any) (*Response, error) {
	return c.postResponse(ctx, ModeDirect, prompt, pageContext)
}

func (c *HTTPClient) postResponse(ctx context.Context, mode Mode, prompt string, payload map[string]any) (*Response, error) {
	start := time.Now()
	body, err := c.post(ctx, mode, prompt, payload)
	if err != nil {
		mapped := mapTransportError(err)
		if mapped != nil {
			logging.GenerationWarn("%s call mapped to signal: %v", mode, err)
			return mapped, nil
		}
		logging.Audit().GenerationCall(string(mode), time.Since(start).Milliseconds(), false, err.Error())
		return nil, err
	}
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", mode, err)
	}
	logging.Audit().GenerationCall(string(mode), time.Since(start).Milliseconds(), resp.Success, resp.Message)
	return &resp, nil
}

func (c *HTTPClient) post(ctx context.Context, mode Mode, prompt string, payload map[string]any) ([]byte, error) {
	c.throttle()

	env := requestEnvelope{Mode: mode, Prompt: prompt, Context: payload}
	encoded, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", mode, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	logging.GenerationDebug("POST %s mode=%s bytes=%d", c.baseURL, mode, len(encoded))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", mode, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{Status: resp.StatusCode}
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("generation %s failed: status %d: %.200s", mode, resp.StatusCode, body)
	}
	return body, nil
}

// throttle enforces the minimum spacing between calls to the shared backend.
func (c *HTTPClient) throttle() {
	if c.minInterval <= 0 {
		return
	}
	c.mu.Lock()
	wait := c.minInterval - time.Since(c.lastRequest)
	c.lastRequest = time.Now().Add(wait)
	c.mu.Unlock()
	if wait > 0 {
		time.Sleep(wait)
	}
}

// mapTransportError turns throttling, auth, and timeout errors into Response
// signals; other errors stay errors.
func mapTransportError(err error) *Response {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return &Response{IsRateLimited: true, Recoverable: true, Message: rl.Error()}
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return &Response{AuthError: true, Message: ae.Error()}
	}
	if errors.Is(err, context.DeadlineExceeded) || isTimeoutError(err) {
		return &Response{IsTimeout: true, Recoverable: true, Message: "request timed out"}
	}
	return nil
}

func isTimeoutError(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
