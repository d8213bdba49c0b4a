package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pagecraft/internal/generation"
)

var (
	// ErrBuildInProgress means a build is already running on this session.
	ErrBuildInProgress = errors.New("a build is already in progress")

	// ErrWatchdogTimeout means the watchdog force-reset a stuck build.
	ErrWatchdogTimeout = errors.New("build made no progress and was reset")
)

// SectionNotFoundError is fatal for a section-replace request but must never
// clear or mutate the document.
type SectionNotFoundError struct {
	Target string
}

func (e *SectionNotFoundError) Error() string {
	return fmt.Sprintf("couldn't find section %q on the canvas", e.Target)
}

// PhaseError records a phase that exhausted its retry budget.
type PhaseError struct {
	Phase    string
	Required bool
	Cause    error
}

func (e *PhaseError) Error() string {
	kind := "optional"
	if e.Required {
		kind = "required"
	}
	return fmt.Sprintf("%s phase %q failed: %v", kind, e.Phase, e.Cause)
}

func (e *PhaseError) Unwrap() error { return e.Cause }

// errorClass is the orchestrator's failure taxonomy.
type errorClass int

const (
	classTransient errorClass = iota // retryable: rate limit, timeout, transport
	classCancelled                   // user cancellation, stop immediately
	classFatal                       // logic or contract failure, no retry
)

// classifyBuildError buckets an error for the retry loop.
func classifyBuildError(err error) errorClass {
	if err == nil {
		return classFatal
	}
	if errors.Is(err, context.Canceled) {
		return classCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return classTransient
	}
	if generation.IsRateLimit(err) {
		return classTransient
	}
	if generation.IsAuth(err) {
		return classFatal
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range []string{"timeout", "timed out", "connection refused", "connection reset", "temporar", "unavailable", "429", "503"} {
		if strings.Contains(msg, hint) {
			return classTransient
		}
	}
	return classFatal
}

// friendlyMessage special-cases network/timeout phrasing into something a
// user can act on.
func friendlyMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "timeout") || strings.Contains(lower, "timed out") ||
		strings.Contains(lower, "deadline exceeded") {
		return "the request timed out, try again"
	}
	return msg
}
