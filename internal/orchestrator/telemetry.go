package orchestrator

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"pagecraft/internal/component"
)

// State is the orchestrator's build state. Transitions only move forward
// through the happy path; Error and Cancelled are terminal.
type State string

const (
	StateIdle       State = "idle"
	StateAnalyzing  State = "analyzing"
	StatePlanning   State = "planning"
	StateGenerating State = "generating"
	StateValidating State = "validating"
	StateRendering  State = "rendering"
	StateApplying   State = "applying"
	StateComplete   State = "complete"
	StateError      State = "error"
	StateCancelled  State = "cancelled"
)

// ProgressUpdate is one telemetry frame: the current state, 0-100 progress,
// and optionally the step that changed.
type ProgressUpdate struct {
	State    State                `json:"state"`
	Percent  int                  `json:"percent"`
	Step     *component.BuildStep `json:"step,omitempty"`
	Message  string               `json:"message,omitempty"`
}

// telemetry is the single place state, steps, and progress are updated.
// Channel sends never block; a slow consumer just misses frames.
type telemetry struct {
	mu           sync.Mutex
	state        State
	percent      int
	steps        []component.BuildStep
	ch           chan ProgressUpdate
	lastActivity time.Time
}

func newTelemetry() *telemetry {
	return &telemetry{
		state:        StateIdle,
		ch:           make(chan ProgressUpdate, 64),
		lastActivity: time.Now(),
	}
}

// Chan exposes the progress stream.
func (t *telemetry) Chan() <-chan ProgressUpdate {
	return t.ch
}

// Steps returns a copy of the ordered step records so far.
func (t *telemetry) Steps() []component.BuildStep {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]component.BuildStep, len(t.steps))
	copy(out, t.steps)
	return out
}

func (t *telemetry) setState(s State, percent int, message string) {
	t.mu.Lock()
	t.state = s
	if percent > t.percent || s == StateIdle {
		t.percent = percent
	}
	t.lastActivity = time.Now()
	frame := ProgressUpdate{State: s, Percent: t.percent, Message: message}
	t.mu.Unlock()
	t.emit(frame)
}

// beginStep records a new step in the building state and returns its ID.
func (t *telemetry) beginStep(stepType component.StepType, message string) string {
	step := component.BuildStep{
		ID:      uuid.NewString(),
		Type:    stepType,
		Status:  component.StepBuilding,
		Message: message,
	}
	t.mu.Lock()
	t.steps = append(t.steps, step)
	t.lastActivity = time.Now()
	frame := ProgressUpdate{State: t.state, Percent: t.percent, Step: &step}
	t.mu.Unlock()
	t.emit(frame)
	return step.ID
}

// finishStep moves a step to its terminal status. Transitions never reverse.
func (t *telemetry) finishStep(id string, status component.StepStatus, message string) {
	t.mu.Lock()
	var frame *ProgressUpdate
	for i := range t.steps {
		if t.steps[i].ID != id {
			continue
		}
		if t.steps[i].Status == component.StepComplete || t.steps[i].Status == component.StepError {
			break
		}
		t.steps[i].Status = status
		if message != "" {
			t.steps[i].Message = message
		}
		step := t.steps[i]
		frame = &ProgressUpdate{State: t.state, Percent: t.percent, Step: &step}
		break
	}
	t.lastActivity = time.Now()
	t.mu.Unlock()
	if frame != nil {
		t.emit(*frame)
	}
}

func (t *telemetry) setPercent(p int) {
	t.mu.Lock()
	if p > t.percent {
		t.percent = p
	}
	t.lastActivity = time.Now()
	frame := ProgressUpdate{State: t.state, Percent: t.percent}
	t.mu.Unlock()
	t.emit(frame)
}

func (t *telemetry) emit(frame ProgressUpdate) {
	select {
	case t.ch <- frame:
	default:
	}
}

// idleSince reports how long the build has made no progress, for the watchdog.
func (t *telemetry) idleSince() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Since(t.lastActivity)
}
