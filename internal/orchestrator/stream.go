package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"pagecraft/internal/builder"
	"pagecraft/internal/component"
	"pagecraft/internal/generation"
	"pagecraft/internal/logging"
	"pagecraft/internal/rules"
	"pagecraft/internal/style"
)

// buildState accumulates one build's streaming progress: what reached the
// document, what is buffered or deferred, and what went wrong.
type buildState struct {
	req     Request
	seedCtx rules.Context

	streamed     int
	sawNav       bool
	footerBuffer []*component.Node

	bindings []component.BindingPayload
	flows    []component.FlowPayload

	warnings     []string
	failedPhases []generation.Phase
}

func newBuildState(req Request, seed *component.DesignSeed) *buildState {
	st := &buildState{req: req}
	if seed != nil && seed.BackgroundColor != "" {
		st.seedCtx = rules.Context{
			ParentDark:  style.IsDark(seed.BackgroundColor),
			ParentLight: style.IsLight(seed.BackgroundColor),
		}
	}
	return st
}

func (st *buildState) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	st.warnings = append(st.warnings, msg)
	logging.BuildWarn("%s", msg)
}

// processSteps consumes one response's steps: components stream to the
// document immediately (footers buffered), bindings and flows are queued for
// after the whole tree exists, variables and classes apply right away.
func (o *Orchestrator) processSteps(ctx context.Context, b *builder.Builder, st *buildState, steps []generation.Step) error {
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch step.Type {
		case component.StepComponent:
			if err := o.processComponentStep(b, st, step); err != nil {
				return err
			}
		case component.StepBinding:
			var payload component.BindingPayload
			if decodeStepData(step.Data, &payload) && payload.ComponentID != "" {
				st.bindings = append(st.bindings, payload)
			}
		case component.StepFlow:
			var payload component.FlowPayload
			if decodeStepData(step.Data, &payload) && payload.ComponentID != "" {
				st.flows = append(st.flows, payload)
			}
		case component.StepVariable:
			o.processVariableStep(st, step)
		case component.StepClass:
			o.processClassStep(st, step)
		case component.StepProgress:
			if step.Message != "" {
				o.tel.setState(StateGenerating, 0, step.Message)
			}
		}
	}
	return nil
}

func (o *Orchestrator) processComponentStep(b *builder.Builder, st *buildState, step generation.Step) error {
	stepID := o.tel.beginStep(component.StepComponent, step.Message)

	node := b.Process(step.Data, "", st.seedCtx)
	if node == nil {
		o.tel.finishStep(stepID, component.StepComplete, "skipped empty component")
		return nil
	}

	if isFooterNode(node) {
		st.footerBuffer = append(st.footerBuffer, node)
		o.tel.finishStep(stepID, component.StepComplete, "buffered footer "+node.ID)
		return nil
	}
	if isNavNode(node) {
		st.sawNav = true
	}

	if err := o.doc.AppendComponent(st.req.ProjectID, st.req.PageID, node); err != nil {
		o.tel.finishStep(stepID, component.StepError, err.Error())
		return fmt.Errorf("append %s: %w", node.ID, err)
	}
	st.streamed++
	o.tel.finishStep(stepID, component.StepComplete, "rendered "+node.ID)
	return nil
}

func (o *Orchestrator) processVariableStep(st *buildState, step generation.Step) {
	var payload struct {
		Scope        string `json:"scope"`
		Name         string `json:"name"`
		DataType     string `json:"dataType"`
		InitialValue any    `json:"initialValue"`
	}
	if !decodeStepData(step.Data, &payload) || payload.Name == "" {
		return
	}
	scope := component.VariableScope(payload.Scope)
	if scope != component.ScopeApp {
		scope = component.ScopePage
	}
	if payload.DataType == "" {
		payload.DataType = "string"
	}
	if _, err := o.doc.CreateVariableIfMissing(st.req.ProjectID, component.Variable{
		Scope:        scope,
		Name:         payload.Name,
		DataType:     payload.DataType,
		InitialValue: payload.InitialValue,
	}); err != nil {
		st.warn("variable %s not created: %v", payload.Name, err)
	}
}

func (o *Orchestrator) processClassStep(st *buildState, step generation.Step) {
	var payload struct {
		Name   string         `json:"name"`
		Styles map[string]any `json:"styles"`
	}
	if !decodeStepData(step.Data, &payload) || payload.Name == "" || len(payload.Styles) == 0 {
		return
	}
	if err := o.classes.SaveClass(component.Class{
		Name:        payload.Name,
		Styles:      payload.Styles,
		IsAutoClass: true,
		CreatedAt:   time.Now(),
	}); err != nil {
		st.warn("class %s not saved: %v", payload.Name, err)
	}
}

// decodeStepData round-trips loose step data into a typed payload.
func decodeStepData(data any, out any) bool {
	raw, err := json.Marshal(data)
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func isFooterNode(n *component.Node) bool {
	if n.Type == component.TypeFooterRow || n.Type == component.TypeFooterColumn {
		return true
	}
	return strings.Contains(strings.ToLower(n.ID), "footer")
}

func isNavNode(n *component.Node) bool {
	if n.Type == component.TypeNavHorizontal {
		return true
	}
	id := strings.ToLower(n.ID)
	return strings.Contains(id, "nav") || strings.Contains(id, "header")
}

// callPhase runs one phase's generation call with its retry budget. Rate
// limits and transient errors back off and retry; an empty-but-recoverable
// response gets exactly one delayed retry; auth errors surface as warnings.
func (o *Orchestrator) callPhase(ctx context.Context, st *buildState, prompt string, phaseCtx generation.PhaseContext, required bool) (*generation.Response, error) {
	budget := optionalPhaseRetries
	if required {
		budget = requiredPhaseRetries
	}

	emptyRetried := false
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := o.client.GeneratePhase(ctx, prompt, phaseCtx)
		if err != nil {
			switch classifyBuildError(err) {
			case classCancelled:
				return nil, err
			case classTransient:
				if attempt >= budget {
					return nil, err
				}
				o.backoff(ctx, st, phaseCtx.PhaseName, attempt, err.Error())
				continue
			default:
				return nil, err
			}
		}

		switch {
		case resp.AuthError:
			st.warn("generation auth error on phase %s: %s", phaseCtx.PhaseName, resp.Message)
			return nil, &generation.AuthError{}
		case resp.IsRateLimited || resp.IsTimeout:
			if attempt >= budget {
				return nil, fmt.Errorf("phase %s still rate limited after %d attempts", phaseCtx.PhaseName, attempt+1)
			}
			o.backoff(ctx, st, phaseCtx.PhaseName, attempt, resp.Message)
			continue
		case !resp.Success:
			return nil, fmt.Errorf("phase %s failed: %s", phaseCtx.PhaseName, firstNonEmpty(resp.Message, "generation unsuccessful"))
		case len(resp.Steps) == 0:
			if resp.Recoverable && !emptyRetried {
				emptyRetried = true
				logging.Generation("phase %s returned no steps, retrying once", phaseCtx.PhaseName)
				logging.Audit().GenerationRetry(string(generation.ModeSinglePhase), attempt+1, emptyOutputRetryDelay.Milliseconds(), "empty output")
				if !sleepCtx(ctx, emptyOutputRetryDelay) {
					return nil, ctx.Err()
				}
				continue
			}
			return nil, fmt.Errorf("phase %s: %w", phaseCtx.PhaseName, generation.ErrEmptyOutput)
		}

		if resp.Warning != "" {
			st.warn("phase %s: %s", phaseCtx.PhaseName, resp.Warning)
		}
		return resp, nil
	}
}

func (o *Orchestrator) backoff(ctx context.Context, st *buildState, phase string, attempt int, reason string) {
	delay := computeBackoff(attempt)
	logging.Generation("phase %s backing off %s (attempt %d): %s", phase, delay, attempt+1, reason)
	logging.Audit().GenerationRetry(string(generation.ModeSinglePhase), attempt+1, delay.Milliseconds(), reason)
	sleepCtx(ctx, delay)
}

// computeBackoff doubles the base delay per attempt, capped.
func computeBackoff(attempt int) time.Duration {
	if attempt > 10 {
		attempt = 10
	}
	delay := retryBackoffBase << uint(attempt)
	if delay > retryBackoffMax {
		delay = retryBackoffMax
	}
	return delay
}

// sleepCtx waits for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
