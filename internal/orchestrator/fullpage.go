package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"pagecraft/internal/builder"
	"pagecraft/internal/generation"
	"pagecraft/internal/logging"
)

// buildFullPage runs the phased full-page algorithm: plan, clear once,
// stream each phase, inject fallbacks, then apply deferred steps and order
// the document.
func (o *Orchestrator) buildFullPage(ctx context.Context, b *builder.Builder, req Request) (*Result, error) {
	o.tel.setState(StatePlanning, 5, "planning page structure")

	plan, err := o.client.GetPhases(ctx, req.Prompt, map[string]any{
		"projectId": req.ProjectID,
		"pageId":    req.PageID,
	})
	if err != nil {
		return o.failTotal(ModeFullPage, err)
	}
	if len(plan.Phases) == 0 {
		return o.failTotal(ModeFullPage, fmt.Errorf("plan contained no phases"))
	}

	if plan.DesignSeed != nil {
		if err := o.doc.SaveDesignSeed(req.ProjectID, req.PageID, plan.DesignSeed); err != nil {
			logging.BuildWarn("design seed not persisted: %v", err)
		}
	}
	st := newBuildState(req, plan.DesignSeed)

	// Cleanup-before-clear: the store releases class references held by the
	// removed components before the list empties. Cleared exactly once.
	if err := o.doc.ClearComponents(req.ProjectID, req.PageID); err != nil {
		return o.failTotal(ModeFullPage, err)
	}

	o.tel.setState(StateGenerating, 10, fmt.Sprintf("generating %d phases", len(plan.Phases)))
	for i, phase := range plan.Phases {
		if err := o.runPhase(ctx, b, st, plan, phase); err != nil {
			if errors.Is(err, context.Canceled) {
				return o.finishCancelled(ModeFullPage, st)
			}
			if phase.Required {
				st.warn("required phase %s aborted the build: %v", phase.Name, err)
				return o.finishPartial(ctx, ModeFullPage, st,
					&PhaseError{Phase: phase.Name, Required: true, Cause: err})
			}
			st.failedPhases = append(st.failedPhases, phase)
			logging.Build("optional phase %s failed, continuing: %v", phase.Name, err)
		}
		o.tel.setPercent(10 + (i+1)*60/len(plan.Phases))

		if i < len(plan.Phases)-1 {
			if !sleepCtx(ctx, interPhaseDelay) {
				return o.finishCancelled(ModeFullPage, st)
			}
		}
	}

	o.retrySparseOutput(ctx, b, st, plan)

	o.tel.setState(StateValidating, 75, "finalizing sections")
	if err := o.injectFallbacks(ctx, b, st, plan); err != nil {
		if errors.Is(err, context.Canceled) {
			return o.finishCancelled(ModeFullPage, st)
		}
		return o.finishPartial(ctx, ModeFullPage, st, err)
	}

	o.tel.setState(StateApplying, 85, "applying bindings and flows")
	o.applyDeferred(ctx, st)

	o.tel.setState(StateRendering, 92, "ordering sections")
	if err := o.orderDocument(req); err != nil {
		st.warn("section ordering failed: %v", err)
	}
	if _, err := o.doc.ReconcileOrphans(req.ProjectID); err != nil {
		st.warn("orphan class reconcile failed: %v", err)
	}

	status := StatusComplete
	message := "page build complete"
	if len(st.failedPhases) > 0 {
		status = StatusPartial
		message = fmt.Sprintf("page built with %d failed optional phases", len(st.failedPhases))
	}
	o.tel.setState(StateComplete, 100, message)
	return &Result{
		Mode:         ModeFullPage,
		Status:       status,
		Streamed:     st.streamed,
		FailedPhases: phaseNames(st.failedPhases),
		Message:      message,
		Warning:      joinWarnings(st.warnings),
	}, nil
}

// runPhase generates and streams one phase.
func (o *Orchestrator) runPhase(ctx context.Context, b *builder.Builder, st *buildState, plan *generation.Plan, phase generation.Phase) error {
	o.tel.setState(StateGenerating, 0, "phase: "+phase.Name)
	logging.Audit().BuildEvent(logging.AuditBuildPhase, "", phase.Name, true)

	phaseCtx := generation.PhaseContext{
		PhaseName:          phase.Name,
		PhaseInstructions:  phase.Instructions,
		PhaseSections:      phase.Sections,
		DesignSeed:         plan.DesignSeed,
		DesignDirective:    plan.DesignDirective,
		BlueprintDirective: plan.BlueprintDirective,
	}
	resp, err := o.callPhase(ctx, st, st.req.Prompt, phaseCtx, phase.Required)
	if err != nil {
		return err
	}
	return o.processSteps(ctx, b, st, resp.Steps)
}

// retrySparseOutput gives failed optional phases one more pass when too many
// failed and the page came out too thin.
func (o *Orchestrator) retrySparseOutput(ctx context.Context, b *builder.Builder, st *buildState, plan *generation.Plan) {
	if len(st.failedPhases) < sparseFailureThreshold || st.streamed >= minSectionCount {
		return
	}
	logging.Build("sparse output (%d sections, %d failed phases), retrying failed phases",
		st.streamed, len(st.failedPhases))

	stillFailed := st.failedPhases[:0]
	for _, phase := range st.failedPhases {
		if ctx.Err() != nil {
			stillFailed = append(stillFailed, phase)
			continue
		}
		// A single extra attempt each, on the optional budget.
		if err := o.runPhase(ctx, b, st, plan, withoutRequired(phase)); err != nil {
			stillFailed = append(stillFailed, phase)
		}
	}
	st.failedPhases = stillFailed
}

func withoutRequired(p generation.Phase) generation.Phase {
	p.Required = false
	return p
}

// finishPartial renders what was streamed, ordered, and reports partial
// success. The canvas is never left untouched after partial progress.
func (o *Orchestrator) finishPartial(ctx context.Context, mode Mode, st *buildState, cause error) (*Result, error) {
	o.flushFooterBuffer(st)
	if err := o.orderDocument(st.req); err != nil {
		st.warn("section ordering failed: %v", err)
	}
	if st.streamed == 0 {
		return o.failTotal(mode, cause)
	}
	message := fmt.Sprintf("rendered %d sections before failing: %s", st.streamed, friendlyMessage(cause))
	o.tel.setState(StateError, 0, message)
	return &Result{
		Mode:         mode,
		Status:       StatusPartial,
		Streamed:     st.streamed,
		FailedPhases: phaseNames(st.failedPhases),
		Message:      message,
		Warning:      joinWarnings(st.warnings),
	}, nil
}

func (o *Orchestrator) finishCancelled(mode Mode, st *buildState) (*Result, error) {
	o.flushFooterBuffer(st)
	o.tel.setState(StateCancelled, 0, "build cancelled")
	return &Result{
		Mode:     mode,
		Status:   StatusCancelled,
		Streamed: st.streamed,
		Message:  "build cancelled, streamed components kept",
	}, nil
}

func (o *Orchestrator) failTotal(mode Mode, err error) (*Result, error) {
	message := friendlyMessage(err)
	o.tel.setState(StateError, 0, message)
	return &Result{Mode: mode, Status: StatusFailed, Message: message}, err
}

// flushFooterBuffer appends any buffered footers so a partial render still
// keeps them.
func (o *Orchestrator) flushFooterBuffer(st *buildState) {
	for _, footer := range st.footerBuffer {
		if err := o.doc.AppendComponent(st.req.ProjectID, st.req.PageID, footer); err != nil {
			st.warn("footer %s not appended: %v", footer.ID, err)
			continue
		}
		st.streamed++
	}
	st.footerBuffer = nil
}

func phaseNames(phases []generation.Phase) []string {
	if len(phases) == 0 {
		return nil
	}
	out := make([]string, len(phases))
	for i, p := range phases {
		out[i] = p.Name
	}
	return out
}

func joinWarnings(warnings []string) string {
	if len(warnings) == 0 {
		return ""
	}
	out := warnings[0]
	for _, w := range warnings[1:] {
		out += "; " + w
	}
	return out
}
