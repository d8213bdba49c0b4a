package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"pagecraft/internal/builder"
	"pagecraft/internal/component"
	"pagecraft/internal/generation"
	"pagecraft/internal/logging"
	"pagecraft/internal/style"
)

// replaceSection regenerates exactly one top-level section in place. An
// unresolved target aborts before any document mutation, and siblings are
// never rewritten.
func (o *Orchestrator) replaceSection(ctx context.Context, b *builder.Builder, req Request, target string) (*Result, error) {
	existing, err := o.doc.Components(req.ProjectID, req.PageID)
	if err != nil {
		return o.failTotal(ModeSectionReplace, err)
	}

	index, section := findSection(existing, target)
	if section == nil {
		return o.failTotal(ModeSectionReplace, &SectionNotFoundError{Target: target})
	}
	logging.Build("replacing section %s at index %d", section.ID, index)

	seed, err := o.doc.DesignSeed(req.ProjectID, req.PageID)
	if err != nil {
		logging.BuildWarn("design seed not loaded: %v", err)
	}
	st := newBuildState(req, seed)
	if bg, ok := section.Props["backgroundColor"].(string); ok && bg != "" {
		st.seedCtx.ParentDark = style.IsDark(bg)
		st.seedCtx.ParentLight = style.IsLight(bg)
	}

	sectionCtx := generation.SectionContext{
		ExistingSection:  section,
		SectionType:      string(section.Type),
		SectionIndex:     index,
		DesignSeed:       seed,
		NeighborSections: neighborSummaries(existing, index),
	}

	o.tel.setState(StateGenerating, 20, "regenerating section "+section.ID)
	resp, err := o.callEdit(ctx, st, req.Prompt, sectionCtx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return o.finishCancelled(ModeSectionReplace, st)
		}
		return o.failTotal(ModeSectionReplace, err)
	}

	o.tel.setState(StateValidating, 60, "validating replacement")
	replacement, extras := o.collectSectionSteps(b, st, resp.Steps)
	if replacement == nil {
		return o.failTotal(ModeSectionReplace, fmt.Errorf("section edit for %s: %w", section.ID, generation.ErrEmptyOutput))
	}

	o.tel.setState(StateRendering, 75, "applying replacement")
	if err := o.doc.ReplaceComponentAt(req.ProjectID, req.PageID, index, replacement); err != nil {
		return o.failTotal(ModeSectionReplace, err)
	}
	st.streamed++
	for _, extra := range extras {
		if err := o.doc.AppendComponent(req.ProjectID, req.PageID, extra); err != nil {
			st.warn("extra component %s not appended: %v", extra.ID, err)
			continue
		}
		st.streamed++
	}

	o.tel.setState(StateApplying, 88, "applying bindings and flows")
	o.applyDeferred(ctx, st)
	if _, err := o.doc.ReconcileOrphans(req.ProjectID); err != nil {
		st.warn("orphan class reconcile failed: %v", err)
	}

	message := "replaced section " + section.ID
	o.tel.setState(StateComplete, 100, message)
	return &Result{
		Mode:     ModeSectionReplace,
		Status:   StatusComplete,
		Streamed: st.streamed,
		Message:  message,
		Warning:  joinWarnings(st.warnings),
	}, nil
}

// collectSectionSteps processes an edit response: the first built component is
// the replacement, later ones append after it; non-component steps follow the
// usual stream handling.
func (o *Orchestrator) collectSectionSteps(b *builder.Builder, st *buildState, steps []generation.Step) (*component.Node, []*component.Node) {
	var replacement *component.Node
	var extras []*component.Node
	for _, step := range steps {
		switch step.Type {
		case component.StepComponent:
			node := b.Process(step.Data, "", st.seedCtx)
			if node == nil {
				continue
			}
			if replacement == nil {
				replacement = node
			} else {
				extras = append(extras, node)
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
		}
	}
	return replacement, extras
}

// callEdit is the section-edit analog of callPhase, on the required budget.
func (o *Orchestrator) callEdit(ctx context.Context, st *buildState, prompt string, sectionCtx generation.SectionContext) (*generation.Response, error) {
	emptyRetried := false
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := o.client.EditSection(ctx, prompt, sectionCtx)
		if err != nil {
			switch classifyBuildError(err) {
			case classCancelled:
				return nil, err
			case classTransient:
				if attempt >= requiredPhaseRetries {
					return nil, err
				}
				o.backoff(ctx, st, "section-edit", attempt, err.Error())
				continue
			default:
				return nil, err
			}
		}

		switch {
		case resp.AuthError:
			st.warn("generation auth error on section edit: %s", resp.Message)
			return nil, &generation.AuthError{}
		case resp.IsRateLimited || resp.IsTimeout:
			if attempt >= requiredPhaseRetries {
				return nil, fmt.Errorf("section edit still rate limited after %d attempts", attempt+1)
			}
			o.backoff(ctx, st, "section-edit", attempt, resp.Message)
			continue
		case !resp.Success:
			return nil, fmt.Errorf("section edit failed: %s", firstNonEmpty(resp.Message, "generation unsuccessful"))
		case len(resp.Steps) == 0:
			if resp.Recoverable && !emptyRetried {
				emptyRetried = true
				logging.Generation("section edit returned no steps, retrying once")
				if !sleepCtx(ctx, emptyOutputRetryDelay) {
					return nil, ctx.Err()
				}
				continue
			}
			return nil, generation.ErrEmptyOutput
		}

		if resp.Warning != "" {
			st.warn("section edit: %s", resp.Warning)
		}
		return resp, nil
	}
}
