package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"pagecraft/internal/builder"
	"pagecraft/internal/generation"
	"pagecraft/internal/logging"
)

// appendFocused handles a prompt that asks for new content on an existing
// page: a single direct generation call whose components append after the
// current sections. The existing canvas is summarized, never mutated.
func (o *Orchestrator) appendFocused(ctx context.Context, b *builder.Builder, req Request) (*Result, error) {
	existing, err := o.doc.Components(req.ProjectID, req.PageID)
	if err != nil {
		return o.failTotal(ModeAppend, err)
	}
	seed, err := o.doc.DesignSeed(req.ProjectID, req.PageID)
	if err != nil {
		logging.BuildWarn("design seed not loaded: %v", err)
	}
	st := newBuildState(req, seed)

	pageContext := map[string]any{
		"projectId":        req.ProjectID,
		"pageId":           req.PageID,
		"existingSections": sectionHints(existing),
	}
	if seed != nil {
		pageContext["designSeed"] = seed
	}

	o.tel.setState(StateGenerating, 20, "generating new content")
	resp, err := o.callDirect(ctx, st, req.Prompt, pageContext)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return o.finishCancelled(ModeAppend, st)
		}
		return o.failTotal(ModeAppend, err)
	}

	o.tel.setState(StateValidating, 55, "validating components")
	if err := o.processSteps(ctx, b, st, resp.Steps); err != nil {
		if errors.Is(err, context.Canceled) {
			return o.finishCancelled(ModeAppend, st)
		}
		return o.finishPartial(ctx, ModeAppend, st, err)
	}
	o.flushFooterBuffer(st)

	if st.streamed == 0 {
		return o.failTotal(ModeAppend, fmt.Errorf("append: %w", generation.ErrEmptyOutput))
	}

	o.tel.setState(StateApplying, 80, "applying bindings and flows")
	o.applyDeferred(ctx, st)

	o.tel.setState(StateRendering, 92, "ordering sections")
	if err := o.orderDocument(req); err != nil {
		st.warn("section ordering failed: %v", err)
	}
	if _, err := o.doc.ReconcileOrphans(req.ProjectID); err != nil {
		st.warn("orphan class reconcile failed: %v", err)
	}

	message := fmt.Sprintf("added %d components", st.streamed)
	o.tel.setState(StateComplete, 100, message)
	return &Result{
		Mode:     ModeAppend,
		Status:   StatusComplete,
		Streamed: st.streamed,
		Message:  message,
		Warning:  joinWarnings(st.warnings),
	}, nil
}

// callDirect runs the direct generation call on the required budget. An empty
// response gets one retry with a more directive prompt before giving up.
func (o *Orchestrator) callDirect(ctx context.Context, st *buildState, prompt string, pageContext map[string]any) (*generation.Response, error) {
	emptyRetried := false
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := o.client.Generate(ctx, prompt, pageContext)
		if err != nil {
			switch classifyBuildError(err) {
			case classCancelled:
				return nil, err
			case classTransient:
				if attempt >= requiredPhaseRetries {
					return nil, err
				}
				o.backoff(ctx, st, "direct", attempt, err.Error())
				continue
			default:
				return nil, err
			}
		}

		switch {
		case resp.AuthError:
			st.warn("generation auth error: %s", resp.Message)
			return nil, &generation.AuthError{}
		case resp.IsRateLimited || resp.IsTimeout:
			if attempt >= requiredPhaseRetries {
				return nil, fmt.Errorf("direct generation still rate limited after %d attempts", attempt+1)
			}
			o.backoff(ctx, st, "direct", attempt, resp.Message)
			continue
		case !resp.Success:
			return nil, fmt.Errorf("direct generation failed: %s", firstNonEmpty(resp.Message, "generation unsuccessful"))
		case len(resp.Steps) == 0:
			if !emptyRetried {
				emptyRetried = true
				logging.Generation("direct generation returned no steps, retrying with a directive prompt")
				prompt = prompt + "\n\nReturn at least one complete component with an id, type, props, and children."
				if !sleepCtx(ctx, emptyOutputRetryDelay) {
					return nil, ctx.Err()
				}
				continue
			}
			return nil, generation.ErrEmptyOutput
		}

		if resp.Warning != "" {
			st.warn("direct generation: %s", resp.Warning)
		}
		return resp, nil
	}
}
