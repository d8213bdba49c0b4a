// Package orchestrator drives AI page builds end to end: it classifies the
// requested build mode, runs phased or single-shot generation with retries
// and backoff, streams validated components onto the page document, injects
// fallback nav/footer sections, and defers binding/flow application until the
// whole tree exists.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"pagecraft/internal/builder"
	"pagecraft/internal/classes"
	"pagecraft/internal/component"
	"pagecraft/internal/generation"
	"pagecraft/internal/logging"
)

// Mode is the classified build mode. The three modes are mutually exclusive.
type Mode string

const (
	ModeFullPage       Mode = "full-page"
	ModeSectionReplace Mode = "section-replace"
	ModeAppend         Mode = "append"
)

// Status is the build outcome.
type Status string

const (
	StatusComplete  Status = "complete"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// DocumentStore is the persistence surface the orchestrator mutates. The
// sqlite store implements it; tests use an in-memory fake.
type DocumentStore interface {
	Components(projectID, pageID string) ([]*component.Node, error)
	AppendComponent(projectID, pageID string, node *component.Node) error
	ReplaceComponentAt(projectID, pageID string, index int, node *component.Node) error
	ReplaceAll(projectID, pageID string, nodes []*component.Node) error
	ClearComponents(projectID, pageID string) error
	SaveDesignSeed(projectID, pageID string, seed *component.DesignSeed) error
	DesignSeed(projectID, pageID string) (*component.DesignSeed, error)
	CreateVariableIfMissing(projectID string, v component.Variable) (bool, error)
	ReconcileOrphans(projectID string) (int, error)
}

// Request describes one build.
type Request struct {
	ProjectID     string
	PageID        string
	Prompt        string
	TargetSection string // explicit target marker, bypasses intent classification
	ForceFullPage bool
}

// Result is the build outcome surfaced to the caller.
type Result struct {
	Mode         Mode
	Status       Status
	Streamed     int // components placed on the document
	FailedPhases []string
	Message      string
	Warning      string
}

// Orchestrator coordinates one build at a time against a document store and
// a generation client.
type Orchestrator struct {
	client  generation.Client
	doc     DocumentStore
	classes classes.Store
	tel     *telemetry

	mu      sync.Mutex
	cancel  context.CancelFunc
	session *builder.Session
}

// New creates an orchestrator. classStore backs class synthesis for builds.
func New(client generation.Client, doc DocumentStore, classStore classes.Store) *Orchestrator {
	return &Orchestrator{
		client:  client,
		doc:     doc,
		classes: classStore,
		tel:     newTelemetry(),
	}
}

// Progress exposes the telemetry stream.
func (o *Orchestrator) Progress() <-chan ProgressUpdate {
	return o.tel.Chan()
}

// Steps returns the ordered build step records so far.
func (o *Orchestrator) Steps() []component.BuildStep {
	return o.tel.Steps()
}

// Cancel aborts the in-flight build. Already-streamed components remain on
// the document.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Reset force-clears a stuck building state so a new build can start.
func (o *Orchestrator) Reset() {
	o.Cancel()
	o.mu.Lock()
	if o.session != nil {
		o.session.End()
		o.session = nil
	}
	o.mu.Unlock()
	o.tel.setState(StateIdle, 0, "reset")
}

// Build runs one build to completion. A second concurrent call fails with
// ErrBuildInProgress.
func (o *Orchestrator) Build(ctx context.Context, req Request) (*Result, error) {
	session := builder.NewSession(o.classes)
	if !session.Begin() {
		return nil, ErrBuildInProgress
	}

	buildCtx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	if o.session != nil && o.session.InProgress() {
		o.mu.Unlock()
		cancel()
		session.End()
		return nil, ErrBuildInProgress
	}
	o.session = session
	o.cancel = cancel
	o.mu.Unlock()

	defer func() {
		cancel()
		session.End()
		o.mu.Lock()
		o.cancel = nil
		o.mu.Unlock()
	}()

	audit := logging.AuditWithSession(session.IDs.SessionID())
	audit.BuildEvent(logging.AuditBuildStart, session.IDs.SessionID(), "", true)

	// The watchdog runs beside the build and kills it when the build stalls.
	group, groupCtx := errgroup.WithContext(buildCtx)
	watchdogDone := make(chan struct{})

	var result *Result
	var buildErr error
	group.Go(func() error {
		defer close(watchdogDone)
		result, buildErr = o.run(groupCtx, session, req)
		return nil
	})
	group.Go(func() error {
		return o.watchdog(groupCtx, watchdogDone, cancel)
	})
	werr := group.Wait()

	if buildErr == nil && werr != nil {
		buildErr = werr
	}
	success := buildErr == nil && result != nil && result.Status != StatusFailed
	audit.BuildEvent(eventForResult(result, buildErr), session.IDs.SessionID(), "", success)
	return result, buildErr
}

// run dispatches on the classified mode.
func (o *Orchestrator) run(ctx context.Context, session *builder.Session, req Request) (*Result, error) {
	o.tel.setState(StateAnalyzing, 2, "analyzing request")

	mode, target, err := o.classifyMode(ctx, req)
	if err != nil {
		o.tel.setState(StateError, 0, err.Error())
		return &Result{Mode: mode, Status: StatusFailed, Message: friendlyMessage(err)}, err
	}
	logging.Build("mode=%s target=%q prompt=%.60q", mode, target, req.Prompt)

	b := builder.New(session)
	switch mode {
	case ModeSectionReplace:
		return o.replaceSection(ctx, b, req, target)
	case ModeFullPage:
		return o.buildFullPage(ctx, b, req)
	default:
		return o.appendFocused(ctx, b, req)
	}
}

// classifyMode picks one of the three modes in fixed priority order:
// section-replace, then full-page, then focused append.
func (o *Orchestrator) classifyMode(ctx context.Context, req Request) (Mode, string, error) {
	target := req.TargetSection
	if target == "" {
		target = parseTargetMarker(req.Prompt)
	}
	if target != "" {
		// An explicit target must resolve; never fall through to full-page.
		return ModeSectionReplace, target, nil
	}

	existing, err := o.doc.Components(req.ProjectID, req.PageID)
	if err != nil {
		return ModeFullPage, "", err
	}
	if req.ForceFullPage || len(existing) == 0 {
		return ModeFullPage, "", nil
	}

	// Ask the classifier whether the prompt targets a canvas section.
	hints := sectionHints(existing)
	if len(hints) > 0 {
		classification, err := o.client.ClassifyIntent(ctx, req.Prompt, hints)
		if err != nil {
			logging.BuildWarn("intent classification failed, continuing untargeted: %v", err)
		} else if classification.TargetSection != "" && classification.Confidence >= intentConfidenceThreshold {
			return ModeSectionReplace, classification.TargetSection, nil
		}
	}

	if matchesFullPageKeywords(req.Prompt) {
		return ModeFullPage, "", nil
	}
	return ModeAppend, "", nil
}

// parseTargetMarker extracts "[TARGET SECTION: x]" from a classified prompt.
func parseTargetMarker(prompt string) string {
	const marker = "[TARGET SECTION:"
	start := strings.Index(strings.ToUpper(prompt), marker)
	if start < 0 {
		return ""
	}
	rest := prompt[start+len(marker):]
	end := strings.Index(rest, "]")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}

func matchesFullPageKeywords(prompt string) bool {
	lower := strings.ToLower(prompt)
	for _, kw := range fullPageKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// sectionHints summarizes the canvas for intent classification.
func sectionHints(nodes []*component.Node) []generation.SectionHint {
	out := make([]generation.SectionHint, 0, len(nodes))
	for i, n := range nodes {
		if n.Type != component.TypeSection && n.Type != component.TypeNavHorizontal {
			continue
		}
		hint := n.TextContent()
		if len(hint) > 120 {
			hint = hint[:120]
		}
		out = append(out, generation.SectionHint{
			Index: i,
			ID:    n.ID,
			Type:  string(n.Type),
			Hint:  hint,
		})
	}
	return out
}

// watchdog cancels the build when no telemetry activity happens for the
// timeout, then resets the stuck state.
func (o *Orchestrator) watchdog(ctx context.Context, done <-chan struct{}, cancel context.CancelFunc) error {
	ticker := time.NewTicker(watchdogTimeout / 4)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if o.tel.idleSince() >= watchdogTimeout {
				logging.WatchdogWarn("no build progress for %s, force-resetting", watchdogTimeout)
				o.tel.setState(StateError, 0, ErrWatchdogTimeout.Error())
				cancel()
				return fmt.Errorf("%w", ErrWatchdogTimeout)
			}
		}
	}
}

func eventForResult(result *Result, err error) logging.AuditEventType {
	switch {
	case err != nil && (result == nil || result.Streamed == 0):
		return logging.AuditBuildAbort
	case result != nil && result.Status == StatusPartial:
		return logging.AuditBuildPartial
	default:
		return logging.AuditBuildComplete
	}
}
