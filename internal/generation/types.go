// Package generation defines the contract with the AI generation service and
// the clients that speak it: the hosted HTTP backend and a Gemini-backed
// standalone client.
package generation

import (
	"context"

	"pagecraft/internal/component"
)

// Mode selects the generation endpoint behavior.
type Mode string

const (
	ModeGetPhases      Mode = "get-phases"
	ModeSinglePhase    Mode = "single-phase"
	ModeSectionEdit    Mode = "section-edit"
	ModeClassifyIntent Mode = "classify-intent"
	ModeDirect         Mode = "direct"
)

// Phase is one unit of a full-page build plan.
type Phase struct {
	Name         string   `json:"name"`
	Sections     []string `json:"sections"`
	Required     bool     `json:"required"`
	TimeoutMs    int      `json:"timeoutMs"`
	Instructions string   `json:"instructions"`
}

// Plan is the get-phases response: an ordered phase list plus the shared
// design seed that keeps phases visually consistent.
type Plan struct {
	Phases             []Phase               `json:"phases"`
	DesignSeed         *component.DesignSeed `json:"designSeed,omitempty"`
	DesignDirective    string                `json:"designDirective,omitempty"`
	BlueprintDirective string                `json:"blueprintDirective,omitempty"`
}

// Step is one unit of a generation response, consumed by the orchestrator.
type Step struct {
	Type    component.StepType `json:"type"`
	Message string             `json:"message,omitempty"`
	Data    any                `json:"data,omitempty"`
}

// Response is the common shape of single-phase, section-edit, and direct
// calls. The boolean signals drive the orchestrator's retry taxonomy.
type Response struct {
	Success       bool   `json:"success"`
	Steps         []Step `json:"steps"`
	Summary       string `json:"summary,omitempty"`
	Action        string `json:"action,omitempty"`
	Message       string `json:"message,omitempty"`
	Warning       string `json:"warning,omitempty"`
	Suggestion    string `json:"suggestion,omitempty"`
	IsRateLimited bool   `json:"isRateLimited,omitempty"`
	Recoverable   bool   `json:"recoverable,omitempty"`
	AuthError     bool   `json:"authError,omitempty"`
	IsTimeout     bool   `json:"isTimeout,omitempty"`
}

// Classification is the classify-intent response. An empty TargetSection or a
// Confidence below the orchestrator's threshold means no section identified.
type Classification struct {
	TargetSection string  `json:"targetSection"`
	Confidence    float64 `json:"confidence"`
}

// SectionHint summarizes one canvas section for intent classification.
type SectionHint struct {
	Index int    `json:"index"`
	ID    string `json:"id"`
	Type  string `json:"type"`
	Hint  string `json:"hint"`
}

// PhaseContext is the single-phase request context.
type PhaseContext struct {
	PhaseName          string                `json:"phaseName"`
	PhaseInstructions  string                `json:"phaseInstructions"`
	PhaseSections      []string              `json:"phaseSections"`
	DesignSeed         *component.DesignSeed `json:"designSeed,omitempty"`
	DesignDirective    string                `json:"designDirective,omitempty"`
	BlueprintDirective string                `json:"blueprintDirective,omitempty"`
}

// NeighborSummary is the style hint passed for up to four sibling sections of
// a section edit, so the replacement matches the page's visual identity.
type NeighborSummary struct {
	ID         string   `json:"id"`
	Background string   `json:"background,omitempty"`
	TextColor  string   `json:"textColor,omitempty"`
	Classes    []string `json:"classes,omitempty"`
}

// SectionContext is the section-edit request context.
type SectionContext struct {
	ExistingSection  *component.Node       `json:"existingSection"`
	SectionType      string                `json:"sectionType"`
	SectionIndex     int                   `json:"sectionIndex"`
	DesignSeed       *component.DesignSeed `json:"designSeed,omitempty"`
	NeighborSections []NeighborSummary     `json:"neighborSections,omitempty"`
}

// Client is the generation-service surface the orchestrator depends on.
// Implemented by HTTPClient and GenAIClient; tests use func-field mocks.
type Client interface {
	GetPhases(ctx context.Context, prompt string, pageContext map[string]any) (*Plan, error)
	GeneratePhase(ctx context.Context, prompt string, phase PhaseContext) (*Response, error)
	EditSection(ctx context.Context, prompt string, section SectionContext) (*Response, error)
	ClassifyIntent(ctx context.Context, prompt string, sections []SectionHint) (*Classification, error)
	Generate(ctx context.Context, prompt string, pageContext map[string]any) (*Response, error)
}
