package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"pagecraft/internal/logging"
)

// GenAIClient implements the generation contract directly against the Gemini
// API for standalone use, without the hosted backend. Each mode is a single
// JSON-constrained prompt.
type GenAIClient struct {
	client *genai.Client
	model  string
}

// NewGenAIClient creates a Gemini-backed generation client.
func NewGenAIClient(apiKey, model string) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIClient{client: client, model: model}, nil
}

func (g *GenAIClient) GetPhases(ctx context.Context, prompt string, pageContext map[string]any) (*Plan, error) {
	instruction := `You are planning a web page build. Return JSON only:
{"phases":[{"name":string,"sections":[string],"required":bool,"timeoutMs":int,"instructions":string}],
"designSeed":{"primaryColor":string,"backgroundColor":string,"textColor":string,"accentColor":string,"fontFamily":string,"mood":string}}
Order phases nav/hero first, footer last. Mark nav, hero and footer phases required.`

	raw, err := g.generateJSON(ctx, instruction, prompt, pageContext)
	if err != nil {
		return nil, err
	}
	var plan Plan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	return &plan, nil
}

func (g *GenAIClient) GeneratePhase(ctx context.Context, prompt string, phase PhaseContext) (*Response, error) {
	instruction := fmt.Sprintf(`You are generating the %q phase of a web page (sections: %s).
%s
Return JSON only: {"success":true,"steps":[{"type":"component","data":{"id":string,"type":string,"props":object,"children":[...]}}]}
Component types: section, div, container, text, heading, button, image, input, link, nav-horizontal.`,
		phase.PhaseName, strings.Join(phase.PhaseSections, ", "), phase.PhaseInstructions)

	payload := map[string]any{}
	if phase.DesignSeed != nil {
		payload["designSeed"] = phase.DesignSeed
	}
	return g.generateResponse(ctx, instruction, prompt, payload)
}

func (g *GenAIClient) EditSection(ctx context.Context, prompt string, section SectionContext) (*Response, error) {
	instruction := `Rewrite the given page section per the user request, preserving its role and
matching the neighbor sections' style. Return JSON only:
{"success":true,"steps":[{"type":"component","data":{...the full replacement section...}}]}`

	payload := map[string]any{
		"existingSection": section.ExistingSection,
		"sectionType":     section.SectionType,
	}
	if section.DesignSeed != nil {
		payload["designSeed"] = section.DesignSeed
	}
	if len(section.NeighborSections) > 0 {
		payload["neighborSections"] = section.NeighborSections
	}
	return g.generateResponse(ctx, instruction, prompt, payload)
}

func (g *GenAIClient) ClassifyIntent(ctx context.Context, prompt string, sections []SectionHint) (*Classification, error) {
	instruction := `Decide which canvas section, if any, the user request targets.
Return JSON only: {"targetSection":string-or-empty,"confidence":number-0-to-1}`

	raw, err := g.generateJSON(ctx, instruction, prompt, map[string]any{"canvasSections": sections})
	if err != nil {
		return nil, err
	}
	var out Classification
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode classification: %w", err)
	}
	return &out, nil
}

func (g *GenAIClient) Generate(ctx context.Context, prompt string, pageContext map[string]any) (*Response, error) {
	instruction := `Generate the requested page content as component steps. Return JSON only:
{"success":true,"steps":[{"type":"component","data":{"id":string,"type":string,"props":object,"children":[...]}}]}`
	return g.generateResponse(ctx, instruction, prompt, pageContext)
}

func (g *GenAIClient) generateResponse(ctx context.Context, instruction, prompt string, payload map[string]any) (*Response, error) {
	raw, err := g.generateJSON(ctx, instruction, prompt, payload)
	if err != nil {
		if rateLimitedMessage(err) {
			return &Response{IsRateLimited: true, Recoverable: true, Message: err.Error()}, nil
		}
		return nil, err
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}

func (g *GenAIClient) generateJSON(ctx context.Context, instruction, prompt string, payload map[string]any) ([]byte, error) {
	var sb strings.Builder
	sb.WriteString(instruction)
	sb.WriteString("\n\nUser request: ")
	sb.WriteString(prompt)
	if len(payload) > 0 {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode context: %w", err)
		}
		sb.WriteString("\n\nContext:\n")
		sb.Write(encoded)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(sb.String(), genai.RoleUser),
	}
	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	if text == "" {
		return nil, ErrEmptyOutput
	}
	logging.GenerationDebug("genai returned %d bytes", len(text))
	return []byte(text), nil
}

func rateLimitedMessage(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "resource exhausted") || strings.Contains(msg, "quota")
}
