package orchestrator

import (
	"context"

	"pagecraft/internal/builder"
	"pagecraft/internal/component"
	"pagecraft/internal/generation"
	"pagecraft/internal/logging"
	"pagecraft/internal/rules"
)

// injectFallbacks guarantees every full-page build ends with exactly one
// nav-like and one footer-like section: missing ones are synthesized from the
// design seed, and buffered footers land last.
func (o *Orchestrator) injectFallbacks(ctx context.Context, b *builder.Builder, st *buildState, plan *generation.Plan) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !st.sawNav {
		logging.Build("no nav section streamed, synthesizing fallback")
		node := b.Process(fallbackNavStep(plan.DesignSeed, st.req.Prompt), "", st.seedCtx)
		if node != nil {
			if err := o.doc.AppendComponent(st.req.ProjectID, st.req.PageID, node); err != nil {
				return err
			}
			st.streamed++
			st.sawNav = true
		}
	}

	if len(st.footerBuffer) == 0 {
		logging.Build("no footer streamed, synthesizing fallback")
		if node := b.Process(fallbackFooterStep(plan.DesignSeed, st.req.Prompt), "", st.seedCtx); node != nil {
			st.footerBuffer = append(st.footerBuffer, node)
		}
	}

	o.flushFooterBuffer(st)
	return nil
}

// fallbackNavStep builds the raw step for a minimal logo + links + CTA nav
// using the design seed's colors.
func fallbackNavStep(seed *component.DesignSeed, prompt string) map[string]any {
	bg, text, accent := seedColors(seed)
	brand := brandName(prompt)
	return map[string]any{
		"id":   "main-nav",
		"type": "nav-horizontal",
		"props": map[string]any{
			"backgroundColor": bg,
			"padding":         map[string]any{"top": "16", "bottom": "16", "left": "32", "right": "32", "unit": "px"},
		},
		"children": []any{
			map[string]any{
				"id": "nav-logo", "type": "text",
				"props": map[string]any{"content": brand, "color": text, "fontSize": "20", "fontWeight": "700"},
			},
			map[string]any{
				"id": "nav-links", "type": "div",
				"props": map[string]any{"display": "flex", "flexDirection": "row", "gap": "24px"},
				"children": []any{
					map[string]any{"id": "nav-link-features", "type": "link",
						"props": map[string]any{"content": "Features", "color": text, "href": "#features"}},
					map[string]any{"id": "nav-link-pricing", "type": "link",
						"props": map[string]any{"content": "Pricing", "color": text, "href": "#pricing"}},
					map[string]any{"id": "nav-link-contact", "type": "link",
						"props": map[string]any{"content": "Contact", "color": text, "href": "#contact"}},
				},
			},
			map[string]any{
				"id": "nav-cta", "type": "button",
				"props": map[string]any{"content": "Get Started", "backgroundColor": accent, "color": "#ffffff"},
			},
		},
	}
}

// fallbackFooterStep builds the raw step for a minimal brand + copyright
// footer.
func fallbackFooterStep(seed *component.DesignSeed, prompt string) map[string]any {
	bg, text, _ := seedColors(seed)
	brand := brandName(prompt)
	return map[string]any{
		"id":   "footer-section",
		"type": "section",
		"props": map[string]any{
			"backgroundColor": bg,
			"display":         "flex",
			"flexDirection":   "column",
			"alignItems":      "center",
			"gap":             "8px",
		},
		"children": []any{
			map[string]any{"id": "footer-brand", "type": "text",
				"props": map[string]any{"content": brand, "color": text, "fontWeight": "600"}},
			map[string]any{"id": "footer-copyright", "type": "text",
				"props": map[string]any{"content": "© " + brand + ". All rights reserved.", "color": text, "fontSize": "13"}},
		},
	}
}

func seedColors(seed *component.DesignSeed) (bg, text, accent string) {
	bg, text, accent = "#0f0f0f", "#f5f5f5", "#3b82f6"
	if seed == nil {
		return
	}
	if seed.BackgroundColor != "" {
		bg = seed.BackgroundColor
	}
	if seed.TextColor != "" {
		text = seed.TextColor
	}
	if seed.AccentColor != "" {
		accent = seed.AccentColor
	} else if seed.PrimaryColor != "" {
		accent = seed.PrimaryColor
	}
	return
}

// brandName guesses a short brand label from the prompt, defaulting to a
// neutral one.
func brandName(prompt string) string {
	for _, word := range splitWords(prompt) {
		if len(word) >= 3 && word[0] >= 'A' && word[0] <= 'Z' {
			return word
		}
	}
	return "Brand"
}

func splitWords(s string) []string {
	var out []string
	start := -1
	for i, r := range s {
		alpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if alpha && start < 0 {
			start = i
		}
		if !alpha && start >= 0 {
			out = append(out, s[start:i])
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

// orderDocument applies the section priority table to the page's top-level
// siblings via a freshest-snapshot batch replace.
func (o *Orchestrator) orderDocument(req Request) error {
	nodes, err := o.doc.Components(req.ProjectID, req.PageID)
	if err != nil {
		return err
	}
	if len(nodes) < 2 {
		return nil
	}
	ordered := rules.OrderSections(nodes)
	return o.doc.ReplaceAll(req.ProjectID, req.PageID, ordered)
}
