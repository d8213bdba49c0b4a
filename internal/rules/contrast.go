package rules

import (
	"strings"

	"pagecraft/internal/component"
	"pagecraft/internal/logging"
	"pagecraft/internal/style"
)

// Correction literals. Exact values, not re-derivations, so corrected output
// is deterministic and testable.
const (
	lightTextOnDark      = "rgba(255,255,255,0.95)"
	mutedLightTextOnDark = "rgba(255,255,255,0.85)"
	darkTextOnLight      = "#1a1a1a"
	warmDarkText         = "#44403c"
)

// applyTextContrast corrects the color of a text-bearing leaf against its
// effective background: own background first, else the inherited dark/light
// classification.
func applyTextContrast(n *component.Node, ctx Context) {
	bg := effectiveBackground(n)
	dark := ctx.ParentDark
	light := ctx.ParentLight
	warm := false
	if bg != "" {
		dark = style.IsDark(bg)
		light = style.IsLight(bg)
		warm = style.IsWarmLight(bg)
	}

	color := propString(n, "color")
	isMutedRole := n.Type == component.TypeText && (idContains(n, "subtitle", "caption", "muted", "description") || style.IsMuted(color))

	switch {
	case dark:
		if color == "" || style.IsDark(color) || style.IsMuted(color) {
			corrected := lightTextOnDark
			if isMutedRole {
				corrected = mutedLightTextOnDark
			}
			n.Props["color"] = corrected
			logging.RulesDebug("contrast: %s on dark background now %s", n.ID, corrected)
		}
	case warm:
		if color == "" || style.IsMuted(color) || style.IsLight(color) {
			n.Props["color"] = warmDarkText
			logging.RulesDebug("contrast: %s on warm background now %s", n.ID, warmDarkText)
		}
	case light:
		if color == "" || style.IsLight(color) {
			n.Props["color"] = darkTextOnLight
			logging.RulesDebug("contrast: %s on light background now %s", n.ID, darkTextOnLight)
		}
	default:
		if color == "" {
			n.Props["color"] = darkTextOnLight
		}
	}
}

// applyButtonContent guarantees every button either renders an icon or carries
// text. Icon-only buttons get empty content; bare buttons get a role-matched
// phrase, never a literal "Button".
func applyButtonContent(n *component.Node, _ Context) {
	if hasIcon(n) {
		if propString(n, "content") == "" {
			n.Props["content"] = ""
		}
		return
	}
	content := strings.TrimSpace(propString(n, "content"))
	if content == "" {
		content = strings.TrimSpace(propString(n, "text"))
	}
	if content != "" {
		return
	}
	if idContains(n, "cta", "start", "signup", "get-started", "trial") {
		n.Props["content"] = "Get Started"
	} else {
		n.Props["content"] = "Click Here"
	}
}

func hasIcon(n *component.Node) bool {
	if propString(n, "icon") != "" {
		return true
	}
	if idContains(n, "icon", "brand-") {
		return true
	}
	for _, c := range n.Children {
		if c.Type == component.TypeIcon {
			return true
		}
	}
	return false
}
