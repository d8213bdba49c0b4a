// Package rules enforces structural and visual invariants on a component tree:
// positioning hygiene, section sizing, hero layout, text contrast, nav/card/
// grid shape repair, placeholder pruning, and section ordering. Rules are a
// fixed ordered table; order is load-bearing where rules are mutually
// exclusive guards (feature-card detection must short-circuit before grid
// intent, or a card gets misclassified as a grid).
package rules

import (
	"strings"

	"pagecraft/internal/component"
	"pagecraft/internal/logging"
	"pagecraft/internal/style"
)

// Context carries the parent's background classification and ID down the tree.
type Context struct {
	ParentID    string
	ParentDark  bool
	ParentLight bool
}

// Rule is one invariant: Applies gates it, Apply mutates only the matched
// subtree. Exclusive marks a rule that consumes its match, short-circuiting
// later rules in its group for the same node.
type Rule struct {
	Name      string
	Exclusive bool
	Applies   func(n *component.Node, ctx Context) bool
	Apply     func(n *component.Node, ctx Context)
}

// nodeRules run top-down on every node, in order.
var nodeRules = []Rule{
	{Name: "strip-absolute-positioning", Applies: appliesPositionHygiene, Apply: stripAbsolutePositioning},
	{Name: "section-sizing", Applies: isSectionNode, Apply: applySectionSizing},
	{Name: "hero-layout", Applies: isHeroSection, Apply: applyHeroLayout},
	{Name: "nav-shape", Applies: isNavNode, Apply: applyNavShape},
	{Name: "cta-centering", Applies: isCTAContainer, Apply: applyCenteredColumn},
	{Name: "social-links-row", Applies: isSocialLinks, Apply: applyTightRow},
	{Name: "form-row", Applies: isFormRow, Apply: applyFormRow},
	{Name: "project-card", Exclusive: true, Applies: isProjectCard, Apply: applyCardRepair},
	{Name: "feature-card", Exclusive: true, Applies: isFeatureCard, Apply: applyFeatureCard},
	{Name: "grid-intent", Exclusive: true, Applies: hasGridIntent, Apply: applyGridIntent},
	{Name: "button-content", Applies: isButton, Apply: applyButtonContent},
	{Name: "text-contrast", Applies: isTextLeaf, Apply: applyTextContrast},
}

// Validate applies the rule table to the node and recurses into children,
// passing this node's background classification down. Returns nil when the
// node prunes away (placeholder content, src-less image, placeholder div).
func Validate(n *component.Node, ctx Context) *component.Node {
	if n == nil {
		return nil
	}
	if shouldPrune(n, ctx) {
		logging.Rules("pruned %s (%s): placeholder", n.ID, n.Type)
		return nil
	}

	exclusiveMatched := false
	for _, rule := range nodeRules {
		if rule.Exclusive && exclusiveMatched {
			continue
		}
		if !rule.Applies(n, ctx) {
			continue
		}
		rule.Apply(n, ctx)
		logging.RulesDebug("rule %s applied to %s", rule.Name, n.ID)
		if rule.Exclusive {
			exclusiveMatched = true
		}
	}

	childCtx := childContext(n, ctx)
	kept := n.Children[:0]
	for _, child := range n.Children {
		if out := Validate(child, childCtx); out != nil {
			kept = append(kept, out)
		}
	}
	n.Children = kept
	return n
}

// childContext classifies this node's own background for its children,
// inheriting the parent's classification when the node sets none.
func childContext(n *component.Node, ctx Context) Context {
	out := Context{ParentID: n.ID, ParentDark: ctx.ParentDark, ParentLight: ctx.ParentLight}
	bg := effectiveBackground(n)
	if bg == "" {
		return out
	}
	switch {
	case style.IsDark(bg):
		out.ParentDark, out.ParentLight = true, false
	case style.IsLight(bg):
		out.ParentDark, out.ParentLight = false, true
	default:
		out.ParentDark, out.ParentLight = false, false
	}
	return out
}

// effectiveBackground returns the node's own background color, with a gradient
// first stop standing in when only a gradient is set.
func effectiveBackground(n *component.Node) string {
	if bg := propString(n, "backgroundColor"); bg != "" && bg != "transparent" {
		return bg
	}
	if g := propString(n, "backgroundGradient"); g != "" {
		return firstGradientColor(g)
	}
	return ""
}

// firstGradientColor extracts the first color stop of a CSS gradient string.
func firstGradientColor(g string) string {
	open := strings.Index(g, "(")
	if open < 0 {
		return ""
	}
	inner := g[open+1 : len(g)-1]
	parts := strings.Split(inner, ",")
	for _, part := range parts {
		token := strings.TrimSpace(part)
		// Skip the angle/shape argument.
		if strings.HasSuffix(token, "deg") || token == "circle" || strings.HasPrefix(token, "from ") {
			continue
		}
		fields := strings.Fields(token)
		if len(fields) > 0 {
			return fields[0]
		}
	}
	return ""
}

// --- shared predicates and prop helpers ---

func propString(n *component.Node, key string) string {
	if n.Props == nil {
		return ""
	}
	if s, ok := n.Props[key].(string); ok {
		return s
	}
	return ""
}

func setIfUnset(n *component.Node, key string, value any) {
	if _, ok := n.Props[key]; !ok {
		n.Props[key] = value
	}
}

func idContains(n *component.Node, words ...string) bool {
	id := strings.ToLower(n.ID)
	for _, w := range words {
		if strings.Contains(id, w) {
			return true
		}
	}
	return false
}

func isSectionNode(n *component.Node, _ Context) bool {
	return n.Type == component.TypeSection
}

func isHeroSection(n *component.Node, _ Context) bool {
	return n.Type == component.TypeSection && idContains(n, "hero")
}

func isButton(n *component.Node, _ Context) bool {
	return n.Type == component.TypeButton
}

func isTextLeaf(n *component.Node, _ Context) bool {
	switch n.Type {
	case component.TypeText, component.TypeHeading, component.TypeLabel:
		return true
	}
	return false
}

// isDecorative exempts orbs/blobs/blurs from positioning hygiene and
// empty-div pruning.
func isDecorative(n *component.Node) bool {
	if idContains(n, "orb", "blur", "blob", "decorative") {
		return true
	}
	if propString(n, "pointerEvents") == "none" {
		return true
	}
	if strings.Contains(propString(n, "filter"), "blur") {
		return true
	}
	return false
}
