package rules

import (
	"sort"
	"strconv"
	"strings"

	"pagecraft/internal/component"
	"pagecraft/internal/logging"
)

// Layout containers never carry absolute/fixed positioning; decorative nodes
// are exempt.
func appliesPositionHygiene(n *component.Node, _ Context) bool {
	switch n.Type {
	case component.TypeSection, component.TypeContainer, component.TypeDiv,
		component.TypeNavHorizontal, component.TypeFooterRow, component.TypeFooterColumn:
	default:
		return false
	}
	if isDecorative(n) {
		return false
	}
	pos := propString(n, "position")
	return pos == "absolute" || pos == "fixed"
}

func stripAbsolutePositioning(n *component.Node, _ Context) {
	logging.RulesWarn("stripped %s positioning from %s", propString(n, "position"), n.ID)
	for _, key := range []string{"position", "top", "left", "right", "bottom", "zIndex"} {
		delete(n.Props, key)
	}
}

// Sections are full-bleed, content-height, and carry minimum vertical padding.
func applySectionSizing(n *component.Node, _ Context) {
	n.Props["width"] = "100%"
	delete(n.Props, "maxWidth")

	if isHeroSection(n, Context{}) {
		capHeroMinHeight(n)
	} else {
		delete(n.Props, "minHeight")
		setIfUnset(n, "height", "auto")
	}

	ensureVerticalPadding(n, 40)
}

// Hero sections may keep an explicit minHeight, capped at 70vh.
func capHeroMinHeight(n *component.Node) {
	mh := propString(n, "minHeight")
	if mh == "" {
		return
	}
	if strings.HasSuffix(mh, "vh") {
		if v, err := strconv.ParseFloat(strings.TrimSuffix(mh, "vh"), 64); err == nil && v > 70 {
			n.Props["minHeight"] = "70vh"
			logging.RulesDebug("capped hero minHeight on %s", n.ID)
		}
		return
	}
	if mh == "100%" || mh == "100vw" {
		n.Props["minHeight"] = "70vh"
	}
}

// ensureVerticalPadding raises top/bottom padding to at least min px, leaving
// horizontal padding alone.
func ensureVerticalPadding(n *component.Node, min float64) {
	pad, ok := component.AsMap(n.Props["padding"])
	if !ok {
		n.Props["padding"] = map[string]any{
			"top":    component.FormatNumber(min),
			"bottom": component.FormatNumber(min),
			"left":   "20",
			"right":  "20",
			"unit":   "px",
		}
		return
	}
	for _, side := range []string{"top", "bottom"} {
		v, hasValue := component.AsFloat(pad[side])
		if !hasValue || v < min {
			pad[side] = component.FormatNumber(min)
		}
	}
}

// applyHeroLayout applies the split-layout heuristic: two major children that
// both carry explicit widths mean an intentional split, so force a row;
// anything else gets a non-destructive centered column.
func applyHeroLayout(n *component.Node, _ Context) {
	major := make([]*component.Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Type == component.TypeDiv || c.Type == component.TypeContainer || c.Type == component.TypeImage {
			major = append(major, c)
		}
	}

	setIfUnset(n, "display", "flex")
	if len(major) == 2 && hasExplicitWidth(major[0]) && hasExplicitWidth(major[1]) {
		n.Props["flexDirection"] = "row"
		setIfUnset(n, "alignItems", "center")
		setIfUnset(n, "gap", "40px")
		logging.RulesDebug("hero %s kept as split layout", n.ID)
		return
	}
	setIfUnset(n, "flexDirection", "column")
	setIfUnset(n, "alignItems", "center")
	setIfUnset(n, "justifyContent", "center")
	setIfUnset(n, "textAlign", "center")
}

// hasExplicitWidth reports a non-default width the author chose on purpose.
func hasExplicitWidth(n *component.Node) bool {
	w := propString(n, "width")
	return w != "" && w != "auto" && w != "100%"
}

// Section ordering priorities. Content sections fall in 20-95; unknown
// sections get the generic content slot.
var sectionPriorities = []struct {
	keyword  string
	priority int
}{
	{"nav", 0},
	{"header", 0},
	{"hero", 10},
	{"feature", 20},
	{"service", 25},
	{"about", 30},
	{"product", 35},
	{"gallery", 40},
	{"portfolio", 40},
	{"stats", 45},
	{"team", 50},
	{"pricing", 60},
	{"testimonial", 70},
	{"faq", 80},
	{"newsletter", 100},
	{"cta", 110},
	{"contact", 120},
	{"footer", 200},
}

const defaultSectionPriority = 90

// SectionPriority returns the ordering slot for a section-level node.
func SectionPriority(n *component.Node) int {
	id := strings.ToLower(n.ID)
	if n.Type == component.TypeNavHorizontal {
		return 0
	}
	for _, row := range sectionPriorities {
		if strings.Contains(id, row.keyword) {
			return row.priority
		}
	}
	return defaultSectionPriority
}

// OrderSections sorts section-level siblings by the fixed priority table.
// Non-section siblings keep their original relative order and come first.
func OrderSections(siblings []*component.Node) []*component.Node {
	nonSections := make([]*component.Node, 0, len(siblings))
	type ranked struct {
		node     *component.Node
		priority int
		index    int
	}
	sections := make([]ranked, 0, len(siblings))
	for i, n := range siblings {
		if n.Type == component.TypeSection || n.Type == component.TypeNavHorizontal {
			sections = append(sections, ranked{n, SectionPriority(n), i})
		} else {
			nonSections = append(nonSections, n)
		}
	}
	sort.SliceStable(sections, func(i, j int) bool {
		if sections[i].priority != sections[j].priority {
			return sections[i].priority < sections[j].priority
		}
		return sections[i].index < sections[j].index
	})

	out := nonSections
	for _, r := range sections {
		out = append(out, r.node)
	}
	return out
}
