package orchestrator

import (
	"strings"

	"pagecraft/internal/component"
	"pagecraft/internal/generation"
	"pagecraft/internal/style"
)

// findSection resolves a target reference to a top-level index. Matching
// precedence: exact ID, partial ID, class-name substring, then text-content
// substring. The text fallback only runs on small documents where a content
// match is unlikely to be ambiguous.
func findSection(nodes []*component.Node, target string) (int, *component.Node) {
	want := strings.ToLower(strings.TrimSpace(target))
	if want == "" {
		return -1, nil
	}

	for i, n := range nodes {
		if strings.ToLower(n.ID) == want {
			return i, n
		}
	}

	for i, n := range nodes {
		id := strings.ToLower(n.ID)
		if strings.Contains(id, want) || strings.Contains(want, id) {
			return i, n
		}
	}

	for i, n := range nodes {
		for _, cls := range n.ClassNames {
			if strings.Contains(strings.ToLower(cls), want) {
				return i, n
			}
		}
	}

	if countSections(nodes) < smallDocumentSections {
		for i, n := range nodes {
			if strings.Contains(strings.ToLower(n.TextContent()), want) {
				return i, n
			}
		}
	}
	return -1, nil
}

func countSections(nodes []*component.Node) int {
	count := 0
	for _, n := range nodes {
		if n.Type == component.TypeSection || n.Type == component.TypeNavHorizontal {
			count++
		}
	}
	return count
}

// neighborSummaries collects style hints from the sections nearest the target
// so a replacement blends in. Nearest siblings first, capped.
func neighborSummaries(nodes []*component.Node, target int) []generation.NeighborSummary {
	var out []generation.NeighborSummary
	for offset := 1; len(out) < maxNeighborContext; offset++ {
		before, after := target-offset, target+offset
		if before < 0 && after >= len(nodes) {
			break
		}
		if before >= 0 {
			out = append(out, summarizeNeighbor(nodes[before]))
		}
		if after < len(nodes) && len(out) < maxNeighborContext {
			out = append(out, summarizeNeighbor(nodes[after]))
		}
	}
	return out
}

func summarizeNeighbor(n *component.Node) generation.NeighborSummary {
	summary := generation.NeighborSummary{ID: n.ID}
	if bg, ok := n.Props["backgroundColor"].(string); ok {
		summary.Background = bg
	} else if grad, ok := n.Props["background"].(string); ok && style.IsGradientString(grad) {
		summary.Background = grad
	}
	// First explicit text color anywhere in the subtree stands in for the
	// section's text identity.
	n.Walk(func(node *component.Node) {
		if summary.TextColor != "" {
			return
		}
		if c, ok := node.Props["color"].(string); ok && c != "" {
			summary.TextColor = c
		}
	})
	if len(n.ClassNames) > 0 {
		summary.Classes = append([]string{}, n.ClassNames...)
	}
	return summary
}
