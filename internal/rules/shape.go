package rules

import (
	"strconv"

	"pagecraft/internal/component"
	"pagecraft/internal/logging"
)

// --- navigation ---

func isNavNode(n *component.Node, _ Context) bool {
	return n.Type == component.TypeNavHorizontal || idContains(n, "nav", "navbar")
}

// applyNavShape forces the nav container to a full-width space-between row,
// styles the logo, and restructures sprawling navs into [logo, rightGroup].
func applyNavShape(n *component.Node, _ Context) {
	n.Props["width"] = "100%"
	n.Props["display"] = "flex"
	n.Props["flexDirection"] = "row"
	n.Props["justifyContent"] = "space-between"
	n.Props["alignItems"] = "center"
	delete(n.Props, "maxWidth")

	for _, c := range n.Children {
		if isNavLogo(c) {
			c.Props["fontWeight"] = "700"
			setIfUnset(c, "letterSpacing", "0.5")
			setIfUnset(c, "margin", map[string]any{
				"top": "0", "right": "24", "bottom": "0", "left": "0", "unit": "px",
			})
		}
		if idContains(c, "icons", "actions") {
			c.Props["display"] = "flex"
			c.Props["flexDirection"] = "row"
			c.Props["alignItems"] = "center"
			setIfUnset(c, "gap", "12px")
		}
	}

	// More than three children means loose links: bundle everything after the
	// logo into one right-side group. Exactly three is already-correct shape.
	if len(n.Children) > 3 {
		restructureNav(n)
	}
}

func isNavLogo(n *component.Node) bool {
	return idContains(n, "logo", "brand")
}

func restructureNav(n *component.Node) {
	var logo *component.Node
	rest := make([]*component.Node, 0, len(n.Children))
	for _, c := range n.Children {
		if logo == nil && isNavLogo(c) {
			logo = c
			continue
		}
		rest = append(rest, c)
	}
	if logo == nil {
		logo, rest = n.Children[0], n.Children[1:]
	}

	group := component.NewNode(n.ID+"-links", component.TypeDiv)
	group.Props["display"] = "flex"
	group.Props["flexDirection"] = "row"
	group.Props["alignItems"] = "center"
	group.Props["gap"] = "24px"
	group.Children = rest

	n.Children = []*component.Node{logo, group}
	logging.Rules("restructured nav %s into logo + link group (%d links)", n.ID, len(rest))
}

// --- centering rules ---

func isCTAContainer(n *component.Node, _ Context) bool {
	if n.Type != component.TypeSection && n.Type != component.TypeDiv && n.Type != component.TypeContainer {
		return false
	}
	return idContains(n, "cta-section", "cta-content", "cta-banner")
}

func applyCenteredColumn(n *component.Node, _ Context) {
	n.Props["display"] = "flex"
	n.Props["flexDirection"] = "column"
	n.Props["alignItems"] = "center"
	setIfUnset(n, "justifyContent", "center")
	setIfUnset(n, "textAlign", "center")
	setIfUnset(n, "gap", "16px")
}

func isSocialLinks(n *component.Node, _ Context) bool {
	return idContains(n, "social-links", "social-icons", "socials")
}

func applyTightRow(n *component.Node, _ Context) {
	n.Props["display"] = "flex"
	n.Props["flexDirection"] = "row"
	n.Props["alignItems"] = "center"
	setIfUnset(n, "gap", "12px")
}

// isFormRow detects a div holding both an input and a button, the
// email-capture shape.
func isFormRow(n *component.Node, _ Context) bool {
	if n.Type != component.TypeDiv && n.Type != component.TypeForm && n.Type != component.TypeContainer {
		return false
	}
	var hasInput, hasButton bool
	for _, c := range n.Children {
		switch c.Type {
		case component.TypeInput:
			hasInput = true
		case component.TypeButton:
			hasButton = true
		}
	}
	return hasInput && hasButton
}

func applyFormRow(n *component.Node, _ Context) {
	n.Props["display"] = "flex"
	n.Props["flexDirection"] = "row"
	n.Props["alignItems"] = "center"
	setIfUnset(n, "gap", "12px")
	setIfUnset(n, "justifyContent", "center")
}

// --- card detection and repair ---

// isProjectCard detects an image-led card: an image child followed by text
// content, plus either a card-flavored ID or the overflow+radius styling cue.
func isProjectCard(n *component.Node, _ Context) bool {
	if n.Type != component.TypeDiv && n.Type != component.TypeContainer {
		return false
	}
	imageIdx := -1
	for i, c := range n.Children {
		if c.Type == component.TypeImage {
			imageIdx = i
			break
		}
	}
	if imageIdx < 0 || imageIdx >= len(n.Children)-1 {
		return false
	}
	hasTextAfter := false
	for _, c := range n.Children[imageIdx+1:] {
		switch c.Type {
		case component.TypeText, component.TypeHeading, component.TypeDiv:
			hasTextAfter = true
		}
	}
	if !hasTextAfter {
		return false
	}
	if idContains(n, "card", "project", "work-item", "portfolio-item") {
		return true
	}
	_, hasRadius := n.Props["borderRadius"]
	return propString(n, "overflow") == "hidden" && hasRadius
}

// applyCardRepair forces column flow, strips descendant absolute positioning
// so content cannot overlap the image, and fixes the image sizing.
func applyCardRepair(n *component.Node, _ Context) {
	n.Props["display"] = "flex"
	n.Props["flexDirection"] = "column"
	delete(n.Props, "gridTemplateColumns")

	n.Walk(func(d *component.Node) {
		if d == n {
			return
		}
		if propString(d, "position") == "absolute" {
			for _, key := range []string{"position", "top", "left", "right", "bottom", "zIndex"} {
				delete(d.Props, key)
			}
		}
		delete(d.Props, "transform")
	})

	first := n.Children[0]
	img := first
	if first.Type != component.TypeImage {
		for _, c := range first.Children {
			if c.Type == component.TypeImage {
				img = c
				break
			}
		}
	}
	if img.Type == component.TypeImage {
		img.Props["objectFit"] = "cover"
		setIfUnset(img, "height", "200")
		setIfUnset(img, "width", "100%")

		if cardH, ok := component.AsFloat(n.Props["height"]); ok {
			if imgH, ok := component.AsFloat(img.Props["height"]); ok && cardH < imgH {
				delete(n.Props, "height")
				logging.RulesDebug("dropped height constraint on card %s", n.ID)
			}
		}
	}
}

// isFeatureCard detects an icon+heading+text card; must run before grid
// intent so the card never gets promoted to a grid.
func isFeatureCard(n *component.Node, _ Context) bool {
	if n.Type != component.TypeDiv && n.Type != component.TypeContainer {
		return false
	}
	if len(n.Children) < 2 || len(n.Children) > 5 {
		return false
	}
	if idContains(n, "grid", "row", "list", "columns") {
		return false
	}
	var hasIcon, hasHeading, hasText bool
	for _, c := range n.Children {
		switch c.Type {
		case component.TypeIcon, component.TypeImage:
			hasIcon = true
		case component.TypeHeading:
			hasHeading = true
		case component.TypeText:
			hasText = true
		}
	}
	return hasIcon && hasHeading && (hasText || len(n.Children) == 2)
}

func applyFeatureCard(n *component.Node, _ Context) {
	n.Props["display"] = "flex"
	n.Props["flexDirection"] = "column"
	setIfUnset(n, "gap", "12px")
	// Grid props on a card make its children overlap.
	delete(n.Props, "gridTemplateColumns")
	delete(n.Props, "gridTemplateRows")
}

// --- grid intent ---

// hasGridIntent promotes a container to a grid when it declares columns, or
// looks grid-flavored and holds three or more homogeneous card-like children.
func hasGridIntent(n *component.Node, _ Context) bool {
	if n.Type != component.TypeDiv && n.Type != component.TypeContainer {
		return false
	}
	if _, ok := n.Props["gridTemplateColumns"]; ok {
		return true
	}
	if !idContains(n, "grid", "products", "features", "pricing", "cards", "gallery") {
		return false
	}
	return len(n.Children) >= 3 && homogeneousCards(n.Children)
}

func homogeneousCards(children []*component.Node) bool {
	for _, c := range children {
		if c.Type != component.TypeDiv && c.Type != component.TypeContainer {
			return false
		}
	}
	return true
}

func applyGridIntent(n *component.Node, _ Context) {
	n.Props["display"] = "grid"
	if _, ok := n.Props["gridTemplateColumns"]; !ok {
		cols := 2
		switch {
		case len(n.Children) >= 4:
			cols = 4
		case len(n.Children) == 3:
			cols = 3
		}
		n.Props["gridTemplateColumns"] = "repeat(" + strconv.Itoa(cols) + ", 1fr)"
	}
	setIfUnset(n, "gap", "24px")

	ensureResponsiveColumns(n, component.PropTabletStyles, "repeat(2, 1fr)")
	ensureResponsiveColumns(n, component.PropMobileStyles, "1fr")
}

func ensureResponsiveColumns(n *component.Node, key, columns string) {
	override, ok := component.AsMap(n.Props[key])
	if !ok {
		override = map[string]any{}
		n.Props[key] = override
	}
	if _, set := override["gridTemplateColumns"]; !set {
		override["gridTemplateColumns"] = columns
	}
}
