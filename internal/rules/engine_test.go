package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagecraft/internal/component"
)

func node(id string, t component.Type, props map[string]any, children ...*component.Node) *component.Node {
	n := component.NewNode(id, t)
	for k, v := range props {
		n.Props[k] = v
	}
	n.Children = children
	return n
}

func TestSectionsAreAlwaysFullWidth(t *testing.T) {
	inputs := []*component.Node{
		node("about-section", component.TypeSection, map[string]any{"width": "800px", "maxWidth": "1200px"}),
		node("features-section", component.TypeSection, map[string]any{}),
		node("hero-section", component.TypeSection, map[string]any{"width": "50%"}),
	}
	for _, in := range inputs {
		out := Validate(in, Context{})
		require.NotNil(t, out)
		assert.Equal(t, "100%", out.Props["width"], out.ID)
		assert.NotContains(t, out.Props, "maxWidth", out.ID)
	}
}

func TestSectionMinimumVerticalPadding(t *testing.T) {
	n := node("about-section", component.TypeSection, map[string]any{
		"padding": map[string]any{"top": "8", "bottom": "8", "left": "32", "right": "32", "unit": "px"},
	})
	Validate(n, Context{})

	pad, ok := component.AsMap(n.Props["padding"])
	require.True(t, ok)
	assert.Equal(t, "40", pad["top"])
	assert.Equal(t, "40", pad["bottom"])
	assert.Equal(t, "32", pad["left"])
}

func TestHeroMinHeightCapped(t *testing.T) {
	n := node("hero-section", component.TypeSection, map[string]any{"minHeight": "100vh"})
	Validate(n, Context{})
	assert.Equal(t, "70vh", n.Props["minHeight"])

	kept := node("hero-section", component.TypeSection, map[string]any{"minHeight": "60vh"})
	Validate(kept, Context{})
	assert.Equal(t, "60vh", kept.Props["minHeight"])
}

func TestAbsolutePositioningStrippedFromSections(t *testing.T) {
	n := node("contact-section", component.TypeSection, map[string]any{
		"position": "absolute", "top": "0", "left": "0", "zIndex": 5,
	})
	Validate(n, Context{})
	assert.NotContains(t, n.Props, "position")
	assert.NotContains(t, n.Props, "top")
	assert.NotContains(t, n.Props, "zIndex")
}

func TestDecorativeNodesKeepPositioning(t *testing.T) {
	orb := node("hero-orb-1", component.TypeDiv, map[string]any{
		"position": "absolute", "top": "-40", "filter": "blur(80px)",
		"backgroundColor": "#cccccc",
	})
	out := Validate(orb, Context{})
	require.NotNil(t, out, "decorative div must not be pruned")
	assert.Equal(t, "absolute", out.Props["position"])
}

func TestHeroSplitLayoutNeedsBothWidths(t *testing.T) {
	split := node("hero-section", component.TypeSection, nil,
		node("hero-copy", component.TypeDiv, map[string]any{"width": "45%", "backgroundColor": "#123"}),
		node("hero-visual", component.TypeImage, map[string]any{"width": "50%", "src": "/hero.png"}),
	)
	Validate(split, Context{})
	assert.Equal(t, "row", split.Props["flexDirection"])

	// One child without an explicit width: centered column fallback.
	fallback := node("hero-section", component.TypeSection, nil,
		node("hero-copy", component.TypeDiv, map[string]any{"backgroundColor": "#123"}),
		node("hero-visual", component.TypeImage, map[string]any{"width": "50%", "src": "/hero.png"}),
	)
	Validate(fallback, Context{})
	assert.Equal(t, "column", fallback.Props["flexDirection"])
	assert.Equal(t, "center", fallback.Props["alignItems"])
}

func TestContrastLightTextOnDarkBackground(t *testing.T) {
	sec := node("hero-section", component.TypeSection, map[string]any{"backgroundColor": "#111111"},
		node("hero-title", component.TypeHeading, map[string]any{"content": "Build faster"}),
		node("hero-subtitle", component.TypeText, map[string]any{"content": "Ship today", "color": "#777777"}),
		node("hero-body", component.TypeText, map[string]any{"content": "Body", "color": "#222222"}),
	)
	Validate(sec, Context{})

	assert.Equal(t, "rgba(255,255,255,0.95)", sec.Children[0].Props["color"])
	assert.Equal(t, "rgba(255,255,255,0.85)", sec.Children[1].Props["color"], "muted subtitle gets the muted literal")
	assert.Equal(t, "rgba(255,255,255,0.95)", sec.Children[2].Props["color"], "dark-on-dark corrected")
}

func TestContrastDarkTextOnLightBackground(t *testing.T) {
	sec := node("about-section", component.TypeSection, map[string]any{"backgroundColor": "#ffffff"},
		node("about-title", component.TypeHeading, map[string]any{"content": "About", "color": "#f5f5f5"}),
	)
	Validate(sec, Context{})
	assert.Equal(t, "#1a1a1a", sec.Children[0].Props["color"])
}

func TestContrastLeavesGoodColorsAlone(t *testing.T) {
	sec := node("hero-section", component.TypeSection, map[string]any{"backgroundColor": "#111111"},
		node("hero-title", component.TypeHeading, map[string]any{"content": "Hi", "color": "#ffd700"}),
	)
	Validate(sec, Context{})
	assert.Equal(t, "#ffd700", sec.Children[0].Props["color"])
}

func TestPlaceholderContentIsPurged(t *testing.T) {
	sec := node("content-section", component.TypeSection, nil,
		node("h-1", component.TypeHeading, map[string]any{"content": "Sample Heading"}),
		node("t-1", component.TypeText, map[string]any{"content": "Lorem ipsum dolor sit amet"}),
		node("t-2", component.TypeText, map[string]any{"content": "Real copy"}),
		node("l-1", component.TypeLink, map[string]any{"content": "LINK TEXT"}),
	)
	Validate(sec, Context{})

	require.Len(t, sec.Children, 1)
	assert.Equal(t, "t-2", sec.Children[0].ID)
}

func TestSrclessImagesArePurged(t *testing.T) {
	sec := node("gallery-section", component.TypeSection, nil,
		node("img-1", component.TypeImage, map[string]any{}),
		node("img-2", component.TypeImage, map[string]any{"src": "/a.png"}),
		node("img-3", component.TypeImage, map[string]any{"aiImagePrompt": "sunset over water"}),
	)
	Validate(sec, Context{})

	require.Len(t, sec.Children, 2)
	assert.Equal(t, "img-2", sec.Children[0].ID)
	assert.Equal(t, "img-3", sec.Children[1].ID)
}

func TestGrayPlaceholderDivsArePurged(t *testing.T) {
	sec := node("content-section", component.TypeSection, nil,
		node("box-1", component.TypeDiv, map[string]any{"backgroundColor": "#d4d4d4"}),
		node("box-2", component.TypeDiv, map[string]any{"backgroundColor": "#3366ff"}),
	)
	Validate(sec, Context{})

	require.Len(t, sec.Children, 1)
	assert.Equal(t, "box-2", sec.Children[0].ID)
}

func TestNavWithManyChildrenRestructured(t *testing.T) {
	nav := node("main-nav", component.TypeNavHorizontal, nil,
		node("nav-logo", component.TypeText, map[string]any{"content": "Acme"}),
		node("nav-link-home", component.TypeLink, map[string]any{"content": "Home"}),
		node("nav-link-pricing", component.TypeLink, map[string]any{"content": "Pricing"}),
		node("nav-link-docs", component.TypeLink, map[string]any{"content": "Docs"}),
		node("nav-cta", component.TypeButton, map[string]any{"content": "Sign up"}),
	)
	Validate(nav, Context{})

	require.Len(t, nav.Children, 2)
	assert.Equal(t, "nav-logo", nav.Children[0].ID)
	group := nav.Children[1]
	assert.Equal(t, "main-nav-links", group.ID)
	assert.Len(t, group.Children, 4)
	assert.Equal(t, "space-between", nav.Props["justifyContent"])
}

func TestNavWithThreeChildrenLeftAlone(t *testing.T) {
	nav := node("main-nav", component.TypeNavHorizontal, nil,
		node("nav-logo", component.TypeText, map[string]any{"content": "Acme"}),
		node("nav-links", component.TypeDiv, nil),
		node("nav-cta", component.TypeButton, map[string]any{"content": "Sign up"}),
	)
	Validate(nav, Context{})
	assert.Len(t, nav.Children, 3)
}

func TestFeatureCardTakesPrecedenceOverGrid(t *testing.T) {
	// Icon + heading + text with a grid prop left over from generation: the
	// card rule must win and strip the grid.
	card := node("feature-card-1", component.TypeDiv, map[string]any{"gridTemplateColumns": "1fr 1fr"},
		node("feature-icon-1", component.TypeIcon, map[string]any{"icon": "zap"}),
		node("feature-title-1", component.TypeHeading, map[string]any{"content": "Fast"}),
		node("feature-text-1", component.TypeText, map[string]any{"content": "Really fast"}),
	)
	Validate(card, Context{})

	assert.Equal(t, "flex", card.Props["display"])
	assert.Equal(t, "column", card.Props["flexDirection"])
	assert.NotContains(t, card.Props, "gridTemplateColumns")
}

func TestGridColumnCountInferredFromChildren(t *testing.T) {
	cases := []struct {
		children int
		want     string
	}{
		{5, "repeat(4, 1fr)"},
		{4, "repeat(4, 1fr)"},
		{3, "repeat(3, 1fr)"},
	}
	for _, tc := range cases {
		children := make([]*component.Node, tc.children)
		for i := range children {
			children[i] = node("card", component.TypeDiv, map[string]any{"padding": "16"})
		}
		grid := node("features-grid", component.TypeDiv, nil, children...)
		Validate(grid, Context{})
		assert.Equal(t, "grid", grid.Props["display"])
		assert.Equal(t, tc.want, grid.Props["gridTemplateColumns"])

		tablet, _ := component.AsMap(grid.Props[component.PropTabletStyles])
		mobile, _ := component.AsMap(grid.Props[component.PropMobileStyles])
		assert.Equal(t, "repeat(2, 1fr)", tablet["gridTemplateColumns"])
		assert.Equal(t, "1fr", mobile["gridTemplateColumns"])
	}
}

func TestButtonContentFallbacks(t *testing.T) {
	cta := node("hero-cta-start", component.TypeButton, map[string]any{})
	Validate(cta, Context{})
	assert.Equal(t, "Get Started", cta.Props["content"])

	plain := node("detail-btn", component.TypeButton, map[string]any{})
	Validate(plain, Context{})
	assert.Equal(t, "Click Here", plain.Props["content"])

	icon := node("menu-icon-btn", component.TypeButton, map[string]any{"icon": "menu"})
	Validate(icon, Context{})
	assert.Equal(t, "", icon.Props["content"], "icon buttons never get placeholder text")
}

func TestFormRowDetectionCentersInputAndButton(t *testing.T) {
	row := node("newsletter-box", component.TypeDiv, nil,
		node("email-input", component.TypeInput, map[string]any{"placeholder": "you@example.com"}),
		node("subscribe-btn", component.TypeButton, map[string]any{"content": "Subscribe"}),
	)
	Validate(row, Context{})

	assert.Equal(t, "flex", row.Props["display"])
	assert.Equal(t, "row", row.Props["flexDirection"])
	assert.Equal(t, "center", row.Props["alignItems"])
}

func TestOrderSectionsPutsFooterLastAndNavFirst(t *testing.T) {
	siblings := []*component.Node{
		node("footer-section", component.TypeSection, nil),
		node("pricing-section", component.TypeSection, nil),
		node("hero-section", component.TypeSection, nil),
		node("main-nav", component.TypeNavHorizontal, nil),
		node("cta-section", component.TypeSection, nil),
	}
	ordered := OrderSections(siblings)

	ids := make([]string, len(ordered))
	for i, n := range ordered {
		ids[i] = n.ID
	}
	assert.Equal(t, []string{"main-nav", "hero-section", "pricing-section", "cta-section", "footer-section"}, ids)
}

func TestOrderSectionsKeepsNonSectionsFirstInOriginalOrder(t *testing.T) {
	a := node("loose-text", component.TypeText, map[string]any{"content": "a"})
	b := node("loose-img", component.TypeImage, map[string]any{"src": "/x.png"})
	siblings := []*component.Node{
		node("footer-section", component.TypeSection, nil), a,
		node("hero-section", component.TypeSection, nil), b,
	}
	ordered := OrderSections(siblings)

	require.Len(t, ordered, 4)
	assert.Same(t, a, ordered[0])
	assert.Same(t, b, ordered[1])
	assert.Equal(t, "hero-section", ordered[2].ID)
	assert.Equal(t, "footer-section", ordered[3].ID)
}

func TestCardRepairDropsHeightSmallerThanImage(t *testing.T) {
	card := node("project-card-1", component.TypeDiv, map[string]any{"height": float64(150)},
		node("card-img", component.TypeImage, map[string]any{"src": "/p.png", "height": float64(220)}),
		node("card-title", component.TypeHeading, map[string]any{"content": "Project"}),
	)
	Validate(card, Context{})

	assert.NotContains(t, card.Props, "height")
	assert.Equal(t, "cover", card.Children[0].Props["objectFit"])
	assert.Equal(t, "column", card.Props["flexDirection"])
}
