package classes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagecraft/internal/component"
	"pagecraft/internal/identity"
)

// fakeStore is an in-memory Store with optional func-field overrides.
type fakeStore struct {
	classes map[string]component.Class
	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{classes: map[string]component.Class{}}
}

func (f *fakeStore) GetClass(name string) (component.Class, bool) {
	c, ok := f.classes[name]
	return c, ok
}

func (f *fakeStore) SaveClass(c component.Class) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.classes[c.Name] = c
	return nil
}

func (f *fakeStore) AutoClasses() []component.Class {
	out := make([]component.Class, 0, len(f.classes))
	for _, c := range f.classes {
		if c.IsAutoClass {
			out = append(out, c)
		}
	}
	return out
}

func styledNode(id string, t component.Type, styles map[string]any) *component.Node {
	n := component.NewNode(id, t)
	for k, v := range styles {
		n.Props[k] = v
	}
	return n
}

func TestApplyCreatesClassAndStripsStyles(t *testing.T) {
	store := newFakeStore()
	syn := NewSynthesizer(store, identity.NewRegistry())

	node := styledNode("hero-title", component.TypeHeading, map[string]any{
		"fontSize": "48",
		"color":    "#ffffff",
	})
	node.Props["content"] = "Welcome"

	name := syn.Apply(node, "hero-section")
	require.Equal(t, "hero-title", name)

	saved, ok := store.GetClass("hero-title")
	require.True(t, ok)
	assert.True(t, saved.IsAutoClass)
	assert.Equal(t, "48", saved.Styles["fontSize"])

	// Style props move into the class; semantic props stay on the node.
	assert.NotContains(t, node.Props, "fontSize")
	assert.NotContains(t, node.Props, "color")
	assert.Equal(t, "Welcome", node.Props["content"])
	assert.Equal(t, []string{"hero-title"}, node.ClassNames)
	assert.Equal(t, "hero-title", node.Props[component.PropActiveClass])
}

func TestApplyReusesIdenticalStylesWithinSession(t *testing.T) {
	store := newFakeStore()
	syn := NewSynthesizer(store, identity.NewRegistry())

	styles := map[string]any{"color": "#333333", "fontSize": "16"}
	first := styledNode("p-1", component.TypeText, styles)
	second := styledNode("p-2", component.TypeText, styles)

	nameA := syn.Apply(first, "content-section")
	nameB := syn.Apply(second, "content-section")

	assert.Equal(t, nameA, nameB)
	assert.Equal(t, 1, syn.Created())
	assert.Equal(t, 1, syn.Reused())
	assert.Len(t, store.classes, 1)
}

func TestDedupIsScopedByCategory(t *testing.T) {
	store := newFakeStore()
	syn := NewSynthesizer(store, identity.NewRegistry())

	// Identical styles on a heading and a button must yield two classes.
	styles := map[string]any{"color": "#111111", "fontWeight": "700"}
	heading := styledNode("h-1", component.TypeHeading, styles)
	button := styledNode("b-1", component.TypeButton, styles)

	nameH := syn.Apply(heading, "hero")
	nameB := syn.Apply(button, "hero")

	assert.NotEqual(t, nameH, nameB)
	assert.Equal(t, 2, syn.Created())
	assert.Len(t, store.classes, 2)
}

func TestNameCollisionWithDifferentStylesProbesVariant(t *testing.T) {
	store := newFakeStore()
	store.classes["cta-button"] = component.Class{
		Name:        "cta-button",
		Styles:      map[string]any{"backgroundColor": "#ff0000"},
		IsAutoClass: true,
	}
	syn := NewSynthesizer(store, identity.NewRegistry())

	node := styledNode("btn-1", component.TypeButton, map[string]any{
		"backgroundColor": "#0000ff",
	})
	name := syn.Apply(node, "cta-section")

	assert.Equal(t, "cta-button-2", name)
	_, ok := store.GetClass("cta-button-2")
	assert.True(t, ok)
}

func TestNameCollisionWithSameStylesReuses(t *testing.T) {
	store := newFakeStore()
	store.classes["cta-button"] = component.Class{
		Name:        "cta-button",
		Styles:      map[string]any{"backgroundColor": "#ff0000"},
		IsAutoClass: true,
	}
	syn := NewSynthesizer(store, identity.NewRegistry())

	node := styledNode("btn-1", component.TypeButton, map[string]any{
		"backgroundColor": "#ff0000",
	})
	name := syn.Apply(node, "cta-section")

	assert.Equal(t, "cta-button", name)
	assert.Equal(t, 0, syn.Created())
	assert.Len(t, store.classes, 1)
}

func TestCrossNameDedupAgainstStoredClasses(t *testing.T) {
	store := newFakeStore()
	store.classes["body-text"] = component.Class{
		Name:        "body-text",
		Styles:      map[string]any{"color": "#444444", "lineHeight": "1.6"},
		IsAutoClass: true,
	}
	syn := NewSynthesizer(store, identity.NewRegistry())

	// Same styles, different derived name: the stored class wins.
	node := styledNode("t-1", component.TypeText, map[string]any{
		"color": "#444444", "lineHeight": "1.6",
	})
	name := syn.Apply(node, "about")

	assert.Equal(t, "body-text", name)
	assert.Equal(t, 0, syn.Created())
}

func TestApplySkipsNodesWithoutStyleProps(t *testing.T) {
	store := newFakeStore()
	syn := NewSynthesizer(store, identity.NewRegistry())

	node := component.NewNode("t-1", component.TypeText)
	node.Props["content"] = "plain"

	assert.Empty(t, syn.Apply(node, "hero"))
	assert.Empty(t, store.classes)
	assert.Empty(t, node.ClassNames)
}

func TestExplicitNameSurvivesAndFallbackIsReplaced(t *testing.T) {
	store := newFakeStore()
	syn := NewSynthesizer(store, identity.NewRegistry())

	explicit := styledNode("b-1", component.TypeButton, map[string]any{"padding": "12"})
	explicit.ClassNames = []string{"btn-primary"}
	assert.Equal(t, "btn-primary", syn.Apply(explicit, "hero"))

	fallback := styledNode("b-2", component.TypeButton, map[string]any{"margin": "8"})
	fallback.ClassNames = []string{"sanitized-88142"}
	assert.Equal(t, "hero-cta", syn.Apply(fallback, "hero-section"))
}

func TestDeriveName(t *testing.T) {
	cases := []struct {
		componentType string
		parent        string
		want          string
	}{
		{"heading", "hero-section", "hero-title"},
		{"button", "cta-banner", "cta-button"},
		{"text", "feature-card-2", "card-text"},
		{"link", "footer-links", "footer-link"},
		{"image", "team-grid", "image"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DeriveName(tc.componentType, tc.parent), "%s under %s", tc.componentType, tc.parent)
	}
}

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in     string
		parent string
		want   string
	}{
		{"hero-title", "hero", "hero-title"},
		{"main-button", "hero", "btn-primary"},
		{"card-grid", "content", "flex-row"},
		{"hero-cta-1699999999999", "hero", "hero-cta"},
		{"pricing-title-a1b2c3d4e5f6", "pricing", "pricing-title"},
		{"product-heading", "card-row", "card-title"},
		{"product-heading", "hero", "product-heading"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeName(tc.in, tc.parent), "normalize %q", tc.in)
	}
}

func TestHashStylesIsOrderIndependent(t *testing.T) {
	a := map[string]any{
		"padding": map[string]any{"top": "16", "bottom": "16", "left": "24", "right": "24", "unit": "px"},
		"color":   "#fff",
	}
	b := map[string]any{
		"color":   "#fff",
		"padding": map[string]any{"unit": "px", "right": "24", "left": "24", "bottom": "16", "top": "16"},
	}
	assert.Equal(t, HashStyles(a), HashStyles(b))

	c := map[string]any{"color": "#fff"}
	assert.NotEqual(t, HashStyles(a), HashStyles(c))
}

func TestExtractStylesAllowList(t *testing.T) {
	props := map[string]any{
		"color":    "#000",
		"fontSize": "14",
		"content":  "hello",
		"src":      "/img.png",
		"_aiGenerated": true,
		"opacity":  nil,
	}
	styles := ExtractStyles(props)
	assert.Equal(t, map[string]any{"color": "#000", "fontSize": "14"}, styles)
}
