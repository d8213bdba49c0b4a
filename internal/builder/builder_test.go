package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagecraft/internal/component"
	"pagecraft/internal/rules"
)

type memClassStore struct {
	classes map[string]component.Class
}

func newMemClassStore() *memClassStore {
	return &memClassStore{classes: map[string]component.Class{}}
}

func (m *memClassStore) GetClass(name string) (component.Class, bool) {
	c, ok := m.classes[name]
	return c, ok
}

func (m *memClassStore) SaveClass(c component.Class) error {
	m.classes[c.Name] = c
	return nil
}

func (m *memClassStore) AutoClasses() []component.Class {
	out := make([]component.Class, 0, len(m.classes))
	for _, c := range m.classes {
		out = append(out, c)
	}
	return out
}

func newTestBuilder() *Builder {
	return New(NewSession(newMemClassStore()))
}

func TestMalformedStepDoesNotCrash(t *testing.T) {
	b := newTestBuilder()

	raw := map[string]any{
		"id":       "card-1",
		"type":     "div",
		"props":    "not-an-object",
		"children": "Hello",
	}
	out := b.Process(raw, "", rules.Context{})
	require.NotNil(t, out)

	// div is not text-bearing, so the string children becomes a text child.
	assert.Equal(t, component.TypeDiv, out.Type)
	require.Len(t, out.Children, 1)
	child := out.Children[0]
	assert.Equal(t, component.TypeText, child.Type)
	assert.Equal(t, "Hello", child.Props["content"])
}

func TestStringChildrenOnTextBearingTypeBecomesContent(t *testing.T) {
	b := newTestBuilder()

	raw := map[string]any{"id": "msg", "type": "text", "children": "Read me"}
	out := b.Process(raw, "", rules.Context{})
	require.NotNil(t, out)
	assert.Equal(t, "Read me", out.Props["content"])
	assert.Empty(t, out.Children)
}

func TestGradientObjectFlattensToCSSString(t *testing.T) {
	b := newTestBuilder()

	raw := map[string]any{
		"id":   "hero-section",
		"type": "section",
		"style": map[string]any{
			"backgroundGradient": map[string]any{
				"type":  "linear",
				"angle": float64(90),
				"stops": []any{
					map[string]any{"color": "#000", "position": float64(0)},
					map[string]any{"color": "#fff", "position": float64(100)},
				},
			},
		},
	}
	out := b.Process(raw, "", rules.Context{})
	require.NotNil(t, out)
	assert.Equal(t, "linear-gradient(90deg, #000 0%, #fff 100%)", out.Props["backgroundGradient"])
}

func TestDuplicateIDsRenamedInOrder(t *testing.T) {
	b := newTestBuilder()

	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		raw := map[string]any{"id": "hero-title", "type": "heading",
			"props": map[string]any{"content": "Title"}}
		out := b.Process(raw, "hero-section", rules.Context{})
		require.NotNil(t, out)
		ids = append(ids, out.ID)
	}
	assert.Equal(t, []string{"hero-title", "hero-title-2", "hero-title-3"}, ids)
}

func TestEveryNodeTaggedAsGenerated(t *testing.T) {
	b := newTestBuilder()

	raw := map[string]any{
		"id": "about-section", "type": "section",
		"children": []any{
			map[string]any{"id": "about-title", "type": "heading",
				"props": map[string]any{"content": "About us"}},
			map[string]any{"id": "about-copy", "type": "text",
				"props": map[string]any{"content": "We build things."}},
		},
	}
	out := b.Process(raw, "", rules.Context{})
	require.NotNil(t, out)

	count := 0
	out.Walk(func(n *component.Node) {
		count++
		assert.Equal(t, true, n.Props[component.PropAIGenerated], n.ID)
	})
	assert.Equal(t, 3, count)
}

func TestTypographyReFlattenLocksProps(t *testing.T) {
	b := newTestBuilder()

	raw := map[string]any{
		"id": "quote-text", "type": "text",
		"props": map[string]any{
			"content":    "Stay hungry",
			"typography": map[string]any{"fontSize": "24px", "fontWeight": "600"},
		},
	}
	out := b.Process(raw, "", rules.Context{})
	require.NotNil(t, out)

	assert.NotContains(t, out.Props, "typography")
	locked, ok := component.AsMap(out.Props[component.PropLockedProps])
	require.True(t, ok)
	assert.Equal(t, true, locked["fontWeight"])
	assert.Equal(t, "600", out.Props["fontWeight"])
}

func TestNewlineLiteralsNormalized(t *testing.T) {
	b := newTestBuilder()

	raw := map[string]any{
		"id": "hero-tagline", "type": "text",
		"props": map[string]any{"content": `Fast.\nReliable.`},
	}
	out := b.Process(raw, "", rules.Context{})
	require.NotNil(t, out)
	assert.Equal(t, "Fast.\nReliable.", out.Props["content"])
}

func TestClassSynthesizedWithParentContext(t *testing.T) {
	store := newMemClassStore()
	b := New(NewSession(store))

	raw := map[string]any{
		"id": "hero-section", "type": "section",
		"children": []any{
			map[string]any{"id": "headline", "type": "heading",
				"props": map[string]any{"content": "Launch faster", "fontSize": "56", "color": "#ffd700"}},
		},
	}
	out := b.Process(raw, "", rules.Context{})
	require.NotNil(t, out)

	heading := out.Children[0]
	require.NotEmpty(t, heading.ClassNames)
	assert.Equal(t, "hero-title", heading.ClassNames[0])
	_, exists := store.GetClass("hero-title")
	assert.True(t, exists)
}

func TestWholeSubtreePruningReturnsNil(t *testing.T) {
	b := newTestBuilder()

	raw := map[string]any{
		"id": "img-1", "type": "image",
		"props": map[string]any{},
	}
	assert.Nil(t, b.Process(raw, "", rules.Context{}))
}

func TestUnknownTypeFallsBackToContainer(t *testing.T) {
	b := newTestBuilder()

	raw := map[string]any{"id": "widget-1", "type": "carousel"}
	out := b.Process(raw, "", rules.Context{})
	require.NotNil(t, out)
	assert.Equal(t, component.TypeContainer, out.Type)
}

func TestSessionBuildFlag(t *testing.T) {
	s := NewSession(newMemClassStore())
	assert.False(t, s.InProgress())
	require.True(t, s.Begin())
	assert.False(t, s.Begin(), "second Begin on a running session must fail")
	assert.True(t, s.InProgress())
	s.End()
	assert.False(t, s.InProgress())
}
