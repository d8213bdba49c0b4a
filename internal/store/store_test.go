package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagecraft/internal/component"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sectionNode(id string, classNames ...string) *component.Node {
	n := component.NewNode(id, component.TypeSection)
	n.ClassNames = classNames
	return n
}

func TestAppendAndReadComponents(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.AppendComponent("p1", "home", sectionNode("hero-section")))
	require.NoError(t, s.AppendComponent("p1", "home", sectionNode("footer-section")))

	nodes, err := s.Components("p1", "home")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "hero-section", nodes[0].ID)
	assert.Equal(t, "footer-section", nodes[1].ID)

	// Other pages are unaffected.
	other, err := s.Components("p1", "about")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestReplaceComponentAtIsolation(t *testing.T) {
	s := openTestStore(t)
	for _, id := range []string{"nav", "hero-section", "pricing-section", "footer-section"} {
		require.NoError(t, s.AppendComponent("p1", "home", sectionNode(id)))
	}

	before, err := s.Components("p1", "home")
	require.NoError(t, err)

	replacement := sectionNode("hero-section")
	replacement.Props["backgroundColor"] = "#0a0a0a"
	require.NoError(t, s.ReplaceComponentAt("p1", "home", 1, replacement))

	after, err := s.Components("p1", "home")
	require.NoError(t, err)
	require.Len(t, after, 4)
	assert.Equal(t, "#0a0a0a", after[1].Props["backgroundColor"])

	for _, i := range []int{0, 2, 3} {
		beforeJSON, err := before[i].MarshalStable()
		require.NoError(t, err)
		afterJSON, err := after[i].MarshalStable()
		require.NoError(t, err)
		assert.Equal(t, beforeJSON, afterJSON, "sibling %d must be untouched", i)
	}
}

func TestReplaceComponentAtBadIndex(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.AppendComponent("p1", "home", sectionNode("hero-section")))

	err := s.ReplaceComponentAt("p1", "home", 3, sectionNode("x"))
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestClearReleasesClassRefsBeforeEmptying(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveClass("p1", component.Class{
		Name: "hero-title", Styles: map[string]any{"fontSize": "48"}, IsAutoClass: true,
	}))

	sec := sectionNode("hero-section")
	title := component.NewNode("hero-title", component.TypeHeading)
	title.ClassNames = []string{"hero-title"}
	sec.Children = append(sec.Children, title)
	require.NoError(t, s.AppendComponent("p1", "home", sec))

	// Referenced: reconcile must keep it.
	pruned, err := s.ReconcileOrphans("p1")
	require.NoError(t, err)
	assert.Zero(t, pruned)

	require.NoError(t, s.ClearComponents("p1", "home"))
	nodes, err := s.Components("p1", "home")
	require.NoError(t, err)
	assert.Empty(t, nodes)

	// Unreferenced after the clear: reconcile prunes it.
	pruned, err = s.ReconcileOrphans("p1")
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)
	_, ok, err := s.GetClass("p1", "hero-title")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReconcileNeverPrunesUserClasses(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveClass("p1", component.Class{
		Name: "brand-button", Styles: map[string]any{"backgroundColor": "#f00"},
	}))

	pruned, err := s.ReconcileOrphans("p1")
	require.NoError(t, err)
	assert.Zero(t, pruned)

	_, ok, err := s.GetClass("p1", "brand-button")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSaveClassNeverOverwrites(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveClass("p1", component.Class{
		Name: "cta-button", Styles: map[string]any{"backgroundColor": "#f00"}, IsAutoClass: true,
	}))
	require.NoError(t, s.SaveClass("p1", component.Class{
		Name: "cta-button", Styles: map[string]any{"backgroundColor": "#00f"}, IsAutoClass: true,
	}))

	c, ok, err := s.GetClass("p1", "cta-button")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "#f00", c.Styles["backgroundColor"])
}

func TestDesignSeedRoundTrip(t *testing.T) {
	s := openTestStore(t)

	seed, err := s.DesignSeed("p1", "home")
	require.NoError(t, err)
	assert.Nil(t, seed)

	in := &component.DesignSeed{
		PrimaryColor:    "#3366ff",
		BackgroundColor: "#0a0a0a",
		TextColor:       "#f5f5f5",
		FontFamily:      "Inter",
		Mood:            "bold",
	}
	require.NoError(t, s.SaveDesignSeed("p1", "home", in))

	out, err := s.DesignSeed("p1", "home")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in, out)
}

func TestVariableCreateIfMissing(t *testing.T) {
	s := openTestStore(t)

	created, err := s.CreateVariableIfMissing("p1", component.Variable{
		Scope: component.ScopePage, Name: "title", DataType: "string", InitialValue: "",
	})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.CreateVariableIfMissing("p1", component.Variable{
		Scope: component.ScopePage, Name: "title", DataType: "string", InitialValue: "changed",
	})
	require.NoError(t, err)
	assert.False(t, created, "second create must be a no-op")

	require.NoError(t, s.SetRuntimeValue("p1", component.ScopePage, "title", "Hello"))

	vars, err := s.VariablesByScope("p1", component.ScopePage)
	require.NoError(t, err)
	require.Len(t, vars, 1)
	assert.Equal(t, "title", vars[0].Name)
	assert.Equal(t, "Hello", vars[0].RuntimeValue)

	ok, err := s.HasVariable("p1", component.ScopePage, "title")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProjectClassesAdapter(t *testing.T) {
	s := openTestStore(t)
	pc := s.ClassesFor("p1")

	require.NoError(t, pc.SaveClass(component.Class{
		Name: "body-text", Styles: map[string]any{"color": "#444"}, IsAutoClass: true,
	}))
	require.NoError(t, s.SaveClass("p1", component.Class{
		Name: "user-made", Styles: map[string]any{"color": "#000"},
	}))

	c, ok := pc.GetClass("body-text")
	require.True(t, ok)
	assert.Equal(t, "#444", c.Styles["color"])

	autos := pc.AutoClasses()
	require.Len(t, autos, 1)
	assert.Equal(t, "body-text", autos[0].Name)
}
