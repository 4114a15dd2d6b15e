package legend

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-viewer/internal/style"
)

type call struct {
	id string
	v  Visibility
}

type fakeRenderer struct {
	reject map[string]bool
	calls  []call
}

func (f *fakeRenderer) SetLayerVisibility(id string, v Visibility) error {
	if f.reject[id] {
		return fmt.Errorf("%w: %q", ErrUnknownLayer, id)
	}
	f.calls = append(f.calls, call{id, v})
	return nil
}

func (f *fakeRenderer) ids() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.id
	}
	return out
}

func newLegend(t *testing.T) (*Legend, *fakeRenderer) {
	t.Helper()
	r := &fakeRenderer{}
	return New(BuildGroups(exampleDecl(), []string{"A", "B"}), r), r
}

func TestPropagate(t *testing.T) {
	r := &fakeRenderer{}
	tree := BuildGroups(exampleDecl(), []string{"A", "B"})

	groups, err := Propagate(tree, RootGroup, false, r)
	require.NoError(t, err)
	assert.Equal(t, []string{RootGroup, "A", "B"}, groups)
	assert.Equal(t, []call{{"a1", Hidden}, {"a2", Hidden}, {"b1", Hidden}}, r.calls)

	_, err = Propagate(tree, "nope", true, r)
	assert.ErrorIs(t, err, ErrUnknownGroup)
}

func TestPropagateSetsSharedIDsOnce(t *testing.T) {
	decl := exampleDecl().Set("C", style.LayerList{{ID: "a1"}, {ID: "c1"}})
	r := &fakeRenderer{}

	_, err := Propagate(BuildGroups(decl, []string{"A", "B", "C"}), RootGroup, true, r)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2", "b1", "c1"}, r.ids())
}

func TestSetLayersVisibilityStopsAtFirstError(t *testing.T) {
	r := &fakeRenderer{reject: map[string]bool{"a2": true}}
	err := SetLayersVisibility(r, []style.Layer{{ID: "a1"}, {ID: "a2"}, {ID: "b1"}}, Hidden)

	assert.ErrorIs(t, err, ErrUnknownLayer)
	assert.Equal(t, []string{"a1"}, r.ids())
}

func TestToggleCascades(t *testing.T) {
	l, r := newLegend(t)

	changes, err := l.Toggle(RootGroup, false)
	require.NoError(t, err)
	assert.Len(t, changes, 6)
	assert.Equal(t, []string{"a1", "a2", "b1"}, r.ids())

	for _, name := range []string{RootGroup, "A", "B"} {
		assert.False(t, l.GroupChecked(name), name)
	}
	for _, id := range []string{"a1", "a2", "b1"} {
		assert.False(t, l.LayerChecked(id), id)
	}
	assert.True(t, l.GroupChecked(OSMGroup))
	assert.True(t, l.LayerChecked("osm"))

	// Re-checking reports every checkbox again.
	changes, err = l.Toggle(RootGroup, true)
	require.NoError(t, err)
	assert.Len(t, changes, 6)
	for _, c := range changes {
		assert.True(t, c.Checked)
		assert.NotEmpty(t, c.Key)
	}
}

func TestToggleLeafGroup(t *testing.T) {
	l, r := newLegend(t)

	changes, err := l.Toggle("A", false)
	require.NoError(t, err)
	assert.Equal(t, []Change{
		{Kind: KindGroup, Name: "A", Key: l.GroupKey("A"), Checked: false},
		{Kind: KindLayer, Name: "a1", Key: l.LayerKey("a1"), Checked: false},
		{Kind: KindLayer, Name: "a2", Key: l.LayerKey("a2"), Checked: false},
	}, changes)
	assert.Equal(t, []string{"a1", "a2"}, r.ids())
	assert.True(t, l.LayerChecked("b1"))
	assert.True(t, l.GroupChecked(RootGroup))
}

func TestToggleKeepsPartialChangesOnError(t *testing.T) {
	l, r := newLegend(t)
	r.reject = map[string]bool{"a2": true}

	changes, err := l.Toggle(RootGroup, false)
	assert.ErrorIs(t, err, ErrUnknownLayer)
	assert.NotEmpty(t, changes)
	assert.Equal(t, []string{"a1"}, r.ids())
}

func TestToggleLayerLeavesSiblings(t *testing.T) {
	l, r := newLegend(t)

	changes, err := l.ToggleLayer("a1", false)
	require.NoError(t, err)
	assert.Equal(t, []Change{{Kind: KindLayer, Name: "a1", Key: l.LayerKey("a1"), Checked: false}}, changes)
	assert.Equal(t, []call{{"a1", Hidden}}, r.calls)
	assert.True(t, l.LayerChecked("a2"))
	assert.True(t, l.GroupChecked("A"))

	_, err = l.ToggleLayer("zzz", false)
	assert.ErrorIs(t, err, ErrUnknownLayer)
}

func TestSignalKeysAreUnique(t *testing.T) {
	l, _ := newLegend(t)
	signals := l.Signals()

	// Five groups and five layers (a1, a2, b1, osm, satellite).
	assert.Len(t, signals, 10)
	assert.Equal(t, "g0", l.GroupKey(RootGroup))
	for _, v := range signals {
		assert.Equal(t, true, v)
	}
}
