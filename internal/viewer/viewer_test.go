package viewer

import (
	"io"
	"testing"

	"github.com/jamesrr39/goutil/logpkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-viewer/internal/legend"
	"github.com/joeblew999/plat-viewer/internal/style"
)

func testDoc(t *testing.T) *style.Document {
	t.Helper()
	doc, err := style.Parse([]byte(`
order: [A, B]
layers:
  A:
    - {id: a1, type: line}
    - {id: a2, type: line}
  B: {id: b1, type: fill, paint: {fill-color: "#123456"}}
`))
	require.NoError(t, err)
	return doc
}

func testManager(capacity int) *Manager {
	return NewManager(logpkg.NewLogger(io.Discard, logpkg.LogLevelDebug), capacity)
}

func TestMapRenderer(t *testing.T) {
	r := NewMapRenderer(style.Build(testDoc(t), nil))

	v, ok := r.Visibility("a1")
	require.True(t, ok)
	assert.Equal(t, legend.Visible, v)

	require.NoError(t, r.SetLayerVisibility("a1", legend.Hidden))
	require.NoError(t, r.SetLayerVisibility("osm", legend.Hidden))
	assert.ErrorIs(t, r.SetLayerVisibility("nope", legend.Hidden), legend.ErrUnknownLayer)

	v, _ = r.Visibility("a1")
	assert.Equal(t, legend.Hidden, v)

	assert.Equal(t, []Update{{"a1", legend.Hidden}, {"osm", legend.Hidden}}, r.Drain())
	assert.Empty(t, r.Drain())
}

func TestScript(t *testing.T) {
	assert.Empty(t, Script(nil))
	assert.Equal(t,
		`window.viewer && window.viewer.setLayerVisibility("a\"1","none");`,
		Script([]Update{{ID: `a"1`, Visibility: legend.Hidden}}))
}

func TestSessionToggle(t *testing.T) {
	m := testManager(0)
	s, err := m.Create(testDoc(t), "https://tiles.example.com/release", nil)
	require.NoError(t, err)

	events := s.Bus.Subscribe()
	err = s.Do(func(l *legend.Legend) error {
		changes, err := l.Toggle(legend.RootGroup, false)
		s.Publish(changes)
		return err
	})
	require.NoError(t, err)

	updates := s.Renderer.Drain()
	assert.Len(t, updates, 3)
	assert.Len(t, events, 6)
	e := <-events
	assert.Equal(t, s.ID, e.Session)
	assert.Equal(t, "group", e.Action)
	assert.Equal(t, legend.RootGroup, e.Name)
}

func TestManagerLifecycle(t *testing.T) {
	m := testManager(2)

	first, err := m.Create(testDoc(t), "", nil)
	require.NoError(t, err)
	got, err := m.Get(first.ID)
	require.NoError(t, err)
	assert.Same(t, first, got)

	events := first.Bus.Subscribe()
	_, err = m.Create(testDoc(t), "", nil)
	require.NoError(t, err)
	third, err := m.Create(testDoc(t), "", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, m.Len())
	_, err = m.Get(first.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, open := <-events
	assert.False(t, open)

	m.Remove(third.ID)
	m.Remove(third.ID)
	assert.Equal(t, 1, m.Len())

	_, err = m.Create(nil, "", nil)
	assert.Error(t, err)
}
