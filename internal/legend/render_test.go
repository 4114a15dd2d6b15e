package legend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-viewer/internal/style"
)

func TestRender(t *testing.T) {
	l, _ := newLegend(t)

	root, err := l.Render(RootGroup, false)
	require.NoError(t, err)
	assert.True(t, root.Expanded)
	assert.Empty(t, root.Rows)
	require.Len(t, root.Sections, 2)

	a := root.Sections[0]
	assert.Equal(t, "A", a.Name)
	assert.False(t, a.Expanded)
	require.Len(t, a.Rows, 2)
	assert.Equal(t, Row{ID: "a1", Key: l.LayerKey("a1"), Color: PlaceholderColor, Checked: true}, a.Rows[0])

	_, err = l.Render("nope", false)
	assert.ErrorIs(t, err, ErrUnknownGroup)
}

func TestRenderReflectsState(t *testing.T) {
	l, _ := newLegend(t)
	_, err := l.ToggleLayer("b1", false)
	require.NoError(t, err)

	b, err := l.Render("B", true)
	require.NoError(t, err)
	assert.False(t, b.Expanded)
	assert.False(t, b.Rows[0].Checked)
	assert.True(t, b.Checked)
}

func TestSections(t *testing.T) {
	l, _ := newLegend(t)

	sections, err := l.Sections()
	require.NoError(t, err)
	require.Len(t, sections, 3)
	assert.Equal(t, RootGroup, sections[0].Name)
	assert.Equal(t, OSMGroup, sections[1].Name)
	assert.Equal(t, SatelliteGroup, sections[2].Name)
	for _, s := range sections {
		assert.True(t, s.Expanded)
	}
}

func TestSwatch(t *testing.T) {
	tests := []struct {
		name  string
		paint style.Properties
		want  string
	}{
		{"no paint", nil, PlaceholderColor},
		{"fill color", style.Properties{}.With("fill-opacity", 0.4).With("fill-color", "#3063d2"), "#3063d2"},
		{"case insensitive", style.Properties{}.With("Line-Color", "red"), "red"},
		{"expression", style.Properties{}.With("fill-color", []any{"get", "color"}), PlaceholderColor},
		{"first color wins", style.Properties{}.With("text-halo-color", "#fff").With("text-color", "#000"), "#fff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Swatch(style.Layer{ID: "x", Paint: tt.paint}))
		})
	}
}
