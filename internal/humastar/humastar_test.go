package humastar

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignals(t *testing.T) {
	s, err := ParseSignals([]byte(`{"g0": false, "l3": true, "name": "roads"}`))
	require.NoError(t, err)
	checked, ok := s.Checkbox("g0")
	assert.True(t, ok)
	assert.False(t, checked)
	checked, ok = s.Checkbox("l3")
	assert.True(t, ok)
	assert.True(t, checked)
	_, ok = s.Checkbox("name")
	assert.False(t, ok)

	s, err = ParseSignals(nil)
	require.NoError(t, err)
	_, ok = s.Checkbox("g0")
	assert.False(t, ok)

	in := SignalsInput{RawBody: []byte("{")}
	_, err = in.Signals()
	var se huma.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.GetStatus())
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	p := Page(items, 2, 2)
	assert.Equal(t, PageBody[int]{Total: 5, Offset: 2, Limit: 2, Data: []int{3, 4}}, p)

	assert.Equal(t, []int{5}, Page(items, 4, 10).Data)
	assert.Empty(t, Page(items, 9, 2).Data)
	assert.Len(t, Page(items, 0, 0).Data, 5)
}

func TestPaginationLinks(t *testing.T) {
	p := PageBody[int]{Total: 5, Offset: 2, Limit: 2}
	links := p.PaginationLinks("/api/v1/layers", url.Values{"style": {"plain.yaml"}, "offset": {"2"}})

	assert.Equal(t, []string{
		`</api/v1/layers?limit=2&offset=0&style=plain.yaml>; rel="first"`,
		`</api/v1/layers?limit=2&offset=0&style=plain.yaml>; rel="prev"`,
		`</api/v1/layers?limit=2&offset=4&style=plain.yaml>; rel="next"`,
		`</api/v1/layers?limit=2&offset=4&style=plain.yaml>; rel="last"`,
	}, links)

	assert.Nil(t, PageBody[int]{}.PaginationLinks("/x", nil))
}

func TestActionsFor(t *testing.T) {
	actions := ActionsFor("roads & paths", []ActionDef{
		{Rel: "layers", Pattern: "/api/v1/groups/%s/layers", Method: "GET", Title: "Layers"},
	})
	require.Len(t, actions, 1)
	assert.Equal(t, `</api/v1/groups/roads%20&%20paths/layers>; rel="layers"; method="GET"; title="Layers"`, actions[0].LinkHeader())

	a := Action{Rel: "toggle", Href: "/x", Title: `Hide "roads"`}
	assert.Equal(t, `</x>; rel="toggle"; title="Hide 'roads'"`, a.LinkHeader())
}

type itemOutput struct {
	Body struct {
		Name string `json:"name"`
	}
}

type listOutput struct {
	Body PageBody[string]
}

func TestAutoLinks(t *testing.T) {
	_, api := humatest.New(t)

	huma.Get(api, "/health", func(ctx context.Context, _ *EmptyInput) (*itemOutput, error) {
		return &itemOutput{}, nil
	}, func(op *huma.Operation) { op.Tags = []string{"health"} })
	huma.Get(api, "/api/v1/groups", func(ctx context.Context, _ *EmptyInput) (*listOutput, error) {
		out := &listOutput{}
		out.Body = Page([]string{"a", "b", "c"}, 0, 2)
		return out, nil
	}, func(op *huma.Operation) { op.Tags = []string{"groups"} })
	huma.Get(api, "/api/v1/groups/{name}", func(ctx context.Context, in *struct {
		Name string `path:"name"`
	}) (*itemOutput, error) {
		out := &itemOutput{}
		out.Body.Name = in.Name
		return out, nil
	}, func(op *huma.Operation) { op.Tags = []string{"groups"} })
	huma.Get(api, "/api/v1/legend/{session}", func(ctx context.Context, in *struct {
		Session string `path:"session"`
	}) (*itemOutput, error) {
		return &itemOutput{}, nil
	}, func(op *huma.Operation) { op.Tags = []string{"legend"} })

	links := AutoLinks(api, "legend")
	assert.Contains(t, links.For("/api/v1/groups/{name}"), `</api/v1/groups>; rel="collection"`)
	assert.Contains(t, links.For("/api/v1/groups"), `</api/v1/groups/{name}>; rel="item"`)
	assert.Contains(t, links.RootLinks(), `</api/v1/groups>; rel="groups"`)
	assert.Contains(t, links.RootLinks(), `</docs>; rel="service-doc"`)
	assert.Empty(t, links.For("/api/v1/legend/{session}"))

	var nilLinks *Links
	assert.Nil(t, nilLinks.For("/health"))
}
