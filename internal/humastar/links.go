// links.go: RFC 8288 Link headers derived from the registered operations.
//
// Paths without parameters are collections, paths with a {param} are items.
// /health is the entry point and links to every collection.
package humastar

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

const entryPoint = "/health"

// Links holds the generated Link header values per operation path.
type Links struct {
	byPath map[string][]string
}

type route struct {
	path string
	tags []string
}

func (r route) item() bool { return strings.Contains(r.path, "{") }

// AutoLinks generates links for every operation of api except those tagged
// skipTag. Call it once all routes are registered.
func AutoLinks(api huma.API, skipTag string) *Links {
	oapi := api.OpenAPI()
	l := &Links{byPath: map[string][]string{}}

	var collections, items []route
	for p, pi := range oapi.Paths {
		r := route{path: p, tags: tagsOf(pi)}
		switch {
		case slices.Contains(r.tags, skipTag):
		case r.item():
			items = append(items, r)
		default:
			collections = append(collections, r)
		}
	}
	byPath := func(a, b route) int { return strings.Compare(a.path, b.path) }
	slices.SortFunc(collections, byPath)
	slices.SortFunc(items, byPath)

	for _, it := range items {
		parent := path.Dir(it.path)
		if _, ok := oapi.Paths[parent]; !ok {
			continue
		}
		l.add(it.path, parent, "collection")
		l.add(it.path, parent, "up")
		l.add(parent, it.path, "item")
	}

	for _, c := range collections {
		if c.path == entryPoint {
			continue
		}
		l.add(c.path, entryPoint, "up")
		l.add(entryPoint, c.path, lastSegment(c.path))
		for _, other := range collections {
			if other.path != c.path && sharesTag(c.tags, other.tags) {
				l.add(c.path, other.path, lastSegment(other.path))
			}
		}
	}
	l.add(entryPoint, "/openapi.json", "describedby")
	l.add(entryPoint, "/openapi.json", "service-desc")
	l.add(entryPoint, "/docs", "service-doc")

	for _, r := range append(collections, items...) {
		if name := schemaName(oapi.Paths[r.path]); name != "" {
			l.add(r.path, "/openapi.json#/components/schemas/"+name, "describedby")
		}
	}

	for p, headers := range l.byPath {
		if pi, ok := oapi.Paths[p]; ok {
			documentLinks(pi, headers)
		}
	}
	return l
}

// For returns the Link headers of an operation path.
func (l *Links) For(opPath string) []string {
	if l == nil {
		return nil
	}
	return l.byPath[opPath]
}

// RootLinks returns the entry point's Link headers for handlers outside Huma.
func (l *Links) RootLinks() []string {
	return l.For(entryPoint)
}

// Transformer returns a Huma transformer writing the generated links plus
// self, pagination and action links of the response body.
func (l *Links) Transformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}
		for _, link := range l.For(op.Path) {
			ctx.AppendHeader("Link", link)
		}

		u := ctx.URL()
		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, u.Path))
		}
		if p, ok := v.(Pager); ok {
			for _, link := range p.PaginationLinks(u.Path, u.Query()) {
				ctx.AppendHeader("Link", link)
			}
		}
		if a, ok := v.(Actor); ok {
			for _, action := range a.Actions() {
				ctx.AppendHeader("Link", action.LinkHeader())
			}
		}
		return v, nil
	}
}

func (l *Links) add(from, to, rel string) {
	val := fmt.Sprintf(`<%s>; rel="%s"`, to, rel)
	if !slices.Contains(l.byPath[from], val) {
		l.byPath[from] = append(l.byPath[from], val)
	}
}

func operationsOf(pi *huma.PathItem) []*huma.Operation {
	var ops []*huma.Operation
	for _, op := range []*huma.Operation{pi.Get, pi.Post, pi.Put, pi.Patch, pi.Delete} {
		if op != nil {
			ops = append(ops, op)
		}
	}
	return ops
}

func tagsOf(pi *huma.PathItem) []string {
	for _, op := range operationsOf(pi) {
		if len(op.Tags) > 0 {
			return op.Tags
		}
	}
	return nil
}

func sharesTag(a, b []string) bool {
	return slices.ContainsFunc(a, func(t string) bool { return slices.Contains(b, t) })
}

func lastSegment(p string) string {
	return path.Base(strings.TrimRight(p, "/"))
}

// documentLinks records the headers as OpenAPI links on every 2xx response
// of the path's operations.
func documentLinks(pi *huma.PathItem, headers []string) {
	for _, op := range operationsOf(pi) {
		for code, resp := range op.Responses {
			if resp == nil || !strings.HasPrefix(code, "2") {
				continue
			}
			if resp.Links == nil {
				resp.Links = map[string]*huma.Link{}
			}
			for _, h := range headers {
				if href, rel, ok := splitLink(h); ok {
					resp.Links[rel] = &huma.Link{OperationRef: href, Description: "Related: " + rel}
				}
			}
		}
	}
}

// schemaName returns the component schema name of the GET success body.
func schemaName(pi *huma.PathItem) string {
	if pi == nil || pi.Get == nil {
		return ""
	}
	for code, resp := range pi.Get.Responses {
		if resp == nil || !strings.HasPrefix(code, "2") {
			continue
		}
		for _, mt := range resp.Content {
			if mt.Schema != nil && mt.Schema.Ref != "" {
				return path.Base(mt.Schema.Ref)
			}
		}
	}
	return ""
}

// splitLink parses `<href>; rel="name"`.
func splitLink(h string) (href, rel string, ok bool) {
	target, params, found := strings.Cut(h, ";")
	if !found {
		return "", "", false
	}
	rel, found = strings.CutPrefix(strings.TrimSpace(params), `rel=`)
	if !found {
		return "", "", false
	}
	return strings.Trim(strings.TrimSpace(target), "<>"), strings.Trim(rel, `"`), true
}
