// pagination.go: HATEOAS pagination via RFC 8288 Link headers.
//
// Response bodies implement the Pager interface to emit next/prev/first/last
// Link headers. The Links transformer reads these and sets the headers.
package humastar

import (
	"fmt"
	"net/url"
	"strconv"
)

// Pager is implemented by response bodies that carry pagination metadata.
// query holds the request's other parameters, kept on every link.
type Pager interface {
	PaginationLinks(basePath string, query url.Values) []string
}

// PageBody is a generic paginated response envelope.
// Any handler returning PageBody[T] gets automatic pagination Link headers.
type PageBody[T any] struct {
	Total  int `json:"total" doc:"Total number of items"`
	Offset int `json:"offset" doc:"Current offset"`
	Limit  int `json:"limit" doc:"Page size"`
	Data   []T `json:"data" doc:"Items"`
}

// Page slices items into a PageBody. A limit below one returns everything.
func Page[T any](items []T, offset, limit int) PageBody[T] {
	total := len(items)
	if limit < 1 {
		limit = total
	}
	if offset < 0 {
		offset = 0
	}
	start := min(offset, total)
	end := min(start+limit, total)
	return PageBody[T]{Total: total, Offset: offset, Limit: limit, Data: items[start:end]}
}

// PaginationLinks returns RFC 8288 Link header values for pagination rels.
func (p PageBody[T]) PaginationLinks(basePath string, query url.Values) []string {
	if p.Limit < 1 {
		return nil
	}
	link := func(offset int, rel string) string {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("offset", strconv.Itoa(offset))
		q.Set("limit", strconv.Itoa(p.Limit))
		return fmt.Sprintf(`<%s?%s>; rel="%s"`, basePath, q.Encode(), rel)
	}

	links := []string{link(0, "first")}

	if p.Offset > 0 {
		links = append(links, link(max(p.Offset-p.Limit, 0), "prev"))
	}

	if p.Offset+p.Limit < p.Total {
		links = append(links, link(p.Offset+p.Limit, "next"))
	}

	lastOffset := max(((p.Total-1)/p.Limit)*p.Limit, 0)
	links = append(links, link(lastOffset, "last"))

	return links
}
