// resource.go: follow-up actions of a single resource.
//
// Response bodies that implement [Actor] get one Link header per action,
// carrying the method and title as extension parameters:
//
//	</api/v1/groups/Roads/layers>; rel="layers"; method="GET"; title="Layers"
package humastar

import (
	"fmt"
	"net/url"
	"strings"
)

// Action is a link from a resource to something the client can do next.
type Action struct {
	Rel    string
	Href   string
	Method string
	Title  string
	Schema string // JSON Schema URL of the request body, if any
}

// Actor is implemented by response bodies that offer actions.
type Actor interface {
	Actions() []Action
}

// LinkHeader formats the action as an RFC 8288 Link header value.
func (a Action) LinkHeader() string {
	var b strings.Builder
	fmt.Fprintf(&b, `<%s>; rel="%s"`, a.Href, a.Rel)
	for _, p := range [][2]string{{"method", a.Method}, {"title", a.Title}, {"schema", a.Schema}} {
		if p[1] != "" {
			fmt.Fprintf(&b, `; %s="%s"`, p[0], strings.ReplaceAll(p[1], `"`, `'`))
		}
	}
	return b.String()
}

// ActionDef is an action template. Pattern holds a single %s verb that is
// replaced with the escaped resource name.
type ActionDef struct {
	Rel     string
	Pattern string
	Method  string
	Title   string
	Schema  string
}

// ActionsFor expands defs for the resource name.
func ActionsFor(name string, defs []ActionDef) []Action {
	actions := make([]Action, len(defs))
	for i, d := range defs {
		actions[i] = Action{
			Rel:    d.Rel,
			Href:   fmt.Sprintf(d.Pattern, url.PathEscape(name)),
			Method: d.Method,
			Title:  d.Title,
			Schema: d.Schema,
		}
	}
	return actions
}
