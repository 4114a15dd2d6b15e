// Package control contains the Datastar SSE handlers of the legend control.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jamesrr39/goutil/logpkg"

	"github.com/joeblew999/plat-viewer/internal/humastar"
	"github.com/joeblew999/plat-viewer/internal/legend"
	"github.com/joeblew999/plat-viewer/internal/service"
	"github.com/joeblew999/plat-viewer/internal/templates"
	"github.com/joeblew999/plat-viewer/internal/viewer"
)

// Tag marks the legend operations. They are left out of the generated
// hypermedia links.
const Tag = "legend"

// BasePath is the URL prefix of a session's legend endpoints.
const BasePath = "/api/v1/legend/"

// BaseURL returns the legend endpoint of a session.
func BaseURL(sessionID string) string {
	return BasePath + sessionID
}

// Handler serves the legend of viewer sessions over SSE.
type Handler struct {
	humastar.Handler
	sessions *viewer.Manager
	sources  *service.SourceService
	tiles    *service.TileService
}

// NewHandler creates a new legend handler.
func NewHandler(sessions *viewer.Manager, sources *service.SourceService, tiles *service.TileService, renderer *templates.Renderer, logger *logpkg.Logger) *Handler {
	return &Handler{
		Handler:  humastar.Handler{Renderer: renderer, Logger: logger},
		sessions: sessions,
		sources:  sources,
		tiles:    tiles,
	}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/legend/{session}", h.GetLegend, huma.OperationTags(Tag))
	huma.Post(api, "/api/v1/legend/{session}/groups/{name}", h.ToggleGroup, huma.OperationTags(Tag))
	huma.Post(api, "/api/v1/legend/{session}/layers/{id}", h.ToggleLayer, huma.OperationTags(Tag))
	huma.Get(api, "/api/v1/legend/{session}/sources", h.GetSources, huma.OperationTags(Tag))
	huma.Get(api, "/api/v1/legend/{session}/events", h.Events, huma.OperationTags(Tag))
}

// SessionInput identifies a viewer session.
type SessionInput struct {
	Session string `path:"session" doc:"Viewer session id"`
}

// CheckedInput carries the new checkbox state, either as a query parameter
// or as the checkbox's signal in the Datastar request body.
type CheckedInput struct {
	Checked string `query:"checked" enum:"true,false" doc:"New checkbox state. Defaults to the checkbox signal in the body."`
	humastar.SignalsInput
}

// value returns the requested state for the checkbox bound to key.
func (i *CheckedInput) value(key string) (bool, error) {
	if i.Checked != "" {
		checked, err := strconv.ParseBool(i.Checked)
		if err != nil {
			return false, huma.Error400BadRequest("invalid checked value", err)
		}
		return checked, nil
	}
	signals, err := i.Signals()
	if err != nil {
		return false, err
	}
	checked, ok := signals.Checkbox(key)
	if !ok {
		return false, huma.Error400BadRequest("missing checked state for " + key)
	}
	return checked, nil
}

type GroupToggleInput struct {
	SessionInput
	Name string `path:"name" doc:"Group name" example:"roads"`
	CheckedInput
}

type LayerToggleInput struct {
	SessionInput
	ID string `path:"id" doc:"Layer id" example:"roads-major"`
	CheckedInput
}

// legendData is the data of the legend fragment.
type legendData struct {
	Signals  string
	Base     string
	Sections []legend.Section
}

// GetLegend replaces the legend placeholder with the session's legend.
func (h *Handler) GetLegend(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	s, err := h.session(input.Session)
	if err != nil {
		return nil, err
	}

	data := legendData{Base: BaseURL(s.ID)}
	err = s.Do(func(l *legend.Legend) error {
		signals, err := json.Marshal(l.Signals())
		if err != nil {
			return err
		}
		data.Signals = string(signals)
		data.Sections, err = l.Sections()
		return err
	})
	if err != nil {
		h.Logger.Error("session %s: rendering legend: %s", s.ID, err)
		return nil, huma.Error500InternalServerError("Rendering legend failed", err)
	}

	return h.Stream(func(sse humastar.SSE) {
		sse.Replace(h.Render("legend", data), "#legend")
	}), nil
}

// ToggleGroup handles a group header checkbox.
func (h *Handler) ToggleGroup(ctx context.Context, input *GroupToggleInput) (*huma.StreamResponse, error) {
	s, err := h.session(input.Session)
	if err != nil {
		return nil, err
	}
	return h.toggle(s, func(l *legend.Legend) ([]legend.Change, error) {
		if _, ok := l.Tree()[input.Name]; !ok {
			return nil, huma.Error404NotFound("group not found: " + input.Name)
		}
		checked, err := input.value(l.GroupKey(input.Name))
		if err != nil {
			return nil, err
		}
		return l.Toggle(input.Name, checked)
	})
}

// ToggleLayer handles a single layer row checkbox.
func (h *Handler) ToggleLayer(ctx context.Context, input *LayerToggleInput) (*huma.StreamResponse, error) {
	s, err := h.session(input.Session)
	if err != nil {
		return nil, err
	}
	return h.toggle(s, func(l *legend.Legend) ([]legend.Change, error) {
		key := l.LayerKey(input.ID)
		if key == "" {
			return nil, huma.Error404NotFound("layer not found: " + input.ID)
		}
		checked, err := input.value(key)
		if err != nil {
			return nil, err
		}
		return l.ToggleLayer(input.ID, checked)
	})
}

// toggle applies fn under the session lock and streams the result: the new
// checkbox states, the queued map updates and any renderer error.
func (h *Handler) toggle(s *viewer.Session, fn func(l *legend.Legend) ([]legend.Change, error)) (*huma.StreamResponse, error) {
	var (
		changes []legend.Change
		script  string
		toggled bool
	)
	err := s.Do(func(l *legend.Legend) error {
		var err error
		changes, err = fn(l)
		var se huma.StatusError
		if errors.As(err, &se) {
			return err
		}
		toggled = true
		script = viewer.Script(s.Renderer.Drain())
		return err
	})
	if !toggled {
		return nil, err
	}

	s.Publish(changes)
	if err != nil {
		h.Logger.Warn("session %s: %s", s.ID, err)
		s.Bus.Publish(service.Event{Session: s.ID, Action: "error", Message: err.Error()})
	}

	return h.Stream(func(sse humastar.SSE) {
		signals := make(map[string]any, len(changes))
		for _, c := range changes {
			signals[c.Key] = c.Checked
		}
		sse.Signals(signals)
		sse.Script(script)
		if err != nil {
			sse.Error(err.Error())
		}
	}), nil
}

func (h *Handler) session(id string) (*viewer.Session, error) {
	s, err := h.sessions.Get(id)
	if errors.Is(err, viewer.ErrSessionNotFound) {
		return nil, huma.Error404NotFound("viewer session not found; reload the page")
	}
	return s, err
}
