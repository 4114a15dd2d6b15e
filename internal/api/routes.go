// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"errors"
	"os"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-viewer/internal/humastar"
	"github.com/joeblew999/plat-viewer/internal/legend"
	"github.com/joeblew999/plat-viewer/internal/pmtiles"
	"github.com/joeblew999/plat-viewer/internal/service"
	"github.com/joeblew999/plat-viewer/internal/style"
)

// Services holds the service dependencies for API handlers.
// Feature is nil when the database is unavailable.
type Services struct {
	Style   *service.StyleService
	Tile    *service.TileService
	Source  *service.SourceService
	Feature *service.FeatureService
}

// Types

type StyleQuery struct {
	Style string `query:"style" doc:"Style location: file name under the styles directory or http(s) URL. Empty means the built-in style."`
}

type PageQuery struct {
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Items to skip"`
	Limit  int `query:"limit" minimum:"0" maximum:"1000" default:"100" doc:"Page size"`
}

type GroupInput struct {
	StyleQuery
	Name string `path:"name" doc:"Group name" example:"roads"`
}

// groupActions are the follow-up actions of a single group.
var groupActions = []humastar.ActionDef{
	{Rel: "layers", Pattern: "/api/v1/groups/%s/layers", Method: "GET", Title: "Layers affected by toggling the group"},
}

// GroupBody is a group with its position in the legend.
type GroupBody struct {
	legend.Group
	Composite bool `json:"composite" doc:"Whether the group has child groups"`
	// Affected counts the layers a toggle of the group changes.
	Affected int `json:"affected" doc:"Number of layers the group's checkbox controls"`
}

// Actions implements humastar.Actor.
func (b GroupBody) Actions() []humastar.Action {
	return humastar.ActionsFor(b.Name, groupActions)
}

type GroupOutput struct {
	Body GroupBody
}

type GroupsOutput struct {
	Body []GroupBody
}

type LayersOutput struct {
	Body humastar.PageBody[style.Layer]
}

type MapStyleInput struct {
	StyleQuery
	URL string `query:"url" doc:"Tile base URL holding the vector PMTiles archives" example:"https://example.com/pmtiles/2024-07-22"`
}

type MapStyleOutput struct {
	Body style.MapStyle
}

type StylesOutput struct {
	Body []service.StyleInfo
}

type SaveStyleInput struct {
	Body struct {
		Name    string `json:"name" minLength:"1" doc:"Style name" example:"plain"`
		Content string `json:"content" minLength:"1" doc:"Style document as YAML or JSON"`
	}
}

type SaveStyleOutput struct {
	Body service.StyleInfo
}

type SourcesInput struct {
	URL string `query:"url" doc:"Tile base URL" example:"https://example.com/pmtiles/2024-07-22"`
}

type SourcesBody struct {
	Vector []service.VectorSource `json:"vector" doc:"Overlay archives of the tile release"`
	Local  []service.SourceFile   `json:"local" doc:"Local GeoParquet files"`
	View   service.MapView        `json:"view" doc:"Initial map view from the base archive"`
}

type TileNameInput struct {
	Name string `path:"name" doc:"PMTiles file name" example:"base.pmtiles"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterGroups registers the group tree routes.
func (h *APIHandler) RegisterGroups(api huma.API) {
	huma.Get(api, "/api/v1/groups", h.GetGroups, huma.OperationTags("groups"))
	huma.Get(api, "/api/v1/groups/{name}", h.GetGroup, huma.OperationTags("groups"))
	huma.Get(api, "/api/v1/groups/{name}/layers", h.GetGroupLayers, huma.OperationTags("groups"))
}

// RegisterLayers registers the flattened layer list.
func (h *APIHandler) RegisterLayers(api huma.API) {
	huma.Get(api, "/api/v1/layers", h.GetLayers, huma.OperationTags("layers"))
}

// RegisterStyles registers map style and style document routes.
func (h *APIHandler) RegisterStyles(api huma.API) {
	huma.Get(api, "/api/v1/style", h.GetMapStyle, huma.OperationTags("styles"))
	huma.Get(api, "/api/v1/styles", h.GetStyles, huma.OperationTags("styles"))
	huma.Post(api, "/api/v1/styles", h.SaveStyle, huma.OperationTags("styles"))
}

// RegisterSources registers source listing routes.
func (h *APIHandler) RegisterSources(api huma.API) {
	huma.Get(api, "/api/v1/sources", h.GetSources, huma.OperationTags("sources"))
}

// RegisterTiles registers tile listing routes.
func (h *APIHandler) RegisterTiles(api huma.API) {
	huma.Get(api, "/api/v1/tiles", h.GetTiles, huma.OperationTags("tiles"))
	huma.Get(api, "/api/v1/tiles/{name}", h.GetTileHeader, huma.OperationTags("tiles"))
	huma.Get(api, "/api/v1/tiles/{name}/metadata", h.GetTileMetadata, huma.OperationTags("tiles"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

func (h *APIHandler) GetGroups(ctx context.Context, input *StyleQuery) (*GroupsOutput, error) {
	tree, err := h.tree(ctx, input.Style)
	if err != nil {
		return nil, err
	}
	groups := []GroupBody{}
	for _, name := range tree.Names() {
		if g, ok := tree[name]; ok {
			groups = append(groups, groupBody(tree, g))
		}
	}
	return &GroupsOutput{Body: groups}, nil
}

func (h *APIHandler) GetGroup(ctx context.Context, input *GroupInput) (*GroupOutput, error) {
	tree, err := h.tree(ctx, input.Style)
	if err != nil {
		return nil, err
	}
	g, ok := tree[input.Name]
	if !ok {
		return nil, huma.Error404NotFound("group not found: " + input.Name)
	}
	return &GroupOutput{Body: groupBody(tree, g)}, nil
}

func (h *APIHandler) GetGroupLayers(ctx context.Context, input *struct {
	GroupInput
	PageQuery
}) (*LayersOutput, error) {
	tree, err := h.tree(ctx, input.Style)
	if err != nil {
		return nil, err
	}
	if _, ok := tree[input.Name]; !ok {
		return nil, huma.Error404NotFound("group not found: " + input.Name)
	}
	return &LayersOutput{Body: humastar.Page(tree.Layers(input.Name), input.Offset, input.Limit)}, nil
}

func (h *APIHandler) GetLayers(ctx context.Context, input *struct {
	StyleQuery
	PageQuery
}) (*LayersOutput, error) {
	doc, err := h.load(ctx, input.Style)
	if err != nil {
		return nil, err
	}
	return &LayersOutput{Body: humastar.Page(doc.Flatten(), input.Offset, input.Limit)}, nil
}

func (h *APIHandler) GetMapStyle(ctx context.Context, input *MapStyleInput) (*MapStyleOutput, error) {
	doc, err := h.load(ctx, input.Style)
	if err != nil {
		return nil, err
	}
	var vector map[string]style.Source
	if h.svc != nil && h.svc.Source != nil {
		vector = h.svc.Source.StyleSources(input.URL)
	}
	return &MapStyleOutput{Body: style.Build(doc, vector)}, nil
}

func (h *APIHandler) GetStyles(ctx context.Context, input *struct{}) (*StylesOutput, error) {
	if h.svc == nil || h.svc.Style == nil {
		return &StylesOutput{Body: []service.StyleInfo{}}, nil
	}
	styles, err := h.svc.Style.List(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing styles", err)
	}
	return &StylesOutput{Body: styles}, nil
}

func (h *APIHandler) SaveStyle(ctx context.Context, input *SaveStyleInput) (*SaveStyleOutput, error) {
	if h.svc == nil || h.svc.Style == nil {
		return nil, huma.Error503ServiceUnavailable("style service not available")
	}
	info, err := h.svc.Style.Save(input.Body.Name, []byte(input.Body.Content))
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	return &SaveStyleOutput{Body: info}, nil
}

func (h *APIHandler) GetSources(ctx context.Context, input *SourcesInput) (*struct{ Body SourcesBody }, error) {
	body := SourcesBody{Vector: []service.VectorSource{}, Local: []service.SourceFile{}, View: service.DefaultView}
	if h.svc == nil || h.svc.Source == nil {
		return &struct{ Body SourcesBody }{Body: body}, nil
	}
	if h.svc.Tile != nil && input.URL != "" {
		body.View, _ = h.svc.Tile.View(ctx, input.URL)
	}
	if input.URL != "" {
		body.Vector = h.svc.Source.Vector(input.URL, body.View)
	}
	if local, err := h.svc.Source.List(); err == nil {
		body.Local = local
	}
	return &struct{ Body SourcesBody }{Body: body}, nil
}

func (h *APIHandler) GetTiles(ctx context.Context, input *struct{}) (*struct{ Body []service.TileFile }, error) {
	if h.svc == nil || h.svc.Tile == nil {
		return &struct{ Body []service.TileFile }{Body: []service.TileFile{}}, nil
	}
	tiles, err := h.svc.Tile.List()
	if err != nil {
		return &struct{ Body []service.TileFile }{Body: []service.TileFile{}}, nil
	}
	return &struct{ Body []service.TileFile }{Body: tiles}, nil
}

func (h *APIHandler) GetTileHeader(ctx context.Context, input *TileNameInput) (*struct{ Body service.TileFile }, error) {
	if h.svc == nil || h.svc.Tile == nil {
		return nil, huma.Error404NotFound("tile service not available")
	}
	header, err := h.svc.Tile.ReadHeader(ctx, input.Name)
	if err != nil {
		return nil, tileError(input.Name, err)
	}
	return &struct{ Body service.TileFile }{Body: service.TileFileOf(input.Name, header)}, nil
}

func (h *APIHandler) GetTileMetadata(ctx context.Context, input *TileNameInput) (*struct{ Body pmtiles.Metadata }, error) {
	if h.svc == nil || h.svc.Tile == nil {
		return nil, huma.Error404NotFound("tile service not available")
	}
	md, err := h.svc.Tile.ReadMetadata(ctx, input.Name)
	if err != nil {
		return nil, tileError(input.Name, err)
	}
	return &struct{ Body pmtiles.Metadata }{Body: md}, nil
}

func (h *APIHandler) load(ctx context.Context, location string) (*style.Document, error) {
	if h.svc == nil || h.svc.Style == nil {
		return style.Default(), nil
	}
	doc, err := h.svc.Style.Load(ctx, location)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStyle):
			return nil, huma.Error400BadRequest(err.Error())
		case errors.Is(err, os.ErrNotExist):
			return nil, huma.Error404NotFound("style not found: " + location)
		}
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	return doc, nil
}

func (h *APIHandler) tree(ctx context.Context, location string) (legend.Tree, error) {
	doc, err := h.load(ctx, location)
	if err != nil {
		return nil, err
	}
	return legend.BuildDocument(doc), nil
}

func groupBody(tree legend.Tree, g legend.Group) GroupBody {
	return GroupBody{
		Group:     g,
		Composite: g.IsComposite(),
		Affected:  len(tree.Layers(g.Name)),
	}
}

func tileError(name string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return huma.Error404NotFound("tile archive not found: " + name)
	}
	return huma.Error422UnprocessableEntity(err.Error())
}
