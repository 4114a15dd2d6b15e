package api

import (
	"context"
	"errors"
	"os"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-viewer/internal/humastar"
	"github.com/joeblew999/plat-viewer/internal/service"
)

// FeatureHandler serves GeoParquet features through DuckDB.
type FeatureHandler struct {
	features *service.FeatureService
}

// NewFeatureHandler creates a new feature handler. A nil service answers 503.
func NewFeatureHandler(features *service.FeatureService) *FeatureHandler {
	return &FeatureHandler{features: features}
}

// RegisterRoutes registers feature routes with Huma.
func (h *FeatureHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/features", h.GetFeatures, huma.OperationTags("features"))
}

// FeaturesInput selects a page of features, optionally around a point.
type FeaturesInput struct {
	Source    string  `query:"source" required:"true" doc:"GeoParquet file name under the sources directory, or a URL" example:"roads.geo.parquet"`
	Lon       float64 `query:"lon" minimum:"-180" maximum:"180" doc:"Longitude of the query point"`
	Lat       float64 `query:"lat" minimum:"-90" maximum:"90" doc:"Latitude of the query point"`
	Tolerance float64 `query:"tolerance" minimum:"0" doc:"Search radius in degrees" example:"0.0001"`
	Offset    int     `query:"offset" minimum:"0" default:"0" doc:"Features to skip"`
	Limit     int     `query:"limit" minimum:"1" maximum:"500" default:"20" doc:"Page size"`

	atPoint bool
}

// Resolve implements huma.Resolver: the point filter applies when lon or
// lat is given.
func (i *FeaturesInput) Resolve(ctx huma.Context) []error {
	u := ctx.URL()
	q := u.Query()
	i.atPoint = q.Has("lon") || q.Has("lat")
	return nil
}

// FeaturesOutput is a page of GeoJSON features.
type FeaturesOutput struct {
	Body humastar.PageBody[*geojson.Feature]
}

// GetFeatures returns one page of features of a GeoParquet source.
func (h *FeatureHandler) GetFeatures(ctx context.Context, input *FeaturesInput) (*FeaturesOutput, error) {
	if h.features == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}

	page, err := h.features.Query(ctx, service.FeatureQuery{
		Source:    input.Source,
		Lon:       input.Lon,
		Lat:       input.Lat,
		Tolerance: input.Tolerance,
		AtPoint:   input.atPoint,
		Offset:    input.Offset,
		Limit:     input.Limit,
	})
	switch {
	case errors.Is(err, service.ErrInvalidSource):
		return nil, huma.Error400BadRequest(err.Error())
	case errors.Is(err, os.ErrNotExist):
		return nil, huma.Error404NotFound("source not found: " + input.Source)
	case err != nil:
		return nil, huma.Error500InternalServerError("Feature query failed", err)
	}

	features := page.Features.Features
	if features == nil {
		features = []*geojson.Feature{}
	}
	return &FeaturesOutput{Body: humastar.PageBody[*geojson.Feature]{
		Total:  page.Total,
		Offset: page.Offset,
		Limit:  page.Limit,
		Data:   features,
	}}, nil
}
