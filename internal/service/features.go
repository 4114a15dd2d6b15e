package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/marcboeker/go-duckdb"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/geojson"
)

// Feature query defaults.
const (
	DefaultFeatureLimit = 20
	MaxFeatureLimit     = 500
	// DefaultTolerance is the search radius around a point, in degrees.
	DefaultTolerance = 0.0001
)

// HiddenProperties are not shown as feature attributes. id becomes the
// feature's id.
var HiddenProperties = []string{"id", "version"}

const wkbColumn = "__wkb"

// FeatureQuery selects features of one GeoParquet source.
type FeatureQuery struct {
	Source    string
	Lon, Lat  float64
	Tolerance float64
	// AtPoint restricts results to features near Lon/Lat.
	AtPoint bool
	Offset  int
	Limit   int
}

// FeatureService reads features from GeoParquet through DuckDB.
type FeatureService struct {
	db      *sqlx.DB
	sources *SourceService
}

// NewFeatureService creates a new feature service.
func NewFeatureService(db *sqlx.DB, sources *SourceService) *FeatureService {
	return &FeatureService{db: db, sources: sources}
}

// Query returns one page of features matching q.
func (s *FeatureService) Query(ctx context.Context, q FeatureQuery) (FeaturePage, error) {
	location, err := s.sources.Resolve(q.Source)
	if err != nil {
		return FeaturePage{}, err
	}
	if q.Limit <= 0 {
		q.Limit = DefaultFeatureLimit
	}
	if q.Limit > MaxFeatureLimit {
		q.Limit = MaxFeatureLimit
	}
	if q.Tolerance <= 0 {
		q.Tolerance = DefaultTolerance
	}

	where := ""
	args := []any{location}
	if q.AtPoint {
		where = " WHERE ST_Intersects(geometry, ST_Buffer(ST_Point(?, ?), ?))"
		args = append(args, q.Lon, q.Lat, q.Tolerance)
	}

	page := FeaturePage{Offset: q.Offset, Limit: q.Limit}
	if err := s.db.GetContext(ctx, &page.Total, "SELECT count(*) FROM read_parquet(?)"+where, args...); err != nil {
		return FeaturePage{}, fmt.Errorf("counting %s: %w", q.Source, err)
	}

	query := fmt.Sprintf("SELECT * EXCLUDE (geometry), ST_AsWKB(geometry) AS %s FROM read_parquet(?)%s LIMIT ? OFFSET ?", wkbColumn, where)
	args = append(args, q.Limit, q.Offset)

	fc := geojson.NewFeatureCollection()
	err = s.each(ctx, query, args, func(f *geojson.Feature) error {
		fc.Append(f)
		return nil
	})
	if err != nil {
		return FeaturePage{}, fmt.Errorf("querying %s: %w", q.Source, err)
	}

	page.Features = fc
	page.HasMore = q.Offset+len(fc.Features) < page.Total
	return page, nil
}

// Format is a GeoJSON output format.
type Format string

const (
	FormatGeoJSON    Format = "geojson"
	FormatGeoJSONSeq Format = "geojsonseq"
)

// Convert writes every feature of a GeoParquet file to w and returns the
// number of features written. GeoJSONSeq writes one feature per line.
func (s *FeatureService) Convert(ctx context.Context, in string, w io.Writer, format Format) (int, error) {
	query := fmt.Sprintf("SELECT * EXCLUDE (geometry), ST_AsWKB(geometry) AS %s FROM read_parquet(?)", wkbColumn)

	switch format {
	case FormatGeoJSONSeq:
		enc := json.NewEncoder(w)
		n := 0
		err := s.each(ctx, query, []any{in}, func(f *geojson.Feature) error {
			n++
			return enc.Encode(f)
		})
		return n, err

	case FormatGeoJSON, "":
		fc := geojson.NewFeatureCollection()
		if err := s.each(ctx, query, []any{in}, func(f *geojson.Feature) error {
			fc.Append(f)
			return nil
		}); err != nil {
			return 0, err
		}
		data, err := fc.MarshalJSON()
		if err != nil {
			return 0, err
		}
		_, err = w.Write(data)
		return len(fc.Features), err
	}
	return 0, fmt.Errorf("unknown format %q", format)
}

func (s *FeatureService) each(ctx context.Context, query string, args []any, fn func(*geojson.Feature) error) error {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return err
		}
		f, err := toFeature(row)
		if err != nil {
			return err
		}
		if err := fn(f); err != nil {
			return err
		}
	}
	return rows.Err()
}

func toFeature(row map[string]any) (*geojson.Feature, error) {
	var geom orb.Geometry
	if raw, ok := row[wkbColumn].([]byte); ok && len(raw) > 0 {
		g, err := wkb.Unmarshal(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding geometry: %w", err)
		}
		geom = g
	}
	delete(row, wkbColumn)

	f := geojson.NewFeature(geom)
	if id, ok := row["id"]; ok {
		f.ID = normalize(id)
	}
	for _, key := range HiddenProperties {
		delete(row, key)
	}
	for k, v := range row {
		f.Properties[k] = normalize(v)
	}
	return f, nil
}

// normalize turns DuckDB values into JSON-encodable ones.
func normalize(v any) any {
	switch v := v.(type) {
	case duckdb.Map:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case map[string]any:
		for k, val := range v {
			v[k] = normalize(val)
		}
		return v
	case []any:
		for i, val := range v {
			v[i] = normalize(val)
		}
		return v
	case []byte:
		return string(v)
	}
	return v
}
