// Package service contains the viewer's data access: style documents,
// vector sources, PMTiles headers, GeoParquet features and conversion.
package service

import (
	"github.com/paulmach/orb/geojson"
)

// VectorSource is one PMTiles overlay of a tile release, with the links
// shown in the Sources tab.
type VectorSource struct {
	Name       string `json:"name" doc:"Source name" example:"roads"`
	URL        string `json:"url" doc:"PMTiles archive URL"`
	StyleURL   string `json:"styleUrl" doc:"Source URL as used in the map style" example:"pmtiles://https://example.com/roads.pmtiles"`
	RapidURL   string `json:"rapidUrl" doc:"Rapid editor at the map view"`
	ViewerURL  string `json:"viewerUrl" doc:"PMTiles viewer for the archive"`
	ParquetURL string `json:"parquetUrl" doc:"GeoParquet download"`
}

// MapView is the initial camera of the viewer.
type MapView struct {
	Center  [2]float64 `json:"center" doc:"Center as [lon, lat]"`
	Zoom    float64    `json:"zoom" doc:"Initial zoom"`
	MinZoom uint8      `json:"minZoom" doc:"Minimum zoom of the base archive"`
	MaxZoom uint8      `json:"maxZoom" doc:"Maximum zoom of the base archive"`
	Bounds  [4]float64 `json:"bounds" doc:"Bounds as [west, south, east, north]"`
}

// DefaultView is used when the base archive header cannot be read.
var DefaultView = MapView{Center: [2]float64{0, 0}, Zoom: 1, MaxZoom: 14, Bounds: [4]float64{-180, -85, 180, 85}}

// SourceFile represents a local GeoParquet file.
type SourceFile struct {
	Name     string `json:"name" doc:"File name" example:"roads.geo.parquet"`
	Size     string `json:"size" doc:"Human-readable file size" example:"1.2 MiB"`
	FileType string `json:"fileType" doc:"File type" example:"GeoParquet"`
}

// TileFile represents a PMTiles archive.
type TileFile struct {
	Name       string  `json:"name" doc:"PMTiles file name" example:"roads.pmtiles"`
	Size       string  `json:"size,omitempty" doc:"Human-readable file size" example:"5.4 MiB"`
	TileType   string  `json:"tileType,omitempty" doc:"Tile format from the header" example:"mvt"`
	CenterTile string  `json:"centerTile,omitempty" doc:"Tile holding the center at the center zoom, as z/x/y" example:"9/270/172"`
	MaxTiles   uint64  `json:"maxTiles,omitempty" doc:"Tiles covering the bounds at the maximum zoom"`
	View       MapView `json:"view" doc:"Center and bounds from the header"`
}

// FeaturePage is one page of features from a GeoParquet source.
type FeaturePage struct {
	Features *geojson.FeatureCollection `json:"features"`
	Total    int                        `json:"total"`
	Offset   int                        `json:"offset"`
	Limit    int                        `json:"limit"`
	HasMore  bool                       `json:"hasMore"`
}
