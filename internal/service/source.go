package service

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesrr39/goutil/humanise"

	"github.com/joeblew999/plat-viewer/internal/style"
)

// VectorSourceNames are the overlay archives published with every tile release.
var VectorSourceNames = []string{"roads", "places", "placenames", "buildings", "boundary", "base"}

// ErrInvalidSource is returned for sources that are neither a URL nor a
// GeoParquet file name.
var ErrInvalidSource = errors.New("invalid source")

// BaseArchive is the archive whose header sets the initial map view.
const BaseArchive = "base"

// Link targets of the Sources tab.
const (
	RapidEditorURL   = "https://rapideditor.org/edit"
	PMTilesViewerURL = "https://protomaps.github.io/PMTiles/"
)

// SourceService resolves vector sources of a tile release and lists local
// GeoParquet files.
type SourceService struct {
	sourcesDir string
}

// NewSourceService creates a new source service.
func NewSourceService(dataDir string) *SourceService {
	return &SourceService{
		sourcesDir: filepath.Join(dataDir, "sources"),
	}
}

// ArchiveURL returns the URL of a named archive under a tile base URL.
func ArchiveURL(tileURL, name string) string {
	return strings.TrimRight(tileURL, "/") + "/" + name + ".pmtiles"
}

// ParquetURL maps a PMTiles archive URL to its GeoParquet download.
func ParquetURL(archiveURL string) string {
	u := strings.Replace(archiveURL, "/pmtiles/", "/parquet/", 1)
	return strings.Replace(u, ".pmtiles", ".geo.parquet", 1)
}

// Vector returns the overlay sources of a tile release. view positions the
// Rapid editor links.
func (s *SourceService) Vector(tileURL string, view MapView) []VectorSource {
	out := make([]VectorSource, 0, len(VectorSourceNames))
	for _, name := range VectorSourceNames {
		archive := ArchiveURL(tileURL, name)
		out = append(out, VectorSource{
			Name:     name,
			URL:      archive,
			StyleURL: "pmtiles://" + archive,
			RapidURL: fmt.Sprintf("%s#map=%g/%g/%g&background=Bing&data=%s",
				RapidEditorURL, view.Zoom, view.Center[1], view.Center[0], archive),
			ViewerURL:  PMTilesViewerURL + "?url=" + url.QueryEscape(archive),
			ParquetURL: ParquetURL(archive),
		})
	}
	return out
}

// StyleSources returns the overlay sources as map style sources.
func (s *SourceService) StyleSources(tileURL string) map[string]style.Source {
	if tileURL == "" {
		return nil
	}
	out := make(map[string]style.Source, len(VectorSourceNames))
	for _, name := range VectorSourceNames {
		out[name] = style.Source{Type: "vector", URL: "pmtiles://" + ArchiveURL(tileURL, name)}
	}
	return out
}

// List returns the local GeoParquet files.
func (s *SourceService) List() ([]SourceFile, error) {
	entries, err := os.ReadDir(s.sourcesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SourceFile{}, nil
		}
		return nil, err
	}

	files := []SourceFile{}
	for _, entry := range entries {
		if entry.IsDir() || !isParquet(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, SourceFile{
			Name:     entry.Name(),
			Size:     humanise.HumaniseBytes(info.Size()),
			FileType: "GeoParquet",
		})
	}

	return files, nil
}

// Resolve returns the location DuckDB should read for a source: URLs are
// returned as is, anything else must name a local GeoParquet file.
func (s *SourceService) Resolve(source string) (string, error) {
	if isRemote(source) {
		return source, nil
	}
	name := filepath.Base(source)
	if name != source || !isParquet(name) {
		return "", fmt.Errorf("%w: %q must be a GeoParquet file name or URL", ErrInvalidSource, source)
	}
	path := filepath.Join(s.sourcesDir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("source %q: %w", source, err)
	}
	return path, nil
}

// SourcesDir returns the path to the sources directory.
func (s *SourceService) SourcesDir() string {
	return s.sourcesDir
}

func isParquet(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".parquet" || ext == ".geoparquet"
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
