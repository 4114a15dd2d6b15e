package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/jamesrr39/goutil/httpextra"
	"github.com/jamesrr39/goutil/humanise"

	"github.com/joeblew999/plat-viewer/internal/pmtiles"
)

// TileService reads PMTiles archives, local or remote.
type TileService struct {
	tilesDir string
	client   httpextra.Doer
}

// NewTileService creates a new tile service. A nil client means http.DefaultClient.
func NewTileService(dataDir string, client httpextra.Doer) *TileService {
	if client == nil {
		client = http.DefaultClient
	}
	return &TileService{
		tilesDir: filepath.Join(dataDir, "tiles"),
		client:   client,
	}
}

// List returns all available PMTiles files. Files with unreadable headers
// are listed without a view.
func (s *TileService) List() ([]TileFile, error) {
	entries, err := os.ReadDir(s.tilesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []TileFile{}, nil
		}
		return nil, err
	}

	files := []TileFile{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) != ".pmtiles" {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		f := TileFile{Name: entry.Name()}
		if h, err := s.readLocal(entry.Name(), 0, pmtiles.HeaderV3LenBytes); err == nil {
			if header, err := pmtiles.DeserializeHeader(h); err == nil {
				f = TileFileOf(entry.Name(), header)
			}
		}
		f.Size = humanise.HumaniseBytes(info.Size())
		files = append(files, f)
	}

	return files, nil
}

// ReadHeader reads the header of the archive at location: an http(s) URL,
// fetched with a range request, or a file name under the tiles directory.
func (s *TileService) ReadHeader(ctx context.Context, location string) (pmtiles.HeaderV3, error) {
	b, err := s.readRange(ctx, location, 0, pmtiles.HeaderV3LenBytes)
	if err != nil {
		return pmtiles.HeaderV3{}, err
	}
	h, err := pmtiles.DeserializeHeader(b)
	if err != nil {
		return h, fmt.Errorf("reading header of %s: %w", location, err)
	}
	return h, nil
}

// ReadMetadata reads the JSON metadata of the archive at location.
func (s *TileService) ReadMetadata(ctx context.Context, location string) (pmtiles.Metadata, error) {
	h, err := s.ReadHeader(ctx, location)
	if err != nil {
		return pmtiles.Metadata{}, err
	}
	raw, err := s.readRange(ctx, location, h.MetadataOffset, h.MetadataLength)
	if err != nil {
		return pmtiles.Metadata{}, err
	}
	return pmtiles.DeserializeMetadata(raw, h.InternalCompression)
}

// View returns the initial map view of a tile release from its base archive.
func (s *TileService) View(ctx context.Context, tileURL string) (MapView, error) {
	h, err := s.ReadHeader(ctx, ArchiveURL(tileURL, BaseArchive))
	if err != nil {
		return DefaultView, err
	}
	return ViewOf(h), nil
}

// ViewOf returns the map view described by a header: its center at the
// archive's maximum zoom.
func ViewOf(h pmtiles.HeaderV3) MapView {
	c, b := h.Center(), h.Bound()
	return MapView{
		Center:  [2]float64{c.Lon(), c.Lat()},
		Zoom:    float64(h.MaxZoom),
		MinZoom: h.MinZoom,
		MaxZoom: h.MaxZoom,
		Bounds:  [4]float64{b.Left(), b.Bottom(), b.Right(), b.Top()},
	}
}

// maxCountZoom bounds the zoom at which tiles are counted.
const maxCountZoom = 24

// TileFileOf describes the archive name from its header.
func TileFileOf(name string, h pmtiles.HeaderV3) TileFile {
	t := h.CenterTile()
	f := TileFile{
		Name:       name,
		TileType:   h.TileType.String(),
		CenterTile: fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y),
		View:       ViewOf(h),
	}
	if h.MaxZoom <= maxCountZoom {
		f.MaxTiles = h.TileCount(h.MaxZoom)
	}
	return f
}

// TilesDir returns the path to the tiles directory.
func (s *TileService) TilesDir() string {
	return s.tilesDir
}

func (s *TileService) readRange(ctx context.Context, location string, offset, length uint64) ([]byte, error) {
	if !isRemote(location) {
		return s.readLocal(filepath.Base(location), offset, length)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+length-1))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", location, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusPartialContent:
		return readN(resp.Body, length)
	case http.StatusOK:
		// Server ignored the range.
		if _, err := io.CopyN(io.Discard, resp.Body, int64(offset)); err != nil {
			return nil, fmt.Errorf("reading %s: %w", location, err)
		}
		return readN(resp.Body, length)
	}
	return nil, fmt.Errorf("fetching %s: %w", location, httpextra.CheckResponseCode(http.StatusPartialContent, resp.StatusCode))
}

func (s *TileService) readLocal(name string, offset, length uint64) ([]byte, error) {
	f, err := os.Open(filepath.Join(s.tilesDir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b := make([]byte, length)
	if _, err := f.ReadAt(b, int64(offset)); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return b, nil
}

func readN(r io.Reader, n uint64) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}
