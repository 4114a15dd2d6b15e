// Package pmtiles reads the fixed header and JSON metadata of PMTiles v3
// archives. Tile directories are left to the browser.
//
// Spec: https://github.com/protomaps/PMTiles/blob/main/spec/v3/spec.md
package pmtiles

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// Compression is the compression algorithm applied to individual tiles.
type Compression uint8

const (
	UnknownCompression Compression = 0
	NoCompression      Compression = 1
	Gzip               Compression = 2
	Brotli             Compression = 3
	Zstd               Compression = 4
)

// TileType is the format of individual tile contents.
type TileType uint8

const (
	UnknownTileType TileType = 0
	Mvt             TileType = 1
	Png             TileType = 2
	Jpeg            TileType = 3
	Webp            TileType = 4
	Avif            TileType = 5
)

func (t TileType) String() string {
	switch t {
	case Mvt:
		return "mvt"
	case Png:
		return "png"
	case Jpeg:
		return "jpeg"
	case Webp:
		return "webp"
	case Avif:
		return "avif"
	}
	return "unknown"
}

// HeaderV3LenBytes is the fixed-size binary header.
const HeaderV3LenBytes = 127

var (
	ErrShortHeader = errors.New("buffer too small for header")
	ErrMagic       = errors.New("magic number not detected")
)

// HeaderV3 is a binary header for PMTiles v3.
type HeaderV3 struct {
	SpecVersion         uint8
	RootOffset          uint64
	RootLength          uint64
	MetadataOffset      uint64
	MetadataLength      uint64
	LeafDirectoryOffset uint64
	LeafDirectoryLength uint64
	TileDataOffset      uint64
	TileDataLength      uint64
	AddressedTilesCount uint64
	TileEntriesCount    uint64
	TileContentsCount   uint64
	Clustered           bool
	InternalCompression Compression
	TileCompression     Compression
	TileType            TileType
	MinZoom             uint8
	MaxZoom             uint8
	MinLonE7            int32
	MinLatE7            int32
	MaxLonE7            int32
	MaxLatE7            int32
	CenterZoom          uint8
	CenterLonE7         int32
	CenterLatE7         int32
}

// Center returns the header's center point as lon/lat.
func (h HeaderV3) Center() orb.Point {
	return orb.Point{e7(h.CenterLonE7), e7(h.CenterLatE7)}
}

// Bound returns the header's bounding box.
func (h HeaderV3) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{e7(h.MinLonE7), e7(h.MinLatE7)},
		Max: orb.Point{e7(h.MaxLonE7), e7(h.MaxLatE7)},
	}
}

// CenterTile returns the tile containing the center at the center zoom.
func (h HeaderV3) CenterTile() maptile.Tile {
	return maptile.At(h.Center(), maptile.Zoom(h.CenterZoom))
}

// TileCount returns the number of tiles covering the bounds at zoom z.
func (h HeaderV3) TileCount(z uint8) uint64 {
	b := h.Bound()
	zoom := maptile.Zoom(z)
	lo := maptile.At(orb.Point{b.Min[0], b.Max[1]}, zoom)
	hi := maptile.At(orb.Point{b.Max[0], b.Min[1]}, zoom)
	return uint64(hi.X-lo.X+1) * uint64(hi.Y-lo.Y+1)
}

func e7(v int32) float64 {
	return float64(v) / 10000000
}

func toE7(v float64) int32 {
	return int32(v * 10000000)
}

// SetBound stores b in the header's E7 bounds.
func (h *HeaderV3) SetBound(b orb.Bound) {
	h.MinLonE7, h.MinLatE7 = toE7(b.Min[0]), toE7(b.Min[1])
	h.MaxLonE7, h.MaxLatE7 = toE7(b.Max[0]), toE7(b.Max[1])
}

// SetCenter stores p and zoom as the header's center.
func (h *HeaderV3) SetCenter(p orb.Point, zoom uint8) {
	h.CenterLonE7, h.CenterLatE7 = toE7(p[0]), toE7(p[1])
	h.CenterZoom = zoom
}

// SerializeHeader converts a header to bytes.
func SerializeHeader(header HeaderV3) []byte {
	b := make([]byte, HeaderV3LenBytes)
	copy(b[0:7], "PMTiles")

	b[7] = 3
	le := binary.LittleEndian
	for i, v := range []uint64{
		header.RootOffset, header.RootLength,
		header.MetadataOffset, header.MetadataLength,
		header.LeafDirectoryOffset, header.LeafDirectoryLength,
		header.TileDataOffset, header.TileDataLength,
		header.AddressedTilesCount, header.TileEntriesCount, header.TileContentsCount,
	} {
		le.PutUint64(b[8+i*8:], v)
	}
	if header.Clustered {
		b[96] = 0x1
	}
	b[97] = uint8(header.InternalCompression)
	b[98] = uint8(header.TileCompression)
	b[99] = uint8(header.TileType)
	b[100] = header.MinZoom
	b[101] = header.MaxZoom
	le.PutUint32(b[102:], uint32(header.MinLonE7))
	le.PutUint32(b[106:], uint32(header.MinLatE7))
	le.PutUint32(b[110:], uint32(header.MaxLonE7))
	le.PutUint32(b[114:], uint32(header.MaxLatE7))
	b[118] = header.CenterZoom
	le.PutUint32(b[119:], uint32(header.CenterLonE7))
	le.PutUint32(b[123:], uint32(header.CenterLatE7))
	return b
}

// DeserializeHeader parses a binary header.
func DeserializeHeader(d []byte) (HeaderV3, error) {
	h := HeaderV3{}
	if len(d) < HeaderV3LenBytes {
		return h, ErrShortHeader
	}
	if string(d[0:7]) != "PMTiles" {
		return h, ErrMagic
	}

	le := binary.LittleEndian
	h.SpecVersion = d[7]
	h.RootOffset = le.Uint64(d[8:])
	h.RootLength = le.Uint64(d[16:])
	h.MetadataOffset = le.Uint64(d[24:])
	h.MetadataLength = le.Uint64(d[32:])
	h.LeafDirectoryOffset = le.Uint64(d[40:])
	h.LeafDirectoryLength = le.Uint64(d[48:])
	h.TileDataOffset = le.Uint64(d[56:])
	h.TileDataLength = le.Uint64(d[64:])
	h.AddressedTilesCount = le.Uint64(d[72:])
	h.TileEntriesCount = le.Uint64(d[80:])
	h.TileContentsCount = le.Uint64(d[88:])
	h.Clustered = (d[96] == 0x1)
	h.InternalCompression = Compression(d[97])
	h.TileCompression = Compression(d[98])
	h.TileType = TileType(d[99])
	h.MinZoom = d[100]
	h.MaxZoom = d[101]
	h.MinLonE7 = int32(le.Uint32(d[102:]))
	h.MinLatE7 = int32(le.Uint32(d[106:]))
	h.MaxLonE7 = int32(le.Uint32(d[110:]))
	h.MaxLatE7 = int32(le.Uint32(d[114:]))
	h.CenterZoom = d[118]
	h.CenterLonE7 = int32(le.Uint32(d[119:]))
	h.CenterLatE7 = int32(le.Uint32(d[123:]))

	return h, nil
}

// VectorLayer is one entry of the metadata's vector_layers list.
type VectorLayer struct {
	ID      string            `json:"id"`
	Fields  map[string]string `json:"fields,omitempty"`
	MinZoom int               `json:"minzoom,omitempty"`
	MaxZoom int               `json:"maxzoom,omitempty"`
}

// Metadata is the subset of archive metadata the viewer reads.
type Metadata struct {
	Name         string        `json:"name,omitempty"`
	Description  string        `json:"description,omitempty"`
	Attribution  string        `json:"attribution,omitempty"`
	VectorLayers []VectorLayer `json:"vector_layers,omitempty"`
}

// SerializeMetadata converts metadata to bytes with the given compression.
func SerializeMetadata(metadata Metadata, compression Compression) ([]byte, error) {
	jsonBytes, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}

	switch compression {
	case NoCompression:
		return jsonBytes, nil
	case Gzip:
		var b bytes.Buffer
		w, err := gzip.NewWriterLevel(&b, gzip.BestCompression)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(jsonBytes); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return b.Bytes(), nil
	}
	return nil, fmt.Errorf("compression %d not supported", compression)
}

// DeserializeMetadata decodes raw metadata bytes.
func DeserializeMetadata(raw []byte, compression Compression) (Metadata, error) {
	var md Metadata
	var r io.Reader = bytes.NewReader(raw)
	switch compression {
	case NoCompression, UnknownCompression:
	case Gzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return md, fmt.Errorf("opening metadata: %w", err)
		}
		defer gz.Close()
		r = gz
	default:
		return md, fmt.Errorf("compression %d not supported", compression)
	}

	if err := json.NewDecoder(r).Decode(&md); err != nil {
		return md, fmt.Errorf("decoding metadata: %w", err)
	}
	return md, nil
}
