package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/jamesrr39/goutil/logpkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := New(context.Background(), Config{
		Host:    "localhost",
		Port:    "8086",
		DataDir: dir,
		TileURL: "https://example.com/pmtiles/2024",
		NoDB:    true,
		Logger:  logpkg.NewLogger(io.Discard, logpkg.LogLevelError),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, dir
}

func do(s *Server, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestLoaderPage(t *testing.T) {
	s, _ := testServer(t)
	rec := do(s, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `action="/viewer"`)
	assert.Contains(t, body, `value="https://example.com/pmtiles/2024"`)
	assert.Contains(t, strings.Join(rec.Header().Values("Link"), ","), `</api/v1/groups>`)

	rec = do(s, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

var legendURL = regexp.MustCompile(`/api/v1/legend/[0-9a-f-]{36}`)

func TestViewerPageOpensSession(t *testing.T) {
	s, _ := testServer(t)
	rec := do(s, http.MethodGet, "/viewer?url=/tiles", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `id="map"`)
	assert.Contains(t, body, `pmtiles:///tiles/roads.pmtiles`)
	assert.Equal(t, 1, s.Sessions().Len())

	base := legendURL.FindString(body)
	require.NotEmpty(t, base)

	rec = do(s, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "datastar-patch-elements")

	rec = do(s, http.MethodPost, base+"/groups/OSM?checked=false", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `setLayerVisibility("osm","none")`)
}

func TestViewerPageStyleError(t *testing.T) {
	s, _ := testServer(t)
	rec := do(s, http.MethodGet, "/viewer?url=/tiles&style=missing.yaml", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Viewer not initialized")
	assert.NotContains(t, rec.Body.String(), `id="map"`)
	assert.Equal(t, 0, s.Sessions().Len())

	rec = do(s, http.MethodGet, "/viewer?url=/tiles&style=/etc/passwd", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid style location")
	assert.Equal(t, 0, s.Sessions().Len())
}

func TestHypermediaLinks(t *testing.T) {
	s, _ := testServer(t)

	rec := do(s, http.MethodGet, "/api/v1/groups", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	links := strings.Join(rec.Header().Values("Link"), ",")
	assert.Contains(t, links, `</api/v1/groups/{name}>; rel="item"`)
	assert.Contains(t, links, `</health>; rel="up"`)

	rec = do(s, http.MethodGet, "/api/v1/groups/Overture", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	links = strings.Join(rec.Header().Values("Link"), ",")
	assert.Contains(t, links, `</api/v1/groups/Overture>; rel="self"`)
	assert.Contains(t, links, `</api/v1/groups/Overture/layers>; rel="layers"; method="GET"`)

	rec = do(s, http.MethodGet, "/api/v1/layers?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, strings.Join(rec.Header().Values("Link"), ","), `rel="next"`)
}

func TestOpenAPI(t *testing.T) {
	s, _ := testServer(t)
	paths := s.OpenAPI().Paths
	for _, p := range []string{"/health", "/api/v1/groups", "/api/v1/style", "/api/v1/features", "/api/v1/legend/{session}", "/api/v1/legend/{session}/events"} {
		assert.Contains(t, paths, p)
	}
}

func TestLocalTiles(t *testing.T) {
	s, dir := testServer(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tiles"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tiles", "base.pmtiles"), []byte("0123456789"), 0644))

	rec := do(s, http.MethodGet, "/tiles/base.pmtiles", http.Header{"Range": {"bytes=2-4"}})
	require.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "234", rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Content-Range")

	rec = do(s, http.MethodOptions, "/tiles/base.pmtiles", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
