package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jamesrr39/goutil/httpextra"
	"github.com/jamesrr39/goutil/logpkg"

	"github.com/joeblew999/plat-viewer/internal/style"
)

const (
	// maxStyleBytes caps remote style documents.
	maxStyleBytes = 4 << 20
	// maxRemoteStyles caps the fetched documents kept in memory.
	maxRemoteStyles = 32
)

// ErrInvalidStyle is returned for locations that are neither an http(s) URL
// nor a style file name inside the styles directory.
var ErrInvalidStyle = errors.New("invalid style location")

// StyleInfo describes a stored style document.
type StyleInfo struct {
	Name     string `json:"name" doc:"Style name" example:"plain"`
	Location string `json:"location" doc:"Location accepted by the style parameter" example:"plain.yaml"`
	Layers   int    `json:"layers" doc:"Number of declared layers"`
}

// StyleService loads style documents. Files of the styles directory are
// cached by name; fetched documents are cached up to maxRemoteStyles, oldest
// evicted first.
type StyleService struct {
	stylesDir string
	client    httpextra.Doer
	logger    *logpkg.Logger

	mu          sync.RWMutex
	cache       map[string]*style.Document
	remoteOrder []string
}

// NewStyleService creates a new style service. A nil client means http.DefaultClient.
func NewStyleService(logger *logpkg.Logger, dataDir string, client httpextra.Doer) *StyleService {
	if client == nil {
		client = http.DefaultClient
	}
	return &StyleService{
		stylesDir: filepath.Join(dataDir, "styles"),
		client:    client,
		logger:    logger,
		cache:     make(map[string]*style.Document),
	}
}

// Load returns the style document at location: the built-in default when
// location is empty, a fetched document for http(s) URLs, otherwise the
// named file of the styles directory. Paths are rejected with ErrInvalidStyle.
func (s *StyleService) Load(ctx context.Context, location string) (*style.Document, error) {
	if location == "" {
		return style.Default(), nil
	}
	if !isRemote(location) && !isStyleName(location) {
		return nil, fmt.Errorf("%w: %q must be a style file name or URL", ErrInvalidStyle, location)
	}

	s.mu.RLock()
	doc, ok := s.cache[location]
	s.mu.RUnlock()
	if ok {
		return doc, nil
	}

	data, err := s.read(ctx, location)
	if err != nil {
		s.logger.Error("loading style %s: %s", location, err)
		return nil, fmt.Errorf("loading style %s: %w", location, err)
	}
	doc, err = style.Parse(data)
	if err != nil {
		s.logger.Error("parsing style %s: %s", location, err)
		return nil, fmt.Errorf("loading style %s: %w", location, err)
	}
	for _, id := range style.DuplicateIDs(doc.Layers) {
		s.logger.Warn("style %s: layer id %q is declared more than once", location, id)
	}

	s.store(location, doc)
	return doc, nil
}

func (s *StyleService) store(location string, doc *style.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache[location]; !ok && isRemote(location) {
		if len(s.remoteOrder) >= maxRemoteStyles {
			delete(s.cache, s.remoteOrder[0])
			s.remoteOrder = s.remoteOrder[1:]
		}
		s.remoteOrder = append(s.remoteOrder, location)
	}
	s.cache[location] = doc
}

// List returns the stored style documents. Unparseable files are skipped.
func (s *StyleService) List(ctx context.Context) ([]StyleInfo, error) {
	entries, err := os.ReadDir(s.stylesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []StyleInfo{}, nil
		}
		return nil, err
	}

	styles := []StyleInfo{}
	for _, entry := range entries {
		if entry.IsDir() || !isStyleFile(entry.Name()) {
			continue
		}
		doc, err := s.Load(ctx, entry.Name())
		if err != nil {
			continue
		}
		styles = append(styles, StyleInfo{
			Name:     strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			Location: entry.Name(),
			Layers:   len(doc.Flatten()),
		})
	}
	return styles, nil
}

// Save validates and stores a style document under a name derived from name.
func (s *StyleService) Save(name string, data []byte) (StyleInfo, error) {
	id := generateID(name)
	if id == "" {
		return StyleInfo{}, fmt.Errorf("style name %q has no usable characters", name)
	}
	doc, err := style.Parse(data)
	if err != nil {
		return StyleInfo{}, err
	}

	if err := os.MkdirAll(s.stylesDir, 0755); err != nil {
		return StyleInfo{}, err
	}
	location := id + ".yaml"
	if err := os.WriteFile(filepath.Join(s.stylesDir, location), data, 0644); err != nil {
		return StyleInfo{}, err
	}

	s.store(location, doc)
	return StyleInfo{Name: id, Location: location, Layers: len(doc.Flatten())}, nil
}

// StylesDir returns the path to the styles directory.
func (s *StyleService) StylesDir() string {
	return s.stylesDir
}

func (s *StyleService) read(ctx context.Context, location string) ([]byte, error) {
	if !isRemote(location) {
		return os.ReadFile(filepath.Join(s.stylesDir, location))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := httpextra.CheckResponseCode(http.StatusOK, resp.StatusCode); err != nil {
		return nil, err
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxStyleBytes))
}

// isStyleName reports whether location is a bare style file name.
func isStyleName(location string) bool {
	return filepath.Base(location) == location && isStyleFile(location)
}

func isStyleFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// generateID creates a URL-safe ID from a name.
func generateID(name string) string {
	id := strings.ToLower(name)
	id = strings.ReplaceAll(id, " ", "_")
	var result strings.Builder
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			result.WriteRune(r)
		}
	}
	return result.String()
}
