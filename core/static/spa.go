package static

import (
	"bytes"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"
)

type spaConfig struct {
	indexFile    string
	excludePaths []string
	immutable    []string
	modTime      time.Time
}

// SPAOption configures SPA serving behavior.
type SPAOption func(*spaConfig)

// WithIndex sets the index file for the SPA (default: "index.html").
func WithIndex(indexFile string) SPAOption {
	return func(c *spaConfig) {
		c.indexFile = strings.TrimPrefix(indexFile, "/")
	}
}

// WithExcludePaths sets path prefixes answered with 404 instead of the
// index fallback (default: "/api").
func WithExcludePaths(paths ...string) SPAOption {
	return func(c *spaConfig) {
		c.excludePaths = paths
	}
}

// WithImmutablePrefixes sets path prefixes of content-hashed build output
// that may be cached forever (default: "/assets/").
func WithImmutablePrefixes(prefixes ...string) SPAOption {
	return func(c *spaConfig) {
		c.immutable = prefixes
	}
}

// SPA serves a single page application from fsys. Existing files are served
// as is; any other path falls back to the index so the client router can
// take over. The index is read once and always sent with no-cache.
func SPA(fsys fs.FS, opts ...SPAOption) (http.Handler, error) {
	cfg := &spaConfig{
		indexFile:    "index.html",
		excludePaths: []string{"/api"},
		immutable:    []string{"/assets/"},
		modTime:      time.Now(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	info, err := fs.Stat(fsys, cfg.indexFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNoIndex, cfg.indexFile, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrIndexDir, cfg.indexFile)
	}
	index, err := fs.ReadFile(fsys, cfg.indexFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoIndex, err)
	}

	return &spa{cfg: cfg, fsys: fsys, files: http.FileServerFS(fsys), index: index}, nil
}

type spa struct {
	cfg   *spaConfig
	fsys  fs.FS
	files http.Handler
	index []byte
}

func (s *spa) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	urlPath := path.Clean("/" + r.URL.Path)
	for _, exclude := range s.cfg.excludePaths {
		if urlPath == exclude || strings.HasPrefix(urlPath, strings.TrimSuffix(exclude, "/")+"/") {
			http.NotFound(w, r)
			return
		}
	}

	name := strings.TrimPrefix(urlPath, "/")
	if name != "" && name != s.cfg.indexFile {
		if info, err := fs.Stat(s.fsys, name); err == nil && !info.IsDir() {
			if s.isImmutable(urlPath) {
				w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
			}
			s.files.ServeHTTP(w, r)
			return
		}
	}

	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, s.cfg.indexFile, s.cfg.modTime, bytes.NewReader(s.index))
}

func (s *spa) isImmutable(p string) bool {
	for _, prefix := range s.cfg.immutable {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}
