package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// SPA serves files from a static directory and falls back to the app's
// entry document for client-side routes. Unknown API paths get JSON 404s.
type SPA struct {
	staticDir string
	indexFile string
}

func NewSPA(staticDir, indexFile string) *SPA {
	return &SPA{staticDir: staticDir, indexFile: indexFile}
}

func isAPIPath(p string) bool {
	return p == "/api" || strings.HasPrefix(p, "/api/")
}

// NotFound is installed as the router's NotFound and MethodNotAllowed handler.
func (s *SPA) NotFound(w http.ResponseWriter, r *http.Request) {
	if isAPIPath(r.URL.Path) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "API endpoint not found"})
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}

	// Clean on a rooted path cannot climb above staticDir.
	name := filepath.Join(s.staticDir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		http.ServeFile(w, r, name)
		return
	}

	index := filepath.Join(s.staticDir, s.indexFile)
	if _, err := os.Stat(index); err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, index)
}
