package http

import (
	"errors"
	"io/fs"
	"net/http"
	"strings"

	"github.com/sispat/sispat/internal/guard"
)

// SPAHandler serves a Single Page Application from a static filesystem.
// Existing files are served as-is; every other path is a client-side view
// and gets index.html, behind Protect unless it is the login page.
type SPAHandler struct {
	StaticFS fs.FS
	Protect  func(http.Handler) http.Handler
}

func (h SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")

	if path != "" {
		f, err := h.StaticFS.Open(path)
		if err == nil {
			stat, statErr := f.Stat()
			f.Close()
			if statErr == nil && !stat.IsDir() {
				http.FileServer(http.FS(h.StaticFS)).ServeHTTP(w, r)
				return
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}

	index := http.HandlerFunc(h.serveIndex)
	if r.URL.Path == guard.LoginPath || h.Protect == nil {
		index.ServeHTTP(w, r)
		return
	}
	h.Protect(index).ServeHTTP(w, r)
}

func (h SPAHandler) serveIndex(w http.ResponseWriter, _ *http.Request) {
	content, err := fs.ReadFile(h.StaticFS, "index.html")
	if err != nil {
		http.Error(w, "index.html not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}
