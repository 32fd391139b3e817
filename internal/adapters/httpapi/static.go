package httpapi

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// staticExtensions are the only file types served from the static directory,
// which may also hold the database or spreadsheet.
var staticExtensions = map[string]bool{
	".html":  true,
	".js":    true,
	".css":   true,
	".png":   true,
	".jpg":   true,
	".jpeg":  true,
	".svg":   true,
	".ico":   true,
	".webp":  true,
	".woff":  true,
	".woff2": true,
}

type staticFiles struct {
	dir string
}

// page serves a fixed file.
func (s staticFiles) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.serve(w, r, name)
	}
}

// file serves the file named by the request path.
func (s staticFiles) file(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, r.URL.Path)
}

func (s staticFiles) serve(w http.ResponseWriter, r *http.Request, name string) {
	clean := path.Clean("/" + name)
	base := path.Base(clean)
	if strings.HasPrefix(base, ".") || !staticExtensions[strings.ToLower(path.Ext(clean))] {
		writeFailure(w, http.StatusNotFound, msgFileNotFound)
		return
	}

	full := filepath.Join(s.dir, filepath.FromSlash(clean))
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		writeFailure(w, http.StatusNotFound, msgFileNotFound)
		return
	}
	http.ServeFile(w, r, full)
}
