package api

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticFiles embed.FS

// handleRoot serves the embedded single-page UI. Unknown paths fall through
// to the file server, which answers 404 for anything outside static/.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	http.FileServerFS(sub).ServeHTTP(w, r)
}
