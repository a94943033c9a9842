package handlers

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tastebud/apiserver/internal/storage"
)

// ServeImage streams a stored image back to the client.
func ServeImage(objectStorage storage.ObjectStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if objectStorage == nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		if key == "" || strings.Contains(key, "..") {
			writeError(w, http.StatusBadRequest, "invalid image key")
			return
		}

		object, err := objectStorage.Get(r.Context(), key)
		if err != nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		defer object.Close()

		if contentType := mime.TypeByExtension(path.Ext(key)); contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		if _, err := io.Copy(w, object); err != nil {
			return
		}
	}
}
