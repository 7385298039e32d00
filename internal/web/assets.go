package web

import (
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
)

//go:embed static
var staticFiles embed.FS

var mimeTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "text/javascript",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".json": "application/json",
	".csv":  "text/csv",
}

// Assets serves the front end files. "/" maps to index.html, the query
// string is ignored and the content type comes from the file extension.
type Assets struct {
	files fs.FS
}

// NewAssets serves dir when set and the embedded files otherwise.
func NewAssets(dir string) (*Assets, error) {
	if dir != "" {
		return &Assets{files: os.DirFS(dir)}, nil
	}
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, err
	}
	return &Assets{files: sub}, nil
}

// NewAssetsFS serves files from fsys.
func NewAssetsFS(fsys fs.FS) *Assets {
	return &Assets{files: fsys}
}

func (a *Assets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := assetName(r.URL.Path)

	info, err := fs.Stat(a.files, name)
	if err != nil || info.IsDir() {
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Debug("asset stat failed", "path", name, "error", err)
		}
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("File not found"))
		return
	}

	data, err := fs.ReadFile(a.files, name)
	if err != nil {
		slog.Error("asset read failed", "path", name, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
		return
	}

	w.Header().Set("Content-Type", contentType(name))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// assetName maps a URL path to a name inside the file system. Cleaning the
// rooted path removes any ".." before the root is stripped.
func assetName(urlPath string) string {
	clean := path.Clean("/" + urlPath)
	if clean == "/" {
		return "index.html"
	}
	return strings.TrimPrefix(clean, "/")
}

func contentType(name string) string {
	if ct, ok := mimeTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return "text/plain"
}
