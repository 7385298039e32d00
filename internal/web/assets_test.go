package web

import (
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
)

// unreadableFS stats fine but fails every read.
type unreadableFS struct{ fstest.MapFS }

func (f unreadableFS) Open(name string) (fs.File, error) {
	return nil, errors.New("disk on fire")
}

func (f unreadableFS) ReadFile(name string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func (f unreadableFS) Stat(name string) (fs.FileInfo, error) {
	return f.MapFS.Stat(name)
}

func TestAssets_ServeHTTP(t *testing.T) {
	assets := NewAssetsFS(fstest.MapFS{
		"index.html":     {Data: []byte("<h1>hola</h1>")},
		"app.js":         {Data: []byte("console.log(1)")},
		"styles.css":     {Data: []byte("body{}")},
		"plantilla.XLSX": {Data: []byte("xlsx")},
		"notes":          {Data: []byte("plain")},
		"img":            {Mode: fs.ModeDir},
	})

	tests := []struct {
		name     string
		target   string
		wantCode int
		wantType string
		wantBody string
	}{
		{"root is index", "/", http.StatusOK, "text/html", "<h1>hola</h1>"},
		{"query ignored", "/app.js?v=3", http.StatusOK, "text/javascript", "console.log(1)"},
		{"css", "/styles.css", http.StatusOK, "text/css", "body{}"},
		{"extension case", "/plantilla.XLSX", http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx"},
		{"unknown extension", "/notes", http.StatusOK, "text/plain", "plain"},
		{"missing", "/nope.html", http.StatusNotFound, "", "File not found"},
		{"directory", "/img", http.StatusNotFound, "", "File not found"},
		{"traversal stays inside", "/../../etc/passwd", http.StatusNotFound, "", "File not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			assets.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantType != "" && rec.Header().Get("Content-Type") != tt.wantType {
				t.Errorf("Content-Type = %q, want %q", rec.Header().Get("Content-Type"), tt.wantType)
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestAssets_ReadFailure(t *testing.T) {
	assets := NewAssetsFS(unreadableFS{fstest.MapFS{
		"index.html": {Data: []byte("x")},
	}})

	rec := httptest.NewRecorder()
	assets.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestAssetName(t *testing.T) {
	tests := map[string]string{
		"/":               "index.html",
		"":                "index.html",
		"/a/../b.js":      "b.js",
		"/../secret":      "secret",
		"/css/site.css":   "css/site.css",
		"//double//slash": "double/slash",
	}
	for in, want := range tests {
		if got := assetName(in); got != want {
			t.Errorf("assetName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewAssets_Embedded(t *testing.T) {
	assets, err := NewAssets("")
	if err != nil {
		t.Fatalf("NewAssets() error = %v", err)
	}
	for _, name := range []string{"index.html", "app.js", "styles.css"} {
		if _, err := fs.Stat(assets.files, name); err != nil {
			t.Errorf("embedded %s: %v", name, err)
		}
	}
}
