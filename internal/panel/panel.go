package panel

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"path"
)

//go:embed web/*
var content embed.FS

// Handler returns an http.Handler that serves the converter panel.
//
// When dir names an existing directory, assets are read from it on every
// request so the page can be edited without a rebuild. Otherwise the
// embedded copy is served.
//
// Page routes without a file extension that match no asset get index.html.
// Missing assets (app.js, style.css, ...) are 404.
func Handler(dir string) http.Handler {
	assets := assetFS(dir)
	files := http.FileServer(assets)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Asset names are not content-hashed; always revalidate.
		w.Header().Set("Cache-Control", "no-cache, must-revalidate")

		name := path.Clean("/" + r.URL.Path)
		if name != "/" && path.Ext(name) == "" && !exists(assets, name) {
			r.URL.Path = "/"
		}
		files.ServeHTTP(w, r)
	})
}

// assetFS picks the on-disk directory when usable, the embedded copy otherwise.
func assetFS(dir string) http.FileSystem {
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return http.Dir(dir)
		}
	}

	web, err := fs.Sub(content, "web")
	if err != nil {
		// web/* is embedded at build time; this only fails on a broken build.
		panic("panel: embedded assets missing: " + err.Error())
	}
	return http.FS(web)
}

// exists reports whether name opens in fsys.
func exists(fsys http.FileSystem, name string) bool {
	f, err := fsys.Open(name)
	if err != nil {
		return false
	}
	f.Close() //nolint:errcheck // read-only probe
	return true
}
