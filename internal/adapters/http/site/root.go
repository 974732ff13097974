// Package site serves the embedded operator documentation under /docs/.
package site

import (
	"context"
	"net/http"
)

// Register attaches the embedded documentation site routes to mux.
//
//	GET /docs   -> redirect to /docs/
//	GET /docs/* -> embedded pages
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	files := http.StripPrefix("/docs", http.FileServer(FS()))
	mux.Handle("/docs/", files)
	mux.HandleFunc("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/", http.StatusMovedPermanently)
	})
}
