// Package site serves the embedded browser client.
package site

import (
	"context"
	"net/http"
)

// Register attaches the browser client routes to mux. The client is served
// at / and talks to the JSON API on the same origin.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	files := http.FileServer(FS())
	mux.Handle("GET /{$}", files)
	mux.Handle("GET /static/", http.StripPrefix("/static", files))
}
