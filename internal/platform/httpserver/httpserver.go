// Package httpserver builds the process HTTP server.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server with header and idle limits. WriteTimeout stays unset
// since result streams outlive any fixed write deadline.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    64 << 10,
	}
}
