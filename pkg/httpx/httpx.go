// Package httpx lets lean endpoints be written once and served by either
// net/http or fasthttp. The main server stays on net/http; the probe sidecar
// serves the same handler shape over fasthttp.
package httpx

import (
	"context"
	"io"
	"net/http"
)

// Request is the unified request representation used by handlers.
type Request struct {
	Ctx        context.Context
	Method     string
	Path       string
	Header     http.Header
	Body       io.ReadCloser
	RemoteAddr string
	// Raw holds the underlying transport-specific request object for
	// escape hatches.
	Raw interface{}
}

// ResponseWriter is the subset of http.ResponseWriter semantics adapters
// must provide.
type ResponseWriter interface {
	Header() http.Header
	Write([]byte) (int, error)
	WriteHeader(status int)
}

// HandlerFunc is the transport-neutral handler signature.
type HandlerFunc func(w ResponseWriter, r *Request)
