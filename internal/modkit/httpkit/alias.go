// Package httpkit is the handler and routing surface modules use instead of importing platform/net/http
package httpkit

import (
	"net/http"

	phttp "payalias/internal/platform/net/http"
)

type (
	// Router is the platform router seam
	Router = phttp.Router
	// Handler is the platform handler type
	Handler = phttp.Handler
	// Response lets a handler pick its status
	Response = phttp.Response
	// Envelope is the JSON body of every response
	Envelope = phttp.Envelope
)

// OK returns a 200 response
func OK(data any) Response { return phttp.OK(data) }

// NoContent returns a 204 response
func NoContent() Response { return phttp.NoContent() }

// Error returns a response mapped from err
func Error(err error) Response { return phttp.Error(err) }

// JSON binds and validates the body into T before calling fn
func JSON[T any](fn func(*http.Request, T) (any, error)) Handler { return phttp.JSONHandler(fn) }

// Call adapts a handler that reads no body
func Call(fn func(*http.Request) (any, error)) Handler { return phttp.NoBodyHandler(fn) }
