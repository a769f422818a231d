package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"payalias/internal/platform/net/middleware"
)

// StackOptions tunes CommonStack; zero values pick defaults
type StackOptions struct {
	Timeout        time.Duration
	SlowRequest    time.Duration
	AllowedOrigins []string
	// Extra runs after the common stack, closest to the handler
	Extra []func(http.Handler) http.Handler
}

// CommonStack is the baseline API middleware in order
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.SlowRequest <= 0 {
		o.SlowRequest = 2 * time.Second
	}
	stack := []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLog(middleware.AccessLogOptions{Slow: o.SlowRequest}),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.CORS(middleware.CORSOptions{AllowedOrigins: o.AllowedOrigins}),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/health"),
		middleware.StripSlashes(),
		middleware.Timeout(o.Timeout),
	}
	return append(stack, o.Extra...)
}
