package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// CORSConfig configures cross-origin access.
type CORSConfig struct {
	// AllowedOrigins lists exact origins; "*" admits any origin.
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// CORS answers preflight requests and decorates responses for allowed origins.
// Credentials are allowed, so the caller's origin is echoed even for "*".
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	origins, allowAny := normalizeOrigins(cfg.AllowedOrigins)

	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}
	headers := cfg.AllowedHeaders
	if len(headers) == 0 {
		headers = []string{"Content-Type", "Authorization", RequestIDHeader}
	}

	opts := cors.Options{
		AllowedMethods:   methods,
		AllowedHeaders:   headers,
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           cfg.MaxAge,
	}
	switch {
	case allowAny:
		opts.AllowOriginFunc = func(r *http.Request, origin string) bool { return true }
	case len(origins) == 0:
		opts.AllowOriginFunc = func(r *http.Request, origin string) bool { return false }
	default:
		opts.AllowedOrigins = origins
	}

	return cors.Handler(opts)
}

func normalizeOrigins(raw []string) ([]string, bool) {
	origins := make([]string, 0, len(raw))
	for _, origin := range raw {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		switch origin {
		case "":
			continue
		case "*":
			return nil, true
		}
		origins = append(origins, origin)
	}
	return origins, false
}
