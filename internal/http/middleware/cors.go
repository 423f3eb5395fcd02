package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows browsers on the given origins to call the API with
// credentials. "*" allows any origin. Preflight requests are answered
// directly with 204.
func CORS(origins []string, methods []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   methods,
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           600,
	})
	return c.Handler
}
