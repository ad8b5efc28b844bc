// Package api exposes companies, fiscal closes and the index series over HTTP.
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewServer creates an HTTP server with all routes configured.
func NewServer(port string, h *Handler, adminAPIKey string) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      NewRouter(h, adminAPIKey),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewRouter creates the chi router. When adminAPIKey is set, writes require it
// as a bearer token.
func NewRouter(h *Handler, adminAPIKey string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/companies/{cuit}", func(r chi.Router) {
			r.Get("/", h.GetCompany)
			r.Get("/assets", h.ListAssets)
			r.Get("/close", h.GetClose)
		})

		r.Route("/indices", func(r chi.Router) {
			r.Get("/", h.ListIndices)
			r.Get("/coefficient", h.GetCoefficient)
			r.Post("/missing", h.MissingIndices)

			r.Group(func(r chi.Router) {
				if adminAPIKey != "" {
					r.Use(func(next http.Handler) http.Handler { return requireAuth(adminAPIKey, next) })
				}
				r.Put("/", h.PutIndex)
			})
		})
	})

	return r
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
