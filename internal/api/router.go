// internal/api/router.go
package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the store's HTTP surface. With no configured keys the
// server runs open, which is only sensible on a loopback dev setup.
func NewRouter(h *Handler, apiKeys []string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(requireAPIKey(apiKeys))

		r.Post("/records", h.HandleInsert)
		r.Get("/records", h.HandleList)
		r.Delete("/records/{id}", h.HandleDelete)
		r.Get("/feed", h.HandleFeed)
	})

	return r
}

// requireAPIKey checks X-API-Key, falling back to the api_key query parameter
// for websocket viewers that cannot set headers.
func requireAPIKey(keys []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(keys) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			presented := r.Header.Get("X-API-Key")
			if presented == "" {
				presented = r.URL.Query().Get("api_key")
			}
			for _, key := range keys {
				if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
		})
	}
}
