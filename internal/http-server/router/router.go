package router

import (
	"net/http"

	"insta-poster/internal/http-server/handler/post"
	"insta-poster/internal/http-server/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	PostHandler *post.PostHandler
}

func SetupRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.LoggingMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				next.ServeHTTP(w, r)
			})
		})

		r.Route("/posts", func(r chi.Router) {
			r.Post("/", h.PostHandler.PostNext)
			r.Get("/", h.PostHandler.History)
		})

		r.Route("/queue", func(r chi.Router) {
			r.Post("/", h.PostHandler.Enqueue)
			r.Get("/next", h.PostHandler.InspectNext)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	return r
}
