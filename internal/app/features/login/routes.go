// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

// Routes returns the router for password sign-in.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ServeLogin)
	return r
}
