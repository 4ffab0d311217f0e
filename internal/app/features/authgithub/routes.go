// internal/app/features/authgithub/routes.go
package authgithub

import "github.com/go-chi/chi/v5"

// Routes returns the router for GitHub OAuth endpoints.
// These routes are public (no authentication required).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// GET /auth/github - Initiate GitHub OAuth flow
	r.Get("/", h.ServeLogin)

	// GET /auth/github/callback - Handle GitHub OAuth callback
	r.Get("/callback", h.ServeCallback)

	return r
}
