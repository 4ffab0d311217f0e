// internal/app/features/register/routes.go
package register

import "github.com/go-chi/chi/v5"

// Routes returns the router for registration and email verification.
// All endpoints are public.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.ServeRegister)
	r.Post("/resend", h.ServeResend)
	r.Post("/verify", h.ServeVerify)
	r.Get("/verify/{token}", h.ServeVerifyToken)

	return r
}
