// internal/app/features/status/routes.go
package status

import (
	"github.com/dalemusser/hackhub/internal/app/system/auth"
	"github.com/dalemusser/hackhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(auth.RequireSignedIn)

	r.Get("/", h.ServeStatus)
	r.Post("/application", h.ServeSubmit)
	r.Post("/application/retract", h.ServeRetract)
	r.Post("/confirm", h.ServeConfirm)
	r.Post("/decline", h.ServeDecline)
	r.Post("/waiver", h.ServeWaiver)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireLevel(models.LevelAdmin))
		pr.Post("/invitation-reset/{id}", h.ServeInvitationReset)
	})

	return r
}
