// internal/app/features/checkin/routes.go
package checkin

import (
	"github.com/dalemusser/hackhub/internal/app/system/auth"
	"github.com/dalemusser/hackhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(auth.RequireSignedIn)
	r.Use(auth.RequireLevel(models.LevelCheckIn))

	r.Get("/user", h.ServeLookup)
	r.Post("/{id}", h.ServeCheckIn)
	r.Post("/{id}/undo", h.ServeUndo)

	return r
}
