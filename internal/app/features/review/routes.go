// internal/app/features/review/routes.go
package review

import (
	"github.com/dalemusser/hackhub/internal/app/system/auth"
	"github.com/dalemusser/hackhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(auth.RequireSignedIn)
	r.Use(auth.RequireLevel(models.LevelReviewer))

	r.Get("/queue", h.ServeQueue)
	r.Post("/vote/{id}", h.ServeVote)
	r.Post("/reset-votes/{id}", h.ServeResetVotes)
	r.Post("/reset/{id}", h.ServeReset)

	return r
}
