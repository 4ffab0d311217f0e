// internal/app/features/teams/routes.go
package teams

import (
	"github.com/dalemusser/hackhub/internal/app/system/auth"
	"github.com/dalemusser/hackhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(auth.RequireSignedIn)

	r.Post("/", h.ServeCreate)
	r.Post("/join", h.ServeJoin)
	r.Post("/leave", h.ServeLeave)
	r.Get("/mine", h.ServeMine)
	r.Get("/{code}", h.ServeTeam)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireLevel(models.LevelAdmin))
		pr.Get("/", h.ServeList)
		pr.Post("/{code}/deactivate", h.ServeDeactivate)
		pr.Post("/{code}/delete", h.ServeDelete)
		pr.Post("/{code}/points", h.ServePoints)
		pr.Post("/deactivate-all", h.ServeDeactivateAll)
		pr.Post("/sweep-auto-admit", h.ServeSweepAutoAdmit)
	})

	return r
}
