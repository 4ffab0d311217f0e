// internal/app/features/operations/routes.go
package operations

import (
	"github.com/dalemusser/hackhub/internal/app/system/auth"
	"github.com/dalemusser/hackhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(auth.RequireSignedIn)
	r.Use(auth.RequireLevel(models.LevelAdmin))

	r.Get("/settings", h.ServeSettings)
	r.Put("/settings", h.ServeUpdateSettings)

	r.Post("/admit/{id}", h.ServeAdmit)
	r.Post("/reject/{id}", h.ServeReject)
	r.Post("/waitlist/{id}", h.ServeWaitlist)

	r.Post("/release/{id}", h.ServeRelease)
	r.Post("/hide/{id}", h.ServeHide)
	r.Post("/release-all", h.ServeReleaseAll)
	r.Post("/release-accepted", h.ServeReleaseAccepted)
	r.Post("/release-waitlisted", h.ServeReleaseWaitlisted)
	r.Post("/release-rejected", h.ServeReleaseRejected)
	r.Post("/hide-all", h.ServeHideAll)
	r.Post("/push-back-rejected", h.ServePushBackRejected)
	r.Post("/reject-undecided", h.ServeRejectUndecided)
	r.Post("/queue-laggers", h.ServeQueueLaggers)

	r.Get("/queues", h.ServeQueues)
	r.Post("/queues/{kind}/flush", h.ServeFlushQueue)

	r.Get("/stats", h.ServeStats)
	r.Get("/leaderboard", h.ServeLeaderboard)

	return r
}
