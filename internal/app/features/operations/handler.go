// internal/app/features/operations/handler.go
//
// Package operations is the staff console: event settings, status
// release controls, the bulk end-of-cycle actions, and the email
// queues.
package operations

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/hackhub/internal/app/admission"
	"github.com/dalemusser/hackhub/internal/app/features/shared/respond"
	"github.com/dalemusser/hackhub/internal/app/release"
	"github.com/dalemusser/hackhub/internal/app/store/queries/admissionstats"
	"github.com/dalemusser/hackhub/internal/app/store/queries/teamleaderboard"
	settingsstore "github.com/dalemusser/hackhub/internal/app/store/settings"
	userstore "github.com/dalemusser/hackhub/internal/app/store/users"
	"github.com/dalemusser/hackhub/internal/app/system/auth"
	"github.com/dalemusser/hackhub/internal/app/system/timeouts"
	"github.com/dalemusser/hackhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB        *mongo.Database
	Users     *userstore.Store
	Settings  *settingsstore.Store
	Admission *admission.Service
	Release   *release.Service
	Log       *zap.Logger
}

func NewHandler(db *mongo.Database, users *userstore.Store, settings *settingsstore.Store, adm *admission.Service, rel *release.Service, logger *zap.Logger) *Handler {
	return &Handler{
		DB:        db,
		Users:     users,
		Settings:  settings,
		Admission: adm,
		Release:   rel,
		Log:       logger,
	}
}

func actorID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	user, _ := auth.CurrentUser(r)
	id, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "Invalid session.")
		return primitive.NilObjectID, false
	}
	return id, true
}

type settingsView struct {
	MaxParticipants int    `json:"max_participants"`
	TimeOpen        string `json:"time_open"`
	TimeClose       string `json:"time_close"`
	TimeConfirm     string `json:"time_confirm"`
}

// ServeSettings handles GET /operations/settings.
func (h *Handler) ServeSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "load settings")
	defer cancel()

	settings, err := h.Settings.Get(ctx)
	if err != nil {
		h.Log.Error("settings load failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Could not load settings.")
		return
	}

	respond.JSON(w, http.StatusOK, settingsView{
		MaxParticipants: settings.MaxParticipants,
		TimeOpen:        settings.TimeOpen.UTC().Format(time.RFC3339),
		TimeClose:       settings.TimeClose.UTC().Format(time.RFC3339),
		TimeConfirm:     settings.TimeConfirm.UTC().Format(time.RFC3339),
	})
}

type updateSettingsRequest struct {
	MaxParticipants int    `json:"max_participants"`
	TimeOpen        string `json:"time_open"`
	TimeClose       string `json:"time_close"`
	TimeConfirm     string `json:"time_confirm"`
}

// ServeUpdateSettings handles PUT /operations/settings. Times are
// RFC3339.
func (h *Handler) ServeUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.MaxParticipants < 1 {
		respond.Error(w, http.StatusBadRequest, "Max participants must be at least 1.")
		return
	}

	timeOpen, err := time.Parse(time.RFC3339, req.TimeOpen)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "time_open must be an RFC3339 timestamp.")
		return
	}
	timeClose, err := time.Parse(time.RFC3339, req.TimeClose)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "time_close must be an RFC3339 timestamp.")
		return
	}
	timeConfirm, err := time.Parse(time.RFC3339, req.TimeConfirm)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "time_confirm must be an RFC3339 timestamp.")
		return
	}
	if !timeClose.After(timeOpen) {
		respond.Error(w, http.StatusBadRequest, "time_close must be after time_open.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update settings")
	defer cancel()

	if err := h.Settings.Update(ctx, req.MaxParticipants, timeOpen.UTC(), timeClose.UTC(), timeConfirm.UTC()); err != nil {
		h.Log.Error("settings update failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Could not update settings.")
		return
	}

	h.ServeSettings(w, r)
}

// setReleased backs the per-user release and hide endpoints.
func (h *Handler) setReleased(w http.ResponseWriter, r *http.Request, released bool) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid user ID.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "set status released")
	defer cancel()

	if err := h.Release.SetReleased(ctx, actor, userID, released); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "User not found.")
			return
		}
		h.Log.Error("release update failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Could not update release state.")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"released": released})
}

// ServeRelease handles POST /operations/release/{id}.
func (h *Handler) ServeRelease(w http.ResponseWriter, r *http.Request) {
	h.setReleased(w, r, true)
}

// ServeHide handles POST /operations/hide/{id}.
func (h *Handler) ServeHide(w http.ResponseWriter, r *http.Request) {
	h.setReleased(w, r, false)
}

// decide backs the manual decision endpoints. The staff member's email
// is recorded as the deciding party.
func (h *Handler) decide(w http.ResponseWriter, r *http.Request, operation string, run func(ctx context.Context, decidedBy string, userID primitive.ObjectID) (*models.User, error)) {
	staff, _ := auth.CurrentUser(r)
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid user ID.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, operation)
	defer cancel()

	user, err := run(ctx, staff.Email, userID)
	if err != nil {
		if errors.Is(err, userstore.ErrNoMatch) {
			respond.Error(w, http.StatusConflict,
				"Only verified, undecided applicants can be decided.")
			return
		}
		h.Log.Error("manual decision failed", zap.String("operation", operation), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Decision failed.")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"admitted":   user.Status.Admitted,
		"rejected":   user.Status.Rejected,
		"waitlisted": user.Status.Waitlisted,
	})
}

// ServeAdmit handles POST /operations/admit/{id}. The participant cap
// applies: an admit at capacity lands on the waitlist.
func (h *Handler) ServeAdmit(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "manual admit", h.Admission.Admit)
}

// ServeReject handles POST /operations/reject/{id}.
func (h *Handler) ServeReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "manual reject", h.Admission.Reject)
}

// ServeWaitlist handles POST /operations/waitlist/{id}.
func (h *Handler) ServeWaitlist(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "manual waitlist", h.Admission.Waitlist)
}

// bulk runs one of the count-returning sweep operations.
func (h *Handler) bulk(w http.ResponseWriter, r *http.Request, operation string, run func(ctx context.Context, actor primitive.ObjectID) (int64, error)) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, operation)
	defer cancel()

	count, err := run(ctx, actor)
	if err != nil {
		h.Log.Error("bulk operation failed", zap.String("operation", operation), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Operation failed.")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"count": count})
}

// ServeReleaseAll handles POST /operations/release-all.
func (h *Handler) ServeReleaseAll(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, "release all", h.Release.ReleaseAll)
}

// ServeReleaseAccepted handles POST /operations/release-accepted.
func (h *Handler) ServeReleaseAccepted(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, "release accepted", h.Release.ReleaseAccepted)
}

// ServeReleaseWaitlisted handles POST /operations/release-waitlisted.
func (h *Handler) ServeReleaseWaitlisted(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, "release waitlisted", h.Release.ReleaseWaitlisted)
}

// ServeReleaseRejected handles POST /operations/release-rejected.
func (h *Handler) ServeReleaseRejected(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, "release rejected", h.Release.ReleaseRejected)
}

// ServeHideAll handles POST /operations/hide-all.
func (h *Handler) ServeHideAll(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, "hide all", h.Release.HideAll)
}

// ServePushBackRejected handles POST /operations/push-back-rejected.
func (h *Handler) ServePushBackRejected(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, "push back rejected", h.Release.PushBackRejected)
}

// ServeRejectUndecided handles POST /operations/reject-undecided.
func (h *Handler) ServeRejectUndecided(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, "reject undecided", h.Release.RejectUndecided)
}

// ServeQueueLaggers handles POST /operations/queue-laggers.
func (h *Handler) ServeQueueLaggers(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, "queue laggers", h.Release.QueueLaggers)
}

// ServeQueues handles GET /operations/queues: pending count per queue.
func (h *Handler) ServeQueues(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "queue stats")
	defer cancel()

	stats, err := h.Settings.QueueStats(ctx)
	if err != nil {
		h.Log.Error("queue stats failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Could not load queue stats.")
		return
	}

	respond.JSON(w, http.StatusOK, stats)
}

// ServeFlushQueue handles POST /operations/queues/{kind}/flush.
func (h *Handler) ServeFlushQueue(w http.ResponseWriter, r *http.Request) {
	kind := models.EmailKind(chi.URLParam(r, "kind"))
	known := false
	for _, k := range models.EmailKinds {
		if k == kind {
			known = true
			break
		}
	}
	if !known {
		respond.Error(w, http.StatusBadRequest, "Unknown email queue.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "flush queue")
	defer cancel()

	count, err := h.Release.FlushQueue(ctx, kind)
	if err != nil {
		h.Log.Error("queue flush failed", zap.String("kind", string(kind)), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Could not flush the queue.")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"kind":       string(kind),
		"recipients": count,
	})
}

// ServeStats handles GET /operations/stats with the admission funnel.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admission stats")
	defer cancel()

	stats, err := admissionstats.Collect(ctx, h.DB)
	if err != nil {
		h.Log.Error("admission stats failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Could not load stats.")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"registered": stats.Registered,
		"submitted":  stats.Submitted,
		"pending":    stats.Pending(),
		"admitted":   stats.Admitted,
		"rejected":   stats.Rejected,
		"waitlisted": stats.Waitlisted,
		"confirmed":  stats.Confirmed,
		"declined":   stats.Declined,
		"checked_in": stats.CheckedIn,
	})
}

// ServeLeaderboard handles GET /operations/leaderboard.
func (h *Handler) ServeLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "team leaderboard")
	defer cancel()

	rows, err := teamleaderboard.Top(ctx, h.DB, 0)
	if err != nil {
		h.Log.Error("leaderboard query failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Could not load the leaderboard.")
		return
	}
	if rows == nil {
		rows = []teamleaderboard.Row{}
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"teams": rows,
		"count": len(rows),
	})
}
