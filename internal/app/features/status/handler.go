// internal/app/features/status/handler.go
package status

import (
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/hackhub/internal/app/admission"
	"github.com/dalemusser/hackhub/internal/app/features/shared/respond"
	settingsstore "github.com/dalemusser/hackhub/internal/app/store/settings"
	userstore "github.com/dalemusser/hackhub/internal/app/store/users"
	"github.com/dalemusser/hackhub/internal/app/system/auth"
	"github.com/dalemusser/hackhub/internal/app/system/timeouts"
	"github.com/dalemusser/hackhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves a hacker's own application status and the actions they
// can take on it: submitting, confirming, declining, signing the waiver.
type Handler struct {
	Users     *userstore.Store
	Settings  *settingsstore.Store
	Admission *admission.Service
	Log       *zap.Logger
}

func NewHandler(users *userstore.Store, settings *settingsstore.Store, adm *admission.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Users:     users,
		Settings:  settings,
		Admission: adm,
		Log:       logger,
	}
}

// statusView is what a hacker sees about their own application. The
// decision fields stay "pending" until staff release the status, so an
// early database peek never leaks an unannounced outcome.
type statusView struct {
	Verified  bool   `json:"verified"`
	Submitted bool   `json:"submitted"`
	Decision  string `json:"decision"`
	Confirmed bool   `json:"confirmed"`
	Declined  bool   `json:"declined"`
	ConfirmBy string `json:"confirm_by,omitempty"`
	CheckedIn bool   `json:"checked_in"`
	Waiver    bool   `json:"waiver"`
	TeamCode  string `json:"team_code,omitempty"`
	Points    int    `json:"points"`
}

func viewOf(u *models.User) statusView {
	v := statusView{
		Verified:  u.Permissions.Verified,
		Submitted: u.Status.SubmittedApplication,
		Decision:  "pending",
		CheckedIn: u.Status.CheckedIn,
		Waiver:    u.Status.Waiver,
		TeamCode:  u.TeamCode,
		Points:    u.PointsTotal(),
	}
	if !u.Status.StatusReleased {
		return v
	}
	switch {
	case u.Status.Admitted:
		v.Decision = "admitted"
		v.Confirmed = u.Status.Confirmed
		v.Declined = u.Status.Declined
		if u.Status.ConfirmBy != nil {
			v.ConfirmBy = u.Status.ConfirmBy.UTC().Format(time.RFC3339)
		}
	case u.Status.Rejected:
		v.Decision = "rejected"
	case u.Status.Waitlisted:
		v.Decision = "waitlisted"
	}
	return v
}

func (h *Handler) currentUserID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	user, _ := auth.CurrentUser(r)
	id, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "Invalid session.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// ServeStatus handles GET /status.
func (h *Handler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "load status")
	defer cancel()

	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Account not found.")
			return
		}
		h.Log.Error("status load failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Could not load status.")
		return
	}

	respond.JSON(w, http.StatusOK, viewOf(user))
}

// setSubmitted flips the application-submitted flag inside the open
// window. Decided applications can no longer be changed.
func (h *Handler) setSubmitted(w http.ResponseWriter, r *http.Request, submitted bool) {
	id, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "set submitted")
	defer cancel()

	settings, err := h.Settings.Get(ctx)
	if err != nil {
		h.Log.Error("settings load failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Could not load event settings.")
		return
	}
	now := time.Now().UTC()
	if now.Before(settings.TimeOpen) || now.After(settings.TimeClose) {
		respond.Error(w, http.StatusForbidden, "Applications are not open.")
		return
	}

	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, http.StatusNotFound, "Account not found.")
		return
	}
	if !user.Permissions.Verified {
		respond.Error(w, http.StatusForbidden, "Verify your email before applying.")
		return
	}
	if user.Decided() {
		respond.Error(w, http.StatusConflict, "Your application has already been decided.")
		return
	}

	if err := h.Users.SetSubmitted(ctx, id, submitted); err != nil {
		h.Log.Error("set submitted failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Could not update application.")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"submitted": submitted})
}

// ServeSubmit handles POST /status/application.
func (h *Handler) ServeSubmit(w http.ResponseWriter, r *http.Request) {
	h.setSubmitted(w, r, true)
}

// ServeRetract handles POST /status/application/retract.
func (h *Handler) ServeRetract(w http.ResponseWriter, r *http.Request) {
	h.setSubmitted(w, r, false)
}

// ServeConfirm handles POST /status/confirm. Only works for a released,
// admitted user inside their confirmation deadline.
func (h *Handler) ServeConfirm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.currentUserID(w, r)
	if !ok {
		return
	}
	if !h.requireReleased(w, r, id) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "confirm spot")
	defer cancel()

	user, err := h.Admission.Confirm(ctx, id)
	if err != nil {
		if errors.Is(err, userstore.ErrNoMatch) {
			respond.Error(w, http.StatusConflict,
				"Your spot cannot be confirmed: you may not be admitted, may have declined, or the deadline has passed.")
			return
		}
		h.Log.Error("confirm failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Confirm failed.")
		return
	}

	respond.JSON(w, http.StatusOK, viewOf(user))
}

// ServeDecline handles POST /status/decline.
func (h *Handler) ServeDecline(w http.ResponseWriter, r *http.Request) {
	id, ok := h.currentUserID(w, r)
	if !ok {
		return
	}
	if !h.requireReleased(w, r, id) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "decline spot")
	defer cancel()

	user, err := h.Admission.Decline(ctx, id)
	if err != nil {
		if errors.Is(err, userstore.ErrNoMatch) {
			respond.Error(w, http.StatusConflict, "There is no admitted spot to decline.")
			return
		}
		h.Log.Error("decline failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Decline failed.")
		return
	}

	respond.JSON(w, http.StatusOK, viewOf(user))
}

// requireReleased guards confirm/decline so a user cannot act on a
// decision they have not officially been shown yet.
func (h *Handler) requireReleased(w http.ResponseWriter, r *http.Request, id primitive.ObjectID) bool {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "check release")
	defer cancel()

	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, http.StatusNotFound, "Account not found.")
		return false
	}
	if !user.Status.StatusReleased {
		respond.Error(w, http.StatusForbidden, "Your status has not been released yet.")
		return false
	}
	return true
}

// ServeWaiver handles POST /status/waiver: records the liability waiver
// as signed for the current user.
func (h *Handler) ServeWaiver(w http.ResponseWriter, r *http.Request) {
	id, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "sign waiver")
	defer cancel()

	if err := h.Users.SetWaiver(ctx, id, true); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Account not found.")
			return
		}
		h.Log.Error("waiver update failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Could not record waiver.")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"waiver": true})
}

// ServeInvitationReset handles POST /status/invitation-reset/{id}.
// Staff-only: re-opens a lapsed or declined invitation with a fresh
// confirmation deadline.
func (h *Handler) ServeInvitationReset(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	actorID, err := primitive.ObjectIDFromHex(actor.ID)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "Invalid session.")
		return
	}

	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid user ID.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "reset invitation")
	defer cancel()

	user, err := h.Admission.ResetInvitation(ctx, actorID, userID)
	if err != nil {
		if errors.Is(err, userstore.ErrNoMatch) {
			respond.Error(w, http.StatusConflict, "Only admitted users can have their invitation reset.")
			return
		}
		h.Log.Error("invitation reset failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Invitation reset failed.")
		return
	}

	confirmBy := ""
	if user.Status.ConfirmBy != nil {
		confirmBy = user.Status.ConfirmBy.UTC().Format(time.RFC3339)
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"confirmed":  user.Status.Confirmed,
		"declined":   user.Status.Declined,
		"confirm_by": confirmBy,
	})
}
