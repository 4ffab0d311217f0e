// internal/app/features/checkin/handler.go
//
// Package checkin is the badge desk: look a participant up by email,
// check them in, and undo mistakes.
package checkin

import (
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/hackhub/internal/app/features/shared/respond"
	userstore "github.com/dalemusser/hackhub/internal/app/store/users"
	"github.com/dalemusser/hackhub/internal/app/system/normalize"
	"github.com/dalemusser/hackhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Log: logger}
}

type participantView struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Admitted    bool   `json:"admitted"`
	Confirmed   bool   `json:"confirmed"`
	Waiver      bool   `json:"waiver"`
	CheckedIn   bool   `json:"checked_in"`
	CheckInTime string `json:"check_in_time,omitempty"`
}

// ServeLookup handles GET /checkin/user?email=... for the badge desk.
func (h *Handler) ServeLookup(w http.ResponseWriter, r *http.Request) {
	email := normalize.Email(query.Get(r, "email"))
	if email == "" {
		respond.Error(w, http.StatusBadRequest, "An email is required.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "check-in lookup")
	defer cancel()

	user, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "No participant with that email.")
			return
		}
		h.Log.Error("check-in lookup failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Lookup failed.")
		return
	}

	view := participantView{
		ID:        user.ID.Hex(),
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Admitted:  user.Status.Admitted,
		Confirmed: user.Status.Confirmed,
		Waiver:    user.Status.Waiver,
		CheckedIn: user.Status.CheckedIn,
	}
	if user.CheckInTime != nil {
		view.CheckInTime = user.CheckInTime.UTC().Format(time.RFC3339)
	}
	respond.JSON(w, http.StatusOK, view)
}

// ServeCheckIn handles POST /checkin/{id}. Only admitted participants
// get a badge.
func (h *Handler) ServeCheckIn(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid user ID.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "check in")
	defer cancel()

	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "User not found.")
			return
		}
		h.Log.Error("check-in load failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Check-in failed.")
		return
	}
	if !user.Status.Admitted || user.Status.Declined {
		respond.Error(w, http.StatusConflict, "This participant is not admitted.")
		return
	}

	if err := h.Users.SetCheckedIn(ctx, userID); err != nil {
		h.Log.Error("check-in failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Check-in failed.")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"checked_in": true})
}

// ServeUndo handles POST /checkin/{id}/undo.
func (h *Handler) ServeUndo(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid user ID.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "undo check-in")
	defer cancel()

	if err := h.Users.ClearCheckedIn(ctx, userID); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "User not found.")
			return
		}
		h.Log.Error("undo check-in failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Undo failed.")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"checked_in": false})
}
