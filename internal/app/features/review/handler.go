// internal/app/features/review/handler.go
package review

import (
	"errors"
	"net/http"

	"github.com/dalemusser/hackhub/internal/app/admission"
	"github.com/dalemusser/hackhub/internal/app/features/shared/respond"
	userstore "github.com/dalemusser/hackhub/internal/app/store/users"
	"github.com/dalemusser/hackhub/internal/app/system/auth"
	"github.com/dalemusser/hackhub/internal/app/system/paging"
	"github.com/dalemusser/hackhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler exposes the reviewer voting workflow.
type Handler struct {
	Users     *userstore.Store
	Admission *admission.Service
	Log       *zap.Logger
}

// NewHandler creates a review handler.
func NewHandler(users *userstore.Store, adm *admission.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Users:     users,
		Admission: adm,
		Log:       logger,
	}
}

// applicantView is the reviewer-facing projection of an applicant. Vote
// totals are included; individual ballots are not.
type applicantView struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	NumVotes  int    `json:"num_votes"`
	TeamCode  string `json:"team_code,omitempty"`
}

// ServeQueue handles GET /review/queue.
//
// Returns applicants this reviewer can still vote on: verified,
// submitted, undecided, and not yet voted on by them. Pages with a
// 1-based "start" query parameter.
func (h *Handler) ServeQueue(w http.ResponseWriter, r *http.Request) {
	reviewer, _ := auth.CurrentUser(r)
	start := paging.ParseStart(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "review queue")
	defer cancel()

	filter := bson.M{
		"permissions.verified":         true,
		"status.submitted_application": true,
		"status.admitted":              false,
		"status.rejected":              false,
		"status.waitlisted":            false,
		"application_votes":            bson.M{"$ne": reviewer.Email},
	}
	users, err := h.Users.List(ctx, filter, paging.LimitPlusOne(), paging.Skip(start))
	if err != nil {
		h.Log.Error("review queue list failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Could not load the review queue.")
		return
	}
	hasNext := paging.TrimPage(&users)
	rng := paging.ComputeRange(start, len(users))

	views := make([]applicantView, 0, len(users))
	for _, u := range users {
		views = append(views, applicantView{
			ID:        u.ID.Hex(),
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
			NumVotes:  u.NumVotes,
			TeamCode:  u.TeamCode,
		})
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"applicants": views,
		"count":      len(views),
		"start":      rng.Start,
		"end":        rng.End,
		"has_next":   hasNext,
		"next_start": rng.NextStart,
	})
}

type voteRequest struct {
	Vote string `json:"vote"`
}

// ServeVote handles POST /review/vote/{id} with {"vote":"admit"|"reject"}.
func (h *Handler) ServeVote(w http.ResponseWriter, r *http.Request) {
	reviewer, _ := auth.CurrentUser(r)

	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid user ID.")
		return
	}
	reviewerID, err := primitive.ObjectIDFromHex(reviewer.ID)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "Invalid session.")
		return
	}

	var req voteRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	var kind userstore.VoteKind
	switch req.Vote {
	case string(userstore.VoteAdmit):
		kind = userstore.VoteAdmit
	case string(userstore.VoteReject):
		kind = userstore.VoteReject
	default:
		respond.Error(w, http.StatusBadRequest, `Vote must be "admit" or "reject".`)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "record vote")
	defer cancel()

	user, err := h.Admission.Vote(ctx, reviewerID, reviewer.Email, userID, kind)
	if err != nil {
		if errors.Is(err, admission.ErrCannotVote) {
			respond.Error(w, http.StatusConflict,
				"This application cannot be voted on: it may be decided, unverified, or already carry your vote.")
			return
		}
		h.Log.Error("vote failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Vote failed.")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"num_votes": user.NumVotes,
		"decided":   user.Decided(),
	})
}

// ServeResetVotes handles POST /review/reset-votes/{id}.
//
// Wipes an undecided applicant's ballot so review can start over; any
// waitlist placement and the release state are untouched.
func (h *Handler) ServeResetVotes(w http.ResponseWriter, r *http.Request) {
	reviewer, _ := auth.CurrentUser(r)

	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid user ID.")
		return
	}
	reviewerID, err := primitive.ObjectIDFromHex(reviewer.ID)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "Invalid session.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "reset votes")
	defer cancel()

	user, err := h.Admission.ResetVotes(ctx, reviewerID, userID)
	if err != nil {
		if errors.Is(err, userstore.ErrNoMatch) {
			respond.Error(w, http.StatusConflict,
				"Votes can only be reset for a verified, undecided applicant.")
			return
		}
		h.Log.Error("vote reset failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Reset failed.")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"num_votes": user.NumVotes,
		"decided":   user.Decided(),
	})
}

// ServeReset handles POST /review/reset/{id}.
//
// Wipes the applicant's votes and any recorded decision so review can
// start over. Queued decision emails for the applicant are withdrawn.
func (h *Handler) ServeReset(w http.ResponseWriter, r *http.Request) {
	reviewer, _ := auth.CurrentUser(r)

	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid user ID.")
		return
	}
	reviewerID, err := primitive.ObjectIDFromHex(reviewer.ID)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "Invalid session.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "reset admission")
	defer cancel()

	user, err := h.Admission.Reset(ctx, reviewerID, userID)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "User not found.")
			return
		}
		h.Log.Error("admission reset failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Reset failed.")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"num_votes": user.NumVotes,
		"decided":   user.Decided(),
	})
}
