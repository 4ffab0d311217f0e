// internal/app/features/teams/handler.go
package teams

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/hackhub/internal/app/features/shared/respond"
	teamstore "github.com/dalemusser/hackhub/internal/app/store/teams"
	userstore "github.com/dalemusser/hackhub/internal/app/store/users"
	"github.com/dalemusser/hackhub/internal/app/system/auth"
	"github.com/dalemusser/hackhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/hackhub/internal/app/system/inputval"
	"github.com/dalemusser/hackhub/internal/app/system/normalize"
	"github.com/dalemusser/hackhub/internal/app/system/timeouts"
	"github.com/dalemusser/hackhub/internal/app/teamops"
	"github.com/dalemusser/hackhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves team lifecycle endpoints: create/join/leave for
// hackers, list/deactivate/points for staff.
type Handler struct {
	Teams *teamstore.Store
	Users *userstore.Store
	Ops   *teamops.Service
	Log   *zap.Logger
}

func NewHandler(teams *teamstore.Store, users *userstore.Store, ops *teamops.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Teams: teams,
		Users: users,
		Ops:   ops,
		Log:   logger,
	}
}

// teamView is the member-facing shape of a team. Roster entries carry
// names only; emails stay private to staff endpoints.
type teamView struct {
	Name    string       `json:"name"`
	Code    string       `json:"code"`
	Active  bool         `json:"active"`
	Size    int          `json:"size"`
	Points  int          `json:"points"`
	Members []memberView `json:"members"`
}

type memberView struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Admitted  bool   `json:"admitted"`
}

func (h *Handler) buildTeamView(r *http.Request, team models.Team) teamView {
	view := teamView{
		Name:    team.Name,
		Code:    team.Code,
		Active:  team.Active,
		Size:    team.Size(),
		Points:  team.PointsTotal(),
		Members: []memberView{},
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "load team roster")
	defer cancel()

	members, err := h.Users.ByTeamCode(ctx, team.Code)
	if err != nil {
		h.Log.Error("roster load failed", zap.String("code", team.Code), zap.Error(err))
		return view
	}
	for _, m := range members {
		view.Members = append(view.Members, memberView{
			ID:        m.ID.Hex(),
			FirstName: m.FirstName,
			LastName:  m.LastName,
			Admitted:  m.Status.Admitted,
		})
	}
	return view
}

func currentUserID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	user, _ := auth.CurrentUser(r)
	id, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "Invalid session.")
		return primitive.NilObjectID, false
	}
	return id, true
}

type createRequest struct {
	Name string `json:"name" validate:"required,max=60" label:"Team name"`
}

// ServeCreate handles POST /teams with {"name": ...}.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req createRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	req.Name = strings.TrimSpace(htmlsanitize.Strip(req.Name))
	if v := inputval.Validate(&req); v.HasErrors() {
		respond.Error(w, http.StatusBadRequest, v.First())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create team")
	defer cancel()

	team, err := h.Ops.Create(ctx, id, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, teamstore.ErrDuplicateTeamName):
			respond.Error(w, http.StatusConflict, "A team with this name already exists.")
		case errors.Is(err, teamops.ErrAlreadyOnTeam):
			respond.Error(w, http.StatusConflict, "You are already on a team. Leave it before creating another.")
		default:
			h.Log.Error("team create failed", zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "Could not create the team.")
		}
		return
	}

	respond.JSON(w, http.StatusCreated, h.buildTeamView(r, team))
}

type joinRequest struct {
	Code string `json:"code" validate:"required,teamcode" label:"Team code"`
}

// ServeJoin handles POST /teams/join with {"code": ...}.
func (h *Handler) ServeJoin(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req joinRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	req.Code = normalize.TeamCode(req.Code)
	if v := inputval.Validate(&req); v.HasErrors() {
		respond.Error(w, http.StatusBadRequest, v.First())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "join team")
	defer cancel()

	team, err := h.Ops.Join(ctx, id, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, teamstore.ErrNotFound):
			respond.Error(w, http.StatusNotFound, "No team with that code.")
		case errors.Is(err, teamstore.ErrTeamFull):
			respond.Error(w, http.StatusConflict, "This team is full.")
		case errors.Is(err, teamstore.ErrTeamInactive):
			respond.Error(w, http.StatusConflict, "This team is no longer active.")
		case errors.Is(err, teamstore.ErrAlreadyMember), errors.Is(err, teamops.ErrAlreadyOnTeam):
			respond.Error(w, http.StatusConflict, "You are already on a team.")
		default:
			h.Log.Error("team join failed", zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "Could not join the team.")
		}
		return
	}

	respond.JSON(w, http.StatusOK, h.buildTeamView(r, team))
}

// ServeLeave handles POST /teams/leave.
func (h *Handler) ServeLeave(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "leave team")
	defer cancel()

	if err := h.Ops.Leave(ctx, id); err != nil {
		if errors.Is(err, teamstore.ErrNotMember) {
			respond.Error(w, http.StatusConflict, "You are not on a team.")
			return
		}
		h.Log.Error("team leave failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Could not leave the team.")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"message": "You have left the team."})
}

// ServeMine handles GET /teams/mine: the caller's current team.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "load own team")
	defer cancel()

	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, http.StatusNotFound, "Account not found.")
		return
	}
	if user.TeamCode == "" {
		respond.Error(w, http.StatusNotFound, "You are not on a team.")
		return
	}

	team, err := h.Teams.GetByCode(ctx, user.TeamCode)
	if err != nil {
		if errors.Is(err, teamstore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Your team no longer exists.")
			return
		}
		h.Log.Error("team load failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Could not load your team.")
		return
	}

	respond.JSON(w, http.StatusOK, h.buildTeamView(r, team))
}

// ServeTeam handles GET /teams/{code}: a team's public roster, for
// checking a code before joining.
func (h *Handler) ServeTeam(w http.ResponseWriter, r *http.Request) {
	code := normalize.TeamCode(chi.URLParam(r, "code"))
	if !inputval.IsValidTeamCode(code) {
		respond.Error(w, http.StatusBadRequest, "Invalid team code.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "load team")
	defer cancel()

	team, err := h.Teams.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, teamstore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "No team with that code.")
			return
		}
		h.Log.Error("team load failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Could not load the team.")
		return
	}

	respond.JSON(w, http.StatusOK, h.buildTeamView(r, team))
}

// ServeList handles GET /teams (staff): every active team.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list teams")
	defer cancel()

	teams, err := h.Teams.ListActive(ctx)
	if err != nil {
		h.Log.Error("team list failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Could not list teams.")
		return
	}

	views := make([]teamView, 0, len(teams))
	for _, team := range teams {
		views = append(views, h.buildTeamView(r, team))
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"teams": views,
		"count": len(views),
	})
}

// ServeDeactivate handles POST /teams/{code}/deactivate (staff).
func (h *Handler) ServeDeactivate(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	code := normalize.TeamCode(chi.URLParam(r, "code"))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "deactivate team")
	defer cancel()

	team, err := h.Ops.Deactivate(ctx, actorID, code)
	if err != nil {
		switch {
		case errors.Is(err, teamstore.ErrNotFound):
			respond.Error(w, http.StatusNotFound, "No team with that code.")
		case errors.Is(err, teamstore.ErrTeamInactive):
			respond.Error(w, http.StatusConflict, "This team is already inactive.")
		default:
			h.Log.Error("team deactivate failed", zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "Could not deactivate the team.")
		}
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"code":   team.Code,
		"active": team.Active,
	})
}

// ServeDelete handles POST /teams/{code}/delete. Members are released
// before the team record is removed.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	code := normalize.TeamCode(chi.URLParam(r, "code"))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete team")
	defer cancel()

	if err := h.Ops.Delete(ctx, actorID, code); err != nil {
		if errors.Is(err, teamstore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "No team with that code.")
			return
		}
		h.Log.Error("team delete failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Could not delete the team.")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"code":    code,
		"deleted": true,
	})
}

// ServeDeactivateAll handles POST /teams/deactivate-all.
func (h *Handler) ServeDeactivateAll(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "deactivate all teams")
	defer cancel()

	count, err := h.Ops.DeactivateAll(ctx, actorID)
	if err != nil {
		h.Log.Error("deactivate-all failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Could not deactivate teams.")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"count": count})
}

// ServeSweepAutoAdmit handles POST /teams/sweep-auto-admit, running
// the auto-admit check over every active team.
func (h *Handler) ServeSweepAutoAdmit(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "auto-admit sweep")
	defer cancel()

	count, err := h.Ops.SweepAutoAdmit(ctx, actorID)
	if err != nil {
		h.Log.Error("auto-admit sweep failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Sweep failed.")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"teams": count})
}

type pointsRequest struct {
	Amount int    `json:"amount"`
	Notes  string `json:"notes" validate:"max=200" label:"Notes"`
}

// ServePoints handles POST /teams/{code}/points (staff): awards points
// to the team and fans them out to each member.
func (h *Handler) ServePoints(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	code := normalize.TeamCode(chi.URLParam(r, "code"))

	var req pointsRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.Amount == 0 {
		respond.Error(w, http.StatusBadRequest, "Amount must be non-zero.")
		return
	}
	req.Notes = strings.TrimSpace(htmlsanitize.Strip(req.Notes))
	if v := inputval.Validate(&req); v.HasErrors() {
		respond.Error(w, http.StatusBadRequest, v.First())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "award points")
	defer cancel()

	if err := h.Ops.AwardPoints(ctx, actorID, code, req.Amount, req.Notes); err != nil {
		if errors.Is(err, teamstore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "No team with that code.")
			return
		}
		h.Log.Error("points award failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Could not award points.")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"awarded": req.Amount})
}
