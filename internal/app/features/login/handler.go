// internal/app/features/login/handler.go
package login

import (
	"errors"
	"net/http"

	"github.com/dalemusser/hackhub/internal/app/features/shared/respond"
	userstore "github.com/dalemusser/hackhub/internal/app/store/users"
	"github.com/dalemusser/hackhub/internal/app/system/auditlog"
	"github.com/dalemusser/hackhub/internal/app/system/auth"
	"github.com/dalemusser/hackhub/internal/app/system/inputval"
	"github.com/dalemusser/hackhub/internal/app/system/ratelimit"
	"github.com/dalemusser/hackhub/internal/app/system/timeouts"
	"github.com/dalemusser/hackhub/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Handler handles password sign-in.
type Handler struct {
	Users    *userstore.Store
	AuditLog *auditlog.Logger
	Limiter  *ratelimit.LoginLimiter
	Log      *zap.Logger
}

// NewHandler creates a login handler.
func NewHandler(users *userstore.Store, audit *auditlog.Logger, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    users,
		AuditLog: audit,
		Limiter:  limiter,
		Log:      logger,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

type loginResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Level     int    `json:"level"`
	LevelName string `json:"level_name"`
}

// ServeLogin handles POST /login.
//
// Wrong email and wrong password return the same 401 so accounts can't
// be enumerated. Disabled and password-suspended accounts get a 403.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if v := inputval.Validate(&req); v.HasErrors() {
		respond.Error(w, http.StatusBadRequest, v.All())
		return
	}

	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, req.Email); !ok {
			respond.Error(w, http.StatusTooManyRequests, msg)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "login")
	defer cancel()

	user, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			h.AuditLog.LoginFailedUserNotFound(ctx, r, req.Email)
			respond.Error(w, http.StatusUnauthorized, "Invalid email or password.")
			return
		}
		h.Log.Error("login lookup failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Sign-in failed.")
		return
	}

	if user.Password == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, user.ID, user.Email)
		respond.Error(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	}

	if !user.Status.Active || user.Status.PasswordSuspension {
		h.AuditLog.LoginFailedUserDisabled(ctx, r, user.ID, user.Email)
		respond.Error(w, http.StatusForbidden, "This account is disabled.")
		return
	}

	sessionUser := &auth.SessionUser{
		ID:    user.ID.Hex(),
		Name:  user.FullName(),
		Email: user.Email,
		Level: user.Level(),
	}
	if err := auth.SignIn(w, r, sessionUser); err != nil {
		h.Log.Error("session sign-in failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Sign-in failed.")
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(req.Email)
	}
	h.AuditLog.LoginSuccess(ctx, r, user.ID, user.Email)

	respond.JSON(w, http.StatusOK, loginResponse{
		ID:        user.ID.Hex(),
		Name:      user.FullName(),
		Email:     user.Email,
		Level:     user.Level(),
		LevelName: levelName(user.Level()),
	})
}

func levelName(level int) string {
	switch level {
	case models.LevelHacker:
		return "hacker"
	case models.LevelCheckIn:
		return "checkin"
	case models.LevelAdmin:
		return "admin"
	case models.LevelReviewer:
		return "reviewer"
	case models.LevelOwner:
		return "owner"
	case models.LevelDeveloper:
		return "developer"
	}
	return "unverified"
}
