// internal/app/features/register/handler.go
package register

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/hackhub/internal/app/features/shared/respond"
	"github.com/dalemusser/hackhub/internal/app/store/emailverify"
	settingsstore "github.com/dalemusser/hackhub/internal/app/store/settings"
	userstore "github.com/dalemusser/hackhub/internal/app/store/users"
	"github.com/dalemusser/hackhub/internal/app/system/auditlog"
	"github.com/dalemusser/hackhub/internal/app/system/inputval"
	"github.com/dalemusser/hackhub/internal/app/system/mailer"
	"github.com/dalemusser/hackhub/internal/app/system/normalize"
	"github.com/dalemusser/hackhub/internal/app/system/ratelimit"
	"github.com/dalemusser/hackhub/internal/app/system/timeouts"
	"github.com/dalemusser/hackhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// Handler handles account registration and email verification.
type Handler struct {
	Users       *userstore.Store
	Settings    *settingsstore.Store
	EmailVerify *emailverify.Store
	Mail        mailer.Sender
	AuditLog    *auditlog.Logger
	Limiter     *ratelimit.Limiter

	SiteName string
	BaseURL  string
	Log      *zap.Logger
}

// NewHandler creates a register handler.
func NewHandler(
	users *userstore.Store,
	settings *settingsstore.Store,
	verify *emailverify.Store,
	mail mailer.Sender,
	audit *auditlog.Logger,
	limiter *ratelimit.Limiter,
	siteName, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:       users,
		Settings:    settings,
		EmailVerify: verify,
		Mail:        mail,
		AuditLog:    audit,
		Limiter:     limiter,
		SiteName:    siteName,
		BaseURL:     baseURL,
		Log:         logger,
	}
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email" label:"Email"`
	Password  string `json:"password" validate:"required" label:"Password"`
	FirstName string `json:"first_name" validate:"required,max=100" label:"First name"`
	LastName  string `json:"last_name" validate:"required,max=100" label:"Last name"`
}

// ServeRegister handles POST /register.
//
// Creates an unverified account and sends a verification email with a
// one-time code and magic link. The email is also pushed onto the
// verification queue so organizers can re-send stock reminders later.
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	if h.Limiter != nil && !h.Limiter.Allow(ratelimit.ClientIP(r)) {
		respond.Error(w, http.StatusTooManyRequests, "Too many registration attempts. Try again later.")
		return
	}

	var req registerRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if v := inputval.Validate(&req); v.HasErrors() {
		respond.Error(w, http.StatusBadRequest, v.All())
		return
	}
	if len(req.Password) < minPasswordLength {
		respond.Error(w, http.StatusBadRequest,
			fmt.Sprintf("Password must be at least %d characters.", minPasswordLength))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Log.Error("bcrypt hash failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Registration failed.")
		return
	}

	user := models.User{
		Email:     normalize.Email(req.Email),
		FirstName: normalize.Name(req.FirstName),
		LastName:  normalize.Name(req.LastName),
		Password:  string(hash),
		Status: models.Status{
			Active: true,
		},
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "register")
	defer cancel()

	if err := h.Users.Create(ctx, &user); err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			respond.Error(w, http.StatusConflict, "An account with that email already exists.")
			return
		}
		h.Log.Error("user create failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Registration failed.")
		return
	}

	h.AuditLog.UserRegistered(ctx, r, user.ID, user.Email)

	if err := h.Settings.QueuePush(ctx, models.EmailVerification, user.Email); err != nil {
		h.Log.Warn("verification queue push failed",
			zap.String("email", user.Email), zap.Error(err))
	}

	h.sendVerification(w, r, user.ID, user.Email, false)
}

type resendRequest struct {
	Email string `json:"email" validate:"required,email" label:"Email"`
}

// ServeResend handles POST /register/resend.
//
// Re-issues the verification code for an unverified account. The
// response does not reveal whether the email exists.
func (h *Handler) ServeResend(w http.ResponseWriter, r *http.Request) {
	if h.Limiter != nil && !h.Limiter.Allow(ratelimit.ClientIP(r)) {
		respond.Error(w, http.StatusTooManyRequests, "Too many requests. Try again later.")
		return
	}

	var req resendRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if v := inputval.Validate(&req); v.HasErrors() {
		respond.Error(w, http.StatusBadRequest, v.All())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "register resend")
	defer cancel()

	user, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil || user.Permissions.Verified {
		// Same response either way so addresses can't be probed.
		respond.JSON(w, http.StatusAccepted, map[string]string{
			"message": "If that address has an unverified account, a new code is on its way.",
		})
		return
	}

	h.sendVerification(w, r, user.ID, user.Email, true)
}

func (h *Handler) sendVerification(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID, email string, isResend bool) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "send verification")
	defer cancel()

	res, err := h.EmailVerify.Create(ctx, userID, email, isResend)
	if err != nil {
		if errors.Is(err, emailverify.ErrTooManyResends) {
			respond.Error(w, http.StatusTooManyRequests, "Too many codes requested. Try again later.")
			return
		}
		h.Log.Error("verification create failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Could not issue a verification code.")
		return
	}

	data := mailer.TemplateData{SiteName: h.SiteName, BaseURL: h.BaseURL}
	verifyURL := fmt.Sprintf("%s/register/verify/%s", h.BaseURL, res.Token)
	msg := mailer.BuildVerificationCodeEmail(data, res.Code, verifyURL)
	msg.To = email

	if err := h.Mail.Send(ctx, msg); err != nil {
		h.Log.Error("verification email send failed",
			zap.String("email", email), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Could not send the verification email.")
		return
	}

	respond.JSON(w, http.StatusAccepted, map[string]string{
		"message": "Check your email for a verification code.",
	})
}

type verifyRequest struct {
	Email string `json:"email" validate:"required,email" label:"Email"`
	Code  string `json:"code" validate:"required" label:"Code"`
}

// ServeVerify handles POST /register/verify with {email, code}.
func (h *Handler) ServeVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if v := inputval.Validate(&req); v.HasErrors() {
		respond.Error(w, http.StatusBadRequest, v.All())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "verify email")
	defer cancel()

	user, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid or expired code.")
		return
	}

	if _, err := h.EmailVerify.VerifyCode(ctx, user.ID, req.Code); err != nil {
		switch {
		case errors.Is(err, emailverify.ErrTooManyAttempts):
			respond.Error(w, http.StatusTooManyRequests, "Too many attempts. Request a new code.")
		case errors.Is(err, emailverify.ErrInvalidCode), errors.Is(err, emailverify.ErrNotFound):
			respond.Error(w, http.StatusBadRequest, "Invalid or expired code.")
		default:
			h.Log.Error("code verification failed", zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "Verification failed.")
		}
		return
	}

	h.completeVerification(w, r, user.ID, user.Email)
}

// ServeVerifyToken handles GET /register/verify/{token} (magic link).
func (h *Handler) ServeVerifyToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "verify token")
	defer cancel()

	v, err := h.EmailVerify.VerifyToken(ctx, token)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid or expired verification link.")
		return
	}

	h.completeVerification(w, r, v.UserID, v.Email)
}

func (h *Handler) completeVerification(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID, email string) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "complete verification")
	defer cancel()

	if err := h.Users.SetVerified(ctx, userID); err != nil {
		h.Log.Error("set verified failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Verification failed.")
		return
	}
	if err := h.Settings.QueuePull(ctx, models.EmailVerification, email); err != nil {
		h.Log.Warn("verification queue pull failed",
			zap.String("email", email), zap.Error(err))
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"message":  "Email verified. You can sign in now.",
		"verified": true,
	})
}
