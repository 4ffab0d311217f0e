// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/hackhub/internal/app/features/shared/respond"
	"github.com/dalemusser/hackhub/internal/app/system/auditlog"
	"github.com/dalemusser/hackhub/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		AuditLog: audit,
		Log:      logger,
	}
}

// ServeLogout handles POST /logout.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if user, ok := auth.CurrentUser(r); ok {
		h.AuditLog.Logout(r.Context(), r, user.ID)
	}

	if err := auth.SignOut(w, r); err != nil {
		h.Log.Warn("session clear failed during logout", zap.Error(err))
	}

	respond.JSON(w, http.StatusOK, map[string]string{"message": "Signed out."})
}
