package userinfo

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/hackhub/internal/app/system/auth"
)

// Handler serves identity information for the current session.
type Handler struct{}

// NewHandler creates a new userinfo handler.
func NewHandler() *Handler {
	return &Handler{}
}

// ServeUserInfo returns JSON with the current user's authentication
// status and identity.
//
// Response format:
//
//	{ "is_authenticated": bool, "id": "...", "name": "...", "email": "...", "level": 0 }
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	user, ok := auth.CurrentUser(r)
	if !ok {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"is_authenticated": false,
			"id":               "",
			"name":             "",
			"email":            "",
			"level":            0,
		})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"is_authenticated": true,
		"id":               user.ID,
		"name":             user.Name,
		"email":            user.Email,
		"level":            user.Level,
	})
}
