// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"github.com/dalemusser/hackhub/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (login, logout, register).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Admission controls logging for voting and decision events.
	Admission string
	// Release controls logging for status-release and bulk sweep events.
	Release string
	// Team controls logging for team lifecycle and points events.
	Team string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}

	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Logging destination is controlled by config: "all", "db", "log", or "off".
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmission:
		setting = l.config.Admission
	case audit.CategoryRelease:
		setting = l.config.Release
	case audit.CategoryTeam:
		setting = l.config.Team
	default:
		setting = "all" // unknown categories always log
	}

	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" || setting == "" {
		l.logToZap(event)
	}

	if setting == "all" || setting == "db" || setting == "" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"email": email,
		},
	})
}

// LoginFailedUserNotFound logs a failed login due to no matching account.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedEmail string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserNotFound,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "user not found",
		Details: map[string]string{
			"attempted_email": attemptedEmail,
		},
	})
}

// LoginFailedWrongPassword logs a failed login due to wrong password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedWrongPassword,
		UserID:        &userID,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "wrong password",
		Details: map[string]string{
			"email": email,
		},
	})
}

// LoginFailedUserDisabled logs a failed login due to a suspended account.
func (l *Logger) LoginFailedUserDisabled(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserDisabled,
		UserID:        &userID,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "user disabled",
		Details: map[string]string{
			"email": email,
		},
	})
}

// Logout logs a user logout. Accepts a string ID from the session.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr string) {
	var userID *primitive.ObjectID
	if oid, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
		userID = &oid
	}

	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// UserRegistered logs a new account registration.
func (l *Logger) UserRegistered(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventUserRegistered,
		UserID:    &userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"email": email,
		},
	})
}

// OAuthLogin logs a successful login via an external provider.
func (l *Logger) OAuthLogin(ctx context.Context, r *http.Request, userID primitive.ObjectID, provider string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventOAuthLogin,
		UserID:    &userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"provider": provider,
		},
	})
}

// --- Admission Events ---

// Vote logs a recorded reviewer vote. kind is "admit" or "reject".
func (l *Logger) Vote(ctx context.Context, reviewerID, userID primitive.ObjectID, kind string, numVotes int) {
	eventType := audit.EventVoteAdmit
	if kind == "reject" {
		eventType = audit.EventVoteReject
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmission,
		EventType: eventType,
		UserID:    &userID,
		ActorID:   &reviewerID,
		Success:   true,
		Details: map[string]string{
			"num_votes": strconv.Itoa(numVotes),
		},
	})
}

// Decision logs a resolved admission decision. eventType is one of
// EventUserAdmitted, EventUserRejected, EventUserWaitlisted.
func (l *Logger) Decision(ctx context.Context, userID primitive.ObjectID, eventType, decidedBy string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmission,
		EventType: eventType,
		UserID:    &userID,
		Success:   true,
		Details: map[string]string{
			"decided_by": decidedBy,
		},
	})
}

// AdmissionReset logs a full admission-state reset for a user.
func (l *Logger) AdmissionReset(ctx context.Context, actorID, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmission,
		EventType: audit.EventAdmissionReset,
		UserID:    &userID,
		ActorID:   &actorID,
		Success:   true,
	})
}

// Confirmation logs an accept/decline/reset of an admission invitation.
func (l *Logger) Confirmation(ctx context.Context, userID primitive.ObjectID, eventType string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmission,
		EventType: eventType,
		UserID:    &userID,
		Success:   true,
	})
}

// --- Release Events ---

// StatusRelease logs a single-user release or hide.
func (l *Logger) StatusRelease(ctx context.Context, actorID, userID primitive.ObjectID, released bool) {
	eventType := audit.EventStatusReleased
	if !released {
		eventType = audit.EventStatusHidden
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryRelease,
		EventType: eventType,
		UserID:    &userID,
		ActorID:   &actorID,
		Success:   true,
	})
}

// BulkRelease logs a bulk release/hide/sweep operation and how many
// users it touched.
func (l *Logger) BulkRelease(ctx context.Context, actorID primitive.ObjectID, eventType string, count int64) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryRelease,
		EventType: eventType,
		ActorID:   &actorID,
		Success:   true,
		Details: map[string]string{
			"count": strconv.FormatInt(count, 10),
		},
	})
}

// --- Team Events ---

// TeamEvent logs a team lifecycle change.
func (l *Logger) TeamEvent(ctx context.Context, actorID primitive.ObjectID, eventType, teamCode string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryTeam,
		EventType: eventType,
		ActorID:   &actorID,
		Success:   true,
		Details: map[string]string{
			"team_code": teamCode,
		},
	})
}

// PointsAwarded logs a points grant to a user or team.
func (l *Logger) PointsAwarded(ctx context.Context, actorID primitive.ObjectID, target string, amount int) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryTeam,
		EventType: audit.EventPointsAwarded,
		ActorID:   &actorID,
		Success:   true,
		Details: map[string]string{
			"target": target,
			"amount": strconv.Itoa(amount),
		},
	})
}
