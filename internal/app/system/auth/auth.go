package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants & globals                                                |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	SessionName = "hackhub-session"

	isAuthKey    = "is_authenticated"
	userIDKey    = "user_id"
	userNameKey  = "user_name"
	userEmailKey = "user_email"
	userLevelKey = "user_level"
)

// Store is initialised once via InitSessionStore.
var Store *sessions.CookieStore

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is what we cache in the session & inject into r.Context().
// Level is the numeric permission level captured at sign-in time.
type SessionUser struct {
	ID    string
	Name  string
	Email string
	Level int
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// SignIn writes the user into the session cookie.
func SignIn(w http.ResponseWriter, r *http.Request, u *SessionUser) error {
	if Store == nil {
		return fmt.Errorf("session store not initialized")
	}
	sess, _ := Store.Get(r, SessionName)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[userNameKey] = u.Name
	sess.Values[userEmailKey] = u.Email
	sess.Values[userLevelKey] = u.Level
	return sess.Save(r, w)
}

// SignOut clears the session cookie.
func SignOut(w http.ResponseWriter, r *http.Request) error {
	if Store == nil {
		return nil
	}
	sess, _ := Store.Get(r, SessionName)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// LoadSessionUser injects the user into context if they are logged in.
// If the session store has not been initialized yet, it is a no-op.
func LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Store == nil {
			next.ServeHTTP(w, r)
			return
		}

		sess, _ := Store.Get(r, SessionName)

		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			u := &SessionUser{
				ID:    getString(sess, userIDKey),
				Name:  getString(sess, userNameKey),
				Email: getString(sess, userEmailKey),
				Level: getInt(sess, userLevelKey),
			}
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// Callers that are not signed in get a plain 401.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

// RequireLevel ensures the signed-in user's permission level is at least
// min. Not signed in yields 401; signed in below the level yields 403.
func RequireLevel(min int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if u.Level < min {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// InitSessionStore initializes the global session Store using the provided
// session key and domain. The `secure` flag controls whether cookies are
// marked Secure and which SameSite mode is used.
//
// In production (secure=true), cookies are Secure + SameSite=None
// (for cross-site use with HTTPS).
// In local dev over http://localhost, use secure=false so cookies are accepted.
func InitSessionStore(sessionKey, domain string, secure bool, logger *zap.Logger) error {
	if sessionKey == "" {
		return fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
	}

	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}

	store.Options = opts
	Store = store

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return nil
}

// WithTestUser injects a user directly into the request context,
// bypassing the session store. Only for handler tests.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

func getInt(s *sessions.Session, key string) int {
	if v, ok := s.Values[key].(int); ok {
		return v
	}
	return 0
}
