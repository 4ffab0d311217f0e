// internal/app/features/authgithub/handler.go
package authgithub

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/hackhub/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/hackhub/internal/app/store/users"
	"github.com/dalemusser/hackhub/internal/app/system/auditlog"
	"github.com/dalemusser/hackhub/internal/app/system/auth"
	"github.com/dalemusser/hackhub/internal/app/system/timeouts"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// Handler handles GitHub OAuth authentication.
type Handler struct {
	Users      *userstore.Store
	StateStore *oauthstate.Store
	AuditLog   *auditlog.Logger
	Log        *zap.Logger

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://hackhub.io/auth/github/callback"
}

// NewHandler creates a new GitHub OAuth handler.
func NewHandler(
	users *userstore.Store,
	stateStore *oauthstate.Store,
	audit *auditlog.Logger,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:        users,
		StateStore:   stateStore,
		AuditLog:     audit,
		Log:          logger,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/github/callback",
	}
}

// oauth2Config returns the GitHub OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes:       []string{"read:user", "user:email"},
		Endpoint:     github.Endpoint,
	}
}

// IsConfigured returns true if GitHub OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/github                                                             |
| Initiates the GitHub OAuth flow by redirecting to GitHub's consent screen.   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("GitHub OAuth not configured")
		http.Redirect(w, r, "/login?error=github_not_configured", http.StatusSeeOther)
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	returnURL := sanitizeReturnURL(r.URL.Query().Get("return"))

	// Store state with 10-minute expiry.
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "save oauth state")
	defer cancel()

	expiresAt := time.Now().UTC().Add(10 * time.Minute)
	if err := h.StateStore.Save(ctx, state, returnURL, expiresAt); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	url := h.oauth2Config().AuthCodeURL(state)

	h.Log.Debug("initiating GitHub OAuth flow",
		zap.String("redirect_url", url),
		zap.String("return_url", returnURL))

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/github/callback                                                    |
| Handles the OAuth callback from GitHub: exchanges the code for a token,      |
| fetches the GitHub identity, matches it to a local account by email, and     |
| signs the user in.                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("GitHub OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		http.Redirect(w, r, "/login?error=github_denied", http.StatusSeeOther)
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	ctxTimeout, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), h.Log, "validate oauth state")
	defer cancel()

	returnURL, valid, err := h.StateStore.Validate(ctxTimeout, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		http.Redirect(w, r, "/login?error=invalid_code", http.StatusSeeOther)
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		http.Redirect(w, r, "/login?error=token_exchange", http.StatusSeeOther)
		return
	}

	ghUser, err := fetchGitHubUser(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch GitHub user info", zap.Error(err))
		http.Redirect(w, r, "/login?error=user_info", http.StatusSeeOther)
		return
	}

	h.Log.Debug("GitHub user info fetched",
		zap.Int64("github_id", ghUser.ID),
		zap.String("login", ghUser.Login),
		zap.String("email", ghUser.Email))

	if ghUser.Email == "" {
		h.Log.Info("GitHub account has no verified primary email",
			zap.String("login", ghUser.Login))
		http.Redirect(w, r, "/login?error=no_email", http.StatusSeeOther)
		return
	}

	user, err := h.Users.GetByEmail(ctx, ghUser.Email)
	if err != nil {
		h.Log.Info("GitHub OAuth: no account for email",
			zap.String("email", ghUser.Email))
		h.AuditLog.LoginFailedUserNotFound(ctx, r, ghUser.Email)
		http.Redirect(w, r, "/login?error=no_account", http.StatusSeeOther)
		return
	}

	if !user.Status.Active || user.Status.PasswordSuspension {
		h.AuditLog.LoginFailedUserDisabled(ctx, r, user.ID, user.Email)
		http.Redirect(w, r, "/login?error=account_disabled", http.StatusSeeOther)
		return
	}

	sessionUser := &auth.SessionUser{
		ID:    user.ID.Hex(),
		Name:  user.FullName(),
		Email: user.Email,
		Level: user.Level(),
	}
	if err := auth.SignIn(w, r, sessionUser); err != nil {
		h.Log.Error("session sign-in failed after OAuth", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	h.AuditLog.OAuthLogin(ctx, r, user.ID, "github")

	if returnURL == "" {
		returnURL = "/"
	}
	http.Redirect(w, r, returnURL, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GitHub API                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// githubUser is the subset of GitHub's user payload we need. Email is
// filled from /user/emails when the profile email is private.
type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// fetchGitHubUser retrieves the authenticated user's profile, falling
// back to the emails endpoint for accounts with a private email.
func fetchGitHubUser(ctx context.Context, token *oauth2.Token) (*githubUser, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	var user githubUser
	if err := getJSON(client, "https://api.github.com/user", &user); err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}

	if user.Email == "" {
		var emails []githubEmail
		if err := getJSON(client, "https://api.github.com/user/emails", &emails); err != nil {
			return nil, fmt.Errorf("fetch emails: %w", err)
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				user.Email = e.Email
				break
			}
		}
	}

	return &user, nil
}

func getJSON(client *http.Client, url string, dst any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// generateState returns a cryptographically random state token.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// sanitizeReturnURL allows only same-site paths so the callback can't
// be turned into an open redirect.
func sanitizeReturnURL(raw string) string {
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return ""
	}
	return raw
}
