// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for HackHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_key, etc.
//   - Environment variables: HACKHUB_MONGO_URI, HACKHUB_SESSION_KEY, etc.
//   - Command-line flags: --mongo_uri, --session_key, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "hackhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@hackhub.dev", Desc: "From email address"},

	// Site identity for email templates and links
	{Name: "site_name", Default: "HackHub", Desc: "Event name used in emails"},
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for email links and OAuth callbacks"},

	// Email verification settings
	{Name: "email_verify_expiry", Default: "10m", Desc: "Email verification code/link expiry (e.g., 10m, 1h, 90s)"},

	// Registration rate limiting
	{Name: "register_limit", Default: 10, Desc: "Registrations allowed per IP per window"},
	{Name: "register_window", Default: "1h", Desc: "Registration rate limit window"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admission", Default: "all", Desc: "Admission event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_release", Default: "all", Desc: "Release event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_team", Default: "all", Desc: "Team event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// GitHub OAuth configuration
	{Name: "github_client_id", Default: "", Desc: "GitHub OAuth2 client ID"},
	{Name: "github_client_secret", Default: "", Desc: "GitHub OAuth2 client secret"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config
// files, environment variables (WAFFLE_* for core, HACKHUB_* for app),
// and command-line flags, merged with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "HACKHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionDomain: appValues.String("session_domain"),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),

		SiteName: appValues.String("site_name"),
		BaseURL:  appValues.String("base_url"),

		EmailVerifyExpiry: appValues.Duration("email_verify_expiry", 10*time.Minute),

		RegisterLimit:  appValues.Int("register_limit"),
		RegisterWindow: appValues.Duration("register_window", time.Hour),

		AuditLogAuth:      appValues.String("audit_log_auth"),
		AuditLogAdmission: appValues.String("audit_log_admission"),
		AuditLogRelease:   appValues.String("audit_log_release"),
		AuditLogTeam:      appValues.String("audit_log_team"),

		GitHubClientID:     appValues.String("github_client_id"),
		GitHubClientSecret: appValues.String("github_client_secret"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation. The MongoDB
// URI format is checked here to catch configuration errors before
// attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must not be empty")
	}

	if len(appCfg.SessionKey) < 32 {
		return fmt.Errorf("session_key must be at least 32 characters")
	}

	// OAuth is optional, but half a credential pair is a misconfiguration.
	if (appCfg.GitHubClientID == "") != (appCfg.GitHubClientSecret == "") {
		return fmt.Errorf("github_client_id and github_client_secret must be set together")
	}

	return nil
}
