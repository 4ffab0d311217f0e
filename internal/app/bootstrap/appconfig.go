// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (HTTP/HTTPS
// ports, TLS, logging, CORS, body size limits); AppConfig is everything
// specific to HackHub: the Mongo connection, session cookies, SMTP,
// OAuth credentials, and the admission-cycle knobs.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionDomain string // Cookie domain (blank means current host)

	// Email/SMTP configuration
	MailSMTPHost string // SMTP server host (e.g., localhost for Mailpit, email-smtp.us-east-1.amazonaws.com for SES)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string // SMTP username (empty for Mailpit)
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address (e.g., noreply@hackhub.dev)

	// Site identity for email templates and links
	SiteName string
	BaseURL  string // e.g., "https://hackhub.dev" or "http://localhost:3000"

	// Email verification settings
	EmailVerifyExpiry time.Duration

	// Rate limiting
	RegisterLimit  int           // registrations allowed per IP per window
	RegisterWindow time.Duration //

	// Audit logging: "all" (db+log), "db", "log", or "off" per category
	AuditLogAuth      string
	AuditLogAdmission string
	AuditLogRelease   string
	AuditLogTeam      string

	// GitHub OAuth configuration
	GitHubClientID     string
	GitHubClientSecret string
}
