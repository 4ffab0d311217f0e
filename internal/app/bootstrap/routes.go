// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/hackhub/internal/app/admission"
	authgithubfeature "github.com/dalemusser/hackhub/internal/app/features/authgithub"
	checkinfeature "github.com/dalemusser/hackhub/internal/app/features/checkin"
	healthfeature "github.com/dalemusser/hackhub/internal/app/features/health"
	loginfeature "github.com/dalemusser/hackhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/hackhub/internal/app/features/logout"
	operationsfeature "github.com/dalemusser/hackhub/internal/app/features/operations"
	registerfeature "github.com/dalemusser/hackhub/internal/app/features/register"
	reviewfeature "github.com/dalemusser/hackhub/internal/app/features/review"
	statusfeature "github.com/dalemusser/hackhub/internal/app/features/status"
	teamsfeature "github.com/dalemusser/hackhub/internal/app/features/teams"
	userinfofeature "github.com/dalemusser/hackhub/internal/app/features/userinfo"
	"github.com/dalemusser/hackhub/internal/app/release"
	"github.com/dalemusser/hackhub/internal/app/store/audit"
	"github.com/dalemusser/hackhub/internal/app/store/emailverify"
	"github.com/dalemusser/hackhub/internal/app/store/oauthstate"
	settingsstore "github.com/dalemusser/hackhub/internal/app/store/settings"
	teamstore "github.com/dalemusser/hackhub/internal/app/store/teams"
	userstore "github.com/dalemusser/hackhub/internal/app/store/users"
	"github.com/dalemusser/hackhub/internal/app/system/auditlog"
	"github.com/dalemusser/hackhub/internal/app/system/auth"
	"github.com/dalemusser/hackhub/internal/app/system/events"
	"github.com/dalemusser/hackhub/internal/app/system/mailer"
	"github.com/dalemusser/hackhub/internal/app/system/ratelimit"
	"github.com/dalemusser/hackhub/internal/app/teamops"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Shutdown coordination handles, set while the handler is built.
var (
	eventBus       *events.Dispatcher
	releaseService *release.Service
)

// BuildHandler constructs the root HTTP handler for the app.
//
// WAFFLE calls this after configuration, DB connection, schema setup,
// and Startup have completed. All stores and services are constructed
// here and threaded into the feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.HackHubMongoDatabase

	// Stores.
	users := userstore.New(db)
	teams := teamstore.New(db)
	settings := settingsstore.New(db)
	auditStore := audit.New(db)
	verify := emailverify.New(db, appCfg.EmailVerifyExpiry)
	oauthStates := oauthstate.New(db)

	// Audit trail with per-category destinations.
	auditLog := auditlog.New(auditStore, logger, auditlog.Config{
		Auth:      appCfg.AuditLogAuth,
		Admission: appCfg.AuditLogAdmission,
		Release:   appCfg.AuditLogRelease,
		Team:      appCfg.AuditLogTeam,
	})

	// Outbound email.
	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		User:     appCfg.MailSMTPUser,
		Pass:     appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		SiteName: appCfg.SiteName,
		BaseURL:  appCfg.BaseURL,
	}, logger)

	// Domain services on the shared event bus. The teamops subscription
	// is what makes quorum admits cascade through qualifying teams.
	eventBus = events.NewDispatcher(logger, 64)
	admissionService := admission.NewService(users, settings, auditLog, eventBus, logger)
	teamService := teamops.NewService(teams, users, admissionService, auditLog, eventBus, logger)
	teamService.SubscribeEvents()
	eventBus.Start()

	releaseService = release.NewService(users, settings, mail, auditLog, logger)

	// Rate limiters.
	registerLimiter := ratelimit.New(appCfg.RegisterLimit, appCfg.RegisterWindow)
	loginLimiter := ratelimit.NewLoginLimiter()

	r := chi.NewRouter()

	// Global auth middleware: loads the SessionUser into context so
	// auth.CurrentUser(r) works in every handler.
	r.Use(auth.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators.
	healthHandler := healthfeature.NewHandler(deps.HackHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Session introspection for the front end.
	userinfofeature.MountRoutes(r, userinfofeature.NewHandler())

	// Account creation and email verification.
	registerHandler := registerfeature.NewHandler(
		users, settings, verify, mail, auditLog, registerLimiter,
		appCfg.SiteName, appCfg.BaseURL, logger)
	r.Mount("/register", registerfeature.Routes(registerHandler))

	// Authentication.
	loginHandler := loginfeature.NewHandler(users, auditLog, loginLimiter, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(auditLog, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	githubHandler := authgithubfeature.NewHandler(
		users, oauthStates, auditLog,
		appCfg.GitHubClientID, appCfg.GitHubClientSecret, appCfg.BaseURL, logger)
	r.Mount("/auth/github", authgithubfeature.Routes(githubHandler))

	// Application status and hacker self-service actions.
	statusHandler := statusfeature.NewHandler(users, settings, admissionService, logger)
	r.Mount("/status", statusfeature.Routes(statusHandler))

	// Reviewer voting.
	reviewHandler := reviewfeature.NewHandler(users, admissionService, logger)
	r.Mount("/review", reviewfeature.Routes(reviewHandler))

	// Team lifecycle.
	teamsHandler := teamsfeature.NewHandler(teams, users, teamService, logger)
	r.Mount("/teams", teamsfeature.Routes(teamsHandler))

	// Badge desk.
	checkinHandler := checkinfeature.NewHandler(users, logger)
	r.Mount("/checkin", checkinfeature.Routes(checkinHandler))

	// Staff console: settings, releases, bulk sweeps, email queues.
	operationsHandler := operationsfeature.NewHandler(db, users, settings, admissionService, releaseService, logger)
	r.Mount("/operations", operationsfeature.Routes(operationsHandler))

	return r, nil
}
