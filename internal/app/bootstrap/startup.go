// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/hackhub/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	if err := auth.InitSessionStore(appCfg.SessionKey, appCfg.SessionDomain, secure, logger); err != nil {
		logger.Error("session store init failed", zap.Error(err))
		return err
	}
	return nil
}
