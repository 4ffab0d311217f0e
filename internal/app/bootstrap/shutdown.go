// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown cleanly tears down the event bus, waits out in-flight email
// flushes, and disconnects from MongoDB.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if releaseService != nil {
		logger.Info("waiting for in-flight email queue flushes")
		releaseService.Wait()
	}
	if eventBus != nil {
		eventBus.Stop()
	}

	if deps.HackHubMongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.HackHubMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
