package bootstrap

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:      "mongodb://localhost:27017",
		MongoDatabase: "hackhub_test",
		SessionKey:    "0123456789abcdef0123456789abcdef",
	}
}

func TestValidateConfig_Accepts(t *testing.T) {
	if err := ValidateConfig(nil, validAppConfig(), zap.NewNop()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidateConfig_RejectsBadMongoURI(t *testing.T) {
	cfg := validAppConfig()
	cfg.MongoURI = "http://not-mongo"
	if err := ValidateConfig(nil, cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error for non-mongodb URI")
	}
}

func TestValidateConfig_RejectsShortSessionKey(t *testing.T) {
	cfg := validAppConfig()
	cfg.SessionKey = "short"
	err := ValidateConfig(nil, cfg, zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "session_key") {
		t.Fatalf("expected session_key error, got %v", err)
	}
}

func TestValidateConfig_RejectsHalfOAuthPair(t *testing.T) {
	cfg := validAppConfig()
	cfg.GitHubClientID = "client-id-only"
	err := ValidateConfig(nil, cfg, zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "github") {
		t.Fatalf("expected paired-credential error, got %v", err)
	}
}
