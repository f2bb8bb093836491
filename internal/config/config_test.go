package config

import (
	"testing"
	"time"
)

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_LocalDefaultsBaseURL(t *testing.T) {
	c := Config{
		App:  AppConfig{Env: "local", Port: 8787},
		Auth: AuthConfig{JWTSecret: "secret"},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.App.BaseURL != "http://localhost:8787" {
		t.Fatalf("expected localhost base url default, got %q", c.App.BaseURL)
	}
	if c.Auth.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("expected access ttl default, got %v", c.Auth.AccessTokenTTL)
	}
}

func TestValidate_ProductionRequiresBaseURLAndDB(t *testing.T) {
	c := Config{
		App:  AppConfig{Env: "production", Port: 8787},
		Auth: AuthConfig{JWTSecret: "secret"},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without APP_BASE_URL and DB_HOST")
	}
}

func TestValidate_PartialTwilioRejected(t *testing.T) {
	c := Config{
		App:    AppConfig{Env: "local", Port: 8787},
		Auth:   AuthConfig{JWTSecret: "secret"},
		Twilio: TwilioConfig{AccountSID: "AC123"},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for partial Twilio config")
	}
}

func TestValidate_SimulationModeWithoutProviders(t *testing.T) {
	c := Config{
		App:  AppConfig{Env: "dev", Port: 8787},
		Auth: AuthConfig{JWTSecret: "secret"},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.HasTwilio() || c.HasTelegram() || c.HasDB() || c.HasRedis() {
		t.Fatalf("expected all optional integrations disabled")
	}
}
