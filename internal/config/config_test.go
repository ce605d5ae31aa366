package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_TYPE", "REJECT_CYCLES", "TOKEN_DURATION", "INVITATION_EXPIRY"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("DatabaseType = %q, want sqlite", cfg.DatabaseType)
	}
	if !cfg.RejectCycles {
		t.Error("RejectCycles should default to true")
	}
	if cfg.TokenDuration != 24*time.Hour {
		t.Errorf("TokenDuration = %v, want 24h", cfg.TokenDuration)
	}
	if cfg.InvitationExpiry != 7*24*time.Hour {
		t.Errorf("InvitationExpiry = %v, want 168h", cfg.InvitationExpiry)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("REJECT_CYCLES", "false")
	t.Setenv("TOKEN_DURATION", "2h")

	cfg := Load()

	if cfg.ServerPort != "9999" {
		t.Errorf("ServerPort = %q, want 9999", cfg.ServerPort)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("DatabaseType = %q, want postgres", cfg.DatabaseType)
	}
	if cfg.RejectCycles {
		t.Error("RejectCycles should be overridden to false")
	}
	if cfg.TokenDuration != 2*time.Hour {
		t.Errorf("TokenDuration = %v, want 2h", cfg.TokenDuration)
	}
}

func TestGetEnvBoolIgnoresGarbage(t *testing.T) {
	t.Setenv("REJECT_CYCLES", "definitely")

	if !getEnvBool("REJECT_CYCLES", true) {
		t.Error("unparseable value should fall back to the default")
	}
}
