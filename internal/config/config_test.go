package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()
	def := Default()

	if cfg.ListenAddr != def.ListenAddr {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, def.ListenAddr)
	}
	if cfg.RecentWindow != def.RecentWindow {
		t.Errorf("RecentWindow = %d, want %d", cfg.RecentWindow, def.RecentWindow)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("PARTNER_TIMEOUT", "3s")
	t.Setenv("RECENT_WINDOW", "50")

	cfg := FromEnv()
	if cfg.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q, want :9999", cfg.ListenAddr)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, want empty (explicit override)", cfg.RedisAddr)
	}
	if cfg.PartnerTimeout != 3*time.Second {
		t.Errorf("PartnerTimeout = %s, want 3s", cfg.PartnerTimeout)
	}
	if cfg.RecentWindow != 50 {
		t.Errorf("RecentWindow = %d, want 50", cfg.RecentWindow)
	}
}

func TestFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("PARTNER_TIMEOUT", "not a duration")
	t.Setenv("RECENT_WINDOW", "-5")

	cfg := FromEnv()
	def := Default()
	if cfg.PartnerTimeout != def.PartnerTimeout {
		t.Errorf("PartnerTimeout = %s, want default %s", cfg.PartnerTimeout, def.PartnerTimeout)
	}
	if cfg.RecentWindow != def.RecentWindow {
		t.Errorf("RecentWindow = %d, want default %d", cfg.RecentWindow, def.RecentWindow)
	}
}
