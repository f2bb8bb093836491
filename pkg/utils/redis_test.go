package utils

import "testing"

func TestCallLockScriptsCompile(t *testing.T) {
	// Compile-time smoke test: scripts should be initialized.
	if callLockAcquireScript == nil || callLockReleaseScript == nil {
		t.Fatalf("expected scripts to be initialized")
	}
}

func TestRedisConfigDefaults(t *testing.T) {
	cfg := RedisConfig{Addr: "localhost:6379"}.withDefaults()
	if cfg.PoolSize <= 0 || cfg.PingTimeout <= 0 {
		t.Fatalf("expected defaults applied, got %+v", cfg)
	}
}
