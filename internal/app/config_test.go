package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFromFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `telegram:
  token: file-token
logging:
  level: debug
database:
  host: db.internal
  name: lessons
access:
  admin_usernames: [tutor]
redis:
  lock_ttl_seconds: 30
ops:
  addr: " :9090 "
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("ADMIN_USERNAMES", "alice, bob")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "file-token" || cfg.Logging.Level != "debug" {
		t.Fatalf("core config not read from file: %+v", cfg.Config)
	}
	if cfg.CoreConfig().Telegram.RunMode != "longpoll" {
		t.Fatalf("run mode = %q", cfg.CoreConfig().Telegram.RunMode)
	}
	if cfg.Database.Host != "db.internal" || cfg.Database.Port != "5432" {
		t.Fatalf("database = %+v", cfg.Database)
	}
	admins := cfg.AdminList()
	if admins.Len() != 2 || !admins.Contains("alice") || !admins.Contains("bob") || admins.Contains("tutor") {
		t.Fatalf("env allow-list did not replace the file one")
	}
	if cfg.LockTTL() != 30*time.Second {
		t.Fatalf("lock ttl = %v", cfg.LockTTL())
	}
	if cfg.Ops.Addr != ":9090" {
		t.Fatalf("ops addr = %q", cfg.Ops.Addr)
	}
}

func TestLoadConfigEnvironmentOnly(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "env-token")
	t.Setenv("WEBHOOK", "true")
	t.Setenv("APP_URL", "https://lessons.example.com")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.RunMode != "webhook" || cfg.Webhook.Port != 8443 {
		t.Fatalf("webhook = %+v", cfg.Webhook)
	}
	if cfg.Redis.Addr != "redis:6379" {
		t.Fatalf("redis addr = %q", cfg.Redis.Addr)
	}
	if cfg.AdminList().Len() != 0 {
		t.Fatal("admins without configuration")
	}
}

func TestLoadConfigRequiresToken(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	if _, err := LoadConfig(""); err == nil {
		t.Fatal("expected missing token error")
	}
}

func TestLoadConfigRejectsNegativeTTL(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "t")
	t.Setenv("REDIS_LOCK_TTL_SECONDS", "-1")
	if _, err := LoadConfig(""); err == nil {
		t.Fatal("expected ttl error")
	}
}
