package app

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/lessonbot/core/config"
	coredatabase "github.com/m3rciful/lessonbot/core/database"
	"github.com/m3rciful/lessonbot/internal/delivery"
)

// AccessConfig lists who becomes an admin on first /start.
type AccessConfig struct {
	AdminUsernames []string `yaml:"admin_usernames" envconfig:"ADMIN_USERNAMES"`
}

// RedisConfig enables the shared delivery lock. An empty Addr keeps locks in process.
type RedisConfig struct {
	Addr       string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password   string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB         int    `yaml:"db" envconfig:"REDIS_DB"`
	Prefix     string `yaml:"prefix" envconfig:"REDIS_PREFIX"`
	LockTTLSec int    `yaml:"lock_ttl_seconds" envconfig:"REDIS_LOCK_TTL_SECONDS"`
}

// OpsConfig controls the side HTTP server. An empty Addr disables it.
type OpsConfig struct {
	Addr string `yaml:"addr" envconfig:"OPS_ADDR"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Access   AccessConfig        `yaml:"access"`
	Redis    RedisConfig         `yaml:"redis"`
	Ops      OpsConfig           `yaml:"ops"`
}

// CoreConfig implements cmd.ConfigCarrier.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// LoadConfig reads the YAML file at path (optional) and the environment.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	cfg.Database = cfg.Database.WithDefaults()

	if cfg.Redis.LockTTLSec < 0 {
		return nil, fmt.Errorf("redis.lock_ttl_seconds must be >= 0")
	}
	cfg.Redis.Addr = strings.TrimSpace(cfg.Redis.Addr)
	cfg.Ops.Addr = strings.TrimSpace(cfg.Ops.Addr)
	return &cfg, nil
}

// AdminList returns the parsed allow-list.
func (c *Config) AdminList() delivery.AdminList {
	return delivery.NewAdminList(c.Access.AdminUsernames)
}

// LockTTL is the Redis lock expiry; zero lets the locker pick its default.
func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.Redis.LockTTLSec) * time.Second
}
