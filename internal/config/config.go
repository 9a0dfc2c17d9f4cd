package config

import (
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/agora-dev/agora/internal/rtdb"
)

type Config struct {
	Public  Public
	private Private
}

type Public struct {
	Addr           string           `yaml:"addr"`
	StoreBackend   string           `yaml:"store_backend"` // "memory" or "redis"
	Redis          rtdb.RedisConfig `yaml:"redis"`
	JwtTTL         time.Duration    `yaml:"jwt_ttl"`
	SecureCookies  bool             `yaml:"secure_cookies"`
	LogLevel       string           `yaml:"log_level"`
	LogJSON        bool             `yaml:"log_json"`
	TemplatesDir   string           `yaml:"templates_dir"`
	StaticDir      string           `yaml:"static_dir"`
	AllowedOrigins []string         `yaml:"allowed_origins"`
	CSP            string           `yaml:"csp"`
}

type Private struct {
	JwtKey        string `yaml:"jwt_key"`
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
}

func (c *Config) JwtKey() string {
	return c.private.JwtKey
}

func (c *Config) JwtTTL() time.Duration {
	return c.Public.JwtTTL
}

func (c *Config) AdminCredentials() (email, password string) {
	return c.private.AdminEmail, c.private.AdminPassword
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}

	if err := yaml.Unmarshal(configFile, output); err != nil {
		panic("can't unmarshal config file")
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{public, private}
	cfg.mustValidate()
	return cfg
}

func (c *Config) mustValidate() {
	if c.Public.Addr == "" {
		panic("config: addr is required")
	}
	if c.Public.JwtTTL <= 0 {
		panic("config: jwt_ttl is required")
	}
	if c.private.JwtKey == "" {
		panic("config: jwt_key is required")
	}
	switch c.Public.StoreBackend {
	case "memory", "redis":
	default:
		panic("config: store_backend must be memory or redis")
	}
}
