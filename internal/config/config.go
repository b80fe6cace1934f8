// Package config handles configuration loading: a YAML file with ${ENV}
// placeholders expanded from the environment, plus defaults for local runs.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Services ServicesConfig `yaml:"services"`
	System   SystemConfig   `yaml:"system"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

type MongoConfig struct {
	URI  string `yaml:"uri"`
	Name string `yaml:"name"`
}

type ServicesConfig struct {
	CatalogURL      string `yaml:"catalog_url"`
	NotificationURL string `yaml:"notification_url"`
	ChatURL         string `yaml:"chat_url"`
}

type SystemConfig struct {
	LogLevel  string `yaml:"log_level"`
	JWTSecret string `yaml:"jwt_secret"`
}

// Load reads the YAML file at path, expands ${ENV} placeholders and applies
// defaults. An empty path or a missing file yields a default config driven
// purely by the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err == nil {
			expanded := expandEnvVars(string(data))
			if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

// expandEnvVars replaces ${VAR} references with the environment value;
// missing variables expand to the empty string.
func expandEnvVars(s string) string {
	return os.ExpandEnv(s)
}

func (c *Config) applyDefaults() {
	def := func(target *string, envKey, fallback string) {
		if *target != "" {
			return
		}
		if v := os.Getenv(envKey); v != "" {
			*target = v
			return
		}
		*target = fallback
	}

	def(&c.Server.Port, "PORT", "8080")
	def(&c.Database.Host, "DB_HOST", "localhost")
	def(&c.Database.Port, "DB_PORT", "5432")
	def(&c.Database.User, "DB_USER", "swappo_user")
	def(&c.Database.Password, "DB_PASSWORD", "swappo_pass")
	def(&c.Database.Name, "DB_NAME", "swappo_matchmaking")
	def(&c.Database.SSLMode, "DB_SSLMODE", "disable")
	def(&c.Mongo.URI, "MONGO_URI", "mongodb://localhost:27017")
	def(&c.Mongo.Name, "MONGO_DB_NAME", "swappo_matchmaking")
	def(&c.Services.CatalogURL, "CATALOG_SERVICE_URL", "http://catalog_service:8000")
	def(&c.Services.NotificationURL, "NOTIFICATION_SERVICE_URL", "http://notifications_service:8000")
	def(&c.Services.ChatURL, "CHAT_SERVICE_URL", "http://chat_service:8000")
	def(&c.System.LogLevel, "LOG_LEVEL", "INFO")
	def(&c.System.JWTSecret, "JWT_SECRET", "")
}
