package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		Env            string   `yaml:"env"` // development | production
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`

	Openai struct {
		ApiKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`

	Database struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// LoadConfig reads the configuration file. ${VAR} references in the file are
// expanded from the environment, so secrets can live in a .env instead.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Openai.Model == "" {
		cfg.Openai.Model = "gpt-4"
	}

	return &cfg, nil
}

// IsDevelopment reports whether verbose error details should be returned to clients.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env != "production"
}
