package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/Gobusters/ectoenv"
	"github.com/joho/godotenv"
)

// Load reads the optional .env files and binds the process environment onto a Config
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := ectoenv.BindEnv(cfg); err != nil {
		return nil, fmt.Errorf("bind environment: %w", err)
	}

	cfg.AllowOrigins = trimList(cfg.AllowOrigins)
	cfg.AllowMethods = trimList(cfg.AllowMethods)
	cfg.KafkaBrokers = trimList(cfg.KafkaBrokers)
	return cfg, nil
}

// trimList drops the blanks a comma separated variable like "a, b," leaves behind
func trimList(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
