package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/contoso-travel/chat-agent/server/internal/agent/model"
	pkgredis "github.com/contoso-travel/chat-agent/server/pkg/redis"
)

// AppConfig defines all configurable parameters of the service, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Server model.ServerConfig
	Redis  pkgredis.Config

	// Agent configs
	Agent   model.AgentConfig
	Stream  model.StreamModelConfig
	Prompt  model.PromptConfig
	Session model.SessionConfig
}

// loadConfig reads .env when present and binds the environment.
func loadConfig(envFile string) (AppConfig, error) {
	var cfg AppConfig
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load %s: %w", envFile, err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("process environment config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
