package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Telegram   TelegramConfig   `koanf:"telegram"`
	Auth       AuthConfig       `koanf:"auth"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	Onboarding OnboardingConfig `koanf:"onboarding"`
	Scheduler  SchedulerConfig  `koanf:"scheduler"`
	Daemon     DaemonConfig     `koanf:"daemon"`
}

type ServerConfig struct {
	LogLevel string `koanf:"log_level"`
}

type TelegramConfig struct {
	BotToken      string `koanf:"bot_token"`
	UpdateTimeout int    `koanf:"update_timeout"`
}

// AuthConfig carries the static operator allow-list. Loaded once at
// startup and immutable for the process lifetime.
type AuthConfig struct {
	Operators []int64 `koanf:"operators"`
}

type CatalogConfig struct {
	GoalsURL   string `koanf:"goals_url"`
	BatchesURL string `koanf:"batches_url"`
	Timeout    string `koanf:"timeout"`
}

type OnboardingConfig struct {
	UpdateURL  string `koanf:"update_url"`
	PublishURL string `koanf:"publish_url"`
	StatusURL  string `koanf:"status_url"`
	Timeout    string `koanf:"timeout"`
	SweepDelay string `koanf:"sweep_delay"`
}

type SchedulerConfig struct {
	Spec string `koanf:"spec"`
}

type DaemonConfig struct {
	LockPath string `koanf:"lock_path"`
}

const (
	DefaultServerLogLevel        = "info"
	DefaultTelegramUpdateTimeout = 60
	DefaultCatalogGoalsURL       = "https://unknownkil.github.io/Goal_unad-json/goals.json"
	DefaultCatalogBatchesURL     = "https://api-frontend.unacademy.com/api/v1/batch/lists/filter/"
	DefaultCatalogTimeout        = "15s"
	DefaultOnboardingUpdateURL   = "https://sdvumapi2.onrender.com/update-batch"
	DefaultOnboardingPublishURL  = "https://studyuk.fun/add_batch.php"
	DefaultOnboardingStatusURL   = "https://studyuk.fun/batch.json"
	DefaultOnboardingTimeout     = "30s"
	DefaultOnboardingSweepDelay  = "1s"
	DefaultSchedulerSpec         = "0 12 * * *"
)

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.log_level":        DefaultServerLogLevel,
		"telegram.update_timeout": DefaultTelegramUpdateTimeout,
		"catalog.goals_url":       DefaultCatalogGoalsURL,
		"catalog.batches_url":     DefaultCatalogBatchesURL,
		"catalog.timeout":         DefaultCatalogTimeout,
		"onboarding.update_url":   DefaultOnboardingUpdateURL,
		"onboarding.publish_url":  DefaultOnboardingPublishURL,
		"onboarding.status_url":   DefaultOnboardingStatusURL,
		"onboarding.timeout":      DefaultOnboardingTimeout,
		"onboarding.sweep_delay":  DefaultOnboardingSweepDelay,
		"scheduler.spec":          DefaultSchedulerSpec,
		"auth.operators":          []int64{},
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	// Config file loading
	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			globalPath := filepath.Join(home, ".sdvbot", "config.yaml")
			if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
				slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
			}
		}
	}

	// Environment Variables
	k.Load(env.Provider("SDVBOT_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "SDVBOT_")), "_", ".", -1)
	}), nil)

	// CLI Flags
	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" && cfg.Telegram.BotToken == "" {
		cfg.Telegram.BotToken = token
	}

	return &cfg, nil
}
