package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/auth"
	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/bot"
	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/cache"
	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/catalog"
	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/config"
	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/notify"
	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/onboard"
	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/runlock"
	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/scheduler"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot",
	Long:  `Starts the Telegram long-poll loop, the callback router, and the daily auto update job, and runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("config not loaded")
		}
		if cfg.Telegram.BotToken == "" {
			return fmt.Errorf("telegram bot token is not set; use TELEGRAM_BOT_TOKEN or telegram.bot_token")
		}

		lockDir := cfg.Daemon.LockPath
		if lockDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("resolve home directory for lock path: %w", err)
			}
			lockDir = filepath.Join(home, ".sdvbot")
		}
		lock, err := runlock.Acquire(lockDir, nil)
		if err != nil {
			return err
		}
		defer lock.Release()

		catalogTimeout, err := config.DurationOrDefault(cfg.Catalog.Timeout, config.DefaultCatalogTimeout)
		if err != nil {
			return fmt.Errorf("invalid catalog.timeout: %w", err)
		}
		onboardTimeout, err := config.DurationOrDefault(cfg.Onboarding.Timeout, config.DefaultOnboardingTimeout)
		if err != nil {
			return fmt.Errorf("invalid onboarding.timeout: %w", err)
		}
		sweepDelay, err := config.DurationOrDefault(cfg.Onboarding.SweepDelay, config.DefaultOnboardingSweepDelay)
		if err != nil {
			return fmt.Errorf("invalid onboarding.sweep_delay: %w", err)
		}

		gateway := catalog.NewGateway(cfg.Catalog.GoalsURL, cfg.Catalog.BatchesURL, catalogTimeout)
		batchCache := cache.NewBatchCache()
		gate := auth.NewGate(cfg.Auth.Operators)
		pipeline := onboard.NewPipeline(cfg.Onboarding.UpdateURL, cfg.Onboarding.PublishURL, cfg.Onboarding.StatusURL, onboardTimeout, sweepDelay)

		adapter := bot.NewTelegramAdapter(cfg.Telegram.BotToken, cfg.Telegram.UpdateTimeout)
		notifier := notify.NewBroadcaster(adapter, gate.Operators())

		sched, err := scheduler.New(cfg.Scheduler.Spec, pipeline, notifier)
		if err != nil {
			return fmt.Errorf("invalid scheduler.spec: %w", err)
		}

		router := bot.NewRouter(gateway, batchCache, gate, pipeline, sched, notifier, adapter)
		adapter.SetRouter(router)

		sig := NewSignalHandler(cmd.Context())
		sig.Start()
		defer sig.Stop()
		ctx := sig.ctx

		if err := adapter.Start(ctx); err != nil {
			return fmt.Errorf("start telegram adapter: %w", err)
		}
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer sched.Stop()

		slog.Info("SDV Bot running",
			"operators", len(cfg.Auth.Operators),
			"schedule", cfg.Scheduler.Spec,
		)

		<-ctx.Done()
		sig.Wait()
		slog.Info("SDV Bot stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
