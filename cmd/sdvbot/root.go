package main

import (
	"fmt"
	"os"

	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/config"
	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sdvbot",
	Short: "SDV batch catalog bot",
	Long:  `SDV Bot lets Telegram users browse the batch catalog and lets operators onboard batches into the downstream system.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd)
		if err != nil {
			return err
		}

		logger.Setup(cfg.Server.LogLevel)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.sdvbot/config.yaml)")
	rootCmd.PersistentFlags().String("server.log_level", config.DefaultServerLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("scheduler.spec", config.DefaultSchedulerSpec, "cron spec for the daily auto update")
}
