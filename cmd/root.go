/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/abrahamjose02/Article-Feed-Api/config"
	"github.com/abrahamjose02/Article-Feed-Api/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "articlefeed",
	Short: "Article feed backend",
	Long: `Backend for the article feed: account registration with emailed
activation codes, cookie sessions, article publishing and a feed
personalized by tag preferences.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *zap.Logger {
	return logger.New(logger.Config{Level: cfg.Log.Level, Encoding: cfg.Log.Encoding})
}
