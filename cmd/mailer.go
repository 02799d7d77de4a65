/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/abrahamjose02/Article-Feed-Api/config"
	"github.com/abrahamjose02/Article-Feed-Api/internal/notify"
	"github.com/abrahamjose02/Article-Feed-Api/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// mailerCmd drains the activation-email queue and delivers over SMTP.
var mailerCmd = &cobra.Command{
	Use:   "mailer",
	Short: "Deliver queued activation emails",
	Long: `Consumes activation emails published by the API server when
NOTIFY_BACKEND is rabbitmq or pubsub, and delivers them over SMTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := newLogger(cfg)
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		queue, err := server.OpenQueue(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = queue.Close() }()

		sender, err := notify.NewSMTPSender(cfg.SMTP)
		if err != nil {
			return err
		}

		worker := notify.NewWorker(queue, cfg.Notify.Channel, sender, log)
		if err := worker.Run(ctx); err != nil && !errors.Is(err, ctx.Err()) {
			log.Error("mailer stopped", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mailerCmd)
}
