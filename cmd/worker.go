/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tastebud/apiserver/config"
	"github.com/tastebud/apiserver/internal/mailer"
	"github.com/tastebud/apiserver/internal/mq"
)

// workerCmd represents the worker command. It consumes queued
// reset-mail jobs and delivers them over SMTP.
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Runs the mail delivery worker",
	Long: `Runs the mail delivery worker. It subscribes to the reset-mail
channel on the configured broker and sends each job over SMTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadConfig()

		backend, err := mq.New(cmd.Context(), cfg.MQ)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to connect broker: %v\n", err)
			os.Exit(1)
		}
		defer backend.Close()

		sender, err := mailer.NewSMTPMailer(cfg.Mail)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to configure smtp: %v\n", err)
			os.Exit(1)
		}

		if err := mailer.ConsumeResetMail(cmd.Context(), backend, sender); err != nil {
			fmt.Fprintf(os.Stderr, "worker error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
