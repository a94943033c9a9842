/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tastebud/apiserver/config"
	"github.com/tastebud/apiserver/internal/db"
	"github.com/tastebud/apiserver/internal/seed"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert sample users and recipes",
	Long: `Insert sample users and recipes for local development.
Running it twice is safe; existing sample accounts are left alone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to connect database: %v\n", err)
			os.Exit(1)
		}
		defer dbConn.Close()

		return seed.Run(cmd.Context(), dbConn)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
