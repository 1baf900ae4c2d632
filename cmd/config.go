package main

import (
	"github.com/spf13/cobra"

	"github.com/cardfolio/cardscan-cli/internal/config"
)

var configInitOut string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage cardscan configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteExample(configInitOut); err != nil {
			return err
		}
		cmd.Printf("wrote %s\n", configInitOut)
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVar(&configInitOut, "out", "config.yaml", "output path")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
