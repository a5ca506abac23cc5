package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "wamanager",
	Short: "WhatsApp instance manager for ConnectLeads tenants",
	Long: `wamanager serves the admin api operators use to create, edit, delete,
connect and disconnect the WhatsApp instances of a tenant location.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
