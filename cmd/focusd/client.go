package main

import (
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/focusd/internal/client"
	"github.com/sandeepkv93/focusd/internal/config"
)

var (
	clientServer string
	clientUser   string
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Open the terminal UI against a running server",
	Long: `Open the terminal UI against a running server.

Examples:
  focusd client
  focusd client --server http://127.0.0.1:8080 --user alice`,
	RunE: runClient,
}

func init() {
	clientCmd.Flags().StringVar(&clientServer, "server", "", "server base URL (overrides config)")
	clientCmd.Flags().StringVar(&clientUser, "user", "", "owner sent with every request (overrides config)")
}

func runClient(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if clientServer != "" {
		cfg.Client.BaseURL = clientServer
	}
	if clientUser != "" {
		cfg.Client.User = clientUser
	}
	return client.Run(cfg.Client.BaseURL, cfg.Client.User)
}
