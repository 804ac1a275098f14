package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relaydesk/relaydesk/internal/config"
	"github.com/relaydesk/relaydesk/internal/db"
)

var cfgPath string

func main() {
	root := &cobra.Command{
		Use:   "relaydesk",
		Short: "Multi-channel customer engagement backend",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config.toml")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run database migrations and start the HTTP server",
		Run: func(*cobra.Command, []string) {
			runServe()
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(*cobra.Command, []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return db.Migrate(cfg.Postgres)
		},
	}

	root.AddCommand(serveCmd, migrateCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	path := cfgPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
