package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/connectleads/wamanager/config"
	"github.com/connectleads/wamanager/internal/adminapi"
	"github.com/connectleads/wamanager/internal/app"
	"github.com/connectleads/wamanager/internal/webserver"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateTrace bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin api",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the operation log tables",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateTrace, "trace", false, "print the migration sql")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	a := app.NewApplication(cfg)
	if err := a.Init(cfg); err != nil {
		return err
	}
	defer a.Release()

	server := webserver.Init(a)
	adminapi.Init()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case s := <-sig:
		zap.L().Info("wamanager: shutting down", zap.String("signal", s.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	cfg.Database.Enabled = true
	a := app.NewApplication(cfg)
	if err := a.Init(cfg); err != nil {
		return err
	}
	defer a.Release()
	if a.DB() == nil {
		return errDatabaseUnavailable
	}
	if err := a.MigrateDB(migrateTrace); err != nil {
		return err
	}
	zap.L().Info("wamanager: operation log tables migrated")
	return nil
}
