package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/malonaz/sessionsync/backend"
	"github.com/malonaz/sessionsync/chat"
	"github.com/malonaz/sessionsync/internal/configuration"
	"github.com/malonaz/sessionsync/internal/identity"
	"github.com/malonaz/sessionsync/internal/logging"
	"github.com/malonaz/sessionsync/legacy"
	"github.com/malonaz/sessionsync/lifecycle"
	"github.com/malonaz/sessionsync/remote"
	"github.com/malonaz/sessionsync/server"
	"github.com/malonaz/sessionsync/store"
)

var rootCmd = &cobra.Command{
	Use:     "sessionsync",
	Short:   "Chat session storage, local or synced to your account",
	Version: "1.0",
}

func main() {
	config, err := configuration.Parse(configuration.DefaultPath)
	if err != nil {
		panic(err)
	}

	logger, logCloser, err := logging.New(logging.Opts{
		Level:  config.Logging.Level,
		Format: config.Logging.Format,
		Path:   config.Logging.Path,
	})
	if err != nil {
		panic(err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing local database leaves the remote store, if any, as the only backend.
	var local backend.LocalStore
	localStore, err := store.New(config.Database, logger)
	if err != nil {
		logger.Warn("local database unavailable", "path", config.Database, "error", err)
	} else {
		defer localStore.Close()
		local = localStore
	}

	var remoteFactory backend.RemoteFactory
	if config.PostgresDSN != "" {
		remoteStore, err := remote.Connect(ctx, config.PostgresDSN, logger)
		if err != nil {
			panic(err)
		}
		defer remoteStore.Close()
		schemaCtx, cancel := context.WithTimeout(ctx, config.Timeout())
		if err := remoteStore.EnsureSchema(schemaCtx); err != nil {
			logger.Warn("creating remote schema", "error", err)
		}
		cancel()
		remoteFactory = remoteStore.Backend
	}

	identityProvider, err := identity.NewFileProvider(config.CredentialsFile, logger)
	if err != nil {
		panic(err)
	}

	legacyStore := legacy.New(config.LegacyDirectory)
	controller := lifecycle.New(
		backend.NewSelector(identityProvider, local, remoteFactory),
		lifecycle.WithLogger(logger),
		lifecycle.WithMaxSessions(config.MaxSessions),
		lifecycle.WithLegacySource(legacyStore),
	)

	rootCmd.AddCommand(chat.NewCmd(&chat.Env{
		Config:     config,
		Controller: controller,
		Local:      localStore,
		Legacy:     legacyStore,
	}))
	rootCmd.AddCommand(server.NewServeCmd(controller, identityProvider, logger, config.Timeout()))
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
