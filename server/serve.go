package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/malonaz/sessionsync/lifecycle"
)

// IdentityWatcher emits the user id whenever the signed-in identity changes.
type IdentityWatcher interface {
	Watch(ctx context.Context) (<-chan string, error)
}

// NewServeCmd creates a new serve command.
// watcher may be nil, in which case identity changes are not followed.
func NewServeCmd(controller *lifecycle.Controller, watcher IdentityWatcher, logger *slog.Logger, timeout time.Duration) *cobra.Command {
	var opts struct {
		Port int
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session API",
		Long:  "Serve the session API over HTTP, following sign-in and sign-out",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			server := New(controller, logger, timeout)
			return Run(cmd.Context(), server, controller, watcher, opts.Port)
		},
	}

	cmd.Flags().IntVarP(&opts.Port, "port", "p", 3030, "Port to serve on")
	return cmd
}

// Run initializes the controller, then serves until ctx is done.
// Every identity change re-initializes the controller against the newly selected backend.
func Run(ctx context.Context, server *Server, controller *lifecycle.Controller, watcher IdentityWatcher, port int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var changes <-chan string
	if watcher != nil {
		var err error
		if changes, err = watcher.Watch(ctx); err != nil {
			return err
		}
	}
	if err := controller.Initialize(ctx, ""); err != nil {
		server.logger.Warn("initializing sessions", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Start(ctx, port) })
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case userID, ok := <-changes:
				if !ok {
					return nil
				}
				server.logger.Info("identity changed", "signed_in", userID != "")
				if err := controller.Initialize(ctx, ""); err != nil {
					server.logger.Warn("reinitializing sessions", "error", err)
				}
			}
		}
	})
	return g.Wait()
}
