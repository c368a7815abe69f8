// Package chat implements the session commands.
package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/malonaz/sessionsync/internal/cli"
	"github.com/malonaz/sessionsync/internal/configuration"
	"github.com/malonaz/sessionsync/legacy"
	"github.com/malonaz/sessionsync/lifecycle"
	"github.com/malonaz/sessionsync/session"
	"github.com/malonaz/sessionsync/store"
)

// Env holds the dependencies of the chat commands.
type Env struct {
	Config     *configuration.Config
	Controller *lifecycle.Controller
	// Local may be nil when the local database could not be opened.
	Local  *store.Store
	Legacy *legacy.Store
}

// NewCmd instantiates and returns the chat command.
func NewCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Manage chat sessions",
		Long:  "Manage chat sessions stored locally or in the signed-in account",
	}
	cmd.AddCommand(newListCmd(env))
	cmd.AddCommand(newShowCmd(env))
	cmd.AddCommand(newSaveCmd(env))
	cmd.AddCommand(newDeleteCmd(env))
	cmd.AddCommand(newMigrateCmd(env))
	return cmd
}

// newContext returns a context bounded by the request timeout.
func (e *Env) newContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout := e.Config.Timeout(); timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

// initialize the controller, failing if no backend is available.
func (e *Env) initialize(ctx context.Context, desiredID string) error {
	if err := e.Controller.Initialize(ctx, desiredID); err != nil {
		return err
	}
	if !e.Controller.State().IsAvailable {
		return errors.New("no session storage available")
	}
	return nil
}

// newListCmd instantiates and returns the chat list command.
func newListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all sessions",
		Long:  "List all sessions, most recently updated first",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := env.newContext(cmd)
			defer cancel()
			cobra.CheckErr(env.initialize(ctx, ""))

			state := env.Controller.State()
			cli.Title("SESSIONS (%d)", len(state.Sessions))
			for _, metadata := range state.Sessions {
				cli.SessionLine(metadata.ID == state.CurrentSessionID, metadata.ID, metadata.Title, describe(metadata))
			}
		},
	}
}

// newShowCmd instantiates and returns the chat show command.
func newShowCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a session",
		Long:  "Show the messages and diagram state of a session",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := env.newContext(cmd)
			defer cancel()
			cobra.CheckErr(env.initialize(ctx, ""))

			content, err := env.Controller.SwitchSession(ctx, args[0])
			cobra.CheckErr(err)
			if content == nil {
				cobra.CheckErr(errors.Wrapf(session.ErrNotFound, "session '%s'", args[0]))
			}

			cli.Title("SESSION %s", args[0])
			for _, message := range content.Messages {
				cli.Message(message.Role, message.Content)
			}
			cli.Separator()
			cli.Info("%d snapshots, diagram: %t", len(content.XMLSnapshots), content.DiagramXML != "")
		},
	}
}

func describe(metadata *session.Metadata) string {
	updated := time.UnixMilli(metadata.UpdatedAt).Format("Jan 2, 2006 3:04 PM")
	description := fmt.Sprintf("%d messages, updated %s", metadata.MessageCount, updated)
	if metadata.HasDiagram {
		description += ", diagram"
	}
	return description
}
