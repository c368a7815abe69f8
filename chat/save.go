package chat

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/malonaz/sessionsync/internal/cli"
	"github.com/malonaz/sessionsync/session"
)

// newSaveCmd instantiates and returns the chat save command.
func newSaveCmd(env *Env) *cobra.Command {
	var opts struct {
		SessionID string
	}

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save a session from stdin",
		Long:  "Save the session content read as JSON from stdin. Creates a new session unless --session is set",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			data := &session.SaveData{}
			cobra.CheckErr(errors.Wrap(json.NewDecoder(cmd.InOrStdin()).Decode(data), "decoding session data"))

			ctx, cancel := env.newContext(cmd)
			defer cancel()
			cobra.CheckErr(env.initialize(ctx, opts.SessionID))
			if opts.SessionID != "" && env.Controller.CurrentSessionID() != opts.SessionID {
				cobra.CheckErr(errors.Wrapf(session.ErrNotFound, "session '%s'", opts.SessionID))
			}

			cobra.CheckErr(env.Controller.SaveCurrentSession(ctx, data, opts.SessionID))
			state := env.Controller.State()
			cli.Info("saved session %s (%s)", state.CurrentSessionID, state.CurrentSession.Title)
		},
	}

	cmd.Flags().StringVarP(&opts.SessionID, "session", "s", "", "Session to update")
	return cmd
}
