package chat

import (
	"github.com/spf13/cobra"

	"github.com/malonaz/sessionsync/internal/cli"
	"github.com/malonaz/sessionsync/lifecycle"
)

// newDeleteCmd instantiates and returns the chat delete command.
func newDeleteCmd(env *Env) *cobra.Command {
	var opts struct {
		Yes bool
	}

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session",
		Long:  "Delete a session",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if !opts.Yes && !cli.QueryUser("Delete session "+args[0]+"?") {
				return
			}

			ctx, cancel := env.newContext(cmd)
			defer cancel()
			cobra.CheckErr(env.initialize(ctx, ""))
			if !hasSession(env.Controller.State(), args[0]) {
				cli.Warn("session %s not found", args[0])
				return
			}
			_, err := env.Controller.DeleteSession(ctx, args[0])
			cobra.CheckErr(err)
			cli.Info("deleted session %s, %d remaining", args[0], len(env.Controller.State().Sessions))
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Skip confirmation")
	return cmd
}

func hasSession(state *lifecycle.State, id string) bool {
	for _, metadata := range state.Sessions {
		if metadata.ID == id {
			return true
		}
	}
	return false
}
