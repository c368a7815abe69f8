package chat

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/malonaz/sessionsync/internal/cli"
)

// newMigrateCmd instantiates and returns the chat migrate command.
func newMigrateCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Import the legacy conversation",
		Long:  "Import the legacy single conversation into the local database. Safe to run more than once",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			if env.Local == nil {
				cobra.CheckErr(errors.New("local database unavailable"))
			}
			keys, err := env.Legacy.Keys()
			cobra.CheckErr(err)
			if len(keys) == 0 {
				cli.Warn("no legacy data found")
			} else {
				cli.Info("legacy data found: %s", strings.Join(keys, ", "))
			}

			ctx, cancel := env.newContext(cmd)
			defer cancel()
			cobra.CheckErr(env.Local.MigrateLegacyIfNeeded(ctx, env.Legacy))
			count, err := env.Local.Count(ctx)
			cobra.CheckErr(err)
			cli.Info("local database holds %d sessions", count)
		},
	}
}
