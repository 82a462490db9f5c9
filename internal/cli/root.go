// Package cli wires configuration, logging and storage into the squads
// commands.
package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// Execute runs the squads command line until ctx is cancelled.
func Execute(ctx context.Context, version string) error {
	return newRootCmd(version).ExecuteContext(ctx)
}

func newRootCmd(version string) *cobra.Command {
	env := &environment{}
	cmd := &cobra.Command{
		Use:           "squads",
		Short:         "Terminal client for team activity and conversations",
		Long:          "squads shows your activity feed, teams and channel conversations in the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return env.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), env)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&env.flags.configFile, "config", "", "config file (default is $HOME/.config/squads/config.yaml)")
	flags.StringVar(&env.flags.logLevel, "log-level", "", "override logging level (debug, info, warn, error)")
	flags.StringVar(&env.flags.logFormat, "log-format", "", "override logging format (json, console)")
	flags.StringVar(&env.flags.fixtures, "fixtures", "", "serve data from a fixtures directory instead of the API")
	flags.BoolVar(&env.flags.jsonOutput, "json", false, "machine-readable output")

	cmd.AddCommand(
		newTUICmd(env),
		newFeedCmd(env),
		newTeamsCmd(env),
		newChannelsCmd(env),
		newCacheCmd(env),
	)
	return cmd
}
