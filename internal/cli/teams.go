package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tOgg1/squads/internal/models"
	"github.com/tOgg1/squads/internal/squads/nav"
)

func newTeamsCmd(env *environment) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:     "teams",
		Aliases: []string{"team"},
		Short:   "List teams",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			teams, err := loadTeams(cmd, env)
			if err != nil {
				return err
			}
			teams = nav.FilterTeams(teams, search)
			out := cmd.OutOrStdout()
			if env.flags.jsonOutput {
				return writeJSON(out, teams)
			}
			rows := make([][]string, 0, len(teams))
			for _, team := range teams {
				rows = append(rows, []string{team.ID, team.DisplayName, strconv.Itoa(len(team.Channels))})
			}
			return writeTable(out, []string{"ID", "NAME", "CHANNELS"}, rows)
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive name prefix filter")
	return cmd
}

func newChannelsCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:     "channels <team>",
		Aliases: []string{"channel"},
		Short:   "List a team's channels, general first",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			teams, err := loadTeams(cmd, env)
			if err != nil {
				return err
			}
			team, ok := nav.FindTeam(teams, args[0])
			if !ok {
				return fmt.Errorf("team %q not found", args[0])
			}
			channels := nav.SortChannels(team)
			out := cmd.OutOrStdout()
			if env.flags.jsonOutput {
				return writeJSON(out, channels)
			}
			rows := make([][]string, 0, len(channels))
			for _, ch := range channels {
				rows = append(rows, []string{ch.ID, ch.DisplayName, formatYesNo(ch.IsGeneral(team))})
			}
			return writeTable(out, []string{"ID", "NAME", "GENERAL"}, rows)
		},
	}
}

func loadTeams(cmd *cobra.Command, env *environment) ([]models.Team, error) {
	provider, err := env.dataProvider()
	if err != nil {
		return nil, err
	}
	teams, err := provider.Teams(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("load teams: %w", err)
	}
	return teams, nil
}
