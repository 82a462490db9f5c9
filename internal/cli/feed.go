package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tOgg1/squads/internal/squads/data"
	"github.com/tOgg1/squads/internal/squads/emoji"
	"github.com/tOgg1/squads/internal/squads/expansion"
	"github.com/tOgg1/squads/internal/squads/feed"
)

type feedItem struct {
	MessageID string    `json:"message_id"`
	Kind      string    `json:"kind"`
	Author    string    `json:"author,omitempty"`
	Text      string    `json:"text,omitempty"`
	At        time.Time `json:"at,omitempty"`
	ThreadID  string    `json:"thread_id,omitempty"`
}

func newFeedCmd(env *environment) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:     "feed",
		Aliases: []string{"activity"},
		Short:   "Print the activity feed, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			provider, err := env.dataProvider()
			if err != nil {
				return err
			}
			activities, err := provider.Activities(ctx)
			if err != nil {
				return fmt.Errorf("load activities: %w", err)
			}
			profiles, err := provider.Profiles(ctx)
			if err != nil {
				env.logger.Warn().Err(err).Msg("profiles unavailable; using display names")
			}
			emojis, err := emoji.Load(env.cfg.UI.EmojiFile)
			if err != nil {
				return err
			}

			opts := feed.Options{
				RenderOptions: feed.RenderOptions{Emoji: emojis, Profiles: data.ProfileIndex(profiles)},
				PreviewWidth:  env.cfg.UI.PreviewWidth,
			}
			var entries []feed.Entry
			skipped := 0
			if strict {
				entries, err = feed.AssembleStrict(activities, expansion.New(), opts)
				if err != nil {
					return err
				}
			} else {
				result := feed.Assemble(activities, expansion.New(), opts)
				entries, skipped = result.Entries, len(result.Skipped)
			}

			items := make([]feedItem, 0, len(entries))
			for _, entry := range entries {
				items = append(items, feedItem{
					MessageID: entry.MessageID,
					Kind:      entry.Kind.String(),
					Author:    entry.Preview.Author,
					Text:      entry.Preview.Text,
					At:        entry.Preview.At,
					ThreadID:  entry.Key.ThreadID,
				})
			}
			out := cmd.OutOrStdout()
			if env.flags.jsonOutput {
				return writeJSON(out, items)
			}
			rows := make([][]string, 0, len(items))
			for i, item := range items {
				rows = append(rows, []string{item.Author, entries[i].Preview.Relative, item.Text})
			}
			if err := writeTable(out, []string{"AUTHOR", "WHEN", "MESSAGE"}, rows); err != nil {
				return err
			}
			if skipped > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d malformed item(s) skipped\n", skipped)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on the first malformed activity")
	return cmd
}
