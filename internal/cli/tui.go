package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/tOgg1/squads/internal/db"
	"github.com/tOgg1/squads/internal/squads/app"
	"github.com/tOgg1/squads/internal/squads/emoji"
	"github.com/tOgg1/squads/internal/squads/state"
	"github.com/tOgg1/squads/internal/squads/styles"
	"github.com/tOgg1/squads/internal/squads/tui"
)

func newTUICmd(env *environment) *cobra.Command {
	var theme string
	cmd := &cobra.Command{
		Use:     "tui",
		Aliases: []string{"ui"},
		Short:   "Open the interactive client",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if theme != "" {
				env.cfg.UI.Theme = theme
			}
			return runTUI(cmd.Context(), env)
		},
	}
	cmd.Flags().StringVar(&theme, "theme", "", "theme: default|high-contrast")
	return cmd
}

func runTUI(ctx context.Context, env *environment) error {
	style, err := styles.New(env.cfg.UI.Theme)
	if err != nil {
		return err
	}
	provider, err := env.dataProvider()
	if err != nil {
		return err
	}
	emojis, err := emoji.Load(env.cfg.UI.EmojiFile)
	if err != nil {
		return err
	}
	cache, err := env.openCache(ctx)
	if err != nil {
		return err
	}
	database, err := env.openDB(ctx)
	if err != nil {
		return err
	}

	session := state.New(env.cfg.StatePath())
	if err := session.Load(); err != nil {
		env.logger.Warn().Err(err).Msg("session state unreadable; starting fresh")
	}

	model := app.New(app.Deps{
		Provider:     provider,
		Cache:        cache,
		Emoji:        emojis,
		Session:      session,
		Snapshot:     db.NewSnapshotRepository(database),
		Layout:       style.Layout,
		PreviewWidth: env.cfg.UI.PreviewWidth,
		FetchTimeout: env.cfg.Cache.FetchTimeout,
	})
	runErr := tui.Run(model, style)
	return errors.Join(runErr, model.Close())
}
