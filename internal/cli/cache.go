package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tOgg1/squads/internal/db"
	"github.com/tOgg1/squads/internal/models"
	"github.com/tOgg1/squads/internal/squads/nav"
	"github.com/tOgg1/squads/internal/squads/rescache"
)

const defaultResolveTimeout = time.Minute

func newCacheCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and fill the image cache",
	}
	cmd.AddCommand(newCacheResolveCmd(env), newCacheListCmd(env))
	return cmd
}

type resolveResult struct {
	Team     string `json:"team"`
	Identity string `json:"identity"`
	State    string `json:"state"`
	Path     string `json:"path,omitempty"`
	Error    string `json:"error,omitempty"`
}

func newCacheResolveCmd(env *environment) *cobra.Command {
	var timeout time.Duration
	var all bool
	cmd := &cobra.Command{
		Use:   "resolve [team...]",
		Short: "Fetch team pictures into the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !all {
				return errors.New("name at least one team or pass --all")
			}
			teams, err := loadTeams(cmd, env)
			if err != nil {
				return err
			}
			targets := teams
			if !all {
				targets = make([]models.Team, 0, len(args))
				for _, id := range args {
					team, ok := nav.FindTeam(teams, id)
					if !ok {
						return fmt.Errorf("team %q not found", id)
					}
					targets = append(targets, team)
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			cache, err := env.openCache(ctx)
			if err != nil {
				return err
			}

			requests := make([]models.ImageRequest, 0, len(targets))
			for _, team := range targets {
				req := nav.PictureRequest(team)
				requests = append(requests, req)
				cache.Fetch(req)
			}
			results := make([]resolveResult, 0, len(targets))
			for i, req := range requests {
				res, err := cache.Await(ctx, req.Identity)
				if err != nil && res.Err == nil {
					res.Err = err
				}
				result := resolveResult{Team: targets[i].ID, Identity: req.Identity, State: res.State.String(), Path: res.Path}
				if res.Err != nil {
					result.Error = res.Err.Error()
				}
				results = append(results, result)
			}

			out := cmd.OutOrStdout()
			if env.flags.jsonOutput {
				return writeJSON(out, results)
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				detail := r.Path
				if r.Error != "" {
					detail = r.Error
				}
				rows = append(rows, []string{r.Team, r.State, detail})
			}
			return writeTable(out, []string{"TEAM", "STATE", "PATH"}, rows)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", defaultResolveTimeout, "overall timeout")
	cmd.Flags().BoolVar(&all, "all", false, "resolve every team's picture")
	return cmd
}

type cacheListing struct {
	Name      string    `json:"name"`
	Identity  string    `json:"identity,omitempty"`
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"mod_time"`
	FetchedAt time.Time `json:"fetched_at,omitempty"`
}

func newCacheListCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List cached images, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			// Listing never fetches.
			cache, err := rescache.New(rescache.FetcherFunc(func(context.Context, models.ImageRequest) ([]byte, error) {
				return nil, errors.New("listing does not fetch")
			}), rescache.Options{Dir: env.cfg.ImageCacheDir(), Extension: env.cfg.Cache.Extension})
			if err != nil {
				return err
			}
			entries, err := cache.Entries()
			if err != nil {
				return err
			}

			byPath := map[string]rescache.ManifestEntry{}
			database, err := env.openDB(ctx)
			if err != nil {
				env.logger.Warn().Err(err).Msg("resource manifest unavailable")
			} else {
				manifest, err := db.NewResourceRepository(database).List(ctx)
				if err != nil {
					return err
				}
				for _, m := range manifest {
					byPath[m.Path] = m
				}
			}

			listing := make([]cacheListing, 0, len(entries))
			for _, entry := range entries {
				item := cacheListing{Name: entry.Name, Size: entry.Size, ModTime: entry.ModTime}
				if m, ok := byPath[entry.Path]; ok {
					item.Identity = m.Identity
					item.FetchedAt = m.FetchedAt
				}
				listing = append(listing, item)
			}

			out := cmd.OutOrStdout()
			if env.flags.jsonOutput {
				return writeJSON(out, listing)
			}
			rows := make([][]string, 0, len(listing))
			for _, item := range listing {
				identity := item.Identity
				if identity == "" {
					identity = "-"
				}
				rows = append(rows, []string{item.Name, identity, humanize.IBytes(uint64(item.Size)), humanize.Time(item.ModTime)})
			}
			return writeTable(out, []string{"FILE", "IDENTITY", "SIZE", "MODIFIED"}, rows)
		},
	}
}
