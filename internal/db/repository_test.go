package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/squads/internal/models"
	"github.com/tOgg1/squads/internal/squads/rescache"
)

func TestSnapshotTeamsRoundTrip(t *testing.T) {
	repo := NewSnapshotRepository(setupTestDB(t))
	ctx := context.Background()

	teams := []models.Team{
		{ID: "t2", DisplayName: "Marketing", Channels: []models.Channel{{ID: "c9", DisplayName: "Launch"}, {ID: "t2", DisplayName: "General"}}},
		{ID: "t1", DisplayName: "Design", PictureETag: "etag-1", TeamSiteInformation: models.TeamSiteInformation{GroupID: "g1"}},
	}
	require.NoError(t, repo.SaveTeams(ctx, teams))

	got, err := repo.ListTeams(ctx)
	require.NoError(t, err)
	require.Equal(t, teams, got)

	require.NoError(t, repo.SaveTeams(ctx, teams[1:]))
	got, err = repo.ListTeams(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "t1", got[0].ID)
}

func TestSnapshotRejectsInvalidTeam(t *testing.T) {
	repo := NewSnapshotRepository(setupTestDB(t))
	ctx := context.Background()
	require.NoError(t, repo.SaveTeams(ctx, []models.Team{{ID: "t1", DisplayName: "Design"}}))

	err := repo.SaveTeams(ctx, []models.Team{{ID: "", DisplayName: "broken"}})
	require.ErrorIs(t, err, models.ErrEmptyID)

	got, err := repo.ListTeams(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1, "failed save leaves the previous snapshot")
}

func TestSnapshotProfiles(t *testing.T) {
	repo := NewSnapshotRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.SaveProfiles(ctx, []models.Profile{{ID: "b", DisplayName: "Bea"}, {ID: "a", DisplayName: "Al"}}))
	require.NoError(t, repo.SaveProfiles(ctx, []models.Profile{{ID: "a", DisplayName: "Alan", Email: "alan@example.com"}, {DisplayName: "skipped"}}))

	got, err := repo.ListProfiles(ctx)
	require.NoError(t, err)
	require.Equal(t, []models.Profile{
		{ID: "a", DisplayName: "Alan", Email: "alan@example.com"},
		{ID: "b", DisplayName: "Bea"},
	}, got)
}

func TestResourceManifest(t *testing.T) {
	repo := NewResourceRepository(setupTestDB(t))
	ctx := context.Background()
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.RecordResource(ctx, rescache.ManifestEntry{Identity: "etag-1", Path: "/c/etag-1.jpeg", Size: 10, FetchedAt: older}))
	require.NoError(t, repo.RecordResource(ctx, rescache.ManifestEntry{Identity: "etag-2", Path: "/c/etag-2.jpeg", Size: 20, FetchedAt: older.Add(time.Hour)}))
	require.NoError(t, repo.RecordResource(ctx, rescache.ManifestEntry{Identity: "etag-1", Path: "/c/etag-1.jpeg", Size: 11, FetchedAt: older.Add(2 * time.Hour)}))

	entries, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "etag-1", entries[0].Identity)
	require.EqualValues(t, 11, entries[0].Size)
	require.True(t, entries[0].FetchedAt.Equal(older.Add(2*time.Hour)))

	entry, err := repo.Get(ctx, "etag-2")
	require.NoError(t, err)
	require.Equal(t, "/c/etag-2.jpeg", entry.Path)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}
