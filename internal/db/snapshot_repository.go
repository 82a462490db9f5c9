package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tOgg1/squads/internal/models"
)

// SnapshotRepository persists the last loaded teams and profiles so the
// navigator has something to show before the service answers.
type SnapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// SaveTeams replaces the stored teams and channels with teams, keeping
// their order.
func (r *SnapshotRepository) SaveTeams(ctx context.Context, teams []models.Team) error {
	syncedAt := time.Now().UTC().Format(time.RFC3339Nano)
	return r.db.WriteTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM channels`); err != nil {
			return fmt.Errorf("failed to clear channels: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM teams`); err != nil {
			return fmt.Errorf("failed to clear teams: %w", err)
		}
		for i, team := range teams {
			if err := models.ValidateTeam(team); err != nil {
				return fmt.Errorf("invalid team %q: %w", team.DisplayName, err)
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO teams (id, position, display_name, picture_etag, group_id, synced_at)
				VALUES (?, ?, ?, ?, ?, ?)
			`, team.ID, i, team.DisplayName, team.PictureETag, team.TeamSiteInformation.GroupID, syncedAt)
			if err != nil {
				return fmt.Errorf("failed to insert team %s: %w", team.ID, err)
			}
			for j, ch := range team.Channels {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO channels (team_id, id, position, display_name)
					VALUES (?, ?, ?, ?)
				`, team.ID, ch.ID, j, ch.DisplayName)
				if err != nil {
					return fmt.Errorf("failed to insert channel %s: %w", ch.ID, err)
				}
			}
		}
		return nil
	})
}

// ListTeams returns the stored teams in saved order.
func (r *SnapshotRepository) ListTeams(ctx context.Context) ([]models.Team, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, display_name, picture_etag, group_id
		FROM teams
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	var teams []models.Team
	index := make(map[string]int)
	for rows.Next() {
		var team models.Team
		var etag, groupID sql.NullString
		if err := rows.Scan(&team.ID, &team.DisplayName, &etag, &groupID); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		team.PictureETag = etag.String
		team.TeamSiteInformation.GroupID = groupID.String
		index[team.ID] = len(teams)
		teams = append(teams, team)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate teams: %w", err)
	}

	chRows, err := r.db.QueryContext(ctx, `
		SELECT team_id, id, display_name
		FROM channels
		ORDER BY team_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query channels: %w", err)
	}
	defer chRows.Close()

	for chRows.Next() {
		var teamID string
		var ch models.Channel
		if err := chRows.Scan(&teamID, &ch.ID, &ch.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		if i, ok := index[teamID]; ok {
			teams[i].Channels = append(teams[i].Channels, ch)
		}
	}
	if err := chRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate channels: %w", err)
	}
	return teams, nil
}

// SaveProfiles upserts profiles. Existing profiles not in the list are kept.
func (r *SnapshotRepository) SaveProfiles(ctx context.Context, profiles []models.Profile) error {
	return r.db.WriteTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO profiles (id, display_name, email) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET display_name = excluded.display_name, email = excluded.email
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare profile upsert: %w", err)
		}
		defer stmt.Close()
		for _, p := range profiles {
			if p.ID == "" {
				continue
			}
			if _, err := stmt.ExecContext(ctx, p.ID, p.DisplayName, p.Email); err != nil {
				return fmt.Errorf("failed to upsert profile %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

// ListProfiles returns every stored profile ordered by id.
func (r *SnapshotRepository) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, display_name, email FROM profiles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var p models.Profile
		var email sql.NullString
		if err := rows.Scan(&p.ID, &p.DisplayName, &email); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		p.Email = email.String
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}
	return profiles, nil
}
