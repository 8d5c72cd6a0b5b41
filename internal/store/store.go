package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/chelhq/chel-data/internal/config"
	"github.com/chelhq/chel-data/internal/normalize"
)

// DB is the slice of the pgx pool the store needs. *pgxpool.Pool
// satisfies it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store writes canonical rows to Postgres. Matches, players, clubs, and
// members are upserted on their natural keys; club_stats and member_stats
// are append-only snapshots and only ever inserted.
type Store struct {
	db DB
}

// New creates a Store on top of a pgx pool (or any DB).
func New(db DB) *Store {
	return &Store{db: db}
}

// ClubName returns the stored club name, nil when the club row does not
// exist or has no name yet. Executes the club_name_lookup statement prepared
// by the db package on every connection.
func (s *Store) ClubName(ctx context.Context, clubID int64) (*string, error) {
	var name *string
	if err := s.db.QueryRow(ctx, "club_name_lookup", clubID).Scan(&name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return name, nil
}

// LatestClubSnapshot returns the timestamp of the most recent club_stats
// snapshot, nil when no snapshot has been taken yet.
func (s *Store) LatestClubSnapshot(ctx context.Context, clubID int64) (*time.Time, error) {
	var ts *time.Time
	if err := s.db.QueryRow(ctx, "latest_club_snapshot", clubID).Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return ts, nil
}

// UpsertClub writes the club row, overwriting name and platform on conflict.
func (s *Store) UpsertClub(ctx context.Context, clubID int64, name *string, platform string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO `+config.ClubsTable+` (club_id, name, platform)
		VALUES ($1, $2, $3)
		ON CONFLICT (club_id) DO UPDATE SET
			name = COALESCE(EXCLUDED.name, `+config.ClubsTable+`.name),
			platform = EXCLUDED.platform`,
		clubID, name, platform,
	)
	return err
}

// InsertClubStats appends one immutable club snapshot.
func (s *Store) InsertClubStats(ctx context.Context, row normalize.ClubStatsRow) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO `+config.ClubStatsTable+` (
			club_id, games_played, goals_for, goals_against,
			wins, losses, ot_losses, pp_pct, pk_pct, timestamp
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		row.ClubID, row.GamesPlayed, row.GoalsFor, row.GoalsAgainst,
		row.Wins, row.Losses, row.OTLosses, row.PPPct, row.PKPct, row.Timestamp,
	)
	return err
}

// UpsertMatch writes a match row keyed on match_id. Re-ingesting the same
// match overwrites rather than duplicates.
func (s *Store) UpsertMatch(ctx context.Context, row normalize.MatchRow) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO `+config.MatchesTable+` (
			match_id, club_id, opponent_club_id, goals_for, goals_against,
			result, match_type, played_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (match_id) DO UPDATE SET
			club_id = EXCLUDED.club_id,
			opponent_club_id = EXCLUDED.opponent_club_id,
			goals_for = EXCLUDED.goals_for,
			goals_against = EXCLUDED.goals_against,
			result = EXCLUDED.result,
			match_type = EXCLUDED.match_type,
			played_at = EXCLUDED.played_at`,
		row.MatchID, row.ClubID, row.OpponentClubID, row.GoalsFor, row.GoalsAgainst,
		row.Result, row.MatchType, row.PlayedAt,
	)
	return err
}

// UpsertPlayer writes a per-match player row keyed on (match_id, player_id).
func (s *Store) UpsertPlayer(ctx context.Context, row normalize.PlayerRow) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO `+config.PlayersTable+` (
			match_id, club_id, player_id, player_name, position,
			goals, assists, points, score, result
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (match_id, player_id) DO UPDATE SET
			club_id = EXCLUDED.club_id,
			player_name = EXCLUDED.player_name,
			position = EXCLUDED.position,
			goals = EXCLUDED.goals,
			assists = EXCLUDED.assists,
			points = EXCLUDED.points,
			score = EXCLUDED.score,
			result = EXCLUDED.result`,
		row.MatchID, row.ClubID, row.PlayerID, row.PlayerName, row.Position,
		row.Goals, row.Assists, row.Points, row.Score, row.Result,
	)
	return err
}

// UpsertMember writes a club member row keyed on (member_id, club_id).
func (s *Store) UpsertMember(ctx context.Context, row normalize.MemberRow) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO `+config.MembersTable+` (member_id, club_id, name, position)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (member_id, club_id) DO UPDATE SET
			name = COALESCE(EXCLUDED.name, `+config.MembersTable+`.name),
			position = COALESCE(EXCLUDED.position, `+config.MembersTable+`.position)`,
		row.MemberID, row.ClubID, row.Name, row.Position,
	)
	return err
}

// InsertMemberStats appends one immutable member snapshot.
func (s *Store) InsertMemberStats(ctx context.Context, row normalize.MemberStatsRow) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO `+config.MemberStatsTable+` (
			member_id, club_id, games_played, goals, assists, points, timestamp
		) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		row.MemberID, row.ClubID, row.GamesPlayed, row.Goals, row.Assists,
		row.Points, row.Timestamp,
	)
	return err
}
