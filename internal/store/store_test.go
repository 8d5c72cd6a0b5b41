package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/chelhq/chel-data/internal/normalize"
)

// recordingExecer captures every statement the store issues. row, when set,
// populates the scan destinations of the next QueryRow.
type recordingExecer struct {
	sqls []string
	args [][]any
	row  func(dest []any) error
}

func (r *recordingExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.sqls = append(r.sqls, sql)
	r.args = append(r.args, args)
	return pgconn.CommandTag{}, nil
}

func (r *recordingExecer) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	r.sqls = append(r.sqls, sql)
	r.args = append(r.args, args)
	if r.row == nil {
		return scanRow{fn: func([]any) error { return nil }}
	}
	return scanRow{fn: r.row}
}

type scanRow struct {
	fn func(dest []any) error
}

func (s scanRow) Scan(dest ...any) error { return s.fn(dest) }

func (r *recordingExecer) last() string { return r.sqls[len(r.sqls)-1] }

func TestUpsertMatch_ConflictsOnMatchID(t *testing.T) {
	t.Parallel()

	rec := &recordingExecer{}
	s := New(rec)

	gf := int64(3)
	err := s.UpsertMatch(context.Background(), normalize.MatchRow{
		MatchID: 123, ClubID: 55, GoalsFor: &gf,
	})
	if err != nil {
		t.Fatalf("upsert match: %v", err)
	}

	sql := rec.last()
	if !strings.Contains(sql, "ON CONFLICT (match_id) DO UPDATE") {
		t.Fatalf("match upsert must conflict on match_id:\n%s", sql)
	}
	if rec.args[0][0] != int64(123) {
		t.Fatalf("unexpected match_id arg: %v", rec.args[0][0])
	}
}

func TestUpsertPlayer_ConflictsOnCompositeKey(t *testing.T) {
	t.Parallel()

	rec := &recordingExecer{}
	s := New(rec)

	err := s.UpsertPlayer(context.Background(), normalize.PlayerRow{
		MatchID: 123, ClubID: 55, PlayerID: 55, Goals: 2, Assists: 1, Points: 3,
	})
	if err != nil {
		t.Fatalf("upsert player: %v", err)
	}

	if !strings.Contains(rec.last(), "ON CONFLICT (match_id, player_id) DO UPDATE") {
		t.Fatalf("player upsert must conflict on (match_id, player_id):\n%s", rec.last())
	}
}

func TestUpsertClubAndMember_ConflictKeys(t *testing.T) {
	t.Parallel()

	rec := &recordingExecer{}
	s := New(rec)
	ctx := context.Background()

	if err := s.UpsertClub(ctx, 26863, nil, "common-gen5"); err != nil {
		t.Fatalf("upsert club: %v", err)
	}
	if !strings.Contains(rec.last(), "ON CONFLICT (club_id) DO UPDATE") {
		t.Fatalf("club upsert must conflict on club_id:\n%s", rec.last())
	}

	if err := s.UpsertMember(ctx, normalize.MemberRow{MemberID: 7, ClubID: 26863}); err != nil {
		t.Fatalf("upsert member: %v", err)
	}
	if !strings.Contains(rec.last(), "ON CONFLICT (member_id, club_id) DO UPDATE") {
		t.Fatalf("member upsert must conflict on (member_id, club_id):\n%s", rec.last())
	}
}

func TestSnapshots_ArePlainInserts(t *testing.T) {
	t.Parallel()

	rec := &recordingExecer{}
	s := New(rec)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.InsertClubStats(ctx, normalize.ClubStatsRow{ClubID: 26863, Timestamp: now}); err != nil {
		t.Fatalf("insert club stats: %v", err)
	}
	if err := s.InsertMemberStats(ctx, normalize.MemberStatsRow{MemberID: 7, ClubID: 26863, Timestamp: now}); err != nil {
		t.Fatalf("insert member stats: %v", err)
	}

	for _, sql := range rec.sqls {
		if strings.Contains(sql, "ON CONFLICT") || strings.Contains(strings.ToUpper(sql), "UPDATE") {
			t.Fatalf("snapshot writes must be append-only inserts:\n%s", sql)
		}
	}
}

func TestClubName_UsesPreparedStatement(t *testing.T) {
	t.Parallel()

	rec := &recordingExecer{row: func(dest []any) error {
		name := "Ice Holes"
		*(dest[0].(**string)) = &name
		return nil
	}}
	s := New(rec)

	name, err := s.ClubName(context.Background(), 26863)
	if err != nil {
		t.Fatalf("club name: %v", err)
	}
	if name == nil || *name != "Ice Holes" {
		t.Fatalf("unexpected name: %v", name)
	}
	if rec.last() != "club_name_lookup" {
		t.Fatalf("expected prepared statement by name, got: %s", rec.last())
	}
	if rec.args[0][0] != int64(26863) {
		t.Fatalf("unexpected club_id arg: %v", rec.args[0][0])
	}
}

func TestClubName_NoRowIsNil(t *testing.T) {
	t.Parallel()

	rec := &recordingExecer{row: func([]any) error { return pgx.ErrNoRows }}
	s := New(rec)

	name, err := s.ClubName(context.Background(), 26863)
	if err != nil {
		t.Fatalf("expected no-rows to map to nil, got: %v", err)
	}
	if name != nil {
		t.Fatalf("expected nil name, got: %v", *name)
	}
}

func TestLatestClubSnapshot(t *testing.T) {
	t.Parallel()

	prev := time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)
	rec := &recordingExecer{row: func(dest []any) error {
		*(dest[0].(**time.Time)) = &prev
		return nil
	}}
	s := New(rec)

	ts, err := s.LatestClubSnapshot(context.Background(), 26863)
	if err != nil {
		t.Fatalf("latest snapshot: %v", err)
	}
	if ts == nil || !ts.Equal(prev) {
		t.Fatalf("unexpected timestamp: %v", ts)
	}
	if rec.last() != "latest_club_snapshot" {
		t.Fatalf("expected prepared statement by name, got: %s", rec.last())
	}

	// MAX over an empty table yields a NULL row, not ErrNoRows.
	empty := &recordingExecer{}
	ts, err = New(empty).LatestClubSnapshot(context.Background(), 26863)
	if err != nil || ts != nil {
		t.Fatalf("expected nil timestamp for empty history, got ts=%v err=%v", ts, err)
	}
}

func TestIngestResult_AddAndSummary(t *testing.T) {
	t.Parallel()

	var r IngestResult
	r.MatchesUpserted = 2
	r.AddErrorf("upsert match %d: %v", 3, "boom")

	var other IngestResult
	other.PlayersUpserted = 5
	r.Add(other)

	if r.MatchesUpserted != 2 || r.PlayersUpserted != 5 || len(r.Errors) != 1 {
		t.Fatalf("unexpected merged result: %+v", r)
	}
	if !strings.Contains(r.Summary(), "matches=2") || !strings.Contains(r.Summary(), "errors=1") {
		t.Fatalf("unexpected summary: %s", r.Summary())
	}
}
