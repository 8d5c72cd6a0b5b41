package chat

import (
	"errors"
	"testing"
)

func TestGuardSQL_AcceptsPlainSelect(t *testing.T) {
	t.Parallel()

	allowed := []string{
		"SELECT * FROM matches LIMIT 5",
		"select player_name, points from players order by points desc limit 10;",
		"  SELECT COUNT(*) FROM matches WHERE result = 'W'  ",
	}
	for _, sql := range allowed {
		if err := GuardSQL(sql); err != nil {
			t.Fatalf("expected %q to pass, got: %v", sql, err)
		}
	}
}

func TestGuardSQL_RejectsWrites(t *testing.T) {
	t.Parallel()

	denied := []string{
		"DROP TABLE matches",
		"drop table matches",
		"DELETE FROM players",
		"UPDATE matches SET goals_for = 0",
		"INSERT INTO matches VALUES (1)",
		"ALTER TABLE players ADD COLUMN x INT",
		"SELECT * FROM matches; DROP TABLE matches",
		"",
		"EXPLAIN SELECT * FROM matches",
	}
	for _, sql := range denied {
		err := GuardSQL(sql)
		if err == nil {
			t.Fatalf("expected %q to be rejected", sql)
		}
		if !errors.Is(err, ErrDisallowedSQL) {
			t.Fatalf("expected ErrDisallowedSQL for %q, got: %v", sql, err)
		}
	}
}

func TestGuardSQL_RejectsMultipleStatements(t *testing.T) {
	t.Parallel()

	if err := GuardSQL("SELECT 1; SELECT 2"); !errors.Is(err, ErrDisallowedSQL) {
		t.Fatalf("expected multi-statement rejection, got: %v", err)
	}
	// A single trailing semicolon is fine.
	if err := GuardSQL("SELECT 1;"); err != nil {
		t.Fatalf("expected trailing semicolon to pass, got: %v", err)
	}
}
