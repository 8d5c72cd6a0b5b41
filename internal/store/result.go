// Package store maps canonical rows onto the conflict-key upsert and
// append-only insert operations of the Postgres schema.
package store

import "fmt"

// IngestResult tracks counts and errors from an ingestion run.
type IngestResult struct {
	ClubsUpserted       int
	ClubStatsInserted   int
	MatchesUpserted     int
	PlayersUpserted     int
	MembersUpserted     int
	MemberStatsInserted int
	Errors              []string
}

// Add merges another IngestResult into this one.
func (r *IngestResult) Add(other IngestResult) {
	r.ClubsUpserted += other.ClubsUpserted
	r.ClubStatsInserted += other.ClubStatsInserted
	r.MatchesUpserted += other.MatchesUpserted
	r.PlayersUpserted += other.PlayersUpserted
	r.MembersUpserted += other.MembersUpserted
	r.MemberStatsInserted += other.MemberStatsInserted
	r.Errors = append(r.Errors, other.Errors...)
}

// AddErrorf records a formatted error message.
func (r *IngestResult) AddErrorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the run.
func (r *IngestResult) Summary() string {
	return fmt.Sprintf(
		"clubs=%d club_stats=%d matches=%d players=%d members=%d member_stats=%d errors=%d",
		r.ClubsUpserted, r.ClubStatsInserted, r.MatchesUpserted,
		r.PlayersUpserted, r.MembersUpserted, r.MemberStatsInserted,
		len(r.Errors),
	)
}
