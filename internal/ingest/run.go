// Package ingest orchestrates one ingestion run: fetch (or load from file),
// normalize, and write through the store. Runs are best-effort, not
// transactional; a single record failure is logged and counted, never fatal.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/chelhq/chel-data/internal/normalize"
	"github.com/chelhq/chel-data/internal/store"
)

// Fetcher is the EA API surface the runner needs. *ea.Client satisfies it.
type Fetcher interface {
	ClubStats(ctx context.Context, clubID int, platform string) json.RawMessage
	MatchHistory(ctx context.Context, clubID int, platform, matchType string) json.RawMessage
	MemberStats(ctx context.Context, clubID int, platform string) json.RawMessage
}

// Sink is the persistence surface the runner needs. *store.Store satisfies it.
type Sink interface {
	ClubName(ctx context.Context, clubID int64) (*string, error)
	LatestClubSnapshot(ctx context.Context, clubID int64) (*time.Time, error)
	UpsertClub(ctx context.Context, clubID int64, name *string, platform string) error
	InsertClubStats(ctx context.Context, row normalize.ClubStatsRow) error
	UpsertMatch(ctx context.Context, row normalize.MatchRow) error
	UpsertPlayer(ctx context.Context, row normalize.PlayerRow) error
	UpsertMember(ctx context.Context, row normalize.MemberRow) error
	InsertMemberStats(ctx context.Context, row normalize.MemberStatsRow) error
}

// Runner performs ingestion runs for a single club, strictly sequentially.
type Runner struct {
	fetcher  Fetcher
	sink     Sink
	clubID   int
	platform string
	logger   *slog.Logger
	now      func() time.Time
}

// NewRunner creates a runner with injected collaborators.
func NewRunner(fetcher Fetcher, sink Sink, clubID int, platform string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		fetcher:  fetcher,
		sink:     sink,
		clubID:   clubID,
		platform: platform,
		logger:   logger,
		now:      time.Now,
	}
}

// Sync runs the full fetch-and-store flow: club stats snapshot, match
// history with per-match player stats, and member stats snapshots.
func (r *Runner) Sync(ctx context.Context, matchType string) store.IngestResult {
	var result store.IngestResult

	r.syncClubStats(ctx, &result)
	r.syncMatches(ctx, matchType, &result)
	r.syncMembers(ctx, &result)

	r.logger.Info("sync complete", "summary", result.Summary())
	return result
}

func (r *Runner) syncClubStats(ctx context.Context, result *store.IngestResult) {
	raw := r.fetcher.ClubStats(ctx, r.clubID, r.platform)
	payload, err := normalize.Decode(raw)
	if err != nil {
		result.AddErrorf("decode club stats: %v", err)
		return
	}
	if payload == nil {
		r.logger.Warn("no club stats payload, skipping snapshot")
		return
	}

	doc, ok := normalize.ClubStatsDoc(payload)
	if !ok {
		r.logger.Warn("unexpected club stats shape, skipping snapshot")
		return
	}

	clubID := int64(r.clubID)
	name := normalize.ClubName(doc)
	if name == nil {
		// Backfill the name from the stored row when the payload omits it.
		stored, err := r.sink.ClubName(ctx, clubID)
		if err != nil {
			r.logger.Warn("club name lookup failed", "club_id", clubID, "error", err)
		} else {
			name = stored
		}
	}
	if err := r.sink.UpsertClub(ctx, clubID, name, r.platform); err != nil {
		result.AddErrorf("upsert club %d: %v", r.clubID, err)
	} else {
		result.ClubsUpserted++
	}

	if prev, err := r.sink.LatestClubSnapshot(ctx, clubID); err != nil {
		r.logger.Warn("latest snapshot lookup failed", "club_id", clubID, "error", err)
	} else if prev != nil {
		r.logger.Info("appending club snapshot", "club_id", clubID, "previous", prev.UTC())
	}

	snap := normalize.ClubStatsRowFromDoc(doc, clubID, r.now())
	if err := r.sink.InsertClubStats(ctx, snap); err != nil {
		result.AddErrorf("insert club_stats snapshot for %d: %v", r.clubID, err)
	} else {
		result.ClubStatsInserted++
	}
}

func (r *Runner) syncMatches(ctx context.Context, matchType string, result *store.IngestResult) {
	raw := r.fetcher.MatchHistory(ctx, r.clubID, r.platform, matchType)
	payload, err := normalize.Decode(raw)
	if err != nil {
		result.AddErrorf("decode match history: %v", err)
		return
	}

	matches := normalize.Matches(payload)
	if len(matches) == 0 {
		r.logger.Info("no matches returned from EA")
		return
	}
	r.logger.Info("ingesting matches", "count", len(matches))
	result.Add(r.ingestMatchDocs(ctx, matches))
}

// ingestMatchDocs normalizes and upserts raw match documents, one match and
// one player at a time. Shared by the sync and file-ingestion paths.
func (r *Runner) ingestMatchDocs(ctx context.Context, matches []map[string]any) store.IngestResult {
	var result store.IngestResult
	extractor := normalize.NewExtractor(int64(r.clubID))

	for _, m := range matches {
		row := extractor.MatchRow(m)
		if err := r.sink.UpsertMatch(ctx, row); err != nil {
			result.AddErrorf("upsert match %d: %v", row.MatchID, err)
		} else {
			result.MatchesUpserted++
		}

		for _, p := range extractor.PlayerRows(m, row) {
			if err := r.sink.UpsertPlayer(ctx, p); err != nil {
				result.AddErrorf("upsert player %d for match %d: %v", p.PlayerID, p.MatchID, err)
			} else {
				result.PlayersUpserted++
			}
		}
	}
	return result
}

func (r *Runner) syncMembers(ctx context.Context, result *store.IngestResult) {
	raw := r.fetcher.MemberStats(ctx, r.clubID, r.platform)
	payload, err := normalize.Decode(raw)
	if err != nil {
		result.AddErrorf("decode member stats: %v", err)
		return
	}

	docs := normalize.Members(payload)
	if len(docs) == 0 {
		r.logger.Info("no member stats returned from EA")
		return
	}

	members, snapshots := normalize.MemberRows(docs, int64(r.clubID), r.now())
	for _, m := range members {
		if err := r.sink.UpsertMember(ctx, m); err != nil {
			result.AddErrorf("upsert member %d: %v", m.MemberID, err)
		} else {
			result.MembersUpserted++
		}
	}
	for _, s := range snapshots {
		if err := r.sink.InsertMemberStats(ctx, s); err != nil {
			result.AddErrorf("insert member_stats for %d: %v", s.MemberID, err)
		} else {
			result.MemberStatsInserted++
		}
	}
}

// IngestFile reads a saved matches JSON dump and ingests matches + players.
func (r *Runner) IngestFile(ctx context.Context, path string) (store.IngestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return store.IngestResult{}, fmt.Errorf("read %s: %w", path, err)
	}

	payload, err := normalize.Decode(data)
	if err != nil {
		return store.IngestResult{}, fmt.Errorf("parse %s: %w", path, err)
	}

	matches := normalize.Matches(payload)
	if len(matches) == 0 {
		return store.IngestResult{}, fmt.Errorf("%s does not contain a match list", path)
	}

	r.logger.Info("ingesting matches from file", "path", path, "count", len(matches))
	result := r.ingestMatchDocs(ctx, matches)
	r.logger.Info("file ingestion complete", "summary", result.Summary())
	return result, nil
}
