package normalize

import (
	"strconv"
	"time"
)

// MatchRow is a canonical row for the matches table.
type MatchRow struct {
	MatchID        int64
	ClubID         int64
	OpponentClubID *int64
	GoalsFor       *int64
	GoalsAgainst   *int64
	Result         *string
	MatchType      *string
	PlayedAt       *string
}

// Fallback chains per canonical field, in priority order.
var (
	matchIDRules      = []rule{field("matchId"), field("id"), field("gameId")}
	goalsForRules     = []rule{field("goalsFor"), field("teamScore")}
	goalsAgainstRules = []rule{field("goalsAgainst"), field("opponentScore")}
	opponentRules     = []rule{field("opponentClubId"), field("awayClubId")}
	playedAtRules     = []rule{field("playedAt"), field("startTime"), field("date")}
	resultRules       = []rule{field("result"), field("matchResult")}
	matchTypeRules    = []rule{field("matchType")}
	clubGoalsRules    = []rule{field("goals"), field("score")}
)

// Extractor normalizes raw match documents for a single club. It owns the
// synthetic match-id sequence, so ids synthesized within one run are strictly
// increasing even when two id-less matches arrive in the same millisecond.
type Extractor struct {
	clubID    int64
	clubIDStr string
	now       func() time.Time
	lastSynth int64
}

// NewExtractor creates an extractor for the given club.
func NewExtractor(clubID int64) *Extractor {
	return &Extractor{
		clubID:    clubID,
		clubIDStr: strconv.FormatInt(clubID, 10),
		now:       time.Now,
	}
}

// MatchRow flattens one raw match document into a canonical row.
func (e *Extractor) MatchRow(m map[string]any) MatchRow {
	row := MatchRow{ClubID: e.clubID}

	if id, ok := intRule(m, matchIDRules); ok {
		row.MatchID = id
	} else {
		row.MatchID = e.syntheticID()
	}

	// Flat aliases first; the nested clubs block refines them below.
	if gf, ok := intRule(m, goalsForRules); ok {
		row.GoalsFor = &gf
	}
	if ga, ok := intRule(m, goalsAgainstRules); ok {
		row.GoalsAgainst = &ga
	}
	if opp, ok := intRule(m, opponentRules); ok {
		row.OpponentClubID = &opp
	}

	e.applyClubsBlock(m, &row)

	if res, ok := stringRule(m, resultRules); ok {
		row.Result = &res
	}
	if mt, ok := stringRule(m, matchTypeRules); ok {
		row.MatchType = &mt
	}
	if v, ok := firstValue(m, playedAtRules); ok {
		row.PlayedAt = classifyPlayedAt(v).ISO()
	}

	return row
}

// applyClubsBlock overrides the flat score fields with the nested
// clubs[clubID] block when present; the nested data is the authoritative
// source on newer endpoint versions.
func (e *Extractor) applyClubsBlock(m map[string]any, row *MatchRow) {
	clubs, ok := m["clubs"].(map[string]any)
	if !ok {
		return
	}
	yourBlock, ok := clubs[e.clubIDStr].(map[string]any)
	if !ok {
		return
	}

	if gf, ok := intRule(yourBlock, clubGoalsRules); ok {
		row.GoalsFor = &gf
	}

	// The other key in the block is the opponent.
	var oppKey string
	for _, k := range sortedKeys(clubs) {
		if k != e.clubIDStr {
			oppKey = k
			break
		}
	}
	if oppKey == "" {
		return
	}
	if oppBlock, ok := clubs[oppKey].(map[string]any); ok {
		if ga, ok := intRule(oppBlock, clubGoalsRules); ok {
			row.GoalsAgainst = &ga
		}
	}
	if oppID, err := strconv.ParseInt(oppKey, 10, 64); err == nil {
		row.OpponentClubID = &oppID
	}
}

// syntheticID returns the current UTC time in milliseconds, bumped past the
// previous synthetic id so ids within a run never collide.
func (e *Extractor) syntheticID() int64 {
	id := e.now().UTC().UnixMilli()
	if id <= e.lastSynth {
		id = e.lastSynth + 1
	}
	e.lastSynth = id
	return id
}
