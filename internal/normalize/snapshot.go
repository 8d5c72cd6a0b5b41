package normalize

import "time"

// ClubStatsRow is an append-only snapshot of a club's aggregate stats.
type ClubStatsRow struct {
	ClubID       int64
	GamesPlayed  *int64
	GoalsFor     *int64
	GoalsAgainst *int64
	Wins         *int64
	Losses       *int64
	OTLosses     *int64
	PPPct        *float64
	PKPct        *float64
	Timestamp    time.Time
}

// MemberRow is the canonical row for the members table.
type MemberRow struct {
	MemberID int64
	ClubID   int64
	Name     *string
	Position *string
}

// MemberStatsRow is an append-only snapshot of one member's aggregate stats.
type MemberStatsRow struct {
	MemberID    int64
	ClubID      int64
	GamesPlayed int64
	Goals       int64
	Assists     int64
	Points      int64
	Timestamp   time.Time
}

var (
	clubNameRules     = []rule{field("name"), field("clubName")}
	clubGPRules       = []rule{field("gamesPlayed")}
	clubGFRules       = []rule{field("goalsFor"), field("goalsScored")}
	clubGARules       = []rule{field("goalsAgainst")}
	clubWinsRules     = []rule{field("wins")}
	clubLossesRules   = []rule{field("losses")}
	clubOTLRules      = []rule{field("otLosses"), field("overtimeLosses")}
	clubPPRules       = []rule{field("powerPlayPercentage"), field("ppPercent")}
	clubPKRules       = []rule{field("penaltyKillPercentage"), field("pkPercent")}
	memberIDRules     = []rule{field("memberId"), field("id"), field("playerId")}
	memberNameRules   = []rule{field("name"), field("playername")}
	memberPosRules    = []rule{field("position"), field("favoritePosition")}
	memberGPRules     = []rule{field("skgp"), field("gamesPlayed")}
	memberGoalsRules  = []rule{field("skgoals")}
	memberAssistRules = []rule{field("skassists")}
)

// ClubStatsDoc locates the single stats object inside a club-stats payload.
// The endpoint wraps it as {"data": [...]}, {"clubs": [...]}, a bare list, or
// the object itself depending on version.
func ClubStatsDoc(payload any) (map[string]any, bool) {
	m, ok := payload.(map[string]any)
	if ok {
		for _, key := range []string{"data", "clubs"} {
			if inner, exists := m[key]; exists && inner != nil {
				return firstDoc(inner)
			}
		}
		return m, true
	}
	return firstDoc(payload)
}

func firstDoc(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case []any:
		if len(t) == 0 {
			return nil, false
		}
		if m, ok := t[0].(map[string]any); ok {
			return m, true
		}
		return nil, false
	default:
		return nil, false
	}
}

// ClubName pulls the display name out of a club-stats document, if present.
func ClubName(doc map[string]any) *string {
	if name, ok := stringRule(doc, clubNameRules); ok {
		return &name
	}
	return nil
}

// ClubStatsRowFromDoc flattens a club-stats document into a snapshot row
// stamped with the given time.
func ClubStatsRowFromDoc(doc map[string]any, clubID int64, now time.Time) ClubStatsRow {
	row := ClubStatsRow{ClubID: clubID, Timestamp: now.UTC()}
	row.GamesPlayed = optInt(doc, clubGPRules)
	row.GoalsFor = optInt(doc, clubGFRules)
	row.GoalsAgainst = optInt(doc, clubGARules)
	row.Wins = optInt(doc, clubWinsRules)
	row.Losses = optInt(doc, clubLossesRules)
	row.OTLosses = optInt(doc, clubOTLRules)
	row.PPPct = optFloat(doc, clubPPRules)
	row.PKPct = optFloat(doc, clubPKRules)
	return row
}

// MemberRows flattens a member-stats document list into canonical member rows
// plus timestamped snapshot rows. Entries with no parseable numeric id are
// skipped; they cannot key a snapshot.
func MemberRows(docs []map[string]any, clubID int64, now time.Time) ([]MemberRow, []MemberStatsRow) {
	members := make([]MemberRow, 0, len(docs))
	snapshots := make([]MemberStatsRow, 0, len(docs))

	for _, doc := range docs {
		id, ok := intRule(doc, memberIDRules)
		if !ok {
			continue
		}

		member := MemberRow{MemberID: id, ClubID: clubID}
		if name, ok := stringRule(doc, memberNameRules); ok {
			member.Name = &name
		}
		if pos, ok := stringRule(doc, memberPosRules); ok {
			member.Position = &pos
		}
		members = append(members, member)

		snap := MemberStatsRow{MemberID: id, ClubID: clubID, Timestamp: now.UTC()}
		if gp, ok := intRule(doc, memberGPRules); ok {
			snap.GamesPlayed = gp
		}
		if g, ok := intRule(doc, memberGoalsRules); ok {
			snap.Goals = g
		}
		if a, ok := intRule(doc, memberAssistRules); ok {
			snap.Assists = a
		}
		snap.Points = snap.Goals + snap.Assists
		snapshots = append(snapshots, snap)
	}

	return members, snapshots
}

func optInt(m map[string]any, rules []rule) *int64 {
	if n, ok := intRule(m, rules); ok {
		return &n
	}
	return nil
}

func optFloat(m map[string]any, rules []rule) *float64 {
	for _, r := range rules {
		if v, ok := r(m); ok {
			if f, ok := asFloat(v); ok {
				return &f
			}
		}
	}
	return nil
}
