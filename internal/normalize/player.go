package normalize

import "strconv"

// PlayerRow is a canonical per-match player row.
type PlayerRow struct {
	MatchID    int64
	ClubID     int64
	PlayerID   int64
	PlayerName *string
	Position   *string
	Goals      int64
	Assists    int64
	Points     int64
	Score      int64
	Result     *string
}

// PlayerRows extracts the per-player skater stats nested under
// players[clubID], keyed by player-id string. Entries whose key does not
// parse as an integer are skipped silently; EA mixes bookkeeping entries into
// that block. The canonical match id and result are stamped onto every row,
// so players of an id-less match still attach to its synthesized id.
//
// Points is always derived as goals + assists, never read from the source.
func (e *Extractor) PlayerRows(m map[string]any, match MatchRow) []PlayerRow {
	players, ok := m["players"].(map[string]any)
	if !ok {
		return nil
	}
	block, ok := players[e.clubIDStr].(map[string]any)
	if !ok {
		return nil
	}

	rows := make([]PlayerRow, 0, len(block))
	for _, idStr := range sortedKeys(block) {
		playerID, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			continue
		}
		pdata, ok := block[idStr].(map[string]any)
		if !ok {
			continue
		}

		row := PlayerRow{
			MatchID:  match.MatchID,
			ClubID:   e.clubID,
			PlayerID: playerID,
			Result:   match.Result,
		}
		if g, ok := asInt(pdata["skgoals"]); ok {
			row.Goals = g
		}
		if a, ok := asInt(pdata["skassists"]); ok {
			row.Assists = a
		}
		if s, ok := asInt(pdata["score"]); ok {
			row.Score = s
		}
		row.Points = row.Goals + row.Assists

		if name, ok := asString(pdata["playername"]); ok {
			row.PlayerName = &name
		}
		if pos, ok := asString(pdata["position"]); ok {
			row.Position = &pos
		}

		rows = append(rows, row)
	}
	return rows
}
