package normalize

import "time"

// playedAtKind is the closed set of shapes the EA API uses for match times.
type playedAtKind int

const (
	playedAtMissing playedAtKind = iota
	playedAtEpochMillis
	playedAtFreeform
)

// playedAt is the classified raw value of a match timestamp field.
type playedAt struct {
	kind   playedAtKind
	millis int64
	text   string
}

// Largest epoch-seconds value representable as a four-digit year
// (9999-12-31T23:59:59Z). Values past it are garbage, not timestamps.
const maxEpochSeconds = 253402300799

// classifyPlayedAt resolves the numeric-epoch-vs-string ambiguity in one
// place. Numbers are epoch milliseconds; strings pass through verbatim;
// everything else is missing.
func classifyPlayedAt(v any) playedAt {
	switch t := v.(type) {
	case nil:
		return playedAt{kind: playedAtMissing}
	case float64:
		return classifyMillis(int64(t))
	case int:
		return classifyMillis(int64(t))
	case int64:
		return classifyMillis(t)
	case string:
		if t == "" {
			return playedAt{kind: playedAtMissing}
		}
		return playedAt{kind: playedAtFreeform, text: t}
	default:
		return playedAt{kind: playedAtMissing}
	}
}

func classifyMillis(ms int64) playedAt {
	if ms < 0 || ms/1000 > maxEpochSeconds {
		return playedAt{kind: playedAtMissing}
	}
	return playedAt{kind: playedAtEpochMillis, millis: ms}
}

// ISO renders the timestamp for storage: RFC 3339 UTC for epoch values, the
// source text verbatim for freeform strings, nil when missing.
func (p playedAt) ISO() *string {
	switch p.kind {
	case playedAtEpochMillis:
		s := time.UnixMilli(p.millis).UTC().Format(time.RFC3339)
		return &s
	case playedAtFreeform:
		s := p.text
		return &s
	default:
		return nil
	}
}
