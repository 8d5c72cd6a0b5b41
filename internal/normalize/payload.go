// Package normalize turns loosely structured EA API payloads into canonical
// rows matching the fixed relational schema.
//
// The upstream API uses inconsistent field names across endpoint versions and
// sometimes nests authoritative data one level deeper than the flat fields
// suggest. Every canonical field therefore resolves through an explicit
// ordered list of extraction rules; the first rule yielding a non-null value
// wins, and nested blocks take precedence over flat aliases where both exist.
package normalize

import (
	"encoding/json"
	"sort"
	"strconv"
)

// rule is a pure lookup from a raw document to an optional value.
type rule func(m map[string]any) (any, bool)

// field returns a rule reading a single key, treating explicit nulls as
// absent.
func field(key string) rule {
	return func(m map[string]any) (any, bool) {
		v, ok := m[key]
		if !ok || v == nil {
			return nil, false
		}
		return v, true
	}
}

// firstValue applies rules in priority order and returns the first hit.
func firstValue(m map[string]any, rules []rule) (any, bool) {
	for _, r := range rules {
		if v, ok := r(m); ok {
			return v, true
		}
	}
	return nil, false
}

// --------------------------------------------------------------------------
// Payload shape tolerance
// --------------------------------------------------------------------------

// Matches extracts the raw match list from a payload of any recognized shape:
//
//  1. a mapping with a "matches" sequence
//  2. a mapping with a "data" sequence
//  3. a mapping whose single sequence-of-mappings value is used best-effort
//  4. a mapping treated as a single match, wrapped
//  5. a bare sequence
//  6. anything else yields an empty list
func Matches(payload any) []map[string]any {
	return records(payload, "matches", "data")
}

// Members extracts the raw member list; the members endpoint wraps its list
// under "members" rather than "matches".
func Members(payload any) []map[string]any {
	return records(payload, "members", "data")
}

func records(payload any, keys ...string) []map[string]any {
	switch p := payload.(type) {
	case []any:
		return collectMaps(p)
	case map[string]any:
		for _, key := range keys {
			if seq, ok := p[key].([]any); ok {
				return collectMaps(seq)
			}
		}
		// Best-effort scan: exactly one value that is a non-empty sequence
		// of mappings.
		var found []map[string]any
		hits := 0
		for _, v := range p {
			if seq, ok := v.([]any); ok {
				if maps := collectMaps(seq); len(maps) > 0 {
					found = maps
					hits++
				}
			}
		}
		if hits == 1 {
			return found
		}
		// A mapping with no recognizable list is assumed to be a single
		// record itself.
		return []map[string]any{p}
	default:
		return nil
	}
}

func collectMaps(seq []any) []map[string]any {
	out := make([]map[string]any, 0, len(seq))
	for _, item := range seq {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// Decode unmarshals a raw payload for normalization. A nil or empty payload
// (the fetcher's "no data" degradation) decodes to nil.
func Decode(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// --------------------------------------------------------------------------
// Scalar coercion
// --------------------------------------------------------------------------

// asInt coerces the number representations the EA API is known to emit:
// JSON numbers, numeric strings, and occasionally float-typed counts.
func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return int64(f), true
		}
		return 0, false
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return int64(f), true
		}
		return 0, false
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f, true
		}
		return 0, false
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// intRule resolves rules and coerces the winner to an int64. A value that
// exists but cannot be coerced counts as absent so the next rule gets a shot.
func intRule(m map[string]any, rules []rule) (int64, bool) {
	for _, r := range rules {
		if v, ok := r(m); ok {
			if n, ok := asInt(v); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func stringRule(m map[string]any, rules []rule) (string, bool) {
	for _, r := range rules {
		if v, ok := r(m); ok {
			if s, ok := asString(v); ok {
				return s, true
			}
		}
	}
	return "", false
}

// sortedKeys returns map keys in a stable order. Go map iteration is
// randomized; anything that picks "the first key" must sort first.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
