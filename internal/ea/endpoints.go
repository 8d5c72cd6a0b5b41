package ea

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

// ClubStats fetches aggregate stats for a club.
func (c *Client) ClubStats(ctx context.Context, clubID int, platform string) json.RawMessage {
	params := url.Values{}
	params.Set("clubIds", strconv.Itoa(clubID))
	params.Set("platform", platform)
	return c.get(ctx, "/clubs/stats", params)
}

// MatchHistory fetches recent matches for a club. matchType selects the EA
// match bucket (e.g. gameType5 for regular club matches).
func (c *Client) MatchHistory(ctx context.Context, clubID int, platform, matchType string) json.RawMessage {
	params := url.Values{}
	params.Set("clubIds", strconv.Itoa(clubID))
	params.Set("platform", platform)
	params.Set("matchType", matchType)
	return c.get(ctx, "/clubs/matches", params)
}

// MemberStats fetches per-member aggregate stats for a club. Note the
// singular clubId parameter; the members endpoint takes a different query
// shape than the clubs endpoints.
func (c *Client) MemberStats(ctx context.Context, clubID int, platform string) json.RawMessage {
	params := url.Values{}
	params.Set("clubId", strconv.Itoa(clubID))
	params.Set("platform", platform)
	return c.get(ctx, "/members/stats", params)
}
