package chat

import (
	"encoding/json"

	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = `You are an analytics assistant for an EA Sports NHL Pro Clubs team.

The data you can use lives in a PostgreSQL database with these tables:

TABLE matches
- match_id BIGINT PRIMARY KEY
- club_id BIGINT
- opponent_club_id BIGINT
- goals_for INT
- goals_against INT
- result TEXT
- match_type TEXT
- played_at TIMESTAMP

TABLE players
- match_id BIGINT
- club_id BIGINT
- player_id BIGINT
- player_name TEXT
- position TEXT
- goals INT
- assists INT
- points INT
- score INT
- result TEXT

TABLE clubs (club_id, name, platform)
TABLE club_stats (club_id, games_played, goals_for, goals_against, wins, losses, ot_losses, pp_pct, pk_pct, timestamp), append-only snapshots
TABLE members (member_id, club_id, name, position)
TABLE member_stats (member_id, club_id, games_played, goals, assists, points, timestamp), append-only snapshots

You MUST call run_sql when a user asks any statistics question.
You may only run SELECT queries.
Never modify or delete data.
Keep queries simple and readable.`

const runSQLToolName = "run_sql"

// runSQLTool is the single capability offered to the model.
var runSQLTool = openai.Tool{
	Type: openai.ToolTypeFunction,
	Function: &openai.FunctionDefinition{
		Name:        runSQLToolName,
		Description: "Run a read-only SQL query against the NHL stats database and return rows as JSON.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"sql": {
					"type": "string",
					"description": "A read-only SQL SELECT query."
				}
			},
			"required": ["sql"]
		}`),
	},
}
