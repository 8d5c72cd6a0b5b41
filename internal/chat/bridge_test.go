package chat

import (
	"context"
	"encoding/json"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	responses []openai.ChatCompletionResponse
	requests  []openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.requests = append(f.requests, req)
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

type fakeRunner struct {
	sql  string
	rows []map[string]any
	err  error
}

func (f *fakeRunner) Query(_ context.Context, sql string) ([]map[string]any, error) {
	f.sql = sql
	return f.rows, f.err
}

func textResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: content,
			},
		}},
	}
}

func toolCallResponse(sql string) openai.ChatCompletionResponse {
	args, _ := json.Marshal(map[string]string{"sql": sql})
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{{
					ID:   "call_1",
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      runSQLToolName,
						Arguments: string(args),
					},
				}},
			},
		}},
	}
}

func TestAnswer_DirectTextWithoutToolCall(t *testing.T) {
	t.Parallel()

	llm := &fakeCompleter{responses: []openai.ChatCompletionResponse{textResponse("Hello!")}}
	runner := &fakeRunner{}
	b := NewBridge(llm, runner, "gpt-4.1", nil)

	answer, err := b.Answer(context.Background(), "hi")
	require.NoError(t, err)
	require.Equal(t, "Hello!", answer)
	require.Empty(t, runner.sql, "no SQL should run without a tool call")
	require.Len(t, llm.requests, 1)

	// The single run_sql capability must be offered.
	require.Len(t, llm.requests[0].Tools, 1)
	require.Equal(t, runSQLToolName, llm.requests[0].Tools[0].Function.Name)
}

func TestAnswer_ToolCallRoundTrip(t *testing.T) {
	t.Parallel()

	llm := &fakeCompleter{responses: []openai.ChatCompletionResponse{
		toolCallResponse("SELECT player_name, points FROM players LIMIT 1"),
		textResponse("Doe leads with 3 points."),
	}}
	runner := &fakeRunner{rows: []map[string]any{{"player_name": "Doe", "points": int64(3)}}}
	b := NewBridge(llm, runner, "gpt-4.1", nil)

	answer, err := b.Answer(context.Background(), "who leads in points?")
	require.NoError(t, err)
	require.Equal(t, "Doe leads with 3 points.", answer)
	require.Equal(t, "SELECT player_name, points FROM players LIMIT 1", runner.sql)
	require.Len(t, llm.requests, 2)

	// Second request carries the conversation plus the serialized rows.
	second := llm.requests[1].Messages
	require.Len(t, second, 4)
	require.Equal(t, openai.ChatMessageRoleTool, second[3].Role)
	require.Equal(t, "call_1", second[3].ToolCallID)
	require.JSONEq(t, `[{"player_name":"Doe","points":3}]`, second[3].Content)
}

func TestAnswer_DisallowedSQLFailsTurn(t *testing.T) {
	t.Parallel()

	llm := &fakeCompleter{responses: []openai.ChatCompletionResponse{
		toolCallResponse("DROP TABLE matches"),
	}}
	runner := &fakeRunner{}
	b := NewBridge(llm, runner, "gpt-4.1", nil)

	_, err := b.Answer(context.Background(), "wipe it")
	require.ErrorIs(t, err, ErrDisallowedSQL)
	require.Empty(t, runner.sql, "rejected SQL must never execute")
	require.Len(t, llm.requests, 1, "no second completion after rejection")
}

func TestAnswer_OnlyFirstToolCallHonored(t *testing.T) {
	t.Parallel()

	first := toolCallResponse("SELECT 1")
	first.Choices[0].Message.ToolCalls = append(first.Choices[0].Message.ToolCalls, openai.ToolCall{
		ID:   "call_2",
		Type: openai.ToolTypeFunction,
		Function: openai.FunctionCall{
			Name:      runSQLToolName,
			Arguments: `{"sql": "SELECT 2"}`,
		},
	})

	llm := &fakeCompleter{responses: []openai.ChatCompletionResponse{first, textResponse("done")}}
	runner := &fakeRunner{rows: []map[string]any{}}
	b := NewBridge(llm, runner, "gpt-4.1", nil)

	_, err := b.Answer(context.Background(), "q")
	require.NoError(t, err)
	require.Equal(t, "SELECT 1", runner.sql)
}

func TestAnswer_UnknownToolNameReturnsText(t *testing.T) {
	t.Parallel()

	resp := openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				Content: "fallback text",
				ToolCalls: []openai.ToolCall{{
					ID:       "call_1",
					Type:     openai.ToolTypeFunction,
					Function: openai.FunctionCall{Name: "something_else", Arguments: `{}`},
				}},
			},
		}},
	}
	llm := &fakeCompleter{responses: []openai.ChatCompletionResponse{resp}}
	runner := &fakeRunner{}
	b := NewBridge(llm, runner, "gpt-4.1", nil)

	answer, err := b.Answer(context.Background(), "q")
	require.NoError(t, err)
	require.Equal(t, "fallback text", answer)
	require.Empty(t, runner.sql)
}
