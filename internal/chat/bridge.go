// Package chat bridges natural-language questions to read-only SQL over the
// stats schema via the OpenAI tool-calling protocol.
//
// One user turn makes at most two completion calls: the first offers the
// run_sql tool; if the model invokes it, the guarded query result is fed back
// for a second call that produces the final answer. Only the first requested
// tool call is honored per turn.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// Completer is the completion-service surface the bridge needs.
// *openai.Client satisfies it.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// SQLRunner executes a guarded read-only query and returns rows as ordered
// column-name-to-value mappings.
type SQLRunner interface {
	Query(ctx context.Context, sql string) ([]map[string]any, error)
}

// Bridge answers one user utterance at a time. It holds no per-request state;
// concurrent calls are independent.
type Bridge struct {
	llm    Completer
	runner SQLRunner
	model  string
	logger *slog.Logger
}

// NewBridge creates a bridge with injected collaborators.
func NewBridge(llm Completer, runner SQLRunner, model string, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{llm: llm, runner: runner, model: model, logger: logger}
}

// Answer turns one user message into a natural-language answer.
func (b *Bridge) Answer(ctx context.Context, message string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: message},
	}

	first, err := b.llm.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:      b.model,
		Messages:   messages,
		Tools:      []openai.Tool{runSQLTool},
		ToolChoice: "auto",
	})
	if err != nil {
		return "", fmt.Errorf("first completion: %w", err)
	}
	if len(first.Choices) == 0 {
		return "", fmt.Errorf("first completion returned no choices")
	}

	reply := first.Choices[0].Message
	call, ok := firstRunSQLCall(reply)
	if !ok {
		return reply.Content, nil
	}

	var args struct {
		SQL string `json:"sql"`
	}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return "", fmt.Errorf("parse run_sql arguments: %w", err)
	}

	if err := GuardSQL(args.SQL); err != nil {
		b.logger.Warn("rejected model query", "sql", args.SQL, "error", err)
		return "", err
	}

	b.logger.Info("executing model query", "sql", args.SQL)
	rows, err := b.runner.Query(ctx, args.SQL)
	if err != nil {
		return "", fmt.Errorf("execute query: %w", err)
	}

	rowsJSON, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("serialize rows: %w", err)
	}

	second, err := b.llm.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: append(messages,
			reply,
			openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Name:       runSQLToolName,
				ToolCallID: call.ID,
				Content:    string(rowsJSON),
			},
		),
	})
	if err != nil {
		return "", fmt.Errorf("second completion: %w", err)
	}
	if len(second.Choices) == 0 {
		return "", fmt.Errorf("second completion returned no choices")
	}

	return second.Choices[0].Message.Content, nil
}

// firstRunSQLCall returns the first requested run_sql invocation, if any.
// Additional tool calls in the same reply are ignored.
func firstRunSQLCall(msg openai.ChatCompletionMessage) (openai.ToolCall, bool) {
	if len(msg.ToolCalls) == 0 {
		return openai.ToolCall{}, false
	}
	call := msg.ToolCalls[0]
	if call.Function.Name != runSQLToolName {
		return openai.ToolCall{}, false
	}
	return call, true
}
