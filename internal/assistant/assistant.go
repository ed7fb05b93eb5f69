// Package assistant answers free-form aquaculture questions over a
// session-scoped conversation history.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const systemPrompt = `You are AquaSense, an aquaculture advisor for fish farm operators.
Answer questions about water quality, fish health, feeding, and pond management.
Be concise and practical. When water parameters are mentioned, relate them to
safe ranges for warm-water aquaculture. If a question is outside aquaculture,
say so briefly.`

// historyWindow caps how many prior turns are replayed to the model.
const historyWindow = 20

// Assistant is a conversational helper backed by a chat completion model.
type Assistant struct {
	client   openai.Client
	model    string
	sessions *SessionStore
}

// New builds an Assistant from the OPENAI_API_KEY environment variable. An
// error means chat is unavailable, not that the caller should abort.
func New(sessions *SessionStore) (*Assistant, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, errors.New("assistant: OPENAI_API_KEY not set")
	}
	return &Assistant{
		client:   openai.NewClient(option.WithAPIKey(key)),
		model:    openai.ChatModelGPT4oMini,
		sessions: sessions,
	}, nil
}

// Chat sends a user message within a session and returns the reply. History
// is recorded on both sides so follow-up questions keep context.
func (a *Assistant) Chat(ctx context.Context, sessionID, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("assistant: empty message")
	}

	msgs := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
	}
	for _, m := range a.sessions.History(sessionID, historyWindow) {
		switch m.Role {
		case "assistant":
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	msgs = append(msgs, openai.UserMessage(message))

	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    a.model,
		Messages: msgs,
	})
	if err != nil {
		return "", fmt.Errorf("assistant: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("assistant: empty completion")
	}
	reply := resp.Choices[0].Message.Content

	a.sessions.Append(sessionID, "user", message)
	a.sessions.Append(sessionID, "assistant", reply)
	log.Printf("assistant: session %s answered (%d chars)", sessionID, len(reply))
	return reply, nil
}
