package costing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/indusops/opsdesk/internal/ai"
	"github.com/indusops/opsdesk/internal/upstream"
	"github.com/indusops/opsdesk/internal/utils"
)

// Assistant answers one turn of a costing conversation
type Assistant interface {
	Reply(ctx context.Context, state upstream.ChatState) (*upstream.ChatReply, error)
}

// UpstreamAssistant posts the conversation to the upstream costing chat
type UpstreamAssistant struct {
	Client interface {
		CostingChat(ctx context.Context, state upstream.ChatState) (*upstream.ChatReply, error)
	}
}

func (a UpstreamAssistant) Reply(ctx context.Context, state upstream.ChatState) (*upstream.ChatReply, error) {
	return a.Client.CostingChat(ctx, state)
}

// Chatter is the model-facing side of GeminiAssistant
type Chatter interface {
	Chat(ctx context.Context, history []ai.Turn, message string) (string, error)
}

// GeminiAssistant drives the conversation with a Gemini chat session
type GeminiAssistant struct {
	Model Chatter
}

func (a GeminiAssistant) Reply(ctx context.Context, state upstream.ChatState) (*upstream.ChatReply, error) {
	if len(state.Messages) == 0 {
		return nil, fmt.Errorf("no message to answer")
	}
	last := state.Messages[len(state.Messages)-1]
	history := make([]ai.Turn, 0, len(state.Messages)-1)
	for _, m := range state.Messages[:len(state.Messages)-1] {
		history = append(history, ai.Turn{Role: m.Role, Text: m.Content})
	}

	known, err := json.Marshal(state.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode known fields: %w", err)
	}
	prompt := fmt.Sprintf("Known fields so far: %s\n\nUser: %s", known, last.Content)

	text, err := a.Model.Chat(ctx, history, prompt)
	if err != nil {
		return nil, err
	}
	reply, err := upstream.ParseChatReply([]byte(utils.SanitizeJSON(text)))
	if err != nil {
		// Plain prose is still a usable answer
		return &upstream.ChatReply{Reply: text}, nil
	}
	return reply, nil
}
