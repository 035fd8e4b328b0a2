package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wanderwise-ai/orchestrator/internal/llm"
	"github.com/wanderwise-ai/orchestrator/internal/session"
)

const systemPrompt = `You are WanderWise, a friendly and knowledgeable travel assistant.
Answer travel questions conversationally. Be concise and practical.
If the user has a generated trip plan, use it as context when answering.`

// Service answers free-form travel questions against a session's chat
// history. Unlike the planning pipeline there are no role agents and no
// deterministic fallbacks; a model failure surfaces as an error.
type Service struct {
	provider llm.Provider
	sessions *session.Manager
	logger   *zap.Logger
}

func NewService(provider llm.Provider, sessions *session.Manager, logger *zap.Logger) *Service {
	return &Service{
		provider: provider,
		sessions: sessions,
		logger:   logger,
	}
}

// Send appends the user message to the session, asks the model with the
// recent history (and last plan, when present) as context, records the
// reply, and returns it.
func (s *Service) Send(ctx context.Context, sessionID, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("message cannot be empty")
	}

	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}

	if err := s.sessions.AddMessage(ctx, sessionID, session.RoleUser, message); err != nil {
		return "", fmt.Errorf("record user message: %w", err)
	}

	prompt := buildPrompt(sess, message)
	reply, err := s.provider.Generate(ctx, prompt, systemPrompt)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	reply = strings.TrimSpace(reply)

	if err := s.sessions.AddMessage(ctx, sessionID, session.RoleAssistant, reply); err != nil {
		s.logger.Warn("Failed to record assistant message",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}

	return reply, nil
}

// maxContextMessages bounds how much history goes into the prompt.
const maxContextMessages = 10

func buildPrompt(sess *session.Session, message string) string {
	var b strings.Builder

	if sess.LastPlan != nil {
		if planJSON, err := json.Marshal(sess.LastPlan); err == nil {
			b.WriteString("Current trip plan:\n")
			b.Write(planJSON)
			b.WriteString("\n\n")
		}
	}

	history := sess.History
	if len(history) > maxContextMessages {
		history = history[len(history)-maxContextMessages:]
	}
	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, msg := range history {
			fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
		}
		b.WriteString("\n")
	}

	b.WriteString("User: ")
	b.WriteString(message)
	return b.String()
}
