package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"stay-on-one/internal/domain"
	"stay-on-one/internal/llm"
)

// CoachService maneja el chat por meta (persistido) y el coach flotante (sin estado).
type CoachService struct {
	store  *AccountStore
	coach  llm.LLMClient
	logger *zap.Logger
}

func NewCoachService(store *AccountStore, coach llm.LLMClient, logger *zap.Logger) *CoachService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoachService{store: store, coach: coach, logger: logger}
}

// GoalChatReply es el par de mensajes agregados al transcript.
type GoalChatReply struct {
	UserMessage  domain.ChatMessage `json:"user_message"`
	CoachMessage domain.ChatMessage `json:"coach_message"`
}

// SendGoalChat agrega el mensaje del usuario, llama al coach con todo el transcript y
// agrega la respuesta (o el texto de fallback, igual que en los check-ins).
func (s *CoachService) SendGoalChat(ctx context.Context, categoryID int, content string) (GoalChatReply, error) {
	if strings.TrimSpace(content) == "" {
		return GoalChatReply{}, domain.NewValidationError("content", "content is required")
	}
	goal, ok := s.store.Goal(categoryID)
	if !ok {
		return GoalChatReply{}, ErrGoalNotFound
	}

	userMsg, err := s.store.AppendChatMessage(categoryID, domain.ChatRoleUser, content)
	if err != nil {
		return GoalChatReply{}, err
	}

	transcript := s.store.Chat(categoryID)
	system := BuildGoalChatSystem(s.store.Name(), goal, s.store.Score(categoryID))
	reply, _ := askCoach(ctx, s.coach, s.logger, "goal_chat", system, toTurns(transcript))

	coachMsg, err := s.store.AppendChatMessage(categoryID, domain.ChatRoleCoach, reply)
	if err != nil {
		return GoalChatReply{}, fmt.Errorf("append coach reply: %w", err)
	}
	return GoalChatReply{UserMessage: userMsg, CoachMessage: coachMsg}, nil
}

// Greeting es el saludo inicial del coach flotante segun la pagina.
func (s *CoachService) Greeting(page CoachPage) string {
	return BuildGreeting(s.store.Name(), len(s.store.GoalIDs()), page)
}

// Ask responde en el coach flotante. El cliente envia el historial completo; el ultimo
// mensaje debe ser del usuario.
func (s *CoachService) Ask(ctx context.Context, page CoachPage, history []domain.ChatMessage) (domain.ChatMessage, error) {
	if len(history) == 0 {
		return domain.ChatMessage{}, domain.NewValidationError("messages", "at least one message is required")
	}
	for _, m := range history {
		if !domain.IsValidChatRole(m.Role) {
			return domain.ChatMessage{}, domain.NewValidationError("messages", fmt.Sprintf("invalid role %q", m.Role))
		}
	}
	last := history[len(history)-1]
	if last.Role != domain.ChatRoleUser || strings.TrimSpace(last.Content) == "" {
		return domain.ChatMessage{}, domain.NewValidationError("messages", "last message must be a non-empty user message")
	}

	system := BuildCoachSystem(s.store.Snapshot(), page)
	reply, _ := askCoach(ctx, s.coach, s.logger, "coach", system, toTurns(history))
	return domain.ChatMessage{Role: domain.ChatRoleCoach, Content: reply}, nil
}

// toTurns traduce el rol "coach" al rol "assistant" del proveedor. El saludo inicial
// (mensajes del coach antes del primer mensaje del usuario) se descarta.
func toTurns(msgs []domain.ChatMessage) []llm.Turn {
	turns := make([]llm.Turn, 0, len(msgs))
	for _, m := range msgs {
		role := llm.RoleUser
		if m.Role == domain.ChatRoleCoach {
			if len(turns) == 0 {
				continue
			}
			role = llm.RoleAssistant
		}
		turns = append(turns, llm.Turn{Role: role, Content: m.Content})
	}
	return turns
}
