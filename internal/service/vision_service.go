package service

import (
	"context"

	"go.uber.org/zap"

	"stay-on-one/internal/domain"
	"stay-on-one/internal/llm"
)

// VisionOutcome describe el resultado de regenerar la vision.
type VisionOutcome struct {
	Regenerated bool   `json:"regenerated"`
	Vision      string `json:"vision"`
	Message     string `json:"message,omitempty"`
}

// VisionService sintetiza el manifiesto de vida a partir de las metas.
type VisionService struct {
	store  *AccountStore
	coach  llm.LLMClient
	logger *zap.Logger
}

func NewVisionService(store *AccountStore, coach llm.LLMClient, logger *zap.Logger) *VisionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisionService{store: store, coach: coach, logger: logger}
}

// Synthesize pide una vision nueva. Solo una respuesta real del coach reemplaza la vision
// guardada; ante fallas se conserva la anterior.
func (s *VisionService) Synthesize(ctx context.Context) (VisionOutcome, error) {
	account := s.store.Snapshot()
	if len(account.Goals) == 0 {
		return VisionOutcome{}, domain.NewValidationError("goals", "set at least one goal before generating a vision")
	}

	prompt := BuildVisionPrompt(account)
	reply, ok := askCoach(ctx, s.coach, s.logger, "vision", visionSystemPrompt, []llm.Turn{{Role: llm.RoleUser, Content: prompt}})
	if !ok {
		s.logger.Warn("vision kept after failed regeneration", zap.Int("goals", len(account.Goals)))
		return VisionOutcome{
			Regenerated: false,
			Vision:      account.Vision,
			Message:     FallbackConnectionError,
		}, nil
	}

	if err := s.store.SetVision(reply); err != nil {
		return VisionOutcome{}, err
	}
	s.logger.Info("vision regenerated", zap.Int("goals", len(account.Goals)), zap.Int("chars", len(reply)))
	return VisionOutcome{Regenerated: true, Vision: reply}, nil
}

// Current devuelve la vision guardada.
func (s *VisionService) Current() string {
	return s.store.Vision()
}

// Replace guarda una vision editada a mano.
func (s *VisionService) Replace(text string) error {
	return s.store.SetVision(text)
}
