package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"stay-on-one/internal/domain"
	"stay-on-one/internal/email"
)

// ReminderService avisa por correo cuando la ronda diaria sigue pendiente.
type ReminderService struct {
	store  *AccountStore
	sender email.Sender
	to     string
	logger *zap.Logger
}

func NewReminderService(store *AccountStore, sender email.Sender, to string, logger *zap.Logger) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderService{store: store, sender: sender, to: strings.TrimSpace(to), logger: logger}
}

// Enabled es falso sin destinatario configurado.
func (s *ReminderService) Enabled() bool {
	return s.to != "" && s.sender != nil
}

// SendIfPending envia el recordatorio solo si hay metas sin check-in hoy. Devuelve si envio.
func (s *ReminderService) SendIfPending(ctx context.Context) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	if s.store.Round() == RoundComplete {
		s.logger.Debug("daily round complete, no reminder")
		return false, nil
	}

	pending := s.store.PendingGoals()
	lines := make([]string, 0, len(pending))
	for _, id := range pending {
		goal, _ := s.store.Goal(id)
		lines = append(lines, fmt.Sprintf("%s: %s", domain.CategoryOrDefault(id).Name, goal.Text))
	}
	reminder := email.Reminder{
		Name:    s.store.Name(),
		Today:   s.store.Today(),
		Pending: lines,
		Quote:   QuoteOfDay(s.store.Now()),
	}
	if err := s.sender.SendReminder(ctx, s.to, reminder); err != nil {
		return false, fmt.Errorf("send reminder: %w", err)
	}
	s.logger.Info("daily reminder sent", zap.Int("pending", len(lines)))
	return true, nil
}
