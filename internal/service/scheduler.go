package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const reminderJobTimeout = 30 * time.Second

// Scheduler corre los trabajos periodicos (hoy solo el recordatorio diario).
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

func NewScheduler(loc *time.Location, logger *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		logger: logger,
	}
}

// ScheduleReminder registra el recordatorio con una expresion cron estandar de 5 campos.
func (s *Scheduler) ScheduleReminder(spec string, reminders *ReminderService) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reminderJobTimeout)
		defer cancel()
		if _, err := reminders.SendIfPending(ctx); err != nil {
			s.logger.Error("daily reminder failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reminder %q: %w", spec, err)
	}
	return nil
}

// Entries devuelve la cantidad de trabajos registrados.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop espera a que terminen los trabajos en curso o a que ctx expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
