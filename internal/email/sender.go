package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Reminder es el contenido del recordatorio diario de check-in.
type Reminder struct {
	Name    string
	Today   string
	Pending []string
	Quote   string
}

// Sender envia los recordatorios diarios.
type Sender interface {
	SendReminder(ctx context.Context, toEmail string, r Reminder) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendReminder(_ context.Context, _ string, _ Reminder) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}

// Subject y Body arman el texto plano del correo.
func (r Reminder) Subject() string {
	return fmt.Sprintf("Stay on One: %d check-in(s) waiting for %s", len(r.Pending), r.Today)
}

func (r Reminder) Body() string {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		name = "there"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hey %s,\n\nYou haven't checked in today on:\n", name)
	for _, p := range r.Pending {
		fmt.Fprintf(&b, "  - %s\n", p)
	}
	if r.Quote != "" {
		fmt.Fprintf(&b, "\n\"%s\"\n", r.Quote)
	}
	return b.String()
}
