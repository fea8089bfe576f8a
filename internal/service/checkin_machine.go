package service

import (
	"errors"
	"sync"
	"time"

	"stay-on-one/internal/domain"
)

type CheckinState string

const (
	CheckinPending   CheckinState = "pending"
	CheckinSubmitted CheckinState = "submitted"
	CheckinScored    CheckinState = "scored"
)

type RoundState string

const (
	RoundPending  RoundState = "pending"
	RoundComplete RoundState = "complete"
)

var (
	ErrCheckinAlreadyScored = errors.New("checkin already scored today")
	ErrCheckinInFlight      = errors.New("checkin already in flight")
)

type checkinKey struct {
	categoryID int
	day        string
}

// CheckinMachine gobierna el ciclo Pending -> Submitted -> Scored por (meta, dia).
// Pending/Scored se derivan siempre de "existe un log con fecha de hoy"; solo se guarda
// el conjunto de envios en vuelo (Submitted). El cambio de dia reinicia todo implicitamente.
type CheckinMachine struct {
	mu       sync.Mutex
	inFlight map[checkinKey]struct{}
	now      func() time.Time
	loc      *time.Location
}

func NewCheckinMachine(now func() time.Time, loc *time.Location) *CheckinMachine {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CheckinMachine{
		inFlight: make(map[checkinKey]struct{}),
		now:      now,
		loc:      loc,
	}
}

// Today devuelve el dia calendario actual "YYYY-MM-DD".
func (m *CheckinMachine) Today() string {
	return domain.DayOf(m.now(), m.loc)
}

// TodayTime devuelve el instante actual en la zona configurada.
func (m *CheckinMachine) TodayTime() time.Time {
	return m.now().In(m.loc)
}

func (m *CheckinMachine) State(categoryID int, logs []domain.LogEntry) CheckinState {
	today := m.Today()
	m.mu.Lock()
	_, submitted := m.inFlight[checkinKey{categoryID: categoryID, day: today}]
	m.mu.Unlock()
	if submitted {
		return CheckinSubmitted
	}
	if hasLogOn(logs, today) {
		return CheckinScored
	}
	return CheckinPending
}

// CheckinTicket representa un envio en vuelo; Finish libera el slot.
type CheckinTicket struct {
	machine *CheckinMachine
	key     checkinKey
	once    sync.Once
}

// Day es el dia calendario al que pertenece el check-in.
func (t *CheckinTicket) Day() string {
	return t.key.day
}

func (t *CheckinTicket) Finish() {
	t.once.Do(func() {
		t.machine.mu.Lock()
		delete(t.machine.inFlight, t.key)
		t.machine.mu.Unlock()
	})
}

// Begin transiciona Pending -> Submitted. Rechaza si ya hay log de hoy o un envio en vuelo.
func (m *CheckinMachine) Begin(categoryID int, logs []domain.LogEntry) (*CheckinTicket, error) {
	key := checkinKey{categoryID: categoryID, day: m.Today()}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.inFlight[key]; ok {
		return nil, ErrCheckinInFlight
	}
	if hasLogOn(logs, key.day) {
		return nil, ErrCheckinAlreadyScored
	}
	m.inFlight[key] = struct{}{}
	return &CheckinTicket{machine: m, key: key}, nil
}

// Round agrega el estado diario de todas las metas. Sin metas la ronda esta completa.
func (m *CheckinMachine) Round(goalIDs []int, logsOf func(int) []domain.LogEntry) RoundState {
	for _, id := range goalIDs {
		if m.State(id, logsOf(id)) != CheckinScored {
			return RoundPending
		}
	}
	return RoundComplete
}

// PendingGoals devuelve las metas que aun no tienen check-in hoy (incluye las en vuelo).
func (m *CheckinMachine) PendingGoals(goalIDs []int, logsOf func(int) []domain.LogEntry) []int {
	out := []int{}
	for _, id := range goalIDs {
		if m.State(id, logsOf(id)) != CheckinScored {
			out = append(out, id)
		}
	}
	return out
}

func hasLogOn(logs []domain.LogEntry, day string) bool {
	for i := len(logs) - 1; i >= 0; i-- {
		if logs[i].Date == day {
			return true
		}
	}
	return false
}
