package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"stay-on-one/internal/domain"
	"stay-on-one/internal/llm"
	"stay-on-one/internal/repository"
)

// DefaultAccountKey es la clave fija del documento de la cuenta.
const DefaultAccountKey = "soo3"

const defaultWriteTimeout = 5 * time.Second

var (
	ErrGoalNotFound = errors.New("goal not found")
	ErrStoreClosed  = errors.New("account store closed")
)

// CollaboratorError envuelve una falla del coach. Nunca llega al llamador: se registra y se degrada.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("coach %s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// PersistenceError envuelve una falla del repositorio de documentos; se registra y se descarta.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// CheckinResult es lo que devuelve un check-in registrado.
type CheckinResult struct {
	CategoryID     int             `json:"category_id"`
	Entry          domain.LogEntry `json:"entry"`
	PreviousScore  int             `json:"previous_score"`
	NewScore       int             `json:"new_score"`
	Delta          int             `json:"delta"`
	Feedback       string          `json:"feedback"`
	CoachAvailable bool            `json:"coach_available"`
}

type AccountStoreOption func(*AccountStore)

func WithAccountKey(key string) AccountStoreOption {
	return func(s *AccountStore) {
		if k := strings.TrimSpace(key); k != "" {
			s.key = k
		}
	}
}

// WithClock fija el reloj y la zona usados para "hoy".
func WithClock(now func() time.Time, loc *time.Location) AccountStoreOption {
	return func(s *AccountStore) {
		s.checkins = NewCheckinMachine(now, loc)
	}
}

func WithWriteTimeout(d time.Duration) AccountStoreOption {
	return func(s *AccountStore) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// AccountStore es el dueño del agregado en memoria. Toda mutacion pasa por aca,
// marca la cuenta como sucia y un unico writer en background persiste el snapshot completo.
type AccountStore struct {
	mu      sync.RWMutex
	account domain.Account
	// sealed se marca bajo mu en Close; ningun commit posterior al flush final es aceptado.
	sealed bool

	repo     repository.DocumentRepository
	coach    llm.LLMClient
	logger   *zap.Logger
	checkins *CheckinMachine

	key          string
	writeTimeout time.Duration

	lifecycle sync.Mutex
	started   bool
	closed    bool
	dirty     chan struct{}
	stop      chan struct{}
	done      chan struct{}
}

func NewAccountStore(repo repository.DocumentRepository, coach llm.LLMClient, logger *zap.Logger, opts ...AccountStoreOption) *AccountStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AccountStore{
		account:      domain.NewAccount(),
		repo:         repo,
		coach:        coach,
		logger:       logger,
		checkins:     NewCheckinMachine(nil, nil),
		key:          DefaultAccountKey,
		writeTimeout: defaultWriteTimeout,
		dirty:        make(chan struct{}, 1),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init carga el documento y arranca el writer. Documento ausente o corrupto => cuenta vacia.
func (s *AccountStore) Init(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if s.started {
		return nil
	}

	account := s.load(ctx)
	s.mu.Lock()
	s.account = account
	s.mu.Unlock()

	s.started = true
	go s.writeLoop()
	return nil
}

func (s *AccountStore) load(ctx context.Context) domain.Account {
	if s.repo == nil {
		return domain.NewAccount()
	}
	raw, err := s.repo.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, repository.ErrDocumentNotFound) {
			s.logger.Warn("account load failed", zap.Error(&PersistenceError{Op: "get", Key: s.key, Err: err}))
		}
		return domain.NewAccount()
	}
	var account domain.Account
	if err := json.Unmarshal(raw, &account); err != nil {
		s.logger.Warn("account document corrupt, starting empty", zap.String("key", s.key), zap.Error(err))
		return domain.NewAccount()
	}
	account.Normalize()
	return account
}

// Close detiene el writer tras un flush final.
func (s *AccountStore) Close(ctx context.Context) error {
	s.lifecycle.Lock()
	if s.closed {
		s.lifecycle.Unlock()
		return nil
	}
	s.closed = true
	started := s.started
	s.lifecycle.Unlock()

	s.mu.Lock()
	s.sealed = true
	s.mu.Unlock()

	if !started {
		return nil
	}
	close(s.stop)
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *AccountStore) writeLoop() {
	defer close(s.done)
	for {
		select {
		case <-s.dirty:
			s.flush()
		case <-s.stop:
			select {
			case <-s.dirty:
				s.flush()
			default:
			}
			return
		}
	}
}

// markDirty nunca bloquea: con un pedido pendiente, el proximo flush ya vera el estado nuevo.
// Se llama con mu tomado, asi el drenaje final de Close ve todo commit anterior al sellado.
func (s *AccountStore) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *AccountStore) flush() {
	if s.repo == nil {
		return
	}
	s.mu.RLock()
	raw, err := json.Marshal(s.account)
	s.mu.RUnlock()
	if err != nil {
		s.logger.Error("account marshal failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()
	if err := s.repo.Set(ctx, s.key, raw); err != nil {
		s.logger.Warn("account persist failed", zap.Error(&PersistenceError{Op: "set", Key: s.key, Err: err}))
		return
	}
	s.logger.Debug("account persisted", zap.String("key", s.key), zap.Int("bytes", len(raw)))
}

func (s *AccountStore) SetName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.NewValidationError("name", "name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return ErrStoreClosed
	}
	s.account.Name = name
	s.markDirty()
	return nil
}

// SetGoal crea o reemplaza la meta de la categoria. El score arranca en 50 solo si no habia entrada;
// una meta re-creada tras RemoveGoal recupera su score e historial.
func (s *AccountStore) SetGoal(categoryID int, text, metric string) (domain.Goal, error) {
	if !domain.IsValidCategory(categoryID) {
		return domain.Goal{}, domain.NewValidationError("category_id", fmt.Sprintf("unknown category %d", categoryID))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Goal{}, domain.NewValidationError("text", "goal text is required")
	}

	goal := domain.Goal{CategoryID: categoryID, Text: text, Metric: strings.TrimSpace(metric)}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return domain.Goal{}, ErrStoreClosed
	}
	s.account.Goals[categoryID] = goal
	if _, ok := s.account.Scores[categoryID]; !ok {
		s.account.Scores[categoryID] = domain.DefaultScore
	}
	s.markDirty()
	return goal, nil
}

// RemoveGoal borra solo la meta; score, logs y chat quedan retenidos.
func (s *AccountStore) RemoveGoal(categoryID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return ErrStoreClosed
	}
	if _, ok := s.account.Goals[categoryID]; !ok {
		return ErrGoalNotFound
	}
	delete(s.account.Goals, categoryID)
	s.markDirty()
	return nil
}

// RecordCheckin valida, reserva el slot del dia, consulta al coach sin tomar el lock y aplica el delta.
func (s *AccountStore) RecordCheckin(ctx context.Context, categoryID int, note string, mood int) (CheckinResult, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return CheckinResult{}, domain.NewValidationError("note", "note is required")
	}
	if mood < domain.MinMood || mood > domain.MaxMood {
		return CheckinResult{}, domain.NewValidationError("mood", fmt.Sprintf("mood must be between %d and %d", domain.MinMood, domain.MaxMood))
	}

	// Leer logs y reservar el slot bajo el mismo lock: un check-in que termina agrega su log
	// con el lock de escritura antes de liberar su ticket.
	s.mu.RLock()
	goal, ok := s.account.Goals[categoryID]
	logs := append([]domain.LogEntry(nil), s.account.Logs[categoryID]...)
	var (
		ticket *CheckinTicket
		err    error
	)
	sealed := s.sealed
	if ok && !sealed {
		ticket, err = s.checkins.Begin(categoryID, logs)
	}
	s.mu.RUnlock()
	if sealed {
		return CheckinResult{}, ErrStoreClosed
	}
	if !ok {
		return CheckinResult{}, ErrGoalNotFound
	}
	if err != nil {
		return CheckinResult{}, err
	}
	defer ticket.Finish()

	prompt := BuildCheckinPrompt(goal, logs, ticket.Day(), mood, note)
	reply, coachOK := askCoach(ctx, s.coach, s.logger, "checkin", checkinSystemPrompt, []llm.Turn{{Role: llm.RoleUser, Content: prompt}})

	s.mu.Lock()
	if s.sealed {
		s.mu.Unlock()
		s.logger.Warn("checkin dropped, store closed during coach call", zap.Int("category_id", categoryID))
		return CheckinResult{}, ErrStoreClosed
	}
	previous := s.account.ScoreOf(categoryID)
	scored := ApplyCheckin(previous, reply)
	entry := domain.LogEntry{
		Date:        ticket.Day(),
		Note:        note,
		Mood:        mood,
		Delta:       scored.Delta,
		AIReplyText: scored.CleanedText,
	}
	s.account.Logs[categoryID] = append(s.account.Logs[categoryID], entry)
	s.account.Scores[categoryID] = scored.NewScore
	s.markDirty()
	s.mu.Unlock()

	s.logger.Info("checkin recorded",
		zap.Int("category_id", categoryID),
		zap.Int("delta", scored.Delta),
		zap.Int("score", scored.NewScore),
		zap.Bool("coach_available", coachOK),
	)

	return CheckinResult{
		CategoryID:     categoryID,
		Entry:          entry,
		PreviousScore:  previous,
		NewScore:       scored.NewScore,
		Delta:          scored.Delta,
		Feedback:       FormatCheckinFeedback(scored.CleanedText, scored.Delta, scored.NewScore),
		CoachAvailable: coachOK,
	}, nil
}

// askCoach nunca falla: errores y respuestas vacias se reemplazan por el texto de fallback.
// El bool indica si la respuesta vino realmente del coach.
func askCoach(ctx context.Context, coach llm.LLMClient, logger *zap.Logger, op, system string, turns []llm.Turn) (string, bool) {
	if coach == nil {
		logger.Warn("coach not configured", zap.String("op", op))
		return FallbackConnectionError, false
	}
	reply, err := coach.Generate(ctx, system, turns)
	if err != nil {
		logger.Warn("coach call failed", zap.Error(&CollaboratorError{Op: op, Err: err}))
		return FallbackConnectionError, false
	}
	if strings.TrimSpace(reply) == "" {
		return FallbackNoResponse, false
	}
	return reply, true
}

func (s *AccountStore) AppendChatMessage(categoryID int, role, content string) (domain.ChatMessage, error) {
	if !domain.IsValidCategory(categoryID) {
		return domain.ChatMessage{}, domain.NewValidationError("category_id", fmt.Sprintf("unknown category %d", categoryID))
	}
	if !domain.IsValidChatRole(role) {
		return domain.ChatMessage{}, domain.NewValidationError("role", fmt.Sprintf("invalid role %q", role))
	}
	if strings.TrimSpace(content) == "" {
		return domain.ChatMessage{}, domain.NewValidationError("content", "content is required")
	}

	msg := domain.ChatMessage{Role: role, Content: content}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return domain.ChatMessage{}, ErrStoreClosed
	}
	s.account.Chats[categoryID] = append(s.account.Chats[categoryID], msg)
	s.markDirty()
	return msg, nil
}

func (s *AccountStore) SetVision(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return ErrStoreClosed
	}
	s.account.Vision = text
	s.markDirty()
	return nil
}

// Snapshot devuelve una copia profunda de la cuenta.
func (s *AccountStore) Snapshot() domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account.Clone()
}

func (s *AccountStore) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account.Name
}

func (s *AccountStore) Goal(categoryID int) (domain.Goal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.account.Goals[categoryID]
	return g, ok
}

func (s *AccountStore) Score(categoryID int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account.ScoreOf(categoryID)
}

func (s *AccountStore) Logs(categoryID int) []domain.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.LogEntry(nil), s.account.Logs[categoryID]...)
}

func (s *AccountStore) Chat(categoryID int) []domain.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ChatMessage(nil), s.account.Chats[categoryID]...)
}

func (s *AccountStore) Vision() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account.Vision
}

func (s *AccountStore) GoalIDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account.GoalIDs()
}

func (s *AccountStore) CheckinState(categoryID int) CheckinState {
	return s.checkins.State(categoryID, s.Logs(categoryID))
}

// Round es el estado de la ronda diaria sobre las metas activas.
func (s *AccountStore) Round() RoundState {
	return s.checkins.Round(s.GoalIDs(), s.Logs)
}

// PendingGoals lista las metas activas sin check-in hoy.
func (s *AccountStore) PendingGoals() []int {
	return s.checkins.PendingGoals(s.GoalIDs(), s.Logs)
}

// Now devuelve el instante actual en la zona configurada.
func (s *AccountStore) Now() time.Time {
	return s.checkins.TodayTime()
}

func (s *AccountStore) Today() string {
	return s.checkins.Today()
}
