package domain

import "sort"

// Account es la raiz del agregado; se persiste completo como un solo documento.
type Account struct {
	Name   string                `json:"name" yaml:"name"`
	Goals  map[int]Goal          `json:"goals" yaml:"goals"`
	Scores map[int]int           `json:"scores" yaml:"scores"`
	Logs   map[int][]LogEntry    `json:"logs" yaml:"logs"`
	Chats  map[int][]ChatMessage `json:"chats" yaml:"chats"`
	Vision string                `json:"vision" yaml:"vision"`
}

func NewAccount() Account {
	return Account{
		Goals:  make(map[int]Goal),
		Scores: make(map[int]int),
		Logs:   make(map[int][]LogEntry),
		Chats:  make(map[int][]ChatMessage),
	}
}

// Normalize repara documentos cargados: mapas nil, metas sin score y scores fuera de rango.
func (a *Account) Normalize() {
	if a.Goals == nil {
		a.Goals = make(map[int]Goal)
	}
	if a.Scores == nil {
		a.Scores = make(map[int]int)
	}
	if a.Logs == nil {
		a.Logs = make(map[int][]LogEntry)
	}
	if a.Chats == nil {
		a.Chats = make(map[int][]ChatMessage)
	}
	for id, g := range a.Goals {
		if g.CategoryID != id {
			g.CategoryID = id
			a.Goals[id] = g
		}
		if _, ok := a.Scores[id]; !ok {
			a.Scores[id] = DefaultScore
		}
	}
	for id, s := range a.Scores {
		a.Scores[id] = ClampScore(s)
	}
}

// GoalIDs devuelve los ids de categoria con meta, ascendente (orden visual estable).
func (a Account) GoalIDs() []int {
	ids := make([]int, 0, len(a.Goals))
	for id := range a.Goals {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ScoreOf devuelve el score o DefaultScore si no hay entrada.
func (a Account) ScoreOf(id int) int {
	if s, ok := a.Scores[id]; ok {
		return s
	}
	return DefaultScore
}

// Clone hace una copia profunda para lecturas fuera del lock.
func (a Account) Clone() Account {
	out := Account{
		Name:   a.Name,
		Vision: a.Vision,
		Goals:  make(map[int]Goal, len(a.Goals)),
		Scores: make(map[int]int, len(a.Scores)),
		Logs:   make(map[int][]LogEntry, len(a.Logs)),
		Chats:  make(map[int][]ChatMessage, len(a.Chats)),
	}
	for k, v := range a.Goals {
		out.Goals[k] = v
	}
	for k, v := range a.Scores {
		out.Scores[k] = v
	}
	for k, v := range a.Logs {
		out.Logs[k] = append([]LogEntry(nil), v...)
	}
	for k, v := range a.Chats {
		out.Chats[k] = append([]ChatMessage(nil), v...)
	}
	return out
}

// ClampScore limita un score a [MinScore, MaxScore].
func ClampScore(s int) int {
	if s < MinScore {
		return MinScore
	}
	if s > MaxScore {
		return MaxScore
	}
	return s
}
