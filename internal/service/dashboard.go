package service

import (
	"math"
	"sort"
	"time"

	"stay-on-one/internal/domain"
)

var dailyQuotes = []string{
	"Make good new things.",
	"Greatness compounds over time.",
	"The first steps are most rare and valuable.",
	"Stay on one thing long enough.",
	"Curiosity becomes competitive advantage.",
}

const dashboardHighlights = 3

// QuoteOfDay elige la frase por dia de la semana (domingo = 0) modulo la cantidad de frases.
func QuoteOfDay(now time.Time) string {
	return dailyQuotes[int(now.Weekday())%len(dailyQuotes)]
}

// TimeOfDay: morning antes de las 12, afternoon antes de las 17, evening despues.
func TimeOfDay(now time.Time) string {
	switch h := now.Hour(); {
	case h < 12:
		return "morning"
	case h < 17:
		return "afternoon"
	default:
		return "evening"
	}
}

// GoalCard es el resumen de una meta en el tablero.
type GoalCard struct {
	Category    domain.Category  `json:"category"`
	Goal        domain.Goal      `json:"goal"`
	Score       int              `json:"score"`
	Streak      int              `json:"streak"`
	Trend       TrendSymbol      `json:"trend"`
	LastDeltas  []int            `json:"last_deltas"`
	LoggedToday bool             `json:"logged_today"`
	State       CheckinState     `json:"checkin_state"`
	Latest      *domain.LogEntry `json:"latest,omitempty"`
}

type Dashboard struct {
	Name          string     `json:"name"`
	Greeting      string     `json:"greeting"`
	Quote         string     `json:"quote"`
	Today         string     `json:"today"`
	AverageScore  int        `json:"average_score"`
	Round         RoundState `json:"round"`
	NeedsCheckin  []int      `json:"needs_checkin"`
	NeedsWork     []GoalCard `json:"needs_work"`
	TopGoals      []GoalCard `json:"top_goals"`
	Goals         []GoalCard `json:"goals"`
	TotalCheckins int        `json:"total_checkins"`
	MonthCheckins int        `json:"month_checkins"`
	MonthNetDelta int        `json:"month_net_delta"`
	HasVision     bool       `json:"has_vision"`
}

// BuildDashboard compone el tablero a partir del store; no persiste nada.
func BuildDashboard(store *AccountStore) Dashboard {
	now := store.Now()
	today := store.Today()
	month := now.Format(domain.MonthLayout)
	account := store.Snapshot()
	ids := account.GoalIDs()

	d := Dashboard{
		Name:         account.Name,
		Greeting:     "Good " + TimeOfDay(now),
		Quote:        QuoteOfDay(now),
		Today:        today,
		Round:        store.Round(),
		NeedsCheckin: store.PendingGoals(),
		NeedsWork:    []GoalCard{},
		TopGoals:     []GoalCard{},
		Goals:        make([]GoalCard, 0, len(ids)),
		HasVision:    account.Vision != "",
	}

	sum := 0
	for _, id := range ids {
		logs := account.Logs[id]
		card := GoalCard{
			Category:    domain.CategoryOrDefault(id),
			Goal:        account.Goals[id],
			Score:       account.ScoreOf(id),
			Streak:      Streak(logs, now),
			Trend:       Trend(logs),
			LastDeltas:  lastDeltas(logs, RecentDeltasWindow),
			LoggedToday: hasLogOn(logs, today),
			State:       store.CheckinState(id),
		}
		if len(logs) > 0 {
			latest := logs[len(logs)-1]
			card.Latest = &latest
		}
		sum += card.Score
		d.Goals = append(d.Goals, card)

		d.TotalCheckins += len(logs)
		for _, l := range logs {
			if l.Month() == month {
				d.MonthCheckins++
				d.MonthNetDelta += l.Delta
			}
		}
	}
	if len(ids) > 0 {
		d.AverageScore = int(math.Round(float64(sum) / float64(len(ids))))
	}

	byScore := append([]GoalCard(nil), d.Goals...)
	sort.SliceStable(byScore, func(i, j int) bool { return byScore[i].Score < byScore[j].Score })
	for i := 0; i < len(byScore) && i < dashboardHighlights; i++ {
		d.NeedsWork = append(d.NeedsWork, byScore[i])
	}
	for i := len(byScore) - 1; i >= 0 && len(d.TopGoals) < dashboardHighlights; i-- {
		d.TopGoals = append(d.TopGoals, byScore[i])
	}
	return d
}

func lastDeltas(logs []domain.LogEntry, n int) []int {
	if len(logs) > n {
		logs = logs[len(logs)-n:]
	}
	out := make([]int, 0, len(logs))
	for _, l := range logs {
		out = append(out, l.Delta)
	}
	return out
}
