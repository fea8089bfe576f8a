package service

import (
	"errors"
	"math"
	"sort"
	"time"

	"stay-on-one/internal/domain"
)

type TrendSymbol string

const (
	TrendUp      TrendSymbol = "up"
	TrendDown    TrendSymbol = "down"
	TrendFlat    TrendSymbol = "flat"
	TrendUnknown TrendSymbol = "unknown"
)

// Ventanas usadas por las vistas de progreso.
const (
	JourneyWindowGoal     = 12
	JourneyWindowTimeline = 14
	RecentDeltasWindow    = 7
)

var ErrLifeWheelTooFewGoals = errors.New("life wheel needs at least 3 goals")

// Streak cuenta dias consecutivos con check-in caminando hacia atras desde today.
// Fechas repetidas cuentan una vez; corta en el primer hueco de mas de un dia.
// Un log con fecha futura (reloj adelantado) da hueco negativo: cuenta y la caminata sigue desde esa fecha.
func Streak(logs []domain.LogEntry, today time.Time) int {
	if len(logs) == 0 {
		return 0
	}

	seen := make(map[string]struct{}, len(logs))
	days := make([]time.Time, 0, len(logs))
	for _, l := range logs {
		if _, ok := seen[l.Date]; ok {
			continue
		}
		d, err := domain.ParseDay(l.Date)
		if err != nil {
			continue
		}
		seen[l.Date] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	cur := truncateDay(today)
	streak := 0
	for _, d := range days {
		if daysBetween(d, cur) > 1 {
			break
		}
		streak++
		cur = d
	}
	return streak
}

// MonthGroup agrupa los logs de un mes "YYYY-MM" en orden de insercion.
type MonthGroup struct {
	Month    string            `json:"month"`
	Entries  []domain.LogEntry `json:"entries"`
	NetDelta int               `json:"net_delta"`
}

// MonthlyGroups particiona por prefijo año-mes; grupos en orden ascendente.
func MonthlyGroups(logs []domain.LogEntry) []MonthGroup {
	index := make(map[string]int)
	var groups []MonthGroup
	for _, l := range logs {
		m := l.Month()
		i, ok := index[m]
		if !ok {
			i = len(groups)
			index[m] = i
			groups = append(groups, MonthGroup{Month: m})
		}
		groups[i].Entries = append(groups[i].Entries, l)
		groups[i].NetDelta += l.Delta
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Month < groups[j].Month })
	return groups
}

// MonthlyGroupsDesc es MonthlyGroups con el mes mas reciente primero.
func MonthlyGroupsDesc(logs []domain.LogEntry) []MonthGroup {
	groups := MonthlyGroups(logs)
	for i, j := 0, len(groups)-1; i < j; i, j = i+1, j-1 {
		groups[i], groups[j] = groups[j], groups[i]
	}
	return groups
}

// Trend es el signo del delta del ultimo log.
func Trend(logs []domain.LogEntry) TrendSymbol {
	if len(logs) == 0 {
		return TrendUnknown
	}
	d := logs[len(logs)-1].Delta
	switch {
	case d > 0:
		return TrendUp
	case d < 0:
		return TrendDown
	default:
		return TrendFlat
	}
}

// WheelPoint es un vertice del radar; X/Y son relativos al centro (Y crece hacia abajo).
type WheelPoint struct {
	CategoryID int     `json:"category_id"`
	Score      int     `json:"score"`
	Angle      float64 `json:"angle"`
	Radius     float64 `json:"radius"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

// LifeWheel ubica un punto por meta con separacion angular uniforme empezando arriba (-90°).
// El orden de los puntos es el orden de goalIDs.
func LifeWheel(goalIDs []int, scoreOf func(int) int, maxRadius float64) ([]WheelPoint, error) {
	n := len(goalIDs)
	if n < 3 {
		return nil, ErrLifeWheelTooFewGoals
	}
	points := make([]WheelPoint, 0, n)
	for i, id := range goalIDs {
		score := ClampScore(scoreOf(id))
		angle := float64(i)/float64(n)*2*math.Pi - math.Pi/2
		r := float64(score) / 100 * maxRadius
		points = append(points, WheelPoint{
			CategoryID: id,
			Score:      score,
			Angle:      angle,
			Radius:     r,
			X:          r * math.Cos(angle),
			Y:          r * math.Sin(angle),
		})
	}
	return points, nil
}

// JourneyPoint es un paso de la curva de score reconstruida.
type JourneyPoint struct {
	Date  string `json:"date"`
	Delta int    `json:"delta"`
	Score int    `json:"score"`
}

// RunningJourney reproduce los ultimos window deltas desde 50, limitando en cada paso.
// Es una aproximacion para graficar: asume que el score valia 50 al inicio de la ventana.
func RunningJourney(logs []domain.LogEntry, window int) []JourneyPoint {
	if window > 0 && len(logs) > window {
		logs = logs[len(logs)-window:]
	}
	points := make([]JourneyPoint, 0, len(logs))
	running := domain.DefaultScore
	for _, l := range logs {
		running = ClampScore(running + boundedDelta(l.Delta))
		points = append(points, JourneyPoint{Date: l.Date, Delta: l.Delta, Score: running})
	}
	return points
}

// GoalStats resume el historial de una meta para la vista de progreso.
type GoalStats struct {
	TotalLogs   int         `json:"total_logs"`
	ThisMonth   int         `json:"this_month"`
	Streak      int         `json:"streak"`
	BestDelta   *int        `json:"best_delta,omitempty"`
	AverageMood *float64    `json:"average_mood,omitempty"`
	Trend       TrendSymbol `json:"trend"`
	LastDeltas  []int       `json:"last_deltas"`
}

func ComputeGoalStats(logs []domain.LogEntry, today time.Time) GoalStats {
	stats := GoalStats{
		TotalLogs:  len(logs),
		Streak:     Streak(logs, today),
		Trend:      Trend(logs),
		LastDeltas: []int{},
	}
	if len(logs) == 0 {
		return stats
	}

	month := today.Format(domain.MonthLayout)
	best := logs[0].Delta
	moodSum := 0
	for _, l := range logs {
		if l.Month() == month {
			stats.ThisMonth++
		}
		if l.Delta > best {
			best = l.Delta
		}
		moodSum += l.Mood
	}
	avg := math.Round(float64(moodSum)/float64(len(logs))*10) / 10
	stats.BestDelta = &best
	stats.AverageMood = &avg

	recent := logs
	if len(recent) > RecentDeltasWindow {
		recent = recent[len(recent)-RecentDeltasWindow:]
	}
	for _, l := range recent {
		stats.LastDeltas = append(stats.LastDeltas, l.Delta)
	}
	return stats
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween devuelve dias calendario de a hasta b (negativo si a es posterior).
func daysBetween(a, b time.Time) int {
	return int(math.Round(truncateDay(b).Sub(truncateDay(a)).Hours() / 24))
}
