package domain

import "time"

const (
	DefaultScore = 50
	MinScore     = 0
	MaxScore     = 100

	MinMood = 1
	MaxMood = 5

	// DayLayout es el formato ISO de dia calendario usado en LogEntry.Date.
	DayLayout = "2006-01-02"
	// MonthLayout es el prefijo año-mes de una fecha de log.
	MonthLayout = "2006-01"
)

type Goal struct {
	CategoryID int    `json:"category_id" yaml:"category_id"`
	Text       string `json:"text" yaml:"text"`
	Metric     string `json:"metric,omitempty" yaml:"metric,omitempty"`
}

// LogEntry es el registro de un check-in diario. Delta puede exceder [-20,20] si el coach no respeta el protocolo.
type LogEntry struct {
	Date        string `json:"date" yaml:"date"`
	Note        string `json:"note" yaml:"note"`
	Mood        int    `json:"mood" yaml:"mood"`
	Delta       int    `json:"delta" yaml:"delta"`
	AIReplyText string `json:"ai_reply_text" yaml:"ai_reply_text"`
}

// Month devuelve el prefijo "YYYY-MM" de la fecha.
func (e LogEntry) Month() string {
	if len(e.Date) < len(MonthLayout) {
		return e.Date
	}
	return e.Date[:len(MonthLayout)]
}

const (
	ChatRoleUser  = "user"
	ChatRoleCoach = "coach"
)

type ChatMessage struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

func IsValidChatRole(role string) bool {
	return role == ChatRoleUser || role == ChatRoleCoach
}

// DayOf formatea t como dia calendario en loc (UTC si loc es nil).
func DayOf(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DayLayout)
}

// ParseDay interpreta una fecha "YYYY-MM-DD" como medianoche UTC.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DayLayout, s)
}
