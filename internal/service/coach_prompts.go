package service

import (
	"fmt"
	"strings"

	"stay-on-one/internal/domain"
)

const (
	// FallbackConnectionError sustituye la respuesta del coach cuando la llamada falla.
	FallbackConnectionError = "Connection error. Please try again."
	// FallbackNoResponse sustituye una respuesta vacia.
	FallbackNoResponse = "No response."

	checkinRecentWindow = 5
	visionContextChars  = 500
)

const checkinSystemPrompt = `You are an accountability coach. In 2-3 sentences: acknowledge what they did, assess if it moved them toward or away from their goal, give one sharp insight. End with exactly: DELTA:+8 or DELTA:-5 (range -20 to +20). Nothing after.`

const visionSystemPrompt = `You are a master life architect. Create a profound personal Life Vision manifesto in second person. Inspired by Paul Graham: greatness compounds. Structure: opening identity → key themes → ONE core thread → 90-day challenge → closing commitment. Bold, specific, poetic.`

// CoachPage identifica la pantalla desde la que se abre el coach flotante.
type CoachPage string

const (
	PageDashboard CoachPage = "dashboard"
	PageCheckin   CoachPage = "checkin"
	PageProgress  CoachPage = "progress"
	PageVision    CoachPage = "vision"
	PageSetup     CoachPage = "setup"
)

var greetingPageContext = map[CoachPage]string{
	PageVision:    "I see you've been working on your Life Vision — ask me anything about it.",
	PageCheckin:   "You're doing your daily check-in — great habit.",
	PageProgress:  "You're reviewing your progress — I can help you interpret it.",
	PageDashboard: "How can I help you stay focused today?",
}

var systemPageContext = map[CoachPage]string{
	PageVision:    "Viewing Life Vision.",
	PageCheckin:   "Doing daily check-in.",
	PageProgress:  "Reviewing progress history.",
	PageDashboard: "On the main dashboard.",
	PageSetup:     "Setting up goals.",
}

var quickPrompts = map[CoachPage][]string{
	PageVision:   {"What does my vision mean for today?", "I have doubts about this", "Which goal first?"},
	PageCheckin:  {"I had a bad day", "How do I stay consistent?", "I want to quit"},
	PageProgress: {"Am I improving?", "What's holding me back?", "What should I focus on?"},
}

var defaultQuickPrompts = []string{"Am I on the right track?", "I'm feeling distracted", "Help me prioritize"}

// BuildCheckinPrompt arma el turno de usuario para un check-in: meta, ultimos 5 logs y nota de hoy.
func BuildCheckinPrompt(goal domain.Goal, logs []domain.LogEntry, today string, mood int, note string) string {
	if len(logs) > checkinRecentWindow {
		logs = logs[len(logs)-checkinRecentWindow:]
	}
	recent := make([]string, 0, len(logs))
	for _, l := range logs {
		recent = append(recent, fmt.Sprintf("%s: %s (mood %d/5)", l.Date, l.Note, l.Mood))
	}
	recentText := strings.Join(recent, "\n")
	if recentText == "" {
		recentText = "First check-in"
	}
	return fmt.Sprintf("Goal: %s\nRecent:\n%s\n\nToday %s, mood %d/5:\n%s", goal.Text, recentText, today, mood, note)
}

// BuildGoalChatSystem es el prompt de sistema del chat por meta.
func BuildGoalChatSystem(name string, goal domain.Goal, score int) string {
	c := domain.CategoryOrDefault(goal.CategoryID)
	return fmt.Sprintf("You are a focused coach for %s's goal in %s: %q. Score: %d/100. Be specific and direct.",
		displayName(name, "this person"), c.Name, goal.Text, score)
}

// BuildVisionPrompt resume las metas para la sintesis de vision.
func BuildVisionPrompt(account domain.Account) string {
	lines := make([]string, 0, len(account.Goals))
	for _, id := range account.GoalIDs() {
		c := domain.CategoryOrDefault(id)
		lines = append(lines, fmt.Sprintf("%s (score %d/100, %d check-ins): %s",
			c.Name, account.ScoreOf(id), len(account.Logs[id]), account.Goals[id].Text))
	}
	return fmt.Sprintf("Name: %s\nGoals:\n%s\n\nWrite their Life Vision.", account.Name, strings.Join(lines, "\n"))
}

// BuildCoachSystem arma el contexto del coach flotante: metas, scores, inicio de la vision y pagina.
func BuildCoachSystem(account domain.Account, page CoachPage) string {
	ids := account.GoalIDs()
	goalsCtx := "No goals set yet."
	if len(ids) > 0 {
		lines := make([]string, 0, len(ids))
		for _, id := range ids {
			c := domain.CategoryOrDefault(id)
			lines = append(lines, fmt.Sprintf("- %s: %q (score: %d/100)", c.Name, account.Goals[id].Text, account.ScoreOf(id)))
		}
		goalsCtx = strings.Join(lines, "\n")
	}

	visionCtx := ""
	if account.Vision != "" {
		visionCtx = "\n\nLife Vision:\n" + truncateRunes(account.Vision, visionContextChars) + "..."
	}

	var b strings.Builder
	b.WriteString(`You are Coach inside "Stay on One" — a life accountability app inspired by Paul Graham's philosophy that greatness comes from compounding one thing long enough.`)
	b.WriteString("\n\nUser: ")
	b.WriteString(displayName(account.Name, "this person"))
	b.WriteString("\nGoals:\n")
	b.WriteString(goalsCtx)
	b.WriteString(visionCtx)
	b.WriteString("\nContext: ")
	b.WriteString(systemPageContext[page])
	b.WriteString("\n\nBe warm but direct. Reference actual goals by name. Keep responses to 2-4 sentences. If they want to chase something new, redirect to their one thing.")
	return b.String()
}

// BuildGreeting es el primer mensaje del coach flotante; no llama al LLM.
func BuildGreeting(name string, goalCount int, page CoachPage) string {
	who := displayName(name, "there")
	if goalCount == 0 {
		return fmt.Sprintf("Hey %s 👋 I'm Coach. Start by setting a goal in any life area and I'll help you think it through.", who)
	}
	pageCtx, ok := greetingPageContext[page]
	if !ok {
		pageCtx = "How can I help?"
	}
	return fmt.Sprintf("Hey %s 👋 I'm Coach — I know all %d of your goals. %s", who, goalCount, pageCtx)
}

// QuickPrompts devuelve las sugerencias rapidas para la pagina.
func QuickPrompts(page CoachPage) []string {
	src, ok := quickPrompts[page]
	if !ok {
		src = defaultQuickPrompts
	}
	return append([]string(nil), src...)
}

// FormatCheckinFeedback produce "<texto>\n\n+6 pts → 56/100".
func FormatCheckinFeedback(cleaned string, delta, newScore int) string {
	sign := ""
	if delta >= 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s\n\n%s%d pts → %d/100", cleaned, sign, delta, newScore)
}

func displayName(name, fallback string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return fallback
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
