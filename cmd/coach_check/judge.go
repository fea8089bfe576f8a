package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"stay-on-one/internal/domain"
	"stay-on-one/internal/llm"
	"stay-on-one/internal/repository"
	"stay-on-one/internal/service"
)

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionAny  Direction = "any"

	protocolMaxDelta = 20
)

// ProtocolCheck resume si la respuesta cruda respeta el formato DELTA:<n>.
type ProtocolCheck struct {
	HasToken  bool
	Delta     int
	InRange   bool
	Direction bool
}

func (p ProtocolCheck) OK() bool {
	return p.HasToken && p.InRange && p.Direction
}

func (p ProtocolCheck) String() string {
	return fmt.Sprintf("token=%t delta=%d in_range=%t direction=%t", p.HasToken, p.Delta, p.InRange, p.Direction)
}

// CheckProtocol audita una respuesta cruda del coach.
func CheckProtocol(raw string, expect Direction) ProtocolCheck {
	delta, cleaned := service.ParseDelta(raw)
	check := ProtocolCheck{
		HasToken: cleaned != strings.TrimSpace(raw),
		Delta:    delta,
		InRange:  delta >= -protocolMaxDelta && delta <= protocolMaxDelta,
	}
	switch expect {
	case DirectionUp:
		check.Direction = delta > 0
	case DirectionDown:
		check.Direction = delta < 0
	default:
		check.Direction = true
	}
	return check
}

// judgeResponse representa la respuesta estructurada del juez evaluador en formato JSON.
type judgeResponse struct {
	Reasoning        string `json:"reasoning"`
	SpecificityScore int    `json:"specificity_score"`
	HonestyScore     int    `json:"honesty_score"`
}

func evaluateFeedback(ctx context.Context, judge llm.LLMClient, sc Scenario, feedback string, delta int) (judgeResponse, error) {
	prompt := buildJudgePrompt(sc, feedback, delta)
	raw, err := judge.Generate(ctx, "", []llm.Turn{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		return judgeResponse{}, err
	}

	jsonStr := llm.ExtractJSONObject(raw)
	if jsonStr == "" {
		return judgeResponse{}, fmt.Errorf("judge returned non-json: %q", raw)
	}
	var jr judgeResponse
	if err := json.Unmarshal([]byte(jsonStr), &jr); err != nil {
		return judgeResponse{}, fmt.Errorf("parse judge json: %w (raw=%q)", err, jsonStr)
	}

	jr.SpecificityScore = clamp1to5(jr.SpecificityScore)
	jr.HonestyScore = clamp1to5(jr.HonestyScore)
	return jr, nil
}

func clamp1to5(v int) int {
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}

func formatHistory(logs []domain.LogEntry) string {
	if len(logs) == 0 {
		return "(none)"
	}
	var parts []string
	for _, l := range logs {
		parts = append(parts, fmt.Sprintf("%s: %s (delta %+d)", l.Date, l.Note, l.Delta))
	}
	return strings.Join(parts, "; ")
}

func buildJudgePrompt(sc Scenario, feedback string, delta int) string {
	return fmt.Sprintf(`You are an expert evaluator of accountability coaching.

Goal (%s): %q
Previous check-ins: %s
Today's note (mood %d/5): %q
Coach feedback: %q
Score change awarded: %+d

Rate 1-5:
1) Specificity: does the feedback reference what the person actually did and give one concrete next step?
2) Honesty: is the score change proportionate? Excuses and repeated skips must not be rewarded; real effort must be.

Reply ONLY with JSON (no markdown):
{
  "reasoning": "...",
  "specificity_score": 0,
  "honesty_score": 0
}`,
		domain.CategoryOrDefault(sc.CategoryID).Name, sc.Goal, formatHistory(sc.History), sc.Mood, sc.Note, feedback, delta,
	)
}

func seedAccount(ctx context.Context, repo repository.DocumentRepository, account domain.Account) error {
	raw, err := json.Marshal(account)
	if err != nil {
		return err
	}
	return repo.Set(ctx, service.DefaultAccountKey, raw)
}
