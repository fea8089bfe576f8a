package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"stay-on-one/internal/app"
	"stay-on-one/internal/config"
	"stay-on-one/internal/domain"
	"stay-on-one/internal/llm"
	"stay-on-one/internal/repository"
	"stay-on-one/internal/service"
)

const (
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorRed   = "\033[31m"
	colorReset = "\033[0m"
)

// Scenario es un check-in guionado con la direccion de score esperada.
type Scenario struct {
	Name       string
	CategoryID int
	Goal       string
	History    []domain.LogEntry
	Note       string
	Mood       int
	Expect     Direction
}

var scenarios = []Scenario{
	{
		Name:       "first real effort",
		CategoryID: 1,
		Goal:       "Run a 5k by June",
		Note:       "Ran 3k without stopping, first time in years.",
		Mood:       4,
		Expect:     DirectionUp,
	},
	{
		Name:       "skipped with excuse",
		CategoryID: 10,
		Goal:       "Ship the v1 of my side project",
		History: []domain.LogEntry{
			{Date: "2024-03-08", Note: "Didn't touch it, too tired.", Mood: 2, Delta: -4},
			{Date: "2024-03-09", Note: "Watched videos about productivity.", Mood: 3, Delta: -3},
		},
		Note:   "Busy day again, will do it tomorrow for sure.",
		Mood:   3,
		Expect: DirectionDown,
	},
	{
		Name:       "maintenance day",
		CategoryID: 2,
		Goal:       "Read 20 pages every day",
		Note:       "Read 10 pages before bed.",
		Mood:       3,
		Expect:     DirectionAny,
	},
}

// recordingClient guarda la respuesta cruda del coach para auditar el protocolo DELTA.
type recordingClient struct {
	inner llm.LLMClient
	mu    sync.Mutex
	last  string
}

func (r *recordingClient) Generate(ctx context.Context, system string, turns []llm.Turn) (string, error) {
	reply, err := r.inner.Generate(ctx, system, turns)
	r.mu.Lock()
	r.last = reply
	r.mu.Unlock()
	return reply, err
}

func (r *recordingClient) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func main() {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	logger := zap.NewNop()

	coach, err := app.NewCoachClient(ctx, cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	recorder := &recordingClient{inner: coach}
	now := time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)

	failures := 0
	var totalSpecificity, totalHonesty int
	for _, sc := range scenarios {
		fmt.Printf("%s[%s]%s %s\n", colorCyan, sc.Name, colorReset, sc.Note)

		res, err := runScenario(ctx, recorder, sc, now)
		if err != nil {
			log.Fatalf("scenario %q: %v", sc.Name, err)
		}
		fmt.Printf("%s[coach]%s %s\n", colorGreen, colorReset, res.Feedback)

		check := CheckProtocol(recorder.Last(), sc.Expect)
		if !check.OK() {
			failures++
			fmt.Printf("%sprotocol: %s%s\n", colorRed, check, colorReset)
		}

		jr, err := evaluateFeedback(ctx, coach, sc, res.Feedback, res.Delta)
		if err != nil {
			log.Fatalf("judge failed: %v", err)
		}
		fmt.Printf("%sJudge%s %q\n", colorCyan, colorReset, jr.Reasoning)
		fmt.Printf("Scores: specificity %d/5 | honesty %d/5\n\n", jr.SpecificityScore, jr.HonestyScore)
		totalSpecificity += jr.SpecificityScore
		totalHonesty += jr.HonestyScore
	}

	n := len(scenarios)
	fmt.Println("==== Averages ====")
	fmt.Printf("Specificity: %.2f/5 | Honesty: %.2f/5 | protocol failures: %d/%d\n",
		float64(totalSpecificity)/float64(n), float64(totalHonesty)/float64(n), failures, n)
	if failures > 0 {
		os.Exit(1)
	}
}

// runScenario siembra un store en memoria con el historial y registra el check-in del dia.
func runScenario(ctx context.Context, coach llm.LLMClient, sc Scenario, now time.Time) (service.CheckinResult, error) {
	account := domain.NewAccount()
	account.Name = "Tester"
	account.Goals[sc.CategoryID] = domain.Goal{CategoryID: sc.CategoryID, Text: sc.Goal}
	account.Scores[sc.CategoryID] = domain.DefaultScore
	account.Logs[sc.CategoryID] = sc.History

	repo := repository.NewMemoryDocumentRepository()
	if err := seedAccount(ctx, repo, account); err != nil {
		return service.CheckinResult{}, err
	}

	store := service.NewAccountStore(repo, coach, zap.NewNop(), service.WithClock(func() time.Time { return now }, time.UTC))
	if err := store.Init(ctx); err != nil {
		return service.CheckinResult{}, err
	}
	defer store.Close(ctx)
	return store.RecordCheckin(ctx, sc.CategoryID, sc.Note, sc.Mood)
}
