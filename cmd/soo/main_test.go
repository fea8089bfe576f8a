package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"stay-on-one/internal/domain"
	"stay-on-one/internal/llm"
	"stay-on-one/internal/repository"
	"stay-on-one/internal/service"
)

// memoryOpener comparte el repo entre invocaciones, como lo haria un backend real.
func memoryOpener(repo repository.DocumentRepository, coach llm.LLMClient) storeOpener {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	return func(ctx context.Context) (*service.AccountStore, llm.LLMClient, func(), error) {
		store := service.NewAccountStore(repo, coach, zap.NewNop(), service.WithClock(func() time.Time { return now }, time.UTC))
		if err := store.Init(ctx); err != nil {
			return nil, nil, nil, err
		}
		return store, coach, nil, nil
	}
}

func runCLI(t *testing.T, open storeOpener, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := &cli{out: &out, open: open}
	root := c.rootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLIGoalAndCheckinPersist(t *testing.T) {
	repo := repository.NewMemoryDocumentRepository()
	open := memoryOpener(repo, &llm.MockClient{Response: "Solid first run. DELTA:+6"})

	_, err := runCLI(t, open, "name", "Ada")
	require.NoError(t, err)
	out, err := runCLI(t, open, "goal", "set", "1", "Run", "5k", "--metric", "km")
	require.NoError(t, err)
	assert.Contains(t, out, "Health & Fitness: Run 5k (score 50/100)")

	out, err = runCLI(t, open, "checkin", "1", "ran 3k", "--mood", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "+6 pts → 56/100")
	assert.Contains(t, out, "All goals checked in for 2024-03-10.")

	_, err = runCLI(t, open, "checkin", "1", "again")
	assert.ErrorIs(t, err, service.ErrCheckinAlreadyScored)

	out, err = runCLI(t, open, "goal", "list")
	require.NoError(t, err)
	assert.Contains(t, out, " 56/100 [scored] Run 5k")

	out, err = runCLI(t, open, "stats", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-03-10  +6 -> 56")

	out, err = runCLI(t, open, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Good morning, Ada.")
}

func TestCLIExportYAML(t *testing.T) {
	repo := repository.NewMemoryDocumentRepository()
	open := memoryOpener(repo, nil)

	_, err := runCLI(t, open, "goal", "set", "2", "Read", "daily")
	require.NoError(t, err)

	out, err := runCLI(t, open, "export")
	require.NoError(t, err)
	var account domain.Account
	require.NoError(t, yaml.Unmarshal([]byte(out), &account))
	assert.Equal(t, "Read daily", account.Goals[2].Text)
	assert.Equal(t, 50, account.Scores[2])

	_, err = runCLI(t, open, "export", "--format", "xml")
	assert.Error(t, err)
}

func TestCLIRejectsBadCategory(t *testing.T) {
	open := memoryOpener(repository.NewMemoryDocumentRepository(), nil)
	_, err := runCLI(t, open, "goal", "rm", "13")
	assert.Error(t, err)
	_, err = runCLI(t, open, "stats", "3")
	assert.ErrorIs(t, err, service.ErrGoalNotFound)
}

func TestHashPassphrase(t *testing.T) {
	out, err := runCLI(t, nil, "hash-passphrase", "open sesame")
	require.NoError(t, err)
	hash := bytes.TrimSpace([]byte(out))
	assert.NoError(t, bcrypt.CompareHashAndPassword(hash, []byte("open sesame")))
}

func TestCLIChatLoop(t *testing.T) {
	repo := repository.NewMemoryDocumentRepository()
	coach := &llm.MockClient{Response: "Start with two runs this week."}
	open := memoryOpener(repo, coach)

	_, err := runCLI(t, open, "goal", "set", "1", "Run 5k")
	require.NoError(t, err)

	var out bytes.Buffer
	c := &cli{in: bytes.NewBufferString("How do I start?\n\nexit\n"), out: &out, open: open}
	root := c.rootCmd()
	root.SetArgs([]string{"chat", "1"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "Coach > Start with two runs this week.")
	assert.Len(t, coach.Calls(), 1)

	// El transcript persiste y se muestra en la siguiente sesion.
	out.Reset()
	c = &cli{in: bytes.NewBufferString("thanks"), out: &out, open: open}
	root = c.rootCmd()
	root.SetArgs([]string{"chat", "1"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "You > How do I start?")
	assert.Len(t, coach.Calls(), 2)
}
