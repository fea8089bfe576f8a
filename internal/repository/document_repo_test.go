package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockRedisKVClient struct {
	data       map[string]string
	lastSetKey string
	lastSetTTL time.Duration
	getErr     error
	setErr     error
}

func newMockRedisKVClient() *mockRedisKVClient {
	return &mockRedisKVClient{data: make(map[string]string)}
}

func (m *mockRedisKVClient) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if m.getErr != nil {
		cmd.SetErr(m.getErr)
		return cmd
	}
	v, ok := m.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func (m *mockRedisKVClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.lastSetKey = key
	m.lastSetTTL = expiration
	cmd := redis.NewStatusCmd(ctx)
	if m.setErr != nil {
		cmd.SetErr(m.setErr)
		return cmd
	}
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	cmd.SetVal("OK")
	return cmd
}

func TestMemoryDocumentRepository_Basics(t *testing.T) {
	repo := NewMemoryDocumentRepository()
	ctx := context.Background()

	if _, err := repo.Get(ctx, "soo3"); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	payload := []byte(`{"name":"Ana"}`)
	if err := repo.Set(ctx, "soo3", payload); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	payload[2] = 'X'

	got, err := repo.Get(ctx, " soo3 ")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(got) != `{"name":"Ana"}` {
		t.Fatalf("expected stored copy, got %s", got)
	}
}

func TestMemoryDocumentRepository_OverwritesWholeDocument(t *testing.T) {
	repo := NewMemoryDocumentRepository()
	ctx := context.Background()
	_ = repo.Set(ctx, "k", []byte(`{"a":1,"b":2}`))
	_ = repo.Set(ctx, "k", []byte(`{"a":3}`))
	got, _ := repo.Get(ctx, "k")
	if string(got) != `{"a":3}` {
		t.Fatalf("expected full overwrite, got %s", got)
	}
}

func TestRedisDocumentRepository_Basics(t *testing.T) {
	mock := newMockRedisKVClient()
	repo := &RedisDocumentRepository{client: mock, prefix: "soo:doc:"}
	ctx := context.Background()

	if _, err := repo.Get(ctx, "soo3"); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected not found on redis.Nil, got %v", err)
	}
	if err := repo.Set(ctx, "soo3", []byte(`{"name":"Ana"}`)); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if mock.lastSetKey != "soo:doc:soo3" {
		t.Fatalf("unexpected key %q", mock.lastSetKey)
	}
	if mock.lastSetTTL != 0 {
		t.Fatalf("documents must not expire, got ttl %v", mock.lastSetTTL)
	}
	got, err := repo.Get(ctx, "soo3")
	if err != nil || string(got) != `{"name":"Ana"}` {
		t.Fatalf("unexpected get %s %v", got, err)
	}
}

func TestRedisDocumentRepository_ErrorPaths(t *testing.T) {
	mock := newMockRedisKVClient()
	mock.getErr = errors.New("redis down")
	mock.setErr = errors.New("redis down")
	repo := &RedisDocumentRepository{client: mock, prefix: "soo:doc:"}

	_, err := repo.Get(context.Background(), "soo3")
	if err == nil || errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if err := repo.Set(context.Background(), "soo3", []byte("{}")); err == nil {
		t.Fatalf("expected set error")
	}
}
