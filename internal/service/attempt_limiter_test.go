package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockRedisEvaler struct {
	lastScript string
	lastKeys   []string
	lastArgs   []interface{}
	result     int64
	err        error
}

func (m *mockRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	m.lastScript = script
	m.lastKeys = keys
	m.lastArgs = args
	cmd := redis.NewCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	cmd.SetVal(m.result)
	return cmd
}

func TestMemoryAttemptLimiter(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	l := NewAttemptLimiter(time.Minute, 2).(*memoryAttemptLimiter)
	l.now = func() time.Time { return now }

	if !l.Allow("1.2.3.4") || !l.Allow(" 1.2.3.4 ") {
		t.Fatalf("expected first two attempts allowed")
	}
	if l.Allow("1.2.3.4") {
		t.Fatalf("expected third attempt throttled")
	}
	if !l.Allow("5.6.7.8") {
		t.Fatalf("expected other keys unaffected")
	}

	now = now.Add(61 * time.Second)
	if !l.Allow("1.2.3.4") {
		t.Fatalf("expected window to slide")
	}
}

func TestRedisAttemptLimiterAllow(t *testing.T) {
	t.Run("nil receiver fail-open", func(t *testing.T) {
		var l *redisAttemptLimiter
		if !l.Allow("login:1.2.3.4") {
			t.Fatalf("expected fail-open for nil limiter")
		}
	})

	t.Run("empty key rejected", func(t *testing.T) {
		l := &redisAttemptLimiter{client: &mockRedisEvaler{result: 1}, window: time.Minute, max: 3, prefix: "soo:attempts:"}
		if l.Allow("   ") {
			t.Fatalf("expected empty key to be rejected")
		}
	})

	t.Run("allow when count within max", func(t *testing.T) {
		mock := &mockRedisEvaler{result: 2}
		l := &redisAttemptLimiter{client: mock, window: 2 * time.Minute, max: 3, prefix: "soo:attempts:"}
		if !l.Allow(" Login:1.2.3.4 ") {
			t.Fatalf("expected allow when count <= max")
		}
		if len(mock.lastKeys) != 1 || mock.lastKeys[0] != "soo:attempts:login:1.2.3.4" {
			t.Fatalf("unexpected key normalization, got %+v", mock.lastKeys)
		}
		if len(mock.lastArgs) != 1 || mock.lastArgs[0] != 120 {
			t.Fatalf("expected TTL seconds=120, got %+v", mock.lastArgs)
		}
		if mock.lastScript != redisAttemptScript {
			t.Fatalf("expected script to match")
		}
	})

	t.Run("deny when count exceeds max", func(t *testing.T) {
		l := &redisAttemptLimiter{client: &mockRedisEvaler{result: 4}, window: time.Minute, max: 3, prefix: "soo:attempts:"}
		if l.Allow("login:1.2.3.4") {
			t.Fatalf("expected deny when count > max")
		}
	})

	t.Run("redis error fail-open", func(t *testing.T) {
		l := &redisAttemptLimiter{client: &mockRedisEvaler{err: errors.New("redis down")}, window: time.Minute, max: 3, prefix: "soo:attempts:"}
		if !l.Allow("login:1.2.3.4") {
			t.Fatalf("expected fail-open on redis errors")
		}
	})
}
