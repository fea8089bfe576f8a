package service

import (
	"strings"
	"sync"
	"time"
)

// AttemptLimiter limita intentos (por ejemplo logins) por clave dentro de una ventana.
type AttemptLimiter interface {
	Allow(key string) bool
}

type memoryAttemptLimiter struct {
	mu     sync.Mutex
	now    func() time.Time
	window time.Duration
	max    int
	hits   map[string][]time.Time
}

// NewAttemptLimiter crea un limitador de ventana deslizante en memoria.
func NewAttemptLimiter(window time.Duration, max int) AttemptLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &memoryAttemptLimiter{
		now:    time.Now,
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
	}
}

func (l *memoryAttemptLimiter) Allow(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	cutoff := now.Add(-l.window)
	kept := l.hits[key][:0]
	for _, ts := range l.hits[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.hits[key] = kept
		return false
	}
	l.hits[key] = append(kept, now)
	return true
}
