// Package cache holds the in-process caches for computed dashboard payloads.
package cache

import (
	"sync"
	"time"

	"moneyflow/internal/log"
)

type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Purge() int
	Size() int
}

// Cleaner is a cache that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically cleans every registered cache.
type Manager struct {
	logger *log.Logger

	mu     sync.Mutex
	caches []Cleaner

	stop     chan struct{}
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Manager{
		logger: logger.WithComponent(log.ComponentCache),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (m *Manager) Register(c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, c)
}

// StartCleanup runs CleanAll every interval until Stop.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.CleanAll(); n > 0 {
					m.logger.Debug("Cleaned expired cache entries", "removed", n)
				}
			case <-m.stop:
				return
			}
		}
	}()
}

// CleanAll cleans every registered cache once and returns the total removed.
func (m *Manager) CleanAll() int {
	m.mu.Lock()
	caches := append([]Cleaner(nil), m.caches...)
	m.mu.Unlock()
	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop ends the cleanup loop started by StartCleanup.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		m.mu.Lock()
		started := m.started
		m.mu.Unlock()
		if started {
			<-m.done
		}
	})
}
