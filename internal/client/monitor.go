package client

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultPollInterval is how often a down service is re-checked.
const DefaultPollInterval = 10 * time.Second

// Checker reports service health.
type Checker interface {
	Health(ctx context.Context) error
}

// Monitor tracks whether the upload service is reachable. While it is down,
// Run polls the health endpoint until it answers again.
type Monitor struct {
	checker  Checker
	interval time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	up      bool
	changed chan struct{} // closed and replaced on every state change
	down    chan struct{}
}

// NewMonitor creates a monitor. It assumes the service is up until the
// first check says otherwise.
func NewMonitor(checker Checker, interval time.Duration, log *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Monitor{
		checker:  checker,
		interval: interval,
		log:      log,
		up:       true,
		changed:  make(chan struct{}),
		down:     make(chan struct{}, 1),
	}
}

// Up reports the last known state.
func (m *Monitor) Up() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.up
}

// Check runs one health check and records the result.
func (m *Monitor) Check(ctx context.Context) bool {
	err := m.checker.Health(ctx)
	if err != nil {
		m.log.Debug("health check failed", zap.Error(err))
	}
	m.set(err == nil)
	return err == nil
}

// MarkDown records that a request just failed to reach the service, which
// restarts polling in Run.
func (m *Monitor) MarkDown() {
	m.set(false)
	select {
	case m.down <- struct{}{}:
	default:
	}
}

func (m *Monitor) set(up bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.up == up {
		return
	}
	m.up = up
	if up {
		m.log.Info("upload service available")
	} else {
		m.log.Warn("upload service unavailable")
	}
	close(m.changed)
	m.changed = make(chan struct{})
}

// Run checks once, then polls every interval while the service is down and
// idles while it is up. It returns when ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	ok := m.Check(ctx)
	for {
		if ok {
			select {
			case <-ctx.Done():
				return
			case <-m.down:
				ok = false
				ticker.Reset(m.interval)
			}
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok = m.Check(ctx)
		}
	}
}

// WaitUp blocks until the monitor reports the service up or ctx is done.
func (m *Monitor) WaitUp(ctx context.Context) error {
	for {
		m.mu.Lock()
		up, changed := m.up, m.changed
		m.mu.Unlock()
		if up {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}
