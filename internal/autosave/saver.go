// Package autosave writes the graph to the persistence gateway in the
// background. Bursts of changes are coalesced into one save after a quiet
// period, at most one save runs at a time, and a clear always wins over
// pending saves.
package autosave

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"mindmap/internal/domain"
	"mindmap/internal/repository"
)

// Source provides the graph to save
type Source interface {
	Snapshot() domain.Snapshot
}

// Reporter surfaces save failures to the user
type Reporter interface {
	Report(err error)
}

// Config tunes the saver
type Config struct {
	Debounce time.Duration
	// SaveTimeout bounds one background save
	SaveTimeout time.Duration
	// BreakerFailures consecutive failures open the breaker
	BreakerFailures uint32
	// BreakerTimeout is how long the breaker stays open
	BreakerTimeout time.Duration
}

// DefaultConfig returns the default saver tuning
func DefaultConfig() Config {
	return Config{
		Debounce:        500 * time.Millisecond,
		SaveTimeout:     10 * time.Second,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

// ResultFunc observes every storage operation
type ResultFunc func(op string, err error, elapsed time.Duration)

// Option configures a Saver
type Option func(*Saver)

// WithLogger sets the saver logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Saver) { s.logger = logger }
}

// WithReporter sets where save failures are surfaced
func WithReporter(r Reporter) Option {
	return func(s *Saver) { s.reporter = r }
}

// WithResultFunc registers an observer for storage operations
func WithResultFunc(fn ResultFunc) Option {
	return func(s *Saver) { s.onResult = fn }
}

// Saver is the debounced persistence side effect of the graph store
type Saver struct {
	gw  repository.Gateway
	src Source
	cfg Config
	cb  *gobreaker.CircuitBreaker

	reporter Reporter
	onResult ResultFunc
	logger   *zap.Logger

	mu      sync.Mutex
	idle    *sync.Cond
	timer   *time.Timer
	seq     uint64
	running bool
	again   bool
	closed  bool
}

// New creates a saver writing src to gw
func New(gw repository.Gateway, src Source, cfg Config, opts ...Option) *Saver {
	s := &Saver{
		gw:     gw,
		src:    src,
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.idle = sync.NewCond(&s.mu)
	s.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "autosave",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= max(cfg.BreakerFailures, 1)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return s
}

// Schedule requests a save after the debounce period. Calls within the
// period push the save back.
func (s *Saver) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.seq++
	seq := s.seq
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.cfg.Debounce, func() { s.fire(seq) })
}

// Pending reports whether a save is scheduled or running
func (s *Saver) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil || s.running
}

// Reset wipes storage and stores snapshot. A pending debounced save is
// dropped and an in-flight save is waited for, so the stored state ends up
// being snapshot.
func (s *Saver) Reset(ctx context.Context, snapshot domain.Snapshot) error {
	s.acquire()
	err := s.timed("clear", func() error { return s.gw.Clear(ctx) })
	if err == nil {
		err = s.timed("save", func() error { return s.gw.Save(ctx, snapshot) })
	}
	s.release()
	return persistenceErr("clear", err)
}

// Flush writes the current graph immediately
func (s *Saver) Flush(ctx context.Context) error {
	s.acquire()
	snap := s.src.Snapshot()
	err := s.timed("save", func() error { return s.gw.Save(ctx, snap) })
	s.release()
	return persistenceErr("save", err)
}

// Close flushes and stops accepting schedules
func (s *Saver) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return err
}

func (s *Saver) fire(seq uint64) {
	s.mu.Lock()
	if seq != s.seq || s.closed {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	if s.running {
		s.again = true
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()
	s.drain()
}

// drain runs saves until no follow-up was requested. The caller has set
// s.running.
func (s *Saver) drain() {
	for {
		s.save()

		s.mu.Lock()
		if !s.again || s.closed {
			s.again = false
			s.running = false
			s.idle.Broadcast()
			s.mu.Unlock()
			return
		}
		s.again = false
		s.mu.Unlock()
	}
}

func (s *Saver) save() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SaveTimeout)
	defer cancel()

	snap := s.src.Snapshot()
	_, err := s.cb.Execute(func() (any, error) {
		return nil, s.timed("save", func() error { return s.gw.Save(ctx, snap) })
	})
	if err == nil {
		s.logger.Debug("graph saved", zap.Int("nodes", len(snap.Nodes)), zap.Int("links", len(snap.Links)))
		return
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		s.logger.Debug("save skipped, storage breaker open")
		err = domain.PersistenceError("save", err)
	}
	s.logger.Warn("autosave failed", zap.Error(err))
	if s.reporter != nil {
		s.reporter.Report(persistenceErr("save", err))
	}
}

// acquire cancels the pending save and waits for the running one, then
// marks the saver busy
func (s *Saver) acquire() {
	s.mu.Lock()
	s.seq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.again = false
	for s.running {
		s.idle.Wait()
	}
	s.running = true
	s.mu.Unlock()
}

// release ends an exclusive operation. A schedule that fired meanwhile gets
// its save.
func (s *Saver) release() {
	s.mu.Lock()
	if s.again && !s.closed {
		s.again = false
		s.mu.Unlock()
		go s.drain()
		return
	}
	s.running = false
	s.idle.Broadcast()
	s.mu.Unlock()
}

func (s *Saver) timed(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	if s.onResult != nil {
		s.onResult(op, err, time.Since(start))
	}
	return err
}

func persistenceErr(op string, err error) error {
	if err == nil || errors.Is(err, domain.ErrPersistence) {
		return err
	}
	return domain.PersistenceError(op, err)
}
