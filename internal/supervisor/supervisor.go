// Package supervisor tracks disconnect grace periods.
//
// Each detached player gets one cancelable countdown, keyed by player
// token rather than connection id so that a rejoin under a fresh
// connection cancels the right timer.
package supervisor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/codebreak-go/internal/model"
)

// DefaultTicks is the grace period length in ticks
const DefaultTicks = 60

// DefaultInterval is the production tick interval
const DefaultInterval = time.Second

// Supervisor owns the per-token countdowns
type Supervisor struct {
	mu         sync.Mutex
	countdowns map[model.PlayerToken]*countdown
	interval   time.Duration
	logger     *slog.Logger
	wg         sync.WaitGroup
}

type countdown struct {
	stop chan struct{}
	once sync.Once
}

func (c *countdown) cancel() {
	c.once.Do(func() { close(c.stop) })
}

// New creates a Supervisor ticking at the given interval
func New(interval time.Duration, logger *slog.Logger) *Supervisor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Supervisor{
		countdowns: make(map[model.PlayerToken]*countdown),
		interval:   interval,
		logger:     logger.With(slog.String("component", "supervisor")),
	}
}

// Start begins a countdown of ticks for the given token. onTick fires
// once per interval with the remaining tick count while it is positive;
// onExpire fires when the countdown reaches zero. Starting a countdown
// for a token that already has one supersedes the old countdown.
//
// Callbacks run on the countdown's own goroutine, never under the
// supervisor's lock.
func (s *Supervisor) Start(token model.PlayerToken, ticks int, onTick func(remaining int), onExpire func()) {
	s.mu.Lock()
	if prior, ok := s.countdowns[token]; ok {
		prior.cancel()
	}
	cd := &countdown{stop: make(chan struct{})}
	s.countdowns[token] = cd
	s.mu.Unlock()

	s.logger.Debug("grace countdown started",
		slog.String("token", string(token)),
		slog.Int("ticks", ticks))

	s.wg.Add(1)
	go s.run(token, cd, ticks, onTick, onExpire)
}

func (s *Supervisor) run(token model.PlayerToken, cd *countdown, ticks int, onTick func(int), onExpire func()) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	remaining := ticks
	for {
		select {
		case <-cd.stop:
			return
		case <-ticker.C:
			remaining--
			if remaining > 0 {
				onTick(remaining)
				continue
			}

			s.mu.Lock()
			// Only remove the entry if it is still ours; a superseding
			// Start may have replaced it
			if current, ok := s.countdowns[token]; ok && current == cd {
				delete(s.countdowns, token)
			}
			s.mu.Unlock()

			s.logger.Debug("grace countdown expired", slog.String("token", string(token)))
			onExpire()
			return
		}
	}
}

// Cancel stops and discards the countdown for the given token, if any.
// Called by the session engine when the player reattaches in time.
func (s *Supervisor) Cancel(token model.PlayerToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cd, ok := s.countdowns[token]; ok {
		cd.cancel()
		delete(s.countdowns, token)
		s.logger.Debug("grace countdown cancelled", slog.String("token", string(token)))
	}
}

// Active reports whether a countdown is running for the given token
func (s *Supervisor) Active(token model.PlayerToken) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.countdowns[token]
	return ok
}

// Stop cancels every countdown and waits for their goroutines to exit
func (s *Supervisor) Stop() {
	s.mu.Lock()
	for token, cd := range s.countdowns {
		cd.cancel()
		delete(s.countdowns, token)
	}
	s.mu.Unlock()
	s.wg.Wait()
}
