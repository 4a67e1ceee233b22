// Package session owns the stateful side of gate checking: it gathers fact
// snapshots from the collaborator services, runs the pure evaluator, and
// caches the latest result for cheap action queries between refreshes.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gatehouse/internal/gate"
	"gatehouse/internal/gate/metrics"
	"gatehouse/internal/gate/ports"
	"gatehouse/pkg/platform/sentinel"
)

// State is the session lifecycle state.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Config carries everything a session needs. Logger and Metrics may be nil.
type Config struct {
	WorkOrderID   string
	CurrentUserID string
	CurrentStep   gate.StepID
	Collectors    ports.Collectors
	FetchTimeout  time.Duration
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
}

const defaultFetchTimeout = 5 * time.Second

// Session tracks gate state for one (work order, user, step) tuple. The
// cached result is replaced wholesale on each successful refresh, never
// partially mutated.
type Session struct {
	cfg Config

	mu          sync.Mutex
	state       State
	result      *gate.CheckResult
	unknown     []string
	lastErr     error
	nextSeq     uint64
	applied     uint64
	inflight    context.CancelFunc
	inflightSeq uint64

	closeOnce sync.Once
	closed    chan struct{}
	wg        sync.WaitGroup
}

// New creates an idle session. Call Refresh (or StartAutoRefresh) to populate
// it.
func New(cfg Config) *Session {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	return &Session{
		cfg:    cfg,
		state:  StateIdle,
		closed: make(chan struct{}),
	}
}

// Refresh gathers a fresh fact snapshot and re-evaluates. Concurrent or
// overlapping refreshes are safe: a newer call cancels the round still in
// flight, and a stale round can never overwrite a newer result (monotonic
// sequence guard).
//
// Per-family fetch failures do not fail the refresh; the affected families
// are reported via UnknownFamilies and their gates are skipped for the round.
func (s *Session) Refresh(ctx context.Context) error {
	select {
	case <-s.closed:
		return fmt.Errorf("refresh after close: %w", sentinel.ErrInvalidState)
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	s.mu.Lock()
	s.nextSeq++
	seq := s.nextSeq
	s.state = StateLoading
	// Supersede the round in flight; at most one fetch round per session.
	if s.inflight != nil {
		s.inflight()
	}
	s.inflight = cancel
	s.inflightSeq = seq
	s.mu.Unlock()

	start := time.Now()
	snap := Gather(ctx, s.cfg.Collectors, s.cfg.WorkOrderID, s.cfg.Metrics, s.cfg.Logger)
	snap.Input.CurrentUserID = s.cfg.CurrentUserID
	snap.Input.CurrentStep = s.cfg.CurrentStep

	if err := ctx.Err(); err != nil {
		if !s.commitError(seq, err) {
			// Superseded by a newer refresh; that round owns the state now.
			return nil
		}
		return fmt.Errorf("gather facts for %s: %w", s.cfg.WorkOrderID, err)
	}

	result := gate.Evaluate(snap.Input)
	s.observe(result, time.Since(start))
	if !s.commit(seq, result, snap.Unknown) {
		// A newer refresh finished first; this round is stale.
		return nil
	}

	if s.cfg.Logger != nil {
		s.cfg.Logger.InfoContext(ctx, "gate state refreshed",
			"work_order_id", s.cfg.WorkOrderID,
			"active_gates", len(result.ActiveGates),
			"unknown_families", snap.Unknown,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return nil
}

// commit installs a round's result if it is still the newest. Reports whether
// the round was applied.
func (s *Session) commit(seq uint64, result *gate.CheckResult, unknown []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied {
		return false
	}
	s.applied = seq
	s.result = result
	s.unknown = unknown
	s.lastErr = nil
	s.state = StateReady
	if s.inflightSeq == seq {
		s.inflight = nil
	}
	return true
}

// commitError records a failed round. A round that was superseded (a newer
// refresh has started) commits nothing: the error state must only ever
// describe the current refresh, and the newer round's cancel func stays
// intact so it can itself be superseded. Reports whether the error was
// applied.
func (s *Session) commitError(seq uint64, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied || seq < s.nextSeq {
		return false
	}
	s.applied = seq
	s.lastErr = err
	s.state = StateError
	if s.inflightSeq == seq {
		s.inflight = nil
	}
	return true
}

func (s *Session) observe(result *gate.CheckResult, elapsed time.Duration) {
	m := s.cfg.Metrics
	m.ObserveRefresh(elapsed)
	if result.AllPassed {
		m.IncrementOutcome("passed")
		return
	}
	m.IncrementOutcome("blocked")
	for _, g := range result.ActiveGates {
		m.IncrementActiveGate(string(g.ID))
	}
}

// Result returns the most recent evaluation, nil before the first successful
// refresh. The result is immutable; callers may query it freely.
func (s *Session) Result() *gate.CheckResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// State returns the session lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error of the last failed refresh, nil once a refresh
// succeeds.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// UnknownFamilies lists the fact families the last refresh could not gather.
// Gates over these families were skipped, not passed.
func (s *Session) UnknownFamilies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.unknown))
	copy(out, s.unknown)
	return out
}

// Degraded reports whether the last refresh was missing any fact family.
func (s *Session) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.unknown) > 0
}

// CanPerformAction proxies to the cached result. Before the first successful
// refresh there is no evidence either way, so it answers false: gating is
// compliance-sensitive and defaults closed until facts arrive.
func (s *Session) CanPerformAction(action gate.BlockedAction) bool {
	return s.Result().CanPerformAction(action)
}

// BlockingReasons proxies to the cached result; empty when nothing blocks the
// action or no result exists yet.
func (s *Session) BlockingReasons(action gate.BlockedAction) []string {
	return s.Result().BlockingReasons(action)
}

// StartAutoRefresh refreshes the session now and then periodically until the
// session is closed.
func (s *Session) StartAutoRefresh(interval time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		_ = s.Refresh(context.Background())
		for {
			select {
			case <-s.closed:
				return
			case <-ticker.C:
				_ = s.Refresh(context.Background())
			}
		}
	}()
}

// Close stops auto-refresh and cancels any round in flight. No fact fetches
// happen after Close returns.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.mu.Lock()
		if s.inflight != nil {
			s.inflight()
			s.inflight = nil
		}
		s.mu.Unlock()
	})
	s.wg.Wait()
}
