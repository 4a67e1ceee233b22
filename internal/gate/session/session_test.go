package session_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"gatehouse/internal/gate"
	"gatehouse/internal/gate/ports"
	"gatehouse/internal/gate/session"
)

// fakeVerdicts serves a test verdict through a swappable closure so tests can
// inject delays, errors, and per-call results.
type fakeVerdicts struct {
	fn    func(ctx context.Context) (*gate.TestVerdictRecord, error)
	calls atomic.Int32
}

func (f *fakeVerdicts) Verdict(ctx context.Context, _ string) (*gate.TestVerdictRecord, error) {
	f.calls.Add(1)
	return f.fn(ctx)
}

type fakeCalibrations struct {
	records []gate.CalibrationRecord
	err     error
}

func (f *fakeCalibrations) Calibrations(context.Context, string) ([]gate.CalibrationRecord, error) {
	return f.records, f.err
}

type SessionSuite struct {
	suite.Suite
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) newSession(collectors ports.Collectors) *session.Session {
	return session.New(session.Config{
		WorkOrderID:   "WO-1",
		CurrentUserID: "u1",
		CurrentStep:   gate.StepTesting,
		Collectors:    collectors,
		FetchTimeout:  time.Second,
	})
}

func (s *SessionSuite) TestFailClosedBeforeFirstRefresh() {
	sess := s.newSession(ports.Collectors{})
	defer sess.Close()

	s.Equal(session.StateIdle, sess.State())
	s.Nil(sess.Result())
	s.False(sess.CanPerformAction(gate.ActionStartTest))
	s.Empty(sess.BlockingReasons(gate.ActionStartTest))
}

func (s *SessionSuite) TestRefreshEvaluatesGatheredFacts() {
	verdicts := &fakeVerdicts{fn: func(context.Context) (*gate.TestVerdictRecord, error) {
		return &gate.TestVerdictRecord{Verdict: gate.VerdictFail}, nil
	}}
	sess := s.newSession(ports.Collectors{Verdicts: verdicts})
	defer sess.Close()

	s.Require().NoError(sess.Refresh(context.Background()))

	s.Equal(session.StateReady, sess.State())
	s.False(sess.Degraded())
	s.Require().NotNil(sess.Result())
	s.False(sess.Result().AllPassed)
	s.False(sess.CanPerformAction(gate.ActionPrintLabel))
	s.NotEmpty(sess.BlockingReasons(gate.ActionPrintLabel))
	// Actions nothing blocks stay allowed.
	s.True(sess.CanPerformAction(gate.ActionStartTest))
}

func (s *SessionSuite) TestFailedFamilyBecomesUnknownNotPassed() {
	calibrations := &fakeCalibrations{err: errors.New("registry down")}
	verdicts := &fakeVerdicts{fn: func(context.Context) (*gate.TestVerdictRecord, error) {
		return &gate.TestVerdictRecord{Verdict: gate.VerdictPass}, nil
	}}
	sess := s.newSession(ports.Collectors{Calibration: calibrations, Verdicts: verdicts})
	defer sess.Close()

	s.Require().NoError(sess.Refresh(context.Background()))

	// The round still completes on the families that answered.
	s.Equal(session.StateReady, sess.State())
	s.Require().NotNil(sess.Result())
	s.True(sess.Result().AllPassed)

	// But the failed family is explicitly unknown, not silently passed.
	s.True(sess.Degraded())
	s.Equal([]string{session.FamilyCalibration}, sess.UnknownFamilies())
}

func (s *SessionSuite) TestStaleRefreshNeverOverwritesNewer() {
	release := make(chan struct{})
	var call atomic.Int32
	verdicts := &fakeVerdicts{fn: func(ctx context.Context) (*gate.TestVerdictRecord, error) {
		if call.Add(1) == 1 {
			// First round stalls until the second one has committed,
			// then reports a passing verdict.
			<-release
			return &gate.TestVerdictRecord{Verdict: gate.VerdictPass}, nil
		}
		return &gate.TestVerdictRecord{Verdict: gate.VerdictFail}, nil
	}}
	sess := s.newSession(ports.Collectors{Verdicts: verdicts})
	defer sess.Close()

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_ = sess.Refresh(context.Background())
	}()

	// Wait for the first round to reach the collector before superseding it.
	s.Require().Eventually(func() bool { return call.Load() >= 1 }, time.Second, time.Millisecond)
	s.Require().NoError(sess.Refresh(context.Background()))
	s.Require().NotNil(sess.Result())
	s.False(sess.Result().AllPassed)

	close(release)
	<-firstDone

	// The stale passing round must not have replaced the newer failing one.
	s.Require().NotNil(sess.Result())
	s.False(sess.Result().AllPassed)
	s.Equal(session.StateReady, sess.State())
}

func (s *SessionSuite) TestAutoRefreshStopsOnClose() {
	verdicts := &fakeVerdicts{fn: func(context.Context) (*gate.TestVerdictRecord, error) {
		return &gate.TestVerdictRecord{Verdict: gate.VerdictPass}, nil
	}}
	sess := s.newSession(ports.Collectors{Verdicts: verdicts})

	sess.StartAutoRefresh(5 * time.Millisecond)
	s.Require().Eventually(func() bool { return verdicts.calls.Load() >= 2 }, time.Second, time.Millisecond)

	sess.Close()
	after := verdicts.calls.Load()
	time.Sleep(30 * time.Millisecond)
	s.Equal(after, verdicts.calls.Load(), "no fetches after close")
}

// A round cancelled because a newer refresh superseded it must neither error
// its caller nor flip the session to the error state while the newer round is
// still loading, and it must leave the newer round's cancellation intact so a
// third refresh can supersede in turn.
func (s *SessionSuite) TestSupersededRoundLeavesNewerRoundInCharge() {
	var call atomic.Int32
	verdicts := &fakeVerdicts{fn: func(ctx context.Context) (*gate.TestVerdictRecord, error) {
		switch call.Add(1) {
		case 1, 2:
			<-ctx.Done()
			return nil, ctx.Err()
		default:
			return &gate.TestVerdictRecord{Verdict: gate.VerdictFail}, nil
		}
	}}
	sess := s.newSession(ports.Collectors{Verdicts: verdicts})
	defer sess.Close()

	firstDone := make(chan error, 1)
	go func() { firstDone <- sess.Refresh(context.Background()) }()
	s.Require().Eventually(func() bool { return call.Load() >= 1 }, time.Second, time.Millisecond)

	secondDone := make(chan error, 1)
	go func() { secondDone <- sess.Refresh(context.Background()) }()
	s.Require().Eventually(func() bool { return call.Load() >= 2 }, time.Second, time.Millisecond)

	// The superseded first round reports nothing: the session is still
	// loading on the second round's behalf.
	s.Require().NoError(<-firstDone)
	s.Equal(session.StateLoading, sess.State())
	s.NoError(sess.Err())

	// The third refresh supersedes the second, which is still blocked.
	s.Require().NoError(sess.Refresh(context.Background()))
	s.Require().NoError(<-secondDone)

	s.Equal(session.StateReady, sess.State())
	s.Require().NotNil(sess.Result())
	s.False(sess.Result().AllPassed)
	s.NoError(sess.Err())
}

func (s *SessionSuite) TestRefreshAfterCloseFails() {
	sess := s.newSession(ports.Collectors{})
	sess.Close()

	s.Error(sess.Refresh(context.Background()))
}

func (s *SessionSuite) TestResultReplacedWholesale() {
	verdict := gate.VerdictFail
	verdicts := &fakeVerdicts{fn: func(context.Context) (*gate.TestVerdictRecord, error) {
		return &gate.TestVerdictRecord{Verdict: verdict}, nil
	}}
	sess := s.newSession(ports.Collectors{Verdicts: verdicts})
	defer sess.Close()

	s.Require().NoError(sess.Refresh(context.Background()))
	first := sess.Result()
	s.False(first.AllPassed)

	verdict = gate.VerdictPass
	s.Require().NoError(sess.Refresh(context.Background()))
	second := sess.Result()

	s.True(second.AllPassed)
	// The earlier result is untouched; callers holding it see a stable view.
	s.False(first.AllPassed)
}
