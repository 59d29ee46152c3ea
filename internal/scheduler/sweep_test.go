package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"meetup-board/internal/lifecycle"
	"meetup-board/internal/model"
)

var baseTime = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func newTestScheduler(sweeper Sweeper, store Store, notif Notifier) *Scheduler {
	s := NewScheduler(sweeper, store, notif, Config{Spec: "@every 1h", Timeout: "5s"})
	s.now = func() time.Time { return baseTime }
	s.lastDigest = baseTime
	return s
}

func TestRunOnceSweepsAndSendsDigest(t *testing.T) {
	t.Parallel()

	sweeper := &stubSweeper{res: lifecycle.SweepResult{ExpiringSoon: 1, Expired: 2}}
	store := &stubDigestStore{items: []model.AdminNotification{
		{ID: 1, EventType: model.EventExpired, Message: "expired", CreatedAt: baseTime.Add(time.Minute)},
		{ID: 2, EventType: model.EventExpiringSoon, Message: "soon", CreatedAt: baseTime.Add(2 * time.Minute)},
	}}
	notif := &stubBatchNotifier{}
	s := newTestScheduler(sweeper, store, notif)

	res, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if res.ExpiringSoon != 1 || res.Expired != 2 {
		t.Fatalf("unexpected sweep result: %+v", res)
	}
	if len(notif.batches) != 1 || len(notif.batches[0]) != 2 {
		t.Fatalf("expected one digest with 2 items, got %v", notif.batches)
	}
	if !store.lastSince.Equal(baseTime) {
		t.Fatalf("expected digest to start from %v, got %v", baseTime, store.lastSince)
	}
}

func TestRunOnceAdvancesDigestCursor(t *testing.T) {
	t.Parallel()

	store := &stubDigestStore{items: []model.AdminNotification{
		{ID: 1, EventType: model.EventSubmitted, CreatedAt: baseTime.Add(time.Minute)},
	}}
	notif := &stubBatchNotifier{}
	s := newTestScheduler(&stubSweeper{}, store, notif)

	if _, err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("first RunOnce error: %v", err)
	}
	if _, err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("second RunOnce error: %v", err)
	}
	if len(notif.batches) != 1 {
		t.Fatalf("expected the second run to send nothing, got %d digests", len(notif.batches))
	}
}

func TestRunOnceSkipsWhileRunning(t *testing.T) {
	t.Parallel()

	sweeper := &stubSweeper{block: make(chan struct{}), started: make(chan struct{})}
	s := newTestScheduler(sweeper, &stubDigestStore{}, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.RunOnce(context.Background())
	}()
	<-sweeper.started

	res, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("overlapping RunOnce error: %v", err)
	}
	if res.ExpiringSoon != 0 || res.Expired != 0 {
		t.Fatalf("expected overlapping run to be a no-op, got %+v", res)
	}

	close(sweeper.block)
	<-done
	if sweeper.calls != 1 {
		t.Fatalf("expected single sweep, got %d", sweeper.calls)
	}
}

func TestDigestFailureDoesNotFailSweep(t *testing.T) {
	t.Parallel()

	store := &stubDigestStore{items: []model.AdminNotification{
		{ID: 1, EventType: model.EventSubmitted, CreatedAt: baseTime.Add(time.Minute)},
	}}
	notif := &stubBatchNotifier{err: errors.New("smtp down")}
	s := newTestScheduler(&stubSweeper{}, store, notif)

	if _, err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("expected digest failure to be swallowed, got %v", err)
	}

	// 游标未推进，下一轮会重试同一批通知。
	if _, err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("second RunOnce error: %v", err)
	}
	if len(notif.batches) != 2 {
		t.Fatalf("expected retry on next run, got %d attempts", len(notif.batches))
	}
}

func TestRunOnceWrapsSweepError(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(&stubSweeper{err: errors.New("db gone")}, &stubDigestStore{}, nil)
	if _, err := s.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected sweep error to surface")
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	t.Parallel()

	s := NewScheduler(&stubSweeper{}, &stubDigestStore{}, nil, Config{Spec: "not a cron"})
	if err := s.Start(context.Background()); err == nil {
		t.Fatalf("expected invalid spec to fail fast")
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(&stubSweeper{}, &stubDigestStore{}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("scheduler did not stop after cancel")
	}
}

// --- stubs ---

type stubSweeper struct {
	res     lifecycle.SweepResult
	err     error
	calls   int
	block   chan struct{}
	started chan struct{}
}

func (s *stubSweeper) SyncExpiryAlerts(ctx context.Context) (lifecycle.SweepResult, error) {
	s.calls++
	if s.started != nil && s.calls == 1 {
		close(s.started)
	}
	if s.block != nil {
		<-s.block
	}
	return s.res, s.err
}

type stubDigestStore struct {
	items     []model.AdminNotification
	lastSince time.Time
	err       error
}

func (s *stubDigestStore) ListNotificationsSince(ctx context.Context, scope model.RecipientScope, since time.Time) ([]model.AdminNotification, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastSince = since
	out := make([]model.AdminNotification, 0, len(s.items))
	for _, item := range s.items {
		if item.CreatedAt.After(since) {
			out = append(out, item)
		}
	}
	return out, nil
}

type stubBatchNotifier struct {
	batches [][]model.AdminNotification
	err     error
}

func (n *stubBatchNotifier) Notify(ctx context.Context, items []model.AdminNotification) error {
	n.batches = append(n.batches, items)
	return n.err
}
