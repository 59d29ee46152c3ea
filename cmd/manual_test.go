package main

import (
	"context"
	"errors"
	"testing"

	"meetup-board/internal/lifecycle"
)

func TestRunOnceManual(t *testing.T) {
	t.Parallel()

	stub := &stubSweepScheduler{res: lifecycle.SweepResult{ExpiringSoon: 1, Expired: 2}}
	builds := 0

	res, err := runOnceManual(context.Background(), AppConfig{}, func(AppConfig) (appDeps, func(), error) {
		builds++
		return appDeps{sched: stub}, func() {}, nil
	})
	if err != nil {
		t.Fatalf("runOnceManual error: %v", err)
	}
	if res.ExpiringSoon != 1 || res.Expired != 2 {
		t.Fatalf("unexpected sweep result: %+v", res)
	}
	if builds != 1 {
		t.Fatalf("expected builder called once, got %d", builds)
	}
	if stub.runOnceCalls != 1 {
		t.Fatalf("expected RunOnce called once, got %d", stub.runOnceCalls)
	}
}

func TestRunOnceManualBuilderError(t *testing.T) {
	t.Parallel()

	_, err := runOnceManual(context.Background(), AppConfig{}, func(AppConfig) (appDeps, func(), error) {
		return appDeps{}, func() {}, errors.New("build fail")
	})
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
}

// --- stubs ---

type stubSweepScheduler struct {
	res          lifecycle.SweepResult
	runOnceCalls int
}

func (s *stubSweepScheduler) RunOnce(context.Context) (lifecycle.SweepResult, error) {
	s.runOnceCalls++
	return s.res, nil
}

func (s *stubSweepScheduler) Start(context.Context) error {
	return nil
}
