package roster

import (
	"errors"
	"math/rand"
	"path/filepath"
	"testing"
	"time"
)

func newTestManager(t *testing.T, opts Options) *Manager {
	t.Helper()
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(1))
	}
	m, err := NewManager(filepath.Join(t.TempDir(), "state.json"), opts)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func fixedClock(date string) func() time.Time {
	ts, _ := time.Parse("2006-01-02", date)
	return func() time.Time { return ts }
}

func TestOpenWindow_FreshCycle(t *testing.T) {
	m := newTestManager(t, Options{})

	cycle, err := m.OpenWindow("2026-09-01")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if cycle.Date != "2026-09-01" {
		t.Errorf("expected date 2026-09-01, got %s", cycle.Date)
	}
	if len(cycle.Availability) != 0 {
		t.Errorf("expected empty availability, got %d entries", len(cycle.Availability))
	}
	if cycle.Assignment != nil {
		t.Error("expected no assignment on a fresh cycle")
	}
}

func TestOpenWindow_SameDateIdempotent(t *testing.T) {
	m := newTestManager(t, Options{})

	if _, err := m.OpenWindow("2026-09-01"); err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := m.RecordResponse("alice", true, true); err != nil {
		t.Fatalf("record: %v", err)
	}

	cycle, err := m.OpenWindow("2026-09-01")
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	// No-op: the existing cycle survives, responses intact.
	if !cycle.Availability["alice"] {
		t.Error("re-open for same date must keep the existing cycle")
	}
}

func TestOpenWindow_LaterDateOpenRejected(t *testing.T) {
	m := newTestManager(t, Options{})

	if _, err := m.OpenWindow("2026-09-02"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := m.OpenWindow("2026-09-01"); !errors.Is(err, ErrAlreadyOpen) {
		t.Fatalf("expected ErrAlreadyOpen, got %v", err)
	}
}

func TestOpenWindow_SupersedesPriorCycle(t *testing.T) {
	m := newTestManager(t, Options{})

	if _, err := m.OpenWindow("2026-09-01"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := m.RecordResponse("alice", true, true); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := m.CloseWindow(); err != nil {
		t.Fatalf("close: %v", err)
	}

	cycle, err := m.OpenWindow("2026-09-02")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if len(cycle.Availability) != 0 {
		t.Error("availability must never carry over into a new cycle")
	}
}

func TestOpenWindow_RefusesUnsettledAssignment(t *testing.T) {
	m := newTestManager(t, Options{Now: fixedClock("2026-09-01"), FineAmount: 100000})
	if _, err := m.OpenWindow("2026-09-01"); err != nil {
		t.Fatalf("open: %v", err)
	}
	for _, id := range []string{"alice", "bob"} {
		if err := m.RecordResponse(id, true, true); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}
	if _, err := m.CloseWindow(); err != nil {
		t.Fatalf("close: %v", err)
	}
	pair, err := m.Select()
	if err != nil {
		t.Fatalf("select: %v", err)
	}

	// A reopen must not wipe a live assignment before settlement.
	if _, err := m.OpenWindow("2026-09-02"); !errors.Is(err, ErrUnsettledCycle) {
		t.Fatalf("expected ErrUnsettledCycle, got %v", err)
	}
	if got := m.CurrentCycle().Assignment; len(got) != 2 {
		t.Fatalf("assignment discarded by refused reopen: %v", got)
	}

	events, err := m.Settle(m.Now())
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 fines at settlement, got %d", len(events))
	}

	// Once settled, the cycle may be superseded; fines survive.
	cycle, err := m.OpenWindow("2026-09-02")
	if err != nil {
		t.Fatalf("reopen after settlement: %v", err)
	}
	if len(cycle.Availability) != 0 || cycle.Assignment != nil {
		t.Error("superseding cycle must start fresh")
	}
	for _, id := range pair {
		if got := m.FineBalance(id); got != 100000 {
			t.Errorf("%s fine balance = %d after supersede, want 100000", id, got)
		}
	}
}

func TestRecordResponse_LastWins(t *testing.T) {
	m := newTestManager(t, Options{})
	if _, err := m.OpenWindow("2026-09-01"); err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := m.RecordResponse("alice", true, true); err != nil {
		t.Fatalf("first response: %v", err)
	}
	if err := m.RecordResponse("alice", false, true); err != nil {
		t.Fatalf("second response: %v", err)
	}

	cycle := m.CurrentCycle()
	if cycle.Availability["alice"] {
		t.Error("last response must win")
	}
	if len(cycle.Responders) != 1 {
		t.Errorf("expected 1 responder, got %d", len(cycle.Responders))
	}
}

func TestRecordResponse_EligibilityGate(t *testing.T) {
	m := newTestManager(t, Options{})
	if _, err := m.OpenWindow("2026-09-01"); err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := m.RecordResponse("mallory", true, false); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible for available claim, got %v", err)
	}
	// Declining never requires eligibility.
	if err := m.RecordResponse("mallory", false, false); err != nil {
		t.Fatalf("unavailable response should not be gated: %v", err)
	}

	cycle := m.CurrentCycle()
	if v, ok := cycle.Availability["mallory"]; !ok || v {
		t.Error("expected recorded unavailable response only")
	}
}

func TestRecordResponse_WindowClosed(t *testing.T) {
	m := newTestManager(t, Options{})
	if _, err := m.OpenWindow("2026-09-01"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := m.CloseWindow(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := m.RecordResponse("alice", true, true); !errors.Is(err, ErrWindowClosed) {
		t.Fatalf("expected ErrWindowClosed, got %v", err)
	}
}

func TestCloseWindow_Twice(t *testing.T) {
	m := newTestManager(t, Options{})
	if _, err := m.OpenWindow("2026-09-01"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := m.CloseWindow(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := m.CloseWindow(); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("expected ErrAlreadyClosed, got %v", err)
	}
}

func TestCloseWindow_PoolOrder(t *testing.T) {
	m := newTestManager(t, Options{})
	if _, err := m.OpenWindow("2026-09-01"); err != nil {
		t.Fatalf("open: %v", err)
	}
	for _, resp := range []struct {
		id        string
		available bool
	}{
		{"carol", true},
		{"alice", false},
		{"bob", true},
	} {
		if err := m.RecordResponse(resp.id, resp.available, true); err != nil {
			t.Fatalf("record %s: %v", resp.id, err)
		}
	}

	pool, err := m.CloseWindow()
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(pool) != 2 || pool[0] != "carol" || pool[1] != "bob" {
		t.Errorf("expected pool [carol bob] in first-response order, got %v", pool)
	}
}
