package roster

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/MiMics0/medical-farm-bot/internal/model"
)

func openClosedPool(t *testing.T, m *Manager, date string, ids ...string) {
	t.Helper()
	if _, err := m.OpenWindow(date); err != nil {
		t.Fatalf("open: %v", err)
	}
	for _, id := range ids {
		if err := m.RecordResponse(id, true, true); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}
	if _, err := m.CloseWindow(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestSelect_InsufficientPool(t *testing.T) {
	m := newTestManager(t, Options{})
	openClosedPool(t, m, "2026-09-01", "alice")

	if _, err := m.Select(); !errors.Is(err, ErrInsufficientPool) {
		t.Fatalf("expected ErrInsufficientPool, got %v", err)
	}
	if m.CurrentCycle().Assignment != nil {
		t.Error("cycle must stay unassigned after a failed selection")
	}
}

func TestSelect_RequiresClosedWindow(t *testing.T) {
	m := newTestManager(t, Options{})
	if _, err := m.OpenWindow("2026-09-01"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := m.Select(); !errors.Is(err, ErrWindowClosed) {
		t.Fatalf("expected ErrWindowClosed while open, got %v", err)
	}
}

func TestSelect_DistinctPair(t *testing.T) {
	m := newTestManager(t, Options{})
	openClosedPool(t, m, "2026-09-01", "alice", "bob")

	pair, err := m.Select()
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(pair) != 2 || pair[0] == pair[1] {
		t.Fatalf("expected two distinct ids, got %v", pair)
	}
}

func TestSelect_RunsAtMostOnce(t *testing.T) {
	m := newTestManager(t, Options{})
	openClosedPool(t, m, "2026-09-01", "alice", "bob", "carol")

	first, err := m.Select()
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := m.Select(); !errors.Is(err, ErrAlreadyAssigned) {
		t.Fatalf("expected ErrAlreadyAssigned, got %v", err)
	}

	cycle := m.CurrentCycle()
	if len(cycle.Assignment) != 2 || cycle.Assignment[0] != first[0] || cycle.Assignment[1] != first[1] {
		t.Errorf("assignment must be immutable, got %v want %v", cycle.Assignment, first)
	}
}

func TestSelect_StampsDutyDayAtSelection(t *testing.T) {
	// The window opens the evening before; the close trigger fires after
	// midnight. The duty day must be the selection day, or the assigned
	// pair could never pass the proof date guard.
	now := fixedClock("2026-09-01")
	m := newTestManager(t, Options{Now: func() time.Time { return now() }})

	if _, err := m.OpenWindow("2026-09-01"); err != nil {
		t.Fatalf("open: %v", err)
	}
	for _, id := range []string{"alice", "bob"} {
		if err := m.RecordResponse(id, true, true); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}

	now = fixedClock("2026-09-02")
	if _, err := m.CloseWindow(); err != nil {
		t.Fatalf("close: %v", err)
	}
	pair, err := m.Select()
	if err != nil {
		t.Fatalf("select: %v", err)
	}

	if got := m.CurrentCycle().Date; got != "2026-09-02" {
		t.Errorf("duty day = %s, want selection day 2026-09-02", got)
	}
	if err := m.SubmitProof(pair[0], "ref"); err != nil {
		t.Errorf("assigned participant rejected on duty day: %v", err)
	}
}

func TestSelect_WeightUpdate(t *testing.T) {
	m := newTestManager(t, Options{})
	openClosedPool(t, m, "2026-09-01", "alice", "bob", "carol", "dave")

	// Pre-existing weights, including one participant outside the pool.
	m.state.Weights["alice"] = 3
	m.state.Weights["carol"] = 2
	m.state.Weights["erin"] = 5

	pair, err := m.Select()
	if err != nil {
		t.Fatalf("select: %v", err)
	}

	selected := map[string]bool{pair[0]: true, pair[1]: true}
	want := map[string]float64{"alice": 4, "bob": 2, "carol": 3, "dave": 2}
	for _, id := range []string{"alice", "bob", "carol", "dave"} {
		got := m.state.Weight(id)
		if selected[id] {
			if got != 1 {
				t.Errorf("%s selected: weight = %v, want 1", id, got)
			}
		} else if got != want[id] {
			t.Errorf("%s unselected: weight = %v, want %v", id, got, want[id])
		}
	}
	if m.state.Weight("erin") != 5 {
		t.Errorf("non-pool participant weight changed: %v", m.state.Weight("erin"))
	}
}

func TestSelect_UniformWhenWeightsEqual(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	counts := make(map[string]int)
	const trials = 3000

	for i := 0; i < trials; i++ {
		m := newTestManager(t, Options{Rand: rnd})
		openClosedPool(t, m, "2026-09-01", "a", "b", "c", "d")
		pair, err := m.Select()
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		key := pair[0] + pair[1]
		if pair[1] < pair[0] {
			key = pair[1] + pair[0]
		}
		counts[key]++
	}

	// 4 choose 2 = 6 unordered pairs, expected 500 each. Allow 20% slack.
	if len(counts) != 6 {
		t.Fatalf("expected all 6 pairs to appear, got %d: %v", len(counts), counts)
	}
	for pair, n := range counts {
		if n < trials/6*80/100 || n > trials/6*120/100 {
			t.Errorf("pair %s drawn %d times, expected near %d", pair, n, trials/6)
		}
	}
}

func TestSelect_WeightProportional(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	counts := make(map[string]int)
	const trials = 1000

	for i := 0; i < trials; i++ {
		m := newTestManager(t, Options{Rand: rnd})
		openClosedPool(t, m, "2026-09-01", "A", "B", "C")
		m.state.Weights["C"] = 3
		pair, err := m.Select()
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		counts[pair[0]]++
		counts[pair[1]]++
	}

	// C carries weight 3 against 1 for A and B; it must be picked
	// noticeably more often than either.
	if counts["C"] <= counts["A"] || counts["C"] <= counts["B"] {
		t.Errorf("expected C to dominate: %v", counts)
	}
	if counts["C"]-counts["A"] < trials/10 {
		t.Errorf("C's margin over A too small to be weight-driven: %v", counts)
	}
}

func TestDrawWeighted_CoversFullPool(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	state := newStateWithWeights(map[string]float64{"x": 1, "y": 1, "z": 1})
	pool := []string{"x", "y", "z"}

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		seen[drawWeighted(pool, state, rnd)] = true
	}
	for _, id := range pool {
		if !seen[id] {
			t.Errorf("participant %s never drawn", id)
		}
	}
}

func newStateWithWeights(w map[string]float64) *model.RosterState {
	s := model.NewRosterState()
	for id, v := range w {
		s.Weights[id] = v
	}
	return s
}
