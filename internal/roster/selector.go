package roster

import (
	"math/rand"

	"github.com/MiMics0/medical-farm-bot/internal/model"
)

// Select picks the duty pair for the closed cycle by two sequential
// weight-proportional draws without replacement, then applies the fairness
// update in the same transaction: both picks reset to weight 1, every other
// pool member gains 1. Participants outside the pool are untouched.
// Selection runs at most once per cycle; the assignment is immutable after.
func (m *Manager) Select() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.state.Current
	if cur == nil {
		return nil, ErrNoCycle
	}
	if cur.Window != model.WindowClosed {
		return nil, ErrWindowClosed
	}
	if cur.Assignment != nil {
		return nil, ErrAlreadyAssigned
	}

	pool := cur.AvailablePool()
	if len(pool) < 2 {
		return nil, ErrInsufficientPool
	}

	// The duty day is the selection day. The window may have opened before
	// midnight, so the open-time date can lag; stamping here keeps the
	// proof-submission date guard aligned with the day the pair works.
	cur.Date = m.Today()

	first := drawWeighted(pool, m.state, m.rnd)
	rest := make([]string, 0, len(pool)-1)
	for _, id := range pool {
		if id != first {
			rest = append(rest, id)
		}
	}
	second := drawWeighted(rest, m.state, m.rnd)

	cur.Assignment = []string{first, second}
	cur.Duties[first] = &model.DutyStatus{State: model.DutyAwaitingProof}
	cur.Duties[second] = &model.DutyStatus{State: model.DutyAwaitingProof}

	for _, id := range pool {
		if id == first || id == second {
			m.state.Weights[id] = 1
		} else {
			m.state.Weights[id] = m.state.Weight(id) + 1
		}
		m.state.Touch(id)
	}

	m.save()
	return append([]string(nil), cur.Assignment...), nil
}

// drawWeighted is a cumulative-sum weighted draw over pool. Weights default
// to 1 for ids absent from the table, so a fresh roster degenerates to a
// uniform draw.
func drawWeighted(pool []string, state *model.RosterState, rnd *rand.Rand) string {
	total := 0.0
	for _, id := range pool {
		total += state.Weight(id)
	}
	x := rnd.Float64() * total
	cum := 0.0
	for _, id := range pool {
		cum += state.Weight(id)
		if x < cum {
			return id
		}
	}
	// Float round-off can leave x a hair past the last cumulative sum.
	return pool[len(pool)-1]
}
