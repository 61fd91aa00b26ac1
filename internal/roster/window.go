package roster

import (
	"github.com/MiMics0/medical-farm-bot/internal/model"
)

// OpenWindow starts the availability survey for the given date. If a window
// is already open for the same date this is a no-op returning the existing
// cycle; an open window for a later date is a hard rejection. A prior cycle
// whose assignees are still awaiting proof must be settled before it can be
// superseded; a superseded cycle is never mutated again.
func (m *Manager) OpenWindow(date string) (*model.DutyCycle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.state.Current
	if cur != nil && cur.Window == model.WindowOpen {
		if cur.Date == date {
			return cur.Clone(), nil
		}
		if cur.Date > date {
			return nil, ErrAlreadyOpen
		}
	}
	if cur != nil && cur.HasPendingDuty() {
		return nil, ErrUnsettledCycle
	}

	cycle := model.NewDutyCycle(date)
	m.state.Current = cycle
	m.save()
	return cycle.Clone(), nil
}

// RecordResponse upserts a participant's availability for the open window.
// Last response wins. Claiming availability requires eligibility; declining
// does not (anyone may bow out).
func (m *Manager) RecordResponse(id string, available, eligible bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.state.Current
	if cur == nil || cur.Window != model.WindowOpen {
		return ErrWindowClosed
	}
	if available && !eligible {
		return ErrNotEligible
	}

	if _, responded := cur.Availability[id]; !responded {
		cur.Responders = append(cur.Responders, id)
	}
	cur.Availability[id] = available
	m.state.Touch(id)
	m.save()
	return nil
}

// CloseWindow ends the survey and freezes the pool for selection. Returns
// the available pool in first-response order.
func (m *Manager) CloseWindow() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.state.Current
	if cur == nil || cur.Window != model.WindowOpen {
		return nil, ErrAlreadyClosed
	}
	cur.Window = model.WindowClosed
	m.save()
	return cur.AvailablePool(), nil
}
