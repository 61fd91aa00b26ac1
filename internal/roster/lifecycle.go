package roster

import (
	"time"

	"github.com/MiMics0/medical-farm-bot/internal/model"
)

// FineEvent reports one fine accrued during settlement.
type FineEvent struct {
	ParticipantID string
	Amount        int64
	Balance       int64
}

// SubmitProof records evidence for an assigned participant and moves them
// to Confirmed. Rejected if the participant is not assigned, the cycle's
// date has rolled past (late arrival after midnight), the deadline already
// settled them as missed, or proof was already accepted.
func (m *Manager) SubmitProof(id, evidenceRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.confirm(id, evidenceRef)
}

// Confirm moves an assigned participant to Confirmed without evidence.
// Only permitted when the manager runs in self-declared confirm mode.
func (m *Manager) Confirm(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.confirmMode != ConfirmSelf {
		return ErrEvidenceRequired
	}
	return m.confirm(id, "")
}

// confirm applies the shared guard set and the AwaitingProof → Confirmed
// transition. Caller holds the lock.
func (m *Manager) confirm(id, evidenceRef string) error {
	cur := m.state.Current
	if cur == nil || cur.Assignment == nil {
		return ErrNotAssigned
	}
	if !cur.IsAssigned(id) {
		return ErrNotAssigned
	}
	if cur.Date != m.Today() {
		return ErrWrongCycle
	}

	status := cur.Duties[id]
	switch status.State {
	case model.DutyConfirmed:
		return ErrDuplicateSubmission
	case model.DutyMissed:
		// Deadline already passed and the miss was settled.
		return ErrWrongCycle
	}

	status.State = model.DutyConfirmed
	status.EvidenceRef = evidenceRef
	status.ConfirmedAt = m.now().In(m.loc)
	m.state.Completions[id]++
	m.state.Touch(id)
	m.save()
	return nil
}

// Settle moves every assigned participant still awaiting proof at the
// cutoff to Missed and accrues their fine. Safe to re-invoke: already
// settled or confirmed participants are skipped, so a second firing
// produces no transitions and no duplicate fines. Partial settlement
// (one confirmed, one missed) is a valid terminal state. The trigger may
// fire late; an unsettled cycle is settled whenever the trigger arrives.
func (m *Manager) Settle(cutoff time.Time) ([]FineEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.state.Current
	if cur == nil || cur.Assignment == nil {
		return nil, nil
	}
	// Not due yet: the trigger may only settle cycles whose duty day is on
	// or before the cutoff.
	if cur.Date > cutoff.In(m.loc).Format("2006-01-02") {
		return nil, nil
	}

	var events []FineEvent
	for _, id := range cur.Assignment {
		status := cur.Duties[id]
		if status.State != model.DutyAwaitingProof {
			continue
		}
		status.State = model.DutyMissed
		m.state.Fines[id] += m.fineAmount
		m.state.Touch(id)
		events = append(events, FineEvent{
			ParticipantID: id,
			Amount:        m.fineAmount,
			Balance:       m.state.Fines[id],
		})
	}

	if len(events) > 0 {
		m.save()
	}
	return events, nil
}
