package model

import "time"

// WindowState is the open/closed state of a cycle's availability survey.
type WindowState string

const (
	WindowOpen   WindowState = "open"
	WindowClosed WindowState = "closed"
)

// DutyState tracks a single assigned participant's progress.
type DutyState string

const (
	DutyAwaitingProof DutyState = "awaiting_proof"
	DutyConfirmed     DutyState = "confirmed"
	DutyMissed        DutyState = "missed"
)

// DutyStatus is the per-assignee record inside a cycle.
type DutyStatus struct {
	State       DutyState `json:"state"`
	EvidenceRef string    `json:"evidence_ref,omitempty"`
	ConfirmedAt time.Time `json:"confirmed_at,omitempty"`
}

// DutyCycle is one calendar day of the rotation. Availability entries exist
// only for participants who responded while the window was open; Responders
// preserves first-response order so selection and reports are deterministic.
// Assignment is nil until selection runs, then holds exactly two ids and is
// never rewritten for the lifetime of the cycle.
type DutyCycle struct {
	Date         string                 `json:"date"` // YYYY-MM-DD in the configured zone
	Window       WindowState            `json:"window"`
	Availability map[string]bool        `json:"availability"`
	Responders   []string               `json:"responders,omitempty"`
	Assignment   []string               `json:"assignment,omitempty"`
	Duties       map[string]*DutyStatus `json:"duties"`
}

// NewDutyCycle creates a fresh open cycle with no responses recorded.
func NewDutyCycle(date string) *DutyCycle {
	return &DutyCycle{
		Date:         date,
		Window:       WindowOpen,
		Availability: make(map[string]bool),
		Duties:       make(map[string]*DutyStatus),
	}
}

// AvailablePool returns the ids whose last response was "available",
// in first-response order.
func (c *DutyCycle) AvailablePool() []string {
	pool := make([]string, 0, len(c.Responders))
	for _, id := range c.Responders {
		if c.Availability[id] {
			pool = append(pool, id)
		}
	}
	return pool
}

// HasPendingDuty reports whether any assignee is still awaiting proof,
// i.e. the cycle has not been settled yet.
func (c *DutyCycle) HasPendingDuty() bool {
	for _, s := range c.Duties {
		if s.State == DutyAwaitingProof {
			return true
		}
	}
	return false
}

// IsAssigned reports whether id is one of the cycle's selected pair.
func (c *DutyCycle) IsAssigned(id string) bool {
	for _, a := range c.Assignment {
		if a == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy, safe to hand out across the manager lock.
func (c *DutyCycle) Clone() *DutyCycle {
	if c == nil {
		return nil
	}
	out := &DutyCycle{
		Date:         c.Date,
		Window:       c.Window,
		Availability: make(map[string]bool, len(c.Availability)),
		Responders:   append([]string(nil), c.Responders...),
		Assignment:   append([]string(nil), c.Assignment...),
		Duties:       make(map[string]*DutyStatus, len(c.Duties)),
	}
	for id, v := range c.Availability {
		out.Availability[id] = v
	}
	for id, s := range c.Duties {
		cp := *s
		out.Duties[id] = &cp
	}
	return out
}
