package model

import "time"

// RosterState is the single durable record for the rotation: the current
// duty cycle plus the per-participant weight, fine, and completion tables.
// Weights persist across cycles; completion counts survive until rollover;
// fine balances survive indefinitely.
type RosterState struct {
	Current     *DutyCycle         `json:"current,omitempty"`
	Weights     map[string]float64 `json:"weights"`
	Fines       map[string]int64   `json:"fines"`
	Completions map[string]int     `json:"completions"`
	// Seen records participant ids in first-seen order; leaderboard ties
	// are broken by this ordering.
	Seen      []string  `json:"seen,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRosterState returns an empty state with all tables initialized.
func NewRosterState() *RosterState {
	return &RosterState{
		Weights:     make(map[string]float64),
		Fines:       make(map[string]int64),
		Completions: make(map[string]int),
	}
}

// Touch records id in the first-seen order if it is new.
func (s *RosterState) Touch(id string) {
	for _, seen := range s.Seen {
		if seen == id {
			return
		}
	}
	s.Seen = append(s.Seen, id)
}

// Weight returns the participant's selection weight, defaulting to 1.
func (s *RosterState) Weight(id string) float64 {
	if w, ok := s.Weights[id]; ok {
		return w
	}
	return 1
}
