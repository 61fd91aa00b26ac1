package roster

import "sort"

// LeaderboardEntry is one row of the completion ranking.
type LeaderboardEntry struct {
	ParticipantID string
	Completions   int
}

// AccrueFine adds amount to a participant's fine balance and returns the
// new balance. Balances only ever grow; there is no payment flow here.
func (m *Manager) AccrueFine(id string, amount int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Fines[id] += amount
	m.state.Touch(id)
	m.save()
	return m.state.Fines[id]
}

// RecordCompletion increments a participant's completion counter.
func (m *Manager) RecordCompletion(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Completions[id]++
	m.state.Touch(id)
	m.save()
}

// FineBalance returns a participant's accumulated fines.
func (m *Manager) FineBalance(id string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Fines[id]
}

// Leaderboard returns up to topN participants ordered by completion count
// descending, ties broken by first-seen order. Participants with zero
// completions rank last but are included while capacity allows.
func (m *Manager) Leaderboard(topN int) []LeaderboardEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.leaderboard(topN)
}

// Rollover snapshots the leaderboard, then resets every completion counter
// to zero. Fine balances are untouched; this is the only place completion
// counters are cleared.
func (m *Manager) Rollover(topN int) []LeaderboardEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.leaderboard(topN)
	for id := range m.state.Completions {
		m.state.Completions[id] = 0
	}
	m.save()
	return snapshot
}

func (m *Manager) leaderboard(topN int) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(m.state.Seen))
	for _, id := range m.state.Seen {
		entries = append(entries, LeaderboardEntry{
			ParticipantID: id,
			Completions:   m.state.Completions[id],
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Completions > entries[j].Completions
	})
	if topN > 0 && len(entries) > topN {
		entries = entries[:topN]
	}
	return entries
}
