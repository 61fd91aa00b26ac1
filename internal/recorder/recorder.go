package recorder

// SelectionEvent records the outcome of one cycle's selection run.
type SelectionEvent struct {
	CycleDate string
	Pair      []string // empty when the pool was insufficient
	PoolSize  int
	Weights   map[string]float64 // post-update weights of the pool
}

// ProofEvent records an accepted proof or self-confirmation.
type ProofEvent struct {
	CycleDate     string
	ParticipantID string
	EvidenceRef   string
}

// SettlementEvent records one fine accrued at the deadline.
type SettlementEvent struct {
	CycleDate     string
	ParticipantID string
	FineAmount    int64
	BalanceAfter  int64
}

// RolloverEvent records a periodic leaderboard rollover.
type RolloverEvent struct {
	Report string
}

// Recorder persists duty history for later inspection.
type Recorder interface {
	RecordCycleOpened(date string) error
	RecordSelection(evt *SelectionEvent) error
	RecordProof(evt *ProofEvent) error
	RecordSettlement(evt *SettlementEvent) error
	RecordRollover(evt *RolloverEvent) error
	Close() error
}
