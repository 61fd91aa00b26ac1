package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordCycleOpened(_ string) error        { return nil }
func (n *NoopRecorder) RecordSelection(_ *SelectionEvent) error { return nil }
func (n *NoopRecorder) RecordProof(_ *ProofEvent) error         { return nil }
func (n *NoopRecorder) RecordSettlement(_ *SettlementEvent) error {
	return nil
}
func (n *NoopRecorder) RecordRollover(_ *RolloverEvent) error { return nil }
func (n *NoopRecorder) Close() error                          { return nil }
