package roster

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/MiMics0/medical-farm-bot/internal/model"
)

// ConfirmMode controls how an assigned participant reaches Confirmed.
type ConfirmMode string

const (
	// ConfirmEvidence requires a proof submission carrying an evidence ref.
	ConfirmEvidence ConfirmMode = "evidence"
	// ConfirmSelf allows a bare confirm action with no evidence.
	ConfirmSelf ConfirmMode = "self"
)

// Options configures a Manager. Zero values get sensible defaults.
type Options struct {
	FineAmount  int64
	ConfirmMode ConfirmMode
	Location    *time.Location
	Rand        *rand.Rand       // fixed-seed source in tests
	Now         func() time.Time // overridable clock for the date guard
}

// Manager owns the roster state and serializes every operation against it.
// Each public method is one atomic read-modify-write: lock, validate,
// mutate, persist. Rejections return before any mutation.
type Manager struct {
	mu       sync.Mutex
	state    *model.RosterState
	filePath string

	fineAmount  int64
	confirmMode ConfirmMode
	loc         *time.Location
	rnd         *rand.Rand
	now         func() time.Time
}

// NewManager creates a Manager, loading or initializing state from disk.
func NewManager(filePath string, opts Options) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}

	if opts.FineAmount == 0 {
		opts.FineAmount = 100000
	}
	if opts.ConfirmMode == "" {
		opts.ConfirmMode = ConfirmEvidence
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Manager{
		state:       state,
		filePath:    filePath,
		fineAmount:  opts.FineAmount,
		confirmMode: opts.ConfirmMode,
		loc:         opts.Location,
		rnd:         opts.Rand,
		now:         opts.Now,
	}, nil
}

// Today returns the current calendar date in the configured zone.
func (m *Manager) Today() string {
	return m.now().In(m.loc).Format("2006-01-02")
}

// Now returns the manager's clock reading. Callers passing a cutoff into
// Settle should use this so an injected test clock stays authoritative.
func (m *Manager) Now() time.Time {
	return m.now()
}

// FineAmount returns the configured per-miss fine.
func (m *Manager) FineAmount() int64 {
	return m.fineAmount
}

// WeightTable returns a copy of the selection weights for the given ids.
func (m *Manager) WeightTable(ids []string) map[string]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]float64, len(ids))
	for _, id := range ids {
		out[id] = m.state.Weight(id)
	}
	return out
}

// CurrentCycle returns a copy of the current duty cycle, or nil.
func (m *Manager) CurrentCycle() *model.DutyCycle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Current.Clone()
}

func (m *Manager) save() {
	if err := SaveState(m.filePath, m.state); err != nil {
		log.Printf("[ERROR] failed to save roster state: %v", err)
	}
}
