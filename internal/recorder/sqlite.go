package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists duty history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so ad-hoc reads don't block the bot's writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cycles (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			cycle_date TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_date ON cycles(cycle_date)`,

		`CREATE TABLE IF NOT EXISTS selections (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			cycle_date TEXT NOT NULL,
			pair       TEXT,
			pool_size  INTEGER,
			weights    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_selections_date ON selections(cycle_date)`,

		`CREATE TABLE IF NOT EXISTS proofs (
			id           TEXT PRIMARY KEY,
			timestamp    INTEGER NOT NULL,
			cycle_date   TEXT NOT NULL,
			participant  TEXT NOT NULL,
			evidence_ref TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_proofs_participant ON proofs(participant)`,

		`CREATE TABLE IF NOT EXISTS settlements (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			cycle_date    TEXT NOT NULL,
			participant   TEXT NOT NULL,
			fine_amount   INTEGER,
			balance_after INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_settlements_participant ON settlements(participant)`,

		`CREATE TABLE IF NOT EXISTS rollovers (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			report    TEXT
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCycleOpened(date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO cycles (timestamp, cycle_date) VALUES (?,?)`,
		time.Now().Unix(), date)
	return err
}

func (r *SQLiteRecorder) RecordSelection(evt *SelectionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var weights strings.Builder
	for id, w := range evt.Weights {
		if weights.Len() > 0 {
			weights.WriteString(" ")
		}
		fmt.Fprintf(&weights, "%s=%.0f", id, w)
	}

	_, err := r.db.Exec(`INSERT INTO selections
		(timestamp, cycle_date, pair, pool_size, weights)
		VALUES (?,?,?,?,?)`,
		time.Now().Unix(), evt.CycleDate, strings.Join(evt.Pair, ","),
		evt.PoolSize, weights.String(),
	)
	return err
}

func (r *SQLiteRecorder) RecordProof(evt *ProofEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO proofs
		(id, timestamp, cycle_date, participant, evidence_ref)
		VALUES (?,?,?,?,?)`,
		uuid.NewString(), time.Now().Unix(), evt.CycleDate,
		evt.ParticipantID, evt.EvidenceRef,
	)
	return err
}

func (r *SQLiteRecorder) RecordSettlement(evt *SettlementEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO settlements
		(timestamp, cycle_date, participant, fine_amount, balance_after)
		VALUES (?,?,?,?,?)`,
		time.Now().Unix(), evt.CycleDate, evt.ParticipantID,
		evt.FineAmount, evt.BalanceAfter,
	)
	return err
}

func (r *SQLiteRecorder) RecordRollover(evt *RolloverEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO rollovers (timestamp, report) VALUES (?,?)`,
		time.Now().Unix(), evt.Report)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
