package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/MiMics0/medical-farm-bot/internal/notifier"
	"github.com/MiMics0/medical-farm-bot/internal/recorder"
	"github.com/MiMics0/medical-farm-bot/internal/roster"

	"github.com/robfig/cron/v3"
)

// Messenger is the outbound side of the chat collaborator. All delivery is
// best-effort from the rotation's perspective: a failed send never rolls
// back a committed transition.
type Messenger interface {
	Announce(ctx context.Context, text string) error
	Alert(ctx context.Context, text string) error
	Direct(ctx context.Context, userID, text string) error
}

// Options carries the scheduler's non-cron configuration.
type Options struct {
	Location        *time.Location
	EligibleIDs     []string
	ProofWait       time.Duration
	LeaderboardSize int
}

// Scheduler wires the cron triggers to the roster manager and routes
// inbound chat updates to it.
type Scheduler struct {
	Cron     *cron.Cron
	Roster   *roster.Manager
	Notifier Messenger
	Recorder recorder.Recorder
	Ctx      context.Context

	eligible  map[string]bool
	proofWait time.Duration
	topN      int

	mu      sync.Mutex
	pending map[string]time.Time // participant id -> proof wait expiry
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, rm *roster.Manager, m Messenger, rec recorder.Recorder, opts Options) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.ProofWait <= 0 {
		opts.ProofWait = time.Minute
	}
	if opts.LeaderboardSize <= 0 {
		opts.LeaderboardSize = 10
	}
	eligible := make(map[string]bool, len(opts.EligibleIDs))
	for _, id := range opts.EligibleIDs {
		eligible[id] = true
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithLocation(opts.Location)),
		Roster:    rm,
		Notifier:  m,
		Recorder:  rec,
		Ctx:       ctx,
		eligible:  eligible,
		proofWait: opts.ProofWait,
		topN:      opts.LeaderboardSize,
		pending:   make(map[string]time.Time),
	}
}

// RegisterAll registers the four triggers: window close + selection,
// deadline settlement, window reopen, and the weekly rollover.
func (s *Scheduler) RegisterAll(closeCron, settleCron, reopenCron, rolloverCron string) error {
	if _, err := s.Cron.AddFunc(closeCron, s.closeAndSelect); err != nil {
		return fmt.Errorf("register close task: %w", err)
	}
	if _, err := s.Cron.AddFunc(settleCron, s.settleTask); err != nil {
		return fmt.Errorf("register settle task: %w", err)
	}
	if _, err := s.Cron.AddFunc(reopenCron, s.reopenTask); err != nil {
		return fmt.Errorf("register reopen task: %w", err)
	}
	if _, err := s.Cron.AddFunc(rolloverCron, s.rolloverTask); err != nil {
		return fmt.Errorf("register rollover task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunReopenNow opens today's window immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunReopenNow() {
	s.reopenTask()
}

// closeAndSelect freezes the survey and runs selection. Both halves are
// idempotent, so a re-fired trigger cannot select a second pair.
func (s *Scheduler) closeAndSelect() {
	log.Println("[INFO] running close-and-select")

	if _, err := s.Roster.CloseWindow(); err != nil {
		if errors.Is(err, roster.ErrAlreadyClosed) {
			log.Println("[WARN] close trigger fired but window already closed")
		} else {
			log.Printf("[ERROR] close window: %v", err)
			return
		}
	}

	cycle := s.Roster.CurrentCycle()
	if cycle == nil {
		log.Println("[WARN] close trigger fired with no current cycle")
		return
	}

	pair, err := s.Roster.Select()
	switch {
	case errors.Is(err, roster.ErrInsufficientPool):
		log.Printf("[WARN] insufficient pool for %s", cycle.Date)
		s.tryAlert(notifier.FormatInsufficientPool(cycle.Date))
		if err := s.Recorder.RecordSelection(&recorder.SelectionEvent{
			CycleDate: cycle.Date,
			PoolSize:  len(cycle.AvailablePool()),
		}); err != nil {
			log.Printf("[ERROR] record selection: %v", err)
		}
		return
	case errors.Is(err, roster.ErrAlreadyAssigned):
		log.Println("[WARN] selection already ran for this cycle")
		return
	case err != nil:
		log.Printf("[ERROR] select: %v", err)
		return
	}

	pool := cycle.AvailablePool()
	s.tryAnnounce(notifier.FormatSelection(cycle.Date, pair, s.Roster.FineAmount()))
	if err := s.Recorder.RecordSelection(&recorder.SelectionEvent{
		CycleDate: cycle.Date,
		Pair:      pair,
		PoolSize:  len(pool),
		Weights:   s.Roster.WeightTable(pool),
	}); err != nil {
		log.Printf("[ERROR] record selection: %v", err)
	}
}

// settleTask fines every assignee still awaiting proof at the deadline.
func (s *Scheduler) settleTask() {
	log.Println("[INFO] running settlement")

	cycle := s.Roster.CurrentCycle()
	events, err := s.Roster.Settle(s.Roster.Now())
	if err != nil {
		log.Printf("[ERROR] settle: %v", err)
		return
	}

	for _, evt := range events {
		s.tryAlert(notifier.FormatFineAlert(evt))
		if err := s.Notifier.Direct(s.Ctx, evt.ParticipantID, notifier.FormatFineDM(evt)); err != nil {
			log.Printf("[WARN] fine DM to %s failed: %v", evt.ParticipantID, err)
		}
		if cycle != nil {
			if err := s.Recorder.RecordSettlement(&recorder.SettlementEvent{
				CycleDate:     cycle.Date,
				ParticipantID: evt.ParticipantID,
				FineAmount:    evt.Amount,
				BalanceAfter:  evt.Balance,
			}); err != nil {
				log.Printf("[ERROR] record settlement: %v", err)
			}
		}
	}
}

// reopenTask starts the next cycle's availability survey.
func (s *Scheduler) reopenTask() {
	log.Println("[INFO] running window reopen")

	date := s.Roster.Today()
	cycle, err := s.Roster.OpenWindow(date)
	if err != nil {
		// An unsettled assignment must never be wiped by a reopen (manual
		// or RUN_ON_START); settlement runs first in the trigger order.
		if errors.Is(err, roster.ErrUnsettledCycle) {
			log.Printf("[WARN] reopen skipped: %v", err)
		} else {
			log.Printf("[ERROR] open window for %s: %v", date, err)
		}
		return
	}

	s.tryAnnounce(notifier.FormatWindowOpened(cycle.Date))
	if err := s.Recorder.RecordCycleOpened(cycle.Date); err != nil {
		log.Printf("[ERROR] record cycle opened: %v", err)
	}
}

// rolloverTask publishes the weekly report and resets completion counters.
func (s *Scheduler) rolloverTask() {
	log.Println("[INFO] running weekly rollover")

	entries := s.Roster.Rollover(s.topN)
	report := notifier.FormatLeaderboard("Weekly farm duty report", entries)
	s.tryAnnounce(report)
	if err := s.Recorder.RecordRollover(&recorder.RolloverEvent{Report: report}); err != nil {
		log.Printf("[ERROR] record rollover: %v", err)
	}
}

func (s *Scheduler) tryAnnounce(text string) {
	if err := s.Notifier.Announce(s.Ctx, text); err != nil {
		log.Printf("[ERROR] send announcement: %v", err)
	}
}

func (s *Scheduler) tryAlert(text string) {
	if err := s.Notifier.Alert(s.Ctx, text); err != nil {
		log.Printf("[ERROR] send alert: %v", err)
	}
}
