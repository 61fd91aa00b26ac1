package scheduler

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/MiMics0/medical-farm-bot/internal/model"
	"github.com/MiMics0/medical-farm-bot/internal/notifier"
	"github.com/MiMics0/medical-farm-bot/internal/recorder"
	"github.com/MiMics0/medical-farm-bot/internal/roster"
)

const helpText = `Available commands:
• /available — sign up for today's duty
• /unavailable — bow out for today
• /proof <link> — submit duty proof (or /proof then a photo)
• /confirm — confirm completion (if enabled)
• /fine — your accumulated fines
• /top — completion leaderboard
• /status — today's duty status
• /ping — check the bot`

// HandleUpdate routes one inbound chat update. The returned string is the
// reply for the originating chat, "" for silence.
func (s *Scheduler) HandleUpdate(upd notifier.Update) string {
	// A bare attachment satisfies a pending proof wait; anything else
	// without a command is ignored.
	if upd.Text == "" && upd.Attachment != "" {
		if !s.takePending(upd.UserID) {
			return ""
		}
		return s.submitProof(upd.UserID, upd.Attachment)
	}

	cmd, arg := splitCommand(upd.Text)
	switch cmd {
	case "/ping":
		return "✅ Farm duty bot is running"

	case "/available":
		return s.respond(upd.UserID, true)

	case "/unavailable":
		return s.respond(upd.UserID, false)

	case "/proof":
		if arg != "" {
			return s.submitProof(upd.UserID, arg)
		}
		s.addPending(upd.UserID)
		return fmt.Sprintf("📎 Send your proof photo within %d seconds", int(s.proofWait.Seconds()))

	case "/confirm":
		if err := s.Roster.Confirm(upd.UserID); err != nil {
			return rejectionMessage(err)
		}
		s.recordProof(upd.UserID, "")
		return "✅ Duty confirmed"

	case "/fine":
		return notifier.FormatFineBalance(s.Roster.FineBalance(upd.UserID))

	case "/top":
		return notifier.FormatLeaderboard("Completion leaderboard", s.Roster.Leaderboard(s.topN))

	case "/status":
		return s.statusReply()

	default:
		if strings.HasPrefix(cmd, "/") {
			return helpText
		}
		return ""
	}
}

func (s *Scheduler) respond(userID string, available bool) string {
	err := s.Roster.RecordResponse(userID, available, s.eligible[userID])
	if err != nil {
		return rejectionMessage(err)
	}
	if available {
		return "✅ Signed up as available"
	}
	return "❌ Marked as unavailable"
}

func (s *Scheduler) submitProof(userID, evidenceRef string) string {
	if err := s.Roster.SubmitProof(userID, evidenceRef); err != nil {
		return rejectionMessage(err)
	}

	// Fire-and-forget: the confirmation is committed regardless of whether
	// the evidence forward or the history row lands.
	s.tryAlert(notifier.FormatEvidenceForward(userID, evidenceRef))
	s.recordProof(userID, evidenceRef)
	return "✅ Proof recorded, no fine for today"
}

func (s *Scheduler) recordProof(userID, evidenceRef string) {
	cycle := s.Roster.CurrentCycle()
	if cycle == nil {
		return
	}
	if err := s.Recorder.RecordProof(&recorder.ProofEvent{
		CycleDate:     cycle.Date,
		ParticipantID: userID,
		EvidenceRef:   evidenceRef,
	}); err != nil {
		log.Printf("[ERROR] record proof: %v", err)
	}
}

func (s *Scheduler) statusReply() string {
	cycle := s.Roster.CurrentCycle()
	if cycle == nil {
		return "No duty cycle yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📅 Cycle %s | window %s\n", cycle.Date, cycle.Window)
	if cycle.Assignment == nil {
		fmt.Fprintf(&b, "Available so far: %d", len(cycle.AvailablePool()))
		return b.String()
	}
	for _, id := range cycle.Assignment {
		fmt.Fprintf(&b, "%s — %s\n", notifier.Mention(id), dutyLabel(cycle.Duties[id].State))
	}
	return strings.TrimRight(b.String(), "\n")
}

func dutyLabel(state model.DutyState) string {
	switch state {
	case model.DutyAwaitingProof:
		return "awaiting proof"
	case model.DutyConfirmed:
		return "confirmed ✅"
	case model.DutyMissed:
		return "missed 💸"
	default:
		return string(state)
	}
}

// addPending opens a bounded proof wait for one participant. The wait is
// per participant, so one pending upload never blocks anyone else's events.
func (s *Scheduler) addPending(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[userID] = time.Now().Add(s.proofWait)
}

// takePending consumes the participant's pending wait. Expired waits are
// dropped on arrival; there is no timer goroutine to cancel.
func (s *Scheduler) takePending(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.pending[userID]
	if !ok {
		return false
	}
	delete(s.pending, userID)
	return time.Now().Before(expiry)
}

// rejectionMessage maps a roster rejection to the human-readable reply the
// requesting participant sees. Every rejection leaves state untouched, so
// replying is all there is to do.
func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, roster.ErrWindowClosed):
		return "⛔ The sign-up window is closed"
	case errors.Is(err, roster.ErrNotEligible):
		return "⛔ You are not certified for farm duty"
	case errors.Is(err, roster.ErrNotAssigned):
		return "⛔ You are not on duty today"
	case errors.Is(err, roster.ErrWrongCycle):
		return "⛔ The submission window for that duty has passed"
	case errors.Is(err, roster.ErrDuplicateSubmission):
		return "⛔ Your proof is already recorded"
	case errors.Is(err, roster.ErrEvidenceRequired):
		return "⛔ Completion must be confirmed with a proof photo (/proof)"
	default:
		log.Printf("[ERROR] unexpected rejection: %v", err)
		return "⚠️ Something went wrong, try again"
	}
}

func splitCommand(text string) (cmd, arg string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", ""
	}
	cmd = fields[0]
	// Group chats address commands as /cmd@BotName.
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}
	return cmd, strings.Join(fields[1:], " ")
}
