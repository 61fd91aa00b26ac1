package notifier

import (
	"fmt"
	"strings"

	"github.com/MiMics0/medical-farm-bot/internal/roster"
)

// Mention renders a Telegram HTML mention for a participant id.
func Mention(id string) string {
	return fmt.Sprintf(`<a href="tg://user?id=%s">%s</a>`, id, id)
}

// FormatWindowOpened announces a fresh availability survey.
func FormatWindowOpened(date string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 <b>Farm duty sign-up</b> | %s\n\n", date))
	b.WriteString("Reply <code>/available</code> if you can take today's duty,\n")
	b.WriteString("or <code>/unavailable</code> if you cannot.\n\n")
	b.WriteString("Only certified members may sign up as available.")
	return b.String()
}

// FormatSelection announces the selected duty pair.
func FormatSelection(date string, pair []string, fineAmount int64) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 <b>Today's farm duty</b> | %s\n\n", date))
	for _, id := range pair {
		b.WriteString(Mention(id) + "\n")
	}
	b.WriteString(fmt.Sprintf("\n💸 No proof before the deadline costs %s IC.\n", formatIC(fineAmount)))
	b.WriteString("Submit with <code>/proof</code> followed by a photo, or <code>/proof &lt;link&gt;</code>.")
	return b.String()
}

// FormatInsufficientPool alerts the admin chat that selection was skipped.
func FormatInsufficientPool(date string) string {
	return fmt.Sprintf("⚠️ <b>No duty pair for %s</b>\n\nFewer than two members signed up as available. The cycle stays unassigned.", date)
}

// FormatFineAlert reports an accrued fine to the admin chat.
func FormatFineAlert(evt roster.FineEvent) string {
	return fmt.Sprintf("💸 %s missed farm duty\nFine: %s IC\nTotal owed: %s IC",
		Mention(evt.ParticipantID), formatIC(evt.Amount), formatIC(evt.Balance))
}

// FormatFineDM is the direct message sent to a fined participant.
func FormatFineDM(evt roster.FineEvent) string {
	var b strings.Builder
	b.WriteString("🚨 <b>Farm duty fine</b>\n\n")
	b.WriteString("You did not submit proof for today's duty.\n")
	b.WriteString(fmt.Sprintf("Fine: %s IC\n", formatIC(evt.Amount)))
	b.WriteString(fmt.Sprintf("Total owed: %s IC\n", formatIC(evt.Balance)))
	return b.String()
}

// FormatFineBalance answers a participant's /fine query.
func FormatFineBalance(balance int64) string {
	return fmt.Sprintf("💸 Your accumulated fines: %s IC", formatIC(balance))
}

// FormatLeaderboard renders the rollover / /top report.
func FormatLeaderboard(title string, entries []roster.LeaderboardEntry) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🏆 <b>%s</b>\n\n", title))
	if len(entries) == 0 {
		b.WriteString("No completions recorded yet.")
		return b.String()
	}
	for i, e := range entries {
		b.WriteString(fmt.Sprintf("%d. %s — %d\n", i+1, Mention(e.ParticipantID), e.Completions))
	}
	return b.String()
}

// FormatEvidenceForward relays a submitted evidence ref to the admin chat.
func FormatEvidenceForward(id, evidenceRef string) string {
	return fmt.Sprintf("📎 Proof from %s:\n%s", Mention(id), evidenceRef)
}

// formatIC renders an IC amount with thousands separators.
func formatIC(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
