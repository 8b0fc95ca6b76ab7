package enrollment

import "strings"

// Status is the canonical enrollment lifecycle state, independent of whatever
// vocabulary an upstream source used.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusActive    Status = "Active"
	StatusCompleted Status = "Completed"
	StatusDefaulted Status = "Defaulted"
	StatusFailed    Status = "Failed"
)

// Closed token sets mapping upstream status vocabulary onto canonical states.
// New upstream vocabulary only requires an update here.
var (
	failedTokens = map[string]struct{}{
		"failed":    {},
		"rejected":  {},
		"declined":  {},
		"cancelled": {},
		"canceled":  {},
	}
	defaultedTokens = map[string]struct{}{
		"defaulted":  {},
		"overdue":    {},
		"late":       {},
		"in arrears": {},
	}
	completedTokens = map[string]struct{}{
		"completed": {},
		"complete":  {},
		"paid":      {},
		"paid off":  {},
		"settled":   {},
	}
	activeTokens = map[string]struct{}{
		"active":         {},
		"on track":       {},
		"due soon":       {},
		"partial":        {},
		"partially paid": {},
		"in progress":    {},
	}
)

// Normalize maps a free-form upstream status token plus the ledger facts onto
// exactly one canonical Status. Explicit terminal signals outrank inferred
// state; the numeric facts override an ambiguous or missing token. Total:
// ambiguous input degrades to Pending rather than erroring.
func Normalize(raw string, remainingBalance, paidAmount float64) Status {
	token := strings.ToLower(strings.TrimSpace(raw))
	token = strings.ReplaceAll(strings.ReplaceAll(token, "_", " "), "-", " ")

	if _, ok := failedTokens[token]; ok {
		return StatusFailed
	}
	if _, ok := defaultedTokens[token]; ok {
		return StatusDefaulted
	}
	if _, ok := completedTokens[token]; ok {
		return StatusCompleted
	}
	if remainingBalance <= 0 {
		return StatusCompleted
	}
	if _, ok := activeTokens[token]; ok {
		return StatusActive
	}
	if paidAmount > 0 {
		return StatusActive
	}
	return StatusPending
}
