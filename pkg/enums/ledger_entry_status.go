package enums

import "fmt"

// LedgerEntryStatus maps to the ledger_entry_status enum in Postgres.
type LedgerEntryStatus string

const (
	LedgerEntryStatusPending   LedgerEntryStatus = "pending"
	LedgerEntryStatusAccepted  LedgerEntryStatus = "accepted"
	LedgerEntryStatusRejected  LedgerEntryStatus = "rejected"
	LedgerEntryStatusCancelled LedgerEntryStatus = "cancelled"
)

var validLedgerEntryStatuses = []LedgerEntryStatus{
	LedgerEntryStatusPending,
	LedgerEntryStatusAccepted,
	LedgerEntryStatusRejected,
	LedgerEntryStatusCancelled,
}

var ledgerEntryTransitions = map[LedgerEntryStatus][]LedgerEntryStatus{
	LedgerEntryStatusPending:  {LedgerEntryStatusAccepted, LedgerEntryStatusRejected},
	LedgerEntryStatusAccepted: {LedgerEntryStatusCancelled},
}

// IsValid reports whether the value matches the canonical ledger entry status.
func (s LedgerEntryStatus) IsValid() bool {
	for _, candidate := range validLedgerEntryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the entry may move from s to next.
func (s LedgerEntryStatus) CanTransitionTo(next LedgerEntryStatus) bool {
	for _, candidate := range ledgerEntryTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseLedgerEntryStatus converts raw input into LedgerEntryStatus.
func ParseLedgerEntryStatus(value string) (LedgerEntryStatus, error) {
	for _, candidate := range validLedgerEntryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry status %q", value)
}
