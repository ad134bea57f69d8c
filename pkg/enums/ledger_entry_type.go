package enums

import "fmt"

// LedgerEntryType maps to the ledger_entry_type enum in Postgres.
type LedgerEntryType string

const (
	LedgerEntryTypeDeposit  LedgerEntryType = "deposit"
	LedgerEntryTypePurchase LedgerEntryType = "purchase"
	LedgerEntryTypeRefund   LedgerEntryType = "refund"
)

var validLedgerEntryTypes = []LedgerEntryType{
	LedgerEntryTypeDeposit,
	LedgerEntryTypePurchase,
	LedgerEntryTypeRefund,
}

// IsValid reports whether the value matches the canonical ledger entry type.
func (t LedgerEntryType) IsValid() bool {
	for _, candidate := range validLedgerEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsCredit reports whether accepted entries of this type add to the balance.
func (t LedgerEntryType) IsCredit() bool {
	return t == LedgerEntryTypeDeposit || t == LedgerEntryTypeRefund
}

// ParseLedgerEntryType converts raw input into LedgerEntryType.
func ParseLedgerEntryType(value string) (LedgerEntryType, error) {
	for _, candidate := range validLedgerEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry type %q", value)
}
