package persistence

import "time"

// Employee is a badge holder as stored, including authentication state.
type Employee struct {
	ID             int64
	Badge          string
	Name           string
	Role           string
	Supervisor     string
	Shift          string
	Phone          string
	BirthDate      string
	AccessCodeHash string
	AuthState
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuthState is the part of an employee row mutated by code checks and unlocks.
// Locked is true exactly when UnlockToken is non-nil.
type AuthState struct {
	FailedAttempts int
	Locked         bool
	UnlockToken    *string
}

// Equal reports whether both states hold the same counter, flag and token.
func (s AuthState) Equal(other AuthState) bool {
	if s.FailedAttempts != other.FailedAttempts || s.Locked != other.Locked {
		return false
	}
	switch {
	case s.UnlockToken == nil && other.UnlockToken == nil:
		return true
	case s.UnlockToken == nil || other.UnlockToken == nil:
		return false
	default:
		return *s.UnlockToken == *other.UnlockToken
	}
}

// LedgerEntry is one immutable signed hour adjustment.
type LedgerEntry struct {
	ID         int64
	EmployeeID int64
	Hours      int64
	Reason     *string
	CreatedBy  string
	CreatedAt  time.Time
}

// LedgerEntryWithName decorates an entry with the owning employee's current name.
type LedgerEntryWithName struct {
	LedgerEntry
	EmployeeName string
}
