package persistence

import (
	"context"
	"time"
)

// EmployeeRepository stores employees and their authentication state.
type EmployeeRepository interface {
	// CreateEmployee inserts the employee and returns it with its assigned ID.
	// A badge collision yields ErrDuplicate.
	CreateEmployee(ctx context.Context, employee Employee) (Employee, error)
	GetEmployee(ctx context.Context, id int64) (Employee, error)
	GetEmployeeByBadge(ctx context.Context, badge string) (Employee, error)
	GetEmployeeByUnlockToken(ctx context.Context, token string) (Employee, error)
	// ListEmployees returns every employee ordered by name, then ID.
	ListEmployees(ctx context.Context) ([]Employee, error)
	// SwapAuthState replaces the authentication state only if the row still
	// holds expected. ErrStaleState is returned otherwise.
	SwapAuthState(ctx context.Context, id int64, expected, next AuthState, at time.Time) error
	// ResetAccessCode replaces the code hash and clears the lockout only if the
	// row is locked with token. ErrStaleState is returned otherwise.
	ResetAccessCode(ctx context.Context, id int64, token, codeHash string, at time.Time) error
}

// LedgerRepository stores append-only hour adjustments.
type LedgerRepository interface {
	// AppendEntry inserts the entry and returns it with its assigned ID.
	// A missing employee yields ErrForeignKeyViolation. CreatedAt is raised to the
	// latest stored value when it would be earlier.
	AppendEntry(ctx context.Context, entry LedgerEntry) (LedgerEntry, error)
	// SumHours returns the sum of all entries for the employee, 0 when none exist.
	SumHours(ctx context.Context, employeeID int64) (int64, error)
	// ListEntries returns the employee's entries newest first.
	ListEntries(ctx context.Context, employeeID int64) ([]LedgerEntry, error)
	// ListEntriesWithNames returns all entries newest first, joined with employee names.
	ListEntriesWithNames(ctx context.Context) ([]LedgerEntryWithName, error)
}
