package application

import "time"

// MaxCodeAttempts is the number of consecutive wrong codes that locks an employee.
const MaxCodeAttempts = 3

// DefaultEntryCreator labels ledger entries posted without a creator.
const DefaultEntryCreator = "Administrador"

// BirthDateLayout is the accepted birth date format.
const BirthDateLayout = "2006-01-02"

// AuthState is an employee's lockout bookkeeping. UnlockToken is empty unless Locked.
type AuthState struct {
	FailedAttempts int
	Locked         bool
	UnlockToken    string
}

// Employee is a registered badge holder.
type Employee struct {
	ID         int64
	Badge      string
	Name       string
	Role       string
	Supervisor string
	Shift      string
	Phone      string
	BirthDate  string
	CodeHash   string
	Auth       AuthState
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Summary returns the identity fields shown after a badge lookup.
func (e Employee) Summary() EmployeeSummary {
	return EmployeeSummary{ID: e.ID, Name: e.Name, Badge: e.Badge}
}

// EmployeeSummary identifies an employee without exposing auth state.
type EmployeeSummary struct {
	ID    int64
	Name  string
	Badge string
}

// EmployeeProfile holds the descriptive fields supplied at registration.
type EmployeeProfile struct {
	Name       string
	Badge      string
	BirthDate  string
	Role       string
	Supervisor string
	Shift      string
	Phone      string
}

// RegisterEmployeeParams describes a new employee and their initial access code.
type RegisterEmployeeParams struct {
	Profile EmployeeProfile
	Code    string
}

// Session is a signed token that lets an employee read their own statement.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// VerifyResult is returned by a successful code check.
type VerifyResult struct {
	Employee EmployeeSummary
	Session  Session
}

// UnlockParams carries an administrator's unlock request.
type UnlockParams struct {
	Token   string
	NewCode string
}

// Entry is one signed hour adjustment. Reason is empty when none was given.
type Entry struct {
	ID         int64
	EmployeeID int64
	Hours      int64
	Reason     string
	CreatedBy  string
	CreatedAt  time.Time
}

// EntryWithName decorates an entry with the employee's current name.
type EntryWithName struct {
	Entry
	EmployeeName string
}

// PostEntryParams describes a new ledger entry.
type PostEntryParams struct {
	EmployeeID int64
	Hours      int64
	Reason     string
	CreatedBy  string
}

// Statement is an employee's balance together with their full history.
type Statement struct {
	Employee EmployeeSummary
	Balance  int64
	History  []Entry
}
