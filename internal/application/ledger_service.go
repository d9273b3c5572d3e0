package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// LedgerStore persists append-only hour entries.
type LedgerStore interface {
	// AppendEntry returns ErrNotFound when the employee does not exist.
	AppendEntry(ctx context.Context, entry Entry) (Entry, error)
	SumHours(ctx context.Context, employeeID int64) (int64, error)
	ListEntries(ctx context.Context, employeeID int64) ([]Entry, error)
	ListEntriesWithNames(ctx context.Context) ([]EntryWithName, error)
}

// EmployeeLookup resolves employees by ID.
type EmployeeLookup interface {
	GetEmployee(ctx context.Context, id int64) (Employee, error)
}

// LedgerService records hour adjustments and derives balances from them.
type LedgerService struct {
	entries   LedgerStore
	employees EmployeeLookup
	now       func() time.Time
	logger    *slog.Logger
}

// NewLedgerService constructs a LedgerService with the provided dependencies.
func NewLedgerService(entries LedgerStore, employees EmployeeLookup, now func() time.Time) *LedgerService {
	return NewLedgerServiceWithLogger(entries, employees, now, nil)
}

// NewLedgerServiceWithLogger constructs a LedgerService with a specified logger.
func NewLedgerServiceWithLogger(entries LedgerStore, employees EmployeeLookup, now func() time.Time, logger *slog.Logger) *LedgerService {
	if now == nil {
		now = time.Now
	}
	return &LedgerService{
		entries:   entries,
		employees: employees,
		now:       now,
		logger:    defaultLogger(logger),
	}
}

func (s *LedgerService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "LedgerService", operation, attrs...)
}

func (s *LedgerService) ensureConfigured() error {
	if s == nil {
		return fmt.Errorf("LedgerService is nil")
	}
	if s.entries == nil {
		return fmt.Errorf("ledger store not configured")
	}
	return nil
}

// PostEntry appends a signed adjustment. Zero hours are accepted.
func (s *LedgerService) PostEntry(ctx context.Context, params PostEntryParams) (entry Entry, err error) {
	if err = s.ensureConfigured(); err != nil {
		return
	}

	createdBy := strings.TrimSpace(params.CreatedBy)
	if createdBy == "" {
		createdBy = DefaultEntryCreator
	}

	logger := s.loggerWith(ctx, "PostEntry",
		"employee_id", params.EmployeeID,
		"hours", params.Hours,
		"created_by", createdBy,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "posting entry failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "entry posted", "entry_id", entry.ID)
	}()

	if params.EmployeeID <= 0 {
		vErr := &ValidationError{}
		vErr.add("employee_id", "employee id is required")
		err = vErr
		return
	}

	entry, err = s.entries.AppendEntry(ctx, Entry{
		EmployeeID: params.EmployeeID,
		Hours:      params.Hours,
		Reason:     strings.TrimSpace(params.Reason),
		CreatedBy:  createdBy,
		CreatedAt:  s.now(),
	})
	return
}

// GetBalance returns the sum of the employee's entries. It is 0 for an
// employee with no entries, and for an unknown ID.
func (s *LedgerService) GetBalance(ctx context.Context, employeeID int64) (balance int64, err error) {
	if err = s.ensureConfigured(); err != nil {
		return
	}

	balance, err = s.entries.SumHours(ctx, employeeID)
	if err != nil {
		s.loggerWith(ctx, "GetBalance", "employee_id", employeeID).
			ErrorContext(ctx, "balance query failed", "error", err, "error_kind", ErrorKind(err))
	}
	return
}

// GetHistory returns the employee's entries, newest first.
func (s *LedgerService) GetHistory(ctx context.Context, employeeID int64) (history []Entry, err error) {
	if err = s.ensureConfigured(); err != nil {
		return
	}

	history, err = s.entries.ListEntries(ctx, employeeID)
	if err != nil {
		s.loggerWith(ctx, "GetHistory", "employee_id", employeeID).
			ErrorContext(ctx, "history query failed", "error", err, "error_kind", ErrorKind(err))
	}
	return
}

// GetAllHistoryWithNames returns every entry, newest first, with employee names.
func (s *LedgerService) GetAllHistoryWithNames(ctx context.Context) (entries []EntryWithName, err error) {
	if err = s.ensureConfigured(); err != nil {
		return
	}

	entries, err = s.entries.ListEntriesWithNames(ctx)
	if err != nil {
		s.loggerWith(ctx, "GetAllHistoryWithNames").
			ErrorContext(ctx, "ledger query failed", "error", err, "error_kind", ErrorKind(err))
	}
	return
}

// Statement returns balance and history for an existing employee.
func (s *LedgerService) Statement(ctx context.Context, employeeID int64) (statement Statement, err error) {
	if err = s.ensureConfigured(); err != nil {
		return
	}
	if s.employees == nil {
		err = fmt.Errorf("employee lookup not configured")
		return
	}

	logger := s.loggerWith(ctx, "Statement", "employee_id", employeeID)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "statement failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "statement served", "balance", statement.Balance, "entries", len(statement.History))
	}()

	var employee Employee
	employee, err = s.employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return
	}

	statement.Employee = employee.Summary()
	if statement.Balance, err = s.entries.SumHours(ctx, employeeID); err != nil {
		return
	}
	statement.History, err = s.entries.ListEntries(ctx, employeeID)
	return
}
