// Package adapters translates between persistence records and application
// models so services never see storage types or storage errors.
package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/example/hourbank/internal/application"
	"github.com/example/hourbank/internal/persistence"
)

// EmployeeStore adapts a persistence.EmployeeRepository to application.EmployeeStore.
type EmployeeStore struct {
	repo persistence.EmployeeRepository
}

var _ application.EmployeeStore = (*EmployeeStore)(nil)

func NewEmployeeStore(repo persistence.EmployeeRepository) *EmployeeStore {
	return &EmployeeStore{repo: repo}
}

func (a *EmployeeStore) CreateEmployee(ctx context.Context, employee application.Employee) (application.Employee, error) {
	stored, err := a.repo.CreateEmployee(ctx, toPersistenceEmployee(employee))
	if err != nil {
		return application.Employee{}, translateError(err)
	}
	return toApplicationEmployee(stored), nil
}

func (a *EmployeeStore) GetEmployee(ctx context.Context, id int64) (application.Employee, error) {
	stored, err := a.repo.GetEmployee(ctx, id)
	if err != nil {
		return application.Employee{}, translateError(err)
	}
	return toApplicationEmployee(stored), nil
}

func (a *EmployeeStore) GetEmployeeByBadge(ctx context.Context, badge string) (application.Employee, error) {
	stored, err := a.repo.GetEmployeeByBadge(ctx, badge)
	if err != nil {
		return application.Employee{}, translateError(err)
	}
	return toApplicationEmployee(stored), nil
}

func (a *EmployeeStore) GetEmployeeByUnlockToken(ctx context.Context, token string) (application.Employee, error) {
	stored, err := a.repo.GetEmployeeByUnlockToken(ctx, token)
	if err != nil {
		return application.Employee{}, translateError(err)
	}
	return toApplicationEmployee(stored), nil
}

func (a *EmployeeStore) ListEmployees(ctx context.Context) ([]application.Employee, error) {
	stored, err := a.repo.ListEmployees(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	employees := make([]application.Employee, 0, len(stored))
	for _, e := range stored {
		employees = append(employees, toApplicationEmployee(e))
	}
	return employees, nil
}

func (a *EmployeeStore) SwapAuthState(ctx context.Context, id int64, expected, next application.AuthState, at time.Time) error {
	return translateError(a.repo.SwapAuthState(ctx, id, toPersistenceAuthState(expected), toPersistenceAuthState(next), at))
}

func (a *EmployeeStore) ResetAccessCode(ctx context.Context, id int64, token, codeHash string, at time.Time) error {
	return translateError(a.repo.ResetAccessCode(ctx, id, token, codeHash, at))
}

// LedgerStore adapts a persistence.LedgerRepository to application.LedgerStore.
type LedgerStore struct {
	repo persistence.LedgerRepository
}

var _ application.LedgerStore = (*LedgerStore)(nil)

func NewLedgerStore(repo persistence.LedgerRepository) *LedgerStore {
	return &LedgerStore{repo: repo}
}

// AppendEntry reports a missing employee as application.ErrNotFound.
func (a *LedgerStore) AppendEntry(ctx context.Context, entry application.Entry) (application.Entry, error) {
	stored, err := a.repo.AppendEntry(ctx, toPersistenceEntry(entry))
	if err != nil {
		return application.Entry{}, translateError(err)
	}
	return toApplicationEntry(stored), nil
}

func (a *LedgerStore) SumHours(ctx context.Context, employeeID int64) (int64, error) {
	total, err := a.repo.SumHours(ctx, employeeID)
	return total, translateError(err)
}

func (a *LedgerStore) ListEntries(ctx context.Context, employeeID int64) ([]application.Entry, error) {
	stored, err := a.repo.ListEntries(ctx, employeeID)
	if err != nil {
		return nil, translateError(err)
	}
	entries := make([]application.Entry, 0, len(stored))
	for _, e := range stored {
		entries = append(entries, toApplicationEntry(e))
	}
	return entries, nil
}

func (a *LedgerStore) ListEntriesWithNames(ctx context.Context) ([]application.EntryWithName, error) {
	stored, err := a.repo.ListEntriesWithNames(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	entries := make([]application.EntryWithName, 0, len(stored))
	for _, e := range stored {
		entries = append(entries, application.EntryWithName{
			Entry:        toApplicationEntry(e.LedgerEntry),
			EmployeeName: e.EmployeeName,
		})
	}
	return entries, nil
}

// translateError maps persistence sentinels to application sentinels while
// keeping the original error in the chain.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound), errors.Is(err, persistence.ErrForeignKeyViolation):
		return errors.Join(application.ErrNotFound, err)
	case errors.Is(err, persistence.ErrDuplicate):
		return errors.Join(application.ErrAlreadyExists, err)
	case errors.Is(err, persistence.ErrStaleState):
		return errors.Join(application.ErrConflict, err)
	default:
		return err
	}
}

func toApplicationEmployee(model persistence.Employee) application.Employee {
	return application.Employee{
		ID:         model.ID,
		Badge:      model.Badge,
		Name:       model.Name,
		Role:       model.Role,
		Supervisor: model.Supervisor,
		Shift:      model.Shift,
		Phone:      model.Phone,
		BirthDate:  model.BirthDate,
		CodeHash:   model.AccessCodeHash,
		Auth:       toApplicationAuthState(model.AuthState),
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

func toPersistenceEmployee(employee application.Employee) persistence.Employee {
	return persistence.Employee{
		ID:             employee.ID,
		Badge:          employee.Badge,
		Name:           employee.Name,
		Role:           employee.Role,
		Supervisor:     employee.Supervisor,
		Shift:          employee.Shift,
		Phone:          employee.Phone,
		BirthDate:      employee.BirthDate,
		AccessCodeHash: employee.CodeHash,
		AuthState:      toPersistenceAuthState(employee.Auth),
		CreatedAt:      employee.CreatedAt,
		UpdatedAt:      employee.UpdatedAt,
	}
}

func toApplicationAuthState(state persistence.AuthState) application.AuthState {
	converted := application.AuthState{
		FailedAttempts: state.FailedAttempts,
		Locked:         state.Locked,
	}
	if state.UnlockToken != nil {
		converted.UnlockToken = *state.UnlockToken
	}
	return converted
}

func toPersistenceAuthState(state application.AuthState) persistence.AuthState {
	return persistence.AuthState{
		FailedAttempts: state.FailedAttempts,
		Locked:         state.Locked,
		UnlockToken:    optionalString(state.UnlockToken),
	}
}

func toApplicationEntry(model persistence.LedgerEntry) application.Entry {
	entry := application.Entry{
		ID:         model.ID,
		EmployeeID: model.EmployeeID,
		Hours:      model.Hours,
		CreatedBy:  model.CreatedBy,
		CreatedAt:  model.CreatedAt,
	}
	if model.Reason != nil {
		entry.Reason = *model.Reason
	}
	return entry
}

func toPersistenceEntry(entry application.Entry) persistence.LedgerEntry {
	return persistence.LedgerEntry{
		ID:         entry.ID,
		EmployeeID: entry.EmployeeID,
		Hours:      entry.Hours,
		Reason:     optionalString(entry.Reason),
		CreatedBy:  entry.CreatedBy,
		CreatedAt:  entry.CreatedAt,
	}
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
