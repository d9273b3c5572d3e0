// Package memory provides a map-backed implementation of the persistence
// repositories with the same constraint behaviour as the SQLite store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/hourbank/internal/persistence"
)

// Storage implements persistence.EmployeeRepository and persistence.LedgerRepository.
type Storage struct {
	mu             sync.RWMutex
	employees      map[int64]persistence.Employee
	entries        []persistence.LedgerEntry
	nextEmployeeID int64
	nextEntryID    int64
}

var (
	_ persistence.EmployeeRepository = (*Storage)(nil)
	_ persistence.LedgerRepository   = (*Storage)(nil)
)

// New returns an empty Storage.
func New() *Storage {
	return &Storage{
		employees: make(map[int64]persistence.Employee),
	}
}

// --- EmployeeRepository implementation ---

// CreateEmployee stores a new employee in the ACTIVE state.
func (s *Storage) CreateEmployee(_ context.Context, employee persistence.Employee) (persistence.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if employee.AccessCodeHash == "" {
		return persistence.Employee{}, persistence.ErrConstraintViolation
	}
	for _, existing := range s.employees {
		if existing.Badge == employee.Badge {
			return persistence.Employee{}, persistence.ErrDuplicate
		}
	}

	s.nextEmployeeID++
	employee.ID = s.nextEmployeeID
	employee.AuthState = persistence.AuthState{}
	if employee.UpdatedAt.IsZero() {
		employee.UpdatedAt = employee.CreatedAt
	}

	s.employees[employee.ID] = cloneEmployee(employee)
	return cloneEmployee(employee), nil
}

// GetEmployee retrieves an employee by ID.
func (s *Storage) GetEmployee(_ context.Context, id int64) (persistence.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employee, ok := s.employees[id]
	if !ok {
		return persistence.Employee{}, persistence.ErrNotFound
	}
	return cloneEmployee(employee), nil
}

// GetEmployeeByBadge retrieves an employee by exact badge.
func (s *Storage) GetEmployeeByBadge(_ context.Context, badge string) (persistence.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, employee := range s.employees {
		if employee.Badge == badge {
			return cloneEmployee(employee), nil
		}
	}
	return persistence.Employee{}, persistence.ErrNotFound
}

// GetEmployeeByUnlockToken retrieves the employee holding token.
func (s *Storage) GetEmployeeByUnlockToken(_ context.Context, token string) (persistence.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if token == "" {
		return persistence.Employee{}, persistence.ErrNotFound
	}
	for _, employee := range s.employees {
		if employee.UnlockToken != nil && *employee.UnlockToken == token {
			return cloneEmployee(employee), nil
		}
	}
	return persistence.Employee{}, persistence.ErrNotFound
}

// ListEmployees returns all employees ordered by name, then ID.
func (s *Storage) ListEmployees(_ context.Context) ([]persistence.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employees := make([]persistence.Employee, 0, len(s.employees))
	for _, employee := range s.employees {
		employees = append(employees, cloneEmployee(employee))
	}

	sort.Slice(employees, func(i, j int) bool {
		if employees[i].Name == employees[j].Name {
			return employees[i].ID < employees[j].ID
		}
		return employees[i].Name < employees[j].Name
	})

	return employees, nil
}

// SwapAuthState replaces the auth state if the stored one equals expected.
func (s *Storage) SwapAuthState(_ context.Context, id int64, expected, next persistence.AuthState, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	employee, ok := s.employees[id]
	if !ok || !employee.AuthState.Equal(expected) {
		return persistence.ErrStaleState
	}
	if next.UnlockToken != nil {
		for otherID, other := range s.employees {
			if otherID != id && other.UnlockToken != nil && *other.UnlockToken == *next.UnlockToken {
				return persistence.ErrDuplicate
			}
		}
	}

	employee.AuthState = cloneAuthState(next)
	employee.UpdatedAt = at
	s.employees[id] = employee
	return nil
}

// ResetAccessCode replaces the code and clears the lockout held by token.
func (s *Storage) ResetAccessCode(_ context.Context, id int64, token, codeHash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	employee, ok := s.employees[id]
	if !ok || !employee.Locked || employee.UnlockToken == nil || *employee.UnlockToken != token {
		return persistence.ErrStaleState
	}

	employee.AccessCodeHash = codeHash
	employee.AuthState = persistence.AuthState{}
	employee.UpdatedAt = at
	s.employees[id] = employee
	return nil
}

// --- LedgerRepository implementation ---

// AppendEntry stores an entry for an existing employee.
func (s *Storage) AppendEntry(_ context.Context, entry persistence.LedgerEntry) (persistence.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.employees[entry.EmployeeID]; !ok {
		return persistence.LedgerEntry{}, persistence.ErrForeignKeyViolation
	}

	if n := len(s.entries); n > 0 && entry.CreatedAt.Before(s.entries[n-1].CreatedAt) {
		entry.CreatedAt = s.entries[n-1].CreatedAt
	}

	s.nextEntryID++
	entry.ID = s.nextEntryID
	s.entries = append(s.entries, cloneEntry(entry))
	return cloneEntry(entry), nil
}

// SumHours returns the employee's balance.
func (s *Storage) SumHours(_ context.Context, employeeID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, entry := range s.entries {
		if entry.EmployeeID == employeeID {
			total += entry.Hours
		}
	}
	return total, nil
}

// ListEntries returns the employee's entries newest first.
func (s *Storage) ListEntries(_ context.Context, employeeID int64) ([]persistence.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]persistence.LedgerEntry, 0)
	for _, entry := range s.entries {
		if entry.EmployeeID == employeeID {
			entries = append(entries, cloneEntry(entry))
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return newerFirst(entries[i], entries[j])
	})
	return entries, nil
}

// ListEntriesWithNames returns all entries newest first with current names.
func (s *Storage) ListEntriesWithNames(_ context.Context) ([]persistence.LedgerEntryWithName, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]persistence.LedgerEntryWithName, 0, len(s.entries))
	for _, entry := range s.entries {
		employee, ok := s.employees[entry.EmployeeID]
		if !ok {
			continue
		}
		entries = append(entries, persistence.LedgerEntryWithName{
			LedgerEntry:  cloneEntry(entry),
			EmployeeName: employee.Name,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return newerFirst(entries[i].LedgerEntry, entries[j].LedgerEntry)
	})
	return entries, nil
}

func newerFirst(a, b persistence.LedgerEntry) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID > b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func cloneEmployee(employee persistence.Employee) persistence.Employee {
	employee.AuthState = cloneAuthState(employee.AuthState)
	return employee
}

func cloneAuthState(state persistence.AuthState) persistence.AuthState {
	state.UnlockToken = cloneStringPtr(state.UnlockToken)
	return state
}

func cloneEntry(entry persistence.LedgerEntry) persistence.LedgerEntry {
	entry.Reason = cloneStringPtr(entry.Reason)
	return entry
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
