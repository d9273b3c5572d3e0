package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/hourbank/internal/persistence"
)

const employeeColumns = `
	id, badge, name, role, supervisor, shift, phone, birth_date,
	access_code_hash, failed_attempts, locked, unlock_token, created_at, updated_at
`

// EmployeeRepository implements persistence.EmployeeRepository using SQLite.
type EmployeeRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewEmployeeRepository creates a new SQLite employee repository.
func NewEmployeeRepository(pool *ConnectionPool) *EmployeeRepository {
	return &EmployeeRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateEmployee inserts a new employee in the ACTIVE state.
func (r *EmployeeRepository) CreateEmployee(ctx context.Context, employee persistence.Employee) (persistence.Employee, error) {
	if employee.AccessCodeHash == "" {
		return persistence.Employee{}, persistence.ErrConstraintViolation
	}

	if employee.CreatedAt.IsZero() {
		employee.CreatedAt = time.Now().UTC()
	}
	if employee.UpdatedAt.IsZero() {
		employee.UpdatedAt = employee.CreatedAt
	}
	employee.AuthState = persistence.AuthState{}

	const query = `
		INSERT INTO employees (
			badge, name, role, supervisor, shift, phone, birth_date,
			access_code_hash, failed_attempts, locked, unlock_token, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, NULL, ?, ?)
	`

	result, err := r.helper.Exec(ctx, query,
		employee.Badge,
		employee.Name,
		employee.Role,
		employee.Supervisor,
		employee.Shift,
		employee.Phone,
		employee.BirthDate,
		employee.AccessCodeHash,
		formatTimestamp(employee.CreatedAt),
		formatTimestamp(employee.UpdatedAt),
	)
	if err != nil {
		return persistence.Employee{}, r.mapper.MapError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return persistence.Employee{}, fmt.Errorf("failed to read employee id: %w", err)
	}
	employee.ID = id

	return employee, nil
}

// GetEmployee retrieves an employee by ID.
func (r *EmployeeRepository) GetEmployee(ctx context.Context, id int64) (persistence.Employee, error) {
	return r.getOne(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
}

// GetEmployeeByBadge retrieves an employee by exact, case-sensitive badge.
func (r *EmployeeRepository) GetEmployeeByBadge(ctx context.Context, badge string) (persistence.Employee, error) {
	if badge == "" {
		return persistence.Employee{}, persistence.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+employeeColumns+` FROM employees WHERE badge = ?`, badge)
}

// GetEmployeeByUnlockToken retrieves the employee currently holding token.
func (r *EmployeeRepository) GetEmployeeByUnlockToken(ctx context.Context, token string) (persistence.Employee, error) {
	if token == "" {
		return persistence.Employee{}, persistence.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+employeeColumns+` FROM employees WHERE unlock_token = ?`, token)
}

// ListEmployees returns all employees ordered by name then ID.
func (r *EmployeeRepository) ListEmployees(ctx context.Context) ([]persistence.Employee, error) {
	rows, err := r.helper.Query(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	employees := make([]persistence.Employee, 0)
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return employees, nil
}

// SwapAuthState is a compare-and-set on (failed_attempts, locked, unlock_token).
func (r *EmployeeRepository) SwapAuthState(ctx context.Context, id int64, expected, next persistence.AuthState, at time.Time) error {
	const query = `
		UPDATE employees
		SET failed_attempts = ?, locked = ?, unlock_token = ?, updated_at = ?
		WHERE id = ? AND failed_attempts = ? AND locked = ? AND unlock_token IS ?
	`

	result, err := r.helper.Exec(ctx, query,
		next.FailedAttempts,
		next.Locked,
		nullableString(next.UnlockToken),
		formatTimestamp(at),
		id,
		expected.FailedAttempts,
		expected.Locked,
		nullableString(expected.UnlockToken),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return requireOneRow(result)
}

// ResetAccessCode installs a new code hash and clears the lockout held by token.
func (r *EmployeeRepository) ResetAccessCode(ctx context.Context, id int64, token, codeHash string, at time.Time) error {
	const query = `
		UPDATE employees
		SET access_code_hash = ?, failed_attempts = 0, locked = 0, unlock_token = NULL, updated_at = ?
		WHERE id = ? AND locked = 1 AND unlock_token = ?
	`

	result, err := r.helper.Exec(ctx, query, codeHash, formatTimestamp(at), id, token)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return requireOneRow(result)
}

func (r *EmployeeRepository) getOne(ctx context.Context, query string, arg any) (persistence.Employee, error) {
	employee, err := scanEmployee(r.helper.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Employee{}, persistence.ErrNotFound
		}
		return persistence.Employee{}, r.mapper.MapError(err)
	}
	return employee, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (persistence.Employee, error) {
	var (
		employee             persistence.Employee
		token                sql.NullString
		createdAt, updatedAt string
	)

	if err := row.Scan(
		&employee.ID,
		&employee.Badge,
		&employee.Name,
		&employee.Role,
		&employee.Supervisor,
		&employee.Shift,
		&employee.Phone,
		&employee.BirthDate,
		&employee.AccessCodeHash,
		&employee.FailedAttempts,
		&employee.Locked,
		&token,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Employee{}, err
	}

	if token.Valid {
		value := token.String
		employee.UnlockToken = &value
	}

	var err error
	if employee.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Employee{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if employee.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.Employee{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return employee, nil
}

func nullableString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func requireOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrStaleState
	}
	return nil
}
