package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/hourbank/internal/persistence"
)

// LedgerRepository implements persistence.LedgerRepository using SQLite.
type LedgerRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewLedgerRepository creates a new SQLite ledger repository.
func NewLedgerRepository(pool *ConnectionPool) *LedgerRepository {
	return &LedgerRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// AppendEntry inserts an immutable entry. The employee must exist. The stored
// created_at is clamped to the latest existing one.
func (r *LedgerRepository) AppendEntry(ctx context.Context, entry persistence.LedgerEntry) (persistence.LedgerEntry, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	// created_at never moves backwards, so a wall clock step cannot reorder history.
	const query = `
		INSERT INTO hour_entries (employee_id, hours, reason, created_by, created_at)
		VALUES (?, ?, ?, ?, MAX(?, COALESCE((SELECT MAX(created_at) FROM hour_entries), '')))
		RETURNING id, created_at
	`

	var createdAt string
	err := r.helper.QueryRow(ctx, query,
		entry.EmployeeID,
		entry.Hours,
		nullableString(entry.Reason),
		entry.CreatedBy,
		formatTimestamp(entry.CreatedAt),
	).Scan(&entry.ID, &createdAt)
	if err != nil {
		return persistence.LedgerEntry{}, r.mapper.MapError(err)
	}

	parsed, err := parseTimestamp(createdAt)
	if err != nil {
		return persistence.LedgerEntry{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	entry.CreatedAt = parsed

	return entry, nil
}

// SumHours returns the balance for an employee, 0 when no entries exist.
func (r *LedgerRepository) SumHours(ctx context.Context, employeeID int64) (int64, error) {
	var total int64
	err := r.helper.QueryRow(ctx,
		`SELECT COALESCE(SUM(hours), 0) FROM hour_entries WHERE employee_id = ?`,
		employeeID,
	).Scan(&total)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	return total, nil
}

// ListEntries returns an employee's entries newest first.
func (r *LedgerRepository) ListEntries(ctx context.Context, employeeID int64) ([]persistence.LedgerEntry, error) {
	const query = `
		SELECT id, employee_id, hours, reason, created_by, created_at
		FROM hour_entries
		WHERE employee_id = ?
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.helper.Query(ctx, query, employeeID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	entries := make([]persistence.LedgerEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return entries, nil
}

// ListEntriesWithNames returns all entries newest first with employee names.
func (r *LedgerRepository) ListEntriesWithNames(ctx context.Context) ([]persistence.LedgerEntryWithName, error) {
	const query = `
		SELECT h.id, h.employee_id, h.hours, h.reason, h.created_by, h.created_at, e.name
		FROM hour_entries h
		JOIN employees e ON e.id = h.employee_id
		ORDER BY h.created_at DESC, h.id DESC
	`

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	entries := make([]persistence.LedgerEntryWithName, 0)
	for rows.Next() {
		var (
			entry     persistence.LedgerEntryWithName
			reason    sql.NullString
			createdAt string
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.EmployeeID,
			&entry.Hours,
			&reason,
			&entry.CreatedBy,
			&createdAt,
			&entry.EmployeeName,
		); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if err := fillEntry(&entry.LedgerEntry, reason, createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return entries, nil
}

func scanEntry(row rowScanner) (persistence.LedgerEntry, error) {
	var (
		entry     persistence.LedgerEntry
		reason    sql.NullString
		createdAt string
	)
	if err := row.Scan(
		&entry.ID,
		&entry.EmployeeID,
		&entry.Hours,
		&reason,
		&entry.CreatedBy,
		&createdAt,
	); err != nil {
		return persistence.LedgerEntry{}, err
	}
	if err := fillEntry(&entry, reason, createdAt); err != nil {
		return persistence.LedgerEntry{}, err
	}
	return entry, nil
}

func fillEntry(entry *persistence.LedgerEntry, reason sql.NullString, createdAt string) error {
	if reason.Valid {
		value := reason.String
		entry.Reason = &value
	}
	parsed, err := parseTimestamp(createdAt)
	if err != nil {
		return fmt.Errorf("failed to parse created_at: %w", err)
	}
	entry.CreatedAt = parsed
	return nil
}
