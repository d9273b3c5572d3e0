// Package seed loads employees and opening balances from a TOML file.
//
// A seed file looks like:
//
//	[[employee]]
//	name = "João Silva"
//	badge = "001"
//	code = "1234"
//	birth_date = "1985-03-12"
//	role = "Operador"
//	supervisor = "Carla Mendes"
//	shift = "Manhã"
//	phone = "(11) 98888-0001"
//	opening_hours = 8
//	opening_reason = "Saldo inicial"
//
// Badges that already exist are skipped, so a file can be applied repeatedly.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/example/hourbank/internal/application"
)

// DefaultOpeningReason labels opening entries that have no reason of their own.
const DefaultOpeningReason = "Saldo inicial"

// File is the decoded seed document.
type File struct {
	Employees []Employee `toml:"employee"`
}

// Employee is one [[employee]] table.
type Employee struct {
	Name          string `toml:"name"`
	Badge         string `toml:"badge"`
	Code          string `toml:"code"`
	BirthDate     string `toml:"birth_date"`
	Role          string `toml:"role"`
	Supervisor    string `toml:"supervisor"`
	Shift         string `toml:"shift"`
	Phone         string `toml:"phone"`
	OpeningHours  *int64 `toml:"opening_hours"`
	OpeningReason string `toml:"opening_reason"`
}

func (e Employee) params() application.RegisterEmployeeParams {
	return application.RegisterEmployeeParams{
		Profile: application.EmployeeProfile{
			Name:       e.Name,
			Badge:      e.Badge,
			BirthDate:  e.BirthDate,
			Role:       e.Role,
			Supervisor: e.Supervisor,
			Shift:      e.Shift,
			Phone:      e.Phone,
		},
		Code: e.Code,
	}
}

// Registrar registers employees.
type Registrar interface {
	RegisterEmployee(ctx context.Context, params application.RegisterEmployeeParams) (application.Employee, error)
}

// Poster posts ledger entries.
type Poster interface {
	PostEntry(ctx context.Context, params application.PostEntryParams) (application.Entry, error)
}

// Result counts what Apply did.
type Result struct {
	Registered int
	Skipped    int
	Entries    int
}

// LoadFile decodes the seed file at path.
func LoadFile(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a seed document. Unknown keys are rejected so that typos do
// not silently drop fields.
func Parse(r io.Reader) (File, error) {
	var file File
	meta, err := toml.NewDecoder(r).Decode(&file)
	if err != nil {
		return File{}, fmt.Errorf("failed to decode TOML seed: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		sort.Strings(keys)
		return File{}, fmt.Errorf("unknown seed keys: %s", strings.Join(keys, ", "))
	}

	return file, nil
}

// Apply registers every employee in file and posts their opening entry.
// Duplicate badges are skipped without posting. Any other failure stops the
// run and is returned together with the partial result.
func Apply(ctx context.Context, file File, registrar Registrar, poster Poster, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "seed")

	var result Result
	for i, candidate := range file.Employees {
		employee, err := registrar.RegisterEmployee(ctx, candidate.params())
		if errors.Is(err, application.ErrDuplicateBadge) {
			logger.InfoContext(ctx, "badge already registered, skipping", "badge", candidate.Badge)
			result.Skipped++
			continue
		}
		if err != nil {
			return result, fmt.Errorf("employee #%d (badge %q): %w", i+1, candidate.Badge, err)
		}
		result.Registered++

		if candidate.OpeningHours == nil || poster == nil {
			continue
		}

		reason := strings.TrimSpace(candidate.OpeningReason)
		if reason == "" {
			reason = DefaultOpeningReason
		}
		if _, err := poster.PostEntry(ctx, application.PostEntryParams{
			EmployeeID: employee.ID,
			Hours:      *candidate.OpeningHours,
			Reason:     reason,
		}); err != nil {
			return result, fmt.Errorf("opening entry for badge %q: %w", candidate.Badge, err)
		}
		result.Entries++
	}

	logger.InfoContext(ctx, "seed applied",
		"registered", result.Registered,
		"skipped", result.Skipped,
		"entries", result.Entries,
	)
	return result, nil
}
