package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/hourbank/internal/application"
	"github.com/example/hourbank/internal/persistence"
)

var employeeCounter uint64

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// EmployeeFixture is a deterministic employee registration.
type EmployeeFixture struct {
	Name       string
	Badge      string
	Code       string
	BirthDate  string
	Role       string
	Supervisor string
	Shift      string
	Phone      string
}

// EmployeeOption configures the generated employee fixture.
type EmployeeOption func(*EmployeeFixture)

// NewEmployeeFixture returns a unique employee fixture with optional overrides.
func NewEmployeeFixture(opts ...EmployeeOption) EmployeeFixture {
	idx := atomic.AddUint64(&employeeCounter, 1)
	fixture := EmployeeFixture{
		Name:       fmt.Sprintf("Funcionário %03d", idx),
		Badge:      fmt.Sprintf("B%04d", idx),
		Code:       fmt.Sprintf("%04d", idx),
		BirthDate:  "1990-05-17",
		Role:       "Operador",
		Supervisor: "Carla Mendes",
		Shift:      "Manhã",
		Phone:      "(11) 98888-0000",
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithEmployeeName(name string) EmployeeOption {
	return func(f *EmployeeFixture) { f.Name = name }
}

func WithEmployeeBadge(badge string) EmployeeOption {
	return func(f *EmployeeFixture) { f.Badge = badge }
}

func WithEmployeeCode(code string) EmployeeOption {
	return func(f *EmployeeFixture) { f.Code = code }
}

func WithEmployeeBirthDate(date string) EmployeeOption {
	return func(f *EmployeeFixture) { f.BirthDate = date }
}

// Params returns the fixture as registration parameters.
func (f EmployeeFixture) Params() application.RegisterEmployeeParams {
	return application.RegisterEmployeeParams{
		Profile: application.EmployeeProfile{
			Name:       f.Name,
			Badge:      f.Badge,
			BirthDate:  f.BirthDate,
			Role:       f.Role,
			Supervisor: f.Supervisor,
			Shift:      f.Shift,
			Phone:      f.Phone,
		},
		Code: f.Code,
	}
}

// Persistence returns the fixture as a persistence.Employee with codeHash stored.
func (f EmployeeFixture) Persistence(codeHash string) persistence.Employee {
	return persistence.Employee{
		Badge:          f.Badge,
		Name:           f.Name,
		Role:           f.Role,
		Supervisor:     f.Supervisor,
		Shift:          f.Shift,
		Phone:          f.Phone,
		BirthDate:      f.BirthDate,
		AccessCodeHash: codeHash,
		CreatedAt:      referenceTime,
		UpdatedAt:      referenceTime,
	}
}

// SampleEmployees returns the three demo employees shipped with the seed file.
func SampleEmployees() []EmployeeFixture {
	return []EmployeeFixture{
		NewEmployeeFixture(WithEmployeeName("João Silva"), WithEmployeeBadge("001"), WithEmployeeCode("1234")),
		NewEmployeeFixture(WithEmployeeName("Maria Santos"), WithEmployeeBadge("002"), WithEmployeeCode("5678")),
		NewEmployeeFixture(WithEmployeeName("Pedro Oliveira"), WithEmployeeBadge("003"), WithEmployeeCode("9012")),
	}
}
