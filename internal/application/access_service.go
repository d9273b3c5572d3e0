package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// maxStateSwaps bounds how often VerifyCode re-reads after losing a race.
const maxStateSwaps = 8

// EmployeeStore persists employees and performs conditional auth state updates.
type EmployeeStore interface {
	CreateEmployee(ctx context.Context, employee Employee) (Employee, error)
	GetEmployee(ctx context.Context, id int64) (Employee, error)
	GetEmployeeByBadge(ctx context.Context, badge string) (Employee, error)
	GetEmployeeByUnlockToken(ctx context.Context, token string) (Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
	// SwapAuthState returns ErrConflict when the stored state differs from expected
	// and ErrAlreadyExists when next carries a token another employee holds.
	SwapAuthState(ctx context.Context, id int64, expected, next AuthState, at time.Time) error
	// ResetAccessCode returns ErrConflict unless the employee is locked with token.
	ResetAccessCode(ctx context.Context, id int64, token, codeHash string, at time.Time) error
}

// AccessService resolves badges, checks access codes, and manages lockouts.
type AccessService struct {
	employees EmployeeStore
	hasher    CodeHasher
	tokens    TokenSource
	sessions  SessionIssuer
	now       func() time.Time
	logger    *slog.Logger
}

// NewAccessService constructs an AccessService with the provided dependencies.
func NewAccessService(employees EmployeeStore, hasher CodeHasher, tokens TokenSource, sessions SessionIssuer, now func() time.Time) *AccessService {
	return NewAccessServiceWithLogger(employees, hasher, tokens, sessions, now, nil)
}

// NewAccessServiceWithLogger constructs an AccessService with a specified logger.
// A nil sessions issuer yields results without a session token.
func NewAccessServiceWithLogger(employees EmployeeStore, hasher CodeHasher, tokens TokenSource, sessions SessionIssuer, now func() time.Time, logger *slog.Logger) *AccessService {
	if hasher == nil {
		hasher = NewArgon2idHasher(DefaultArgon2idParams)
	}
	if tokens == nil {
		tokens = CryptoTokenSource{}
	}
	if now == nil {
		now = time.Now
	}
	return &AccessService{
		employees: employees,
		hasher:    hasher,
		tokens:    tokens,
		sessions:  sessions,
		now:       now,
		logger:    defaultLogger(logger),
	}
}

func (s *AccessService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AccessService", operation, attrs...)
}

func (s *AccessService) ensureConfigured() error {
	if s == nil {
		return fmt.Errorf("AccessService is nil")
	}
	if s.employees == nil {
		return fmt.Errorf("employee store not configured")
	}
	return nil
}

// ResolveByBadge looks up the employee holding badge. It never mutates state.
func (s *AccessService) ResolveByBadge(ctx context.Context, badge string) (summary EmployeeSummary, err error) {
	if err = s.ensureConfigured(); err != nil {
		return
	}

	badge = strings.TrimSpace(badge)
	logger := s.loggerWith(ctx, "ResolveByBadge", "badge", badge)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "badge lookup failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "badge resolved", "employee_id", summary.ID)
	}()

	if badge == "" {
		vErr := &ValidationError{}
		vErr.add("badge", "badge is required")
		err = vErr
		return
	}

	var employee Employee
	employee, err = s.employees.GetEmployeeByBadge(ctx, badge)
	if err != nil {
		return
	}

	summary = employee.Summary()
	return
}

// VerifyCode checks code against the employee's stored code and updates the
// attempt counter. A locked employee is reported as *BlockedError without
// consuming an attempt, even when the code is correct. The third consecutive
// wrong code locks the employee under a fresh unlock token.
func (s *AccessService) VerifyCode(ctx context.Context, employeeID int64, code string) (result VerifyResult, err error) {
	if err = s.ensureConfigured(); err != nil {
		return
	}

	code = strings.TrimSpace(code)
	logger := s.loggerWith(ctx, "VerifyCode", "employee_id", employeeID)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "code check rejected", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "code check succeeded")
	}()

	if code == "" {
		vErr := &ValidationError{}
		vErr.add("code", "code is required")
		err = vErr
		return
	}

	var (
		verifiedHash string
		matches      bool
	)

	for swap := 0; swap < maxStateSwaps; swap++ {
		var employee Employee
		employee, err = s.employees.GetEmployee(ctx, employeeID)
		if err != nil {
			return
		}

		current := employee.Auth
		if current.Locked {
			err = &BlockedError{Token: current.UnlockToken}
			return
		}

		if employee.CodeHash != verifiedHash {
			matches, err = s.hasher.Verify(employee.CodeHash, code)
			if err != nil {
				err = fmt.Errorf("verify access code: %w", err)
				return
			}
			verifiedHash = employee.CodeHash
		}

		next := AuthState{FailedAttempts: current.FailedAttempts + 1}
		if matches {
			next = AuthState{}
		} else if next.FailedAttempts >= MaxCodeAttempts {
			next.FailedAttempts = MaxCodeAttempts
			next.Locked = true
			next.UnlockToken, err = s.tokens.NewToken()
			if err != nil {
				err = fmt.Errorf("issue unlock token: %w", err)
				return
			}
		}

		if next != current {
			err = s.employees.SwapAuthState(ctx, employeeID, current, next, s.now())
			switch {
			case errors.Is(err, ErrConflict), errors.Is(err, ErrAlreadyExists):
				logger.DebugContext(ctx, "auth state changed concurrently, retrying", "swap", swap+1)
				err = nil
				continue
			case err != nil:
				return
			}
		}

		switch {
		case matches:
			result.Employee = employee.Summary()
			if s.sessions != nil {
				result.Session, err = s.sessions.Issue(result.Employee)
			}
		case next.Locked:
			logger.InfoContext(ctx, "employee locked after repeated wrong codes")
			err = &BlockedError{Token: next.UnlockToken, NewlyLocked: true}
		default:
			err = &InvalidCodeError{Attempt: next.FailedAttempts, Max: MaxCodeAttempts}
		}
		return
	}

	err = ErrConcurrentUpdate
	return
}

// Unlock clears a lockout identified by its token and installs a new code.
func (s *AccessService) Unlock(ctx context.Context, params UnlockParams) (summary EmployeeSummary, err error) {
	if err = s.ensureConfigured(); err != nil {
		return
	}

	token := NormalizeToken(params.Token)
	newCode := strings.TrimSpace(params.NewCode)

	logger := s.loggerWith(ctx, "Unlock", "token_provided", token != "")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "unlock failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "employee unlocked", "employee_id", summary.ID)
	}()

	vErr := &ValidationError{}
	if token == "" {
		vErr.add("token", "token is required")
	}
	if newCode == "" {
		vErr.add("new_code", "new code is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var employee Employee
	employee, err = s.employees.GetEmployeeByUnlockToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrTokenNotFound
		}
		return
	}

	if !employee.Auth.Locked {
		err = ErrNotLocked
		return
	}

	var hash string
	hash, err = s.hasher.Hash(newCode)
	if err != nil {
		err = fmt.Errorf("hash access code: %w", err)
		return
	}

	err = s.employees.ResetAccessCode(ctx, employee.ID, token, hash, s.now())
	if err != nil {
		if errors.Is(err, ErrConflict) {
			err = ErrTokenNotFound
		}
		return
	}

	summary = employee.Summary()
	return
}

// RegisterEmployee validates the profile and stores a new ACTIVE employee.
func (s *AccessService) RegisterEmployee(ctx context.Context, params RegisterEmployeeParams) (employee Employee, err error) {
	if err = s.ensureConfigured(); err != nil {
		return
	}

	profile := normalizeProfile(params.Profile)
	code := strings.TrimSpace(params.Code)

	logger := s.loggerWith(ctx, "RegisterEmployee", "badge", profile.Badge)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "employee registration failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "employee registered", "employee_id", employee.ID)
	}()

	if vErr := validateRegistration(profile, code); vErr.HasErrors() {
		err = vErr
		return
	}

	var hash string
	hash, err = s.hasher.Hash(code)
	if err != nil {
		err = fmt.Errorf("hash access code: %w", err)
		return
	}

	now := s.now()
	employee, err = s.employees.CreateEmployee(ctx, Employee{
		Badge:      profile.Badge,
		Name:       profile.Name,
		Role:       profile.Role,
		Supervisor: profile.Supervisor,
		Shift:      profile.Shift,
		Phone:      profile.Phone,
		BirthDate:  profile.BirthDate,
		CodeHash:   hash,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if errors.Is(err, ErrAlreadyExists) {
		err = ErrDuplicateBadge
	}
	return
}

// ListEmployees returns every employee ordered by name.
func (s *AccessService) ListEmployees(ctx context.Context) (employees []Employee, err error) {
	if err = s.ensureConfigured(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "ListEmployees")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "listing employees failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "employees listed", "count", len(employees))
	}()

	employees, err = s.employees.ListEmployees(ctx)
	return
}

func normalizeProfile(profile EmployeeProfile) EmployeeProfile {
	return EmployeeProfile{
		Name:       strings.TrimSpace(profile.Name),
		Badge:      strings.TrimSpace(profile.Badge),
		BirthDate:  strings.TrimSpace(profile.BirthDate),
		Role:       strings.TrimSpace(profile.Role),
		Supervisor: strings.TrimSpace(profile.Supervisor),
		Shift:      strings.TrimSpace(profile.Shift),
		Phone:      strings.TrimSpace(profile.Phone),
	}
}

func validateRegistration(profile EmployeeProfile, code string) *ValidationError {
	vErr := &ValidationError{}

	required := []struct {
		field string
		value string
	}{
		{"name", profile.Name},
		{"badge", profile.Badge},
		{"code", code},
		{"birth_date", profile.BirthDate},
		{"role", profile.Role},
		{"supervisor", profile.Supervisor},
		{"shift", profile.Shift},
		{"phone", profile.Phone},
	}
	for _, r := range required {
		if r.value == "" {
			vErr.add(r.field, strings.ReplaceAll(r.field, "_", " ")+" is required")
		}
	}

	if profile.BirthDate != "" {
		if _, err := time.Parse(BirthDateLayout, profile.BirthDate); err != nil {
			vErr.add("birth_date", "birth date must use YYYY-MM-DD")
		}
	}

	return vErr
}
