package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/hourbank/internal/application"
)

// FastArgon2idParams keep hashing cheap in tests.
var FastArgon2idParams = application.Argon2idParams{
	Memory:      64,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  8,
	KeyLength:   16,
}

// SessionSecret signs sessions issued by factory-built services.
const SessionSecret = "test-session-secret-0123456789"

// ServiceFactory assists tests with constructing application services using
// deterministic tokens, clocks and cheap hashing.
type ServiceFactory struct {
	Clock    *Clock
	Tokens   *TokenSequence
	Hasher   application.CodeHasher
	Sessions *application.SessionManager
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:  NewClock(time.Time{}),
		Tokens: NewTokenSequence(),
		Hasher: application.NewArgon2idHasher(FastArgon2idParams),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.Tokens == nil {
		factory.Tokens = NewTokenSequence()
	}
	if factory.Hasher == nil {
		factory.Hasher = application.NewArgon2idHasher(FastArgon2idParams)
	}
	if factory.Sessions == nil {
		factory.Sessions = application.NewSessionManager([]byte(SessionSecret), 15*time.Minute, factory.Clock.Current)
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithTokens overrides the unlock token source used by the factory.
func WithTokens(tokens *TokenSequence) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Tokens = tokens
	}
}

// AccessServiceDeps captures dependencies for constructing an access service.
type AccessServiceDeps struct {
	Employees application.EmployeeStore
	Tokens    application.TokenSource
	Sessions  application.SessionIssuer
	Now       func() time.Time
	Logger    *slog.Logger
}

// NewAccessService builds an access service from deps and the factory defaults.
func (f *ServiceFactory) NewAccessService(deps AccessServiceDeps) *application.AccessService {
	tokens := deps.Tokens
	if tokens == nil {
		tokens = f.Tokens
	}
	sessions := deps.Sessions
	if sessions == nil {
		sessions = f.Sessions
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewAccessServiceWithLogger(
		deps.Employees,
		f.Hasher,
		tokens,
		sessions,
		now,
		deps.Logger,
	)
}

// LedgerServiceDeps captures dependencies for constructing a ledger service.
type LedgerServiceDeps struct {
	Entries   application.LedgerStore
	Employees application.EmployeeLookup
	Now       func() time.Time
	Logger    *slog.Logger
}

// NewLedgerService builds a ledger service from deps and the factory defaults.
func (f *ServiceFactory) NewLedgerService(deps LedgerServiceDeps) *application.LedgerService {
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewLedgerServiceWithLogger(
		deps.Entries,
		deps.Employees,
		now,
		deps.Logger,
	)
}
