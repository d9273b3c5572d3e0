package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/hourbank/internal/adapters"
	"github.com/example/hourbank/internal/application"
	"github.com/example/hourbank/internal/persistence/memory"
	"github.com/example/hourbank/internal/testfixtures"
)

type backend struct {
	name      string
	employees application.EmployeeStore
	ledger    application.LedgerStore
}

func backends(t *testing.T) []backend {
	t.Helper()

	storage := memory.New()
	harness := testfixtures.NewSQLiteHarness(t)

	return []backend{
		{
			name:      "memory",
			employees: adapters.NewEmployeeStore(storage),
			ledger:    adapters.NewLedgerStore(storage),
		},
		{
			name:      "sqlite",
			employees: harness.EmployeeStore(),
			ledger:    harness.LedgerStore(),
		},
	}
}

func TestScenario_LockoutAndUnlock(t *testing.T) {
	for _, b := range backends(t) {
		b := b
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			factory := testfixtures.NewServiceFactory(testfixtures.WithTokens(testfixtures.NewTokenSequence("A1B2C3D4")))
			access := factory.NewAccessService(testfixtures.AccessServiceDeps{Employees: b.employees})

			ana := testfixtures.NewEmployeeFixture(
				testfixtures.WithEmployeeName("Ana"),
				testfixtures.WithEmployeeBadge("100"),
				testfixtures.WithEmployeeCode("1111"),
			)
			registered, err := access.RegisterEmployee(ctx, ana.Params())
			require.NoError(t, err)

			summary, err := access.ResolveByBadge(ctx, "100")
			require.NoError(t, err)
			require.Equal(t, registered.ID, summary.ID)
			require.Equal(t, "Ana", summary.Name)

			var invalid *application.InvalidCodeError
			_, err = access.VerifyCode(ctx, registered.ID, "0000")
			require.ErrorAs(t, err, &invalid)
			require.Equal(t, 1, invalid.Attempt)

			_, err = access.VerifyCode(ctx, registered.ID, "0000")
			require.ErrorAs(t, err, &invalid)
			require.Equal(t, 2, invalid.Attempt)

			var blocked *application.BlockedError
			_, err = access.VerifyCode(ctx, registered.ID, "0000")
			require.ErrorAs(t, err, &blocked)
			require.Equal(t, "A1B2C3D4", blocked.Token)

			_, err = access.VerifyCode(ctx, registered.ID, "1111")
			require.ErrorAs(t, err, &blocked)
			require.Equal(t, "A1B2C3D4", blocked.Token)

			stored, err := b.employees.GetEmployee(ctx, registered.ID)
			require.NoError(t, err)
			require.Equal(t, application.AuthState{FailedAttempts: 3, Locked: true, UnlockToken: "A1B2C3D4"}, stored.Auth)

			_, err = access.Unlock(ctx, application.UnlockParams{Token: "ffffffff", NewCode: "2222"})
			require.ErrorIs(t, err, application.ErrTokenNotFound)

			unlocked, err := access.Unlock(ctx, application.UnlockParams{Token: "a1b2c3d4", NewCode: "2222"})
			require.NoError(t, err)
			require.Equal(t, registered.ID, unlocked.ID)

			_, err = access.VerifyCode(ctx, registered.ID, "1111")
			require.ErrorIs(t, err, application.ErrInvalidCode)

			result, err := access.VerifyCode(ctx, registered.ID, "2222")
			require.NoError(t, err)
			require.NotEmpty(t, result.Session.Token)

			id, err := factory.Sessions.Validate(result.Session.Token)
			require.NoError(t, err)
			require.Equal(t, registered.ID, id)

			stored, err = b.employees.GetEmployee(ctx, registered.ID)
			require.NoError(t, err)
			require.Equal(t, application.AuthState{}, stored.Auth)

			_, err = access.Unlock(ctx, application.UnlockParams{Token: "A1B2C3D4", NewCode: "3333"})
			require.ErrorIs(t, err, application.ErrTokenNotFound)
		})
	}
}

func TestScenario_RegistrationRules(t *testing.T) {
	for _, b := range backends(t) {
		b := b
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			access := testfixtures.NewServiceFactory().NewAccessService(testfixtures.AccessServiceDeps{Employees: b.employees})

			first := testfixtures.NewEmployeeFixture(testfixtures.WithEmployeeName("Zeca"))
			_, err := access.RegisterEmployee(ctx, first.Params())
			require.NoError(t, err)

			dup := testfixtures.NewEmployeeFixture(testfixtures.WithEmployeeBadge(first.Badge))
			_, err = access.RegisterEmployee(ctx, dup.Params())
			require.ErrorIs(t, err, application.ErrDuplicateBadge)

			second := testfixtures.NewEmployeeFixture(testfixtures.WithEmployeeName("Bia"))
			_, err = access.RegisterEmployee(ctx, second.Params())
			require.NoError(t, err)

			employees, err := access.ListEmployees(ctx)
			require.NoError(t, err)
			require.Len(t, employees, 2)
			require.Equal(t, "Bia", employees[0].Name)
			require.Equal(t, "Zeca", employees[1].Name)
			require.NotEqual(t, first.Code, employees[1].CodeHash)

			_, err = access.ResolveByBadge(ctx, "does-not-exist")
			require.ErrorIs(t, err, application.ErrNotFound)

			upper := testfixtures.NewEmployeeFixture(testfixtures.WithEmployeeBadge("AB10"), testfixtures.WithEmployeeName("Caio"))
			_, err = access.RegisterEmployee(ctx, upper.Params())
			require.NoError(t, err)

			lower := testfixtures.NewEmployeeFixture(testfixtures.WithEmployeeBadge("ab10"), testfixtures.WithEmployeeName("Davi"))
			registered, err := access.RegisterEmployee(ctx, lower.Params())
			require.NoError(t, err)

			resolved, err := access.ResolveByBadge(ctx, "ab10")
			require.NoError(t, err)
			require.Equal(t, registered.ID, resolved.ID)
		})
	}
}

func TestScenario_LedgerBalance(t *testing.T) {
	for _, b := range backends(t) {
		b := b
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			clock := testfixtures.NewTickingClock(time.Time{}, time.Second)
			factory := testfixtures.NewServiceFactory(testfixtures.WithClock(clock))
			access := factory.NewAccessService(testfixtures.AccessServiceDeps{Employees: b.employees})
			ledger := factory.NewLedgerService(testfixtures.LedgerServiceDeps{Entries: b.ledger, Employees: b.employees})

			employee, err := access.RegisterEmployee(ctx, testfixtures.NewEmployeeFixture(testfixtures.WithEmployeeName("Ana")).Params())
			require.NoError(t, err)

			statement, err := ledger.Statement(ctx, employee.ID)
			require.NoError(t, err)
			require.Zero(t, statement.Balance)
			require.Empty(t, statement.History)

			for _, hours := range []int64{8, 8, -3} {
				_, err := ledger.PostEntry(ctx, application.PostEntryParams{EmployeeID: employee.ID, Hours: hours, Reason: "ajuste"})
				require.NoError(t, err)
			}

			balance, err := ledger.GetBalance(ctx, employee.ID)
			require.NoError(t, err)
			require.EqualValues(t, 13, balance)

			history, err := ledger.GetHistory(ctx, employee.ID)
			require.NoError(t, err)
			require.Len(t, history, 3)
			require.EqualValues(t, -3, history[0].Hours)
			require.EqualValues(t, 8, history[2].Hours)
			require.True(t, history[0].CreatedAt.After(history[2].CreatedAt))
			require.Equal(t, application.DefaultEntryCreator, history[0].CreatedBy)

			all, err := ledger.GetAllHistoryWithNames(ctx)
			require.NoError(t, err)
			require.Len(t, all, 3)
			require.Equal(t, "Ana", all[0].EmployeeName)

			_, err = ledger.PostEntry(ctx, application.PostEntryParams{EmployeeID: employee.ID + 100, Hours: 1})
			require.ErrorIs(t, err, application.ErrNotFound)

			_, err = ledger.Statement(ctx, employee.ID+100)
			require.ErrorIs(t, err, application.ErrNotFound)

			balance, err = ledger.GetBalance(ctx, employee.ID+100)
			require.NoError(t, err)
			require.Zero(t, balance)
		})
	}
}

func TestScenario_ConcurrentWrongCodesIssueOneToken(t *testing.T) {
	const workers = 12

	for _, b := range backends(t) {
		b := b
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			tokens := testfixtures.NewTokenSequence()
			factory := testfixtures.NewServiceFactory(testfixtures.WithTokens(tokens))
			access := factory.NewAccessService(testfixtures.AccessServiceDeps{Employees: b.employees})

			employee, err := access.RegisterEmployee(ctx, testfixtures.NewEmployeeFixture().Params())
			require.NoError(t, err)

			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				invalid []int
				blocked = map[string]int{}
				others  []error
			)

			start := make(chan struct{})
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					_, err := access.VerifyCode(ctx, employee.ID, "wrong")

					mu.Lock()
					defer mu.Unlock()
					var invalidErr *application.InvalidCodeError
					var blockedErr *application.BlockedError
					switch {
					case errors.As(err, &invalidErr):
						invalid = append(invalid, invalidErr.Attempt)
					case errors.As(err, &blockedErr):
						blocked[blockedErr.Token]++
					default:
						others = append(others, err)
					}
				}()
			}
			close(start)
			wg.Wait()

			require.Empty(t, others)
			require.ElementsMatch(t, []int{1, 2}, invalid)
			require.Len(t, blocked, 1)

			stored, err := b.employees.GetEmployee(ctx, employee.ID)
			require.NoError(t, err)
			require.True(t, stored.Auth.Locked)
			require.Equal(t, application.MaxCodeAttempts, stored.Auth.FailedAttempts)
			require.Contains(t, blocked, stored.Auth.UnlockToken)
			require.Equal(t, workers-2, blocked[stored.Auth.UnlockToken])
		})
	}
}
