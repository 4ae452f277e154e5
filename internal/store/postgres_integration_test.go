//go:build integration

package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/earnings-navigator/backend/internal/config"
	"github.com/earnings-navigator/backend/internal/db"
	"github.com/earnings-navigator/backend/internal/models"
	"github.com/earnings-navigator/backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newPostgresStore starts a throwaway PostgreSQL container and bootstraps the schema in it
func newPostgresStore(t *testing.T) *store.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       "earnings",
				"POSTGRES_USER":     "navigator",
				"POSTGRES_PASSWORD": "test_password",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{Env: "test"},
		DB: config.DBConfig{
			URL:          fmt.Sprintf("postgres://navigator:test_password@%s:%s/earnings?sslmode=disable", host, port.Port()),
			PoolRecycle:  300 * time.Second,
			PrePing:      true,
			MaxOpenConns: 5,
			MaxIdleConns: 2,
		},
	}
	gdb, err := db.Connect(cfg)
	require.NoError(t, err)

	s := store.New(gdb, store.WithPrePing(true))
	require.NoError(t, s.Init(ctx))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPostgres_Constraints(t *testing.T) {
	s := newPostgresStore(t)
	ctx := context.Background()

	company := createCompany(t, s, "AAPL")
	call := createCall(t, s, company.ID, 2024, 2)

	err := s.Do(ctx, func(uow *store.UnitOfWork) error {
		return uow.Companies.Create(&models.Company{Name: "Apple again", Ticker: "AAPL"})
	})
	assert.ErrorIs(t, err, store.ErrUniqueViolation)

	err = s.Do(ctx, func(uow *store.UnitOfWork) error {
		return uow.Calls.Create(&models.EarningsCall{
			CompanyID: 9999, FiscalYear: 2024, FiscalQuarter: 1, CallDate: time.Now(),
		})
	})
	assert.ErrorIs(t, err, store.ErrForeignKeyViolation)

	require.NoError(t, s.Do(ctx, func(uow *store.UnitOfWork) error {
		return uow.Analyses.Create(&models.EarningsAnalysis{
			EarningsCallID: call.ID,
			KeyMetrics:     mustJSON(t, map[string]interface{}{"revenue": 1000000, "eps": 1.23}),
		})
	}))
	err = s.Do(ctx, func(uow *store.UnitOfWork) error {
		return uow.Analyses.Create(&models.EarningsAnalysis{EarningsCallID: call.ID})
	})
	assert.ErrorIs(t, err, store.ErrUniqueViolation)

	require.NoError(t, s.Do(ctx, func(uow *store.UnitOfWork) error {
		analysis, err := uow.AnalysisForCall(call.ID)
		require.NoError(t, err)
		assert.JSONEq(t, `{"revenue": 1000000, "eps": 1.23}`, string(analysis.KeyMetrics))
		return nil
	}))

	err = s.Do(ctx, func(uow *store.UnitOfWork) error {
		return uow.Companies.Delete(company.ID)
	})
	assert.ErrorIs(t, err, store.ErrForeignKeyViolation)

	require.NoError(t, s.Init(ctx))
}
