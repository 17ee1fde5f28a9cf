package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/laurel/internal/repositories/breakdown"
	"github.com/Ramsey-B/laurel/internal/repositories/legacybid"
	"github.com/Ramsey-B/laurel/internal/repositories/project"
	"github.com/Ramsey-B/laurel/internal/repositories/projectsub"
	"github.com/Ramsey-B/laurel/internal/repositories/snapshot"
	"github.com/Ramsey-B/laurel/internal/repositories/trade"
	"github.com/Ramsey-B/laurel/internal/repositories/tradebid"
	"github.com/Ramsey-B/laurel/internal/repositories/tradebudget"
	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/leveling"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getTestDB(t *testing.T) database.DB {
	// Use environment variables or defaults for test DB
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbUser := os.Getenv("DB_USER_NAME")
	if dbUser == "" {
		dbUser = "user"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "password"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "laurel"
	}

	dsn := "host=" + dbHost + " user=" + dbUser + " password=" + dbPass + " dbname=" + dbName + " sslmode=disable"
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")

	return database.NewDatabaseInstance(db, getTestLogger())
}

// getLegacyOnlyDB connects with a search_path pointing at a schema holding
// only the legacy tables, so statements against the enhanced tables fail
// with undefined_table the way a not-yet-migrated tenant's do.
func getLegacyOnlyDB(t *testing.T) database.DB {
	t.Helper()

	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbUser := os.Getenv("DB_USER_NAME")
	if dbUser == "" {
		dbUser = "user"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "password"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "laurel"
	}

	dsn := "host=" + dbHost + " user=" + dbUser + " password=" + dbPass + " dbname=" + dbName + " sslmode=disable search_path=laurel_legacy_only"
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")

	stmts := []string{
		`CREATE SCHEMA IF NOT EXISTS laurel_legacy_only`,
		`CREATE TABLE IF NOT EXISTS projects (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL,
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL,
			project_id UUID NOT NULL REFERENCES projects (id),
			name TEXT NOT NULL,
			sort_order INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS project_subs (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL,
			project_id UUID NOT NULL REFERENCES projects (id),
			subcontractor_id UUID NOT NULL,
			invited_at TIMESTAMPTZ,
			sort_order INT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS project_bids (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL,
			project_id UUID NOT NULL REFERENCES projects (id),
			trade_id UUID NOT NULL REFERENCES trades (id),
			project_sub_id UUID NOT NULL REFERENCES project_subs (id),
			status TEXT NOT NULL,
			amount NUMERIC,
			contact_name TEXT,
			notes TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range stmts {
		_, err = db.Exec(stmt)
		require.NoError(t, err)
	}

	return database.NewDatabaseInstance(db, getTestLogger())
}

func getTestService(db database.DB) *leveling.Service {
	logger := getTestLogger()
	return leveling.NewService(
		logger,
		project.NewRepository(db, logger),
		trade.NewRepository(db, logger),
		projectsub.NewRepository(db, logger),
		legacybid.NewRepository(db, logger),
		tradebid.NewRepository(db, logger),
		breakdown.NewRepository(db, logger),
		tradebudget.NewRepository(db, logger),
		snapshot.NewRepository(db, logger),
		nil,
	)
}

// fixture is one seeded project with a trade and sub links ready for bids
type fixture struct {
	tenantID  uuid.UUID
	projectID uuid.UUID
	tradeID   uuid.UUID
	subIDs    []uuid.UUID
}

// seedProject inserts a project, one trade and the requested number of sub
// links, all for a fresh tenant. subcontractorIDs pins sub links to specific
// subcontractors; unset positions get fresh ones.
func seedProject(t *testing.T, db database.DB, subCount int, subcontractorIDs map[int]uuid.UUID) fixture {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	f := fixture{
		tenantID:  uuid.New(),
		projectID: uuid.New(),
		tradeID:   uuid.New(),
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO projects (id, tenant_id, name, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)`,
		f.projectID, f.tenantID, "Test Project", now)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO trades (id, tenant_id, project_id, name, sort_order, created_at, updated_at) VALUES ($1, $2, $3, $4, 0, $5, $5)`,
		f.tradeID, f.tenantID, f.projectID, "Electrical", now)
	require.NoError(t, err)

	for i := 0; i < subCount; i++ {
		subcontractorID, ok := subcontractorIDs[i]
		if !ok {
			subcontractorID = uuid.New()
		}
		subID := uuid.New()
		_, err = db.ExecContext(ctx,
			`INSERT INTO project_subs (id, tenant_id, project_id, subcontractor_id, invited_at, sort_order) VALUES ($1, $2, $3, $4, $5, $6)`,
			subID, f.tenantID, f.projectID, subcontractorID, now.Add(time.Duration(i)*time.Minute), i)
		require.NoError(t, err)
		f.subIDs = append(f.subIDs, subID)
	}

	return f
}

func countRows(t *testing.T, db database.DB, query string, args ...any) int {
	t.Helper()
	var count int
	require.NoError(t, db.GetContext(context.Background(), &count, query, args...))
	return count
}

func amountPtr(v float64) *float64 {
	return &v
}

func strPtr(s string) *string {
	return &s
}
