// Package testutil provides shared helpers for integration tests against the
// trip store. Helpers that need a database skip the calling test when
// TEST_DATABASE_URL is not set, so unit tests run without Postgres.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/shopspring/decimal"
)

// NewTx opens a transaction on the test database and rolls it back when the
// test finishes. Seed rows and repo writes made through it never outlive the test.
func NewTx(t *testing.T) pgx.Tx {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), requireDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewTx: open pool: %v", err)
	}
	t.Cleanup(pool.Close)

	tx, err := pool.Begin(context.Background())
	if err != nil {
		t.Fatalf("testutil.NewTx: begin: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })
	return tx
}

// NewSQLDB opens a *sql.DB on the test database through the pgx
// database/sql driver, for goose. Closed when the test finishes.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", requireDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewSQLDB: open: %v", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		t.Fatalf("testutil.NewSQLDB: ping: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// MustOpenSQLDB is NewSQLDB for TestMain, where there is no *testing.T.
// The caller closes the returned *sql.DB.
func MustOpenSQLDB(dsn string) *sql.DB {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		panic("testutil.MustOpenSQLDB: open: " + err.Error())
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		panic("testutil.MustOpenSQLDB: ping: " + err.Error())
	}
	return db
}

// NewUserID returns a fresh trip owner id. The store has no users table;
// trips carry the identity provider's user id as a bare UUID.
func NewUserID() string {
	return uuid.NewString()
}

// Querier is satisfied by pgx.Tx, *pgx.Conn and *pgxpool.Pool.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TripRow is a trips row to seed. Zero fields take the defaults of a three
// day Tokyo trip owned by a new user and created now.
type TripRow struct {
	UserID      string
	Name        string
	Destination string
	StartDate   time.Time
	EndDate     time.Time
	Budget      decimal.Decimal
	CreatedAt   time.Time
}

// InsertTrip writes a trip row with plain SQL, bypassing the repos, and
// returns its id and owner.
func InsertTrip(t *testing.T, q Querier, row TripRow) (id, userID string) {
	t.Helper()

	if row.UserID == "" {
		row.UserID = NewUserID()
	}
	if row.Name == "" {
		row.Name = "Tokyo Week"
	}
	if row.Destination == "" {
		row.Destination = "Tokyo, Japan"
	}
	if row.StartDate.IsZero() {
		row.StartDate = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	}
	if row.EndDate.IsZero() {
		row.EndDate = row.StartDate.AddDate(0, 0, 2)
	}

	const sqlInsert = `
		INSERT INTO trips (user_id, name, destination, start_date, end_date, budget, created_at)
		VALUES (@user_id, @name, @destination, @start_date, @end_date, @budget,
		        COALESCE(@created_at, now()))
		RETURNING id::text`

	err := q.QueryRow(context.Background(), sqlInsert, pgx.NamedArgs{
		"user_id":     uuid.MustParse(row.UserID),
		"name":        row.Name,
		"destination": row.Destination,
		"start_date":  pgtype.Date{Time: row.StartDate, Valid: true},
		"end_date":    pgtype.Date{Time: row.EndDate, Valid: true},
		"budget":      row.Budget,
		"created_at":  pgtype.Timestamptz{Time: row.CreatedAt, Valid: !row.CreatedAt.IsZero()},
	}).Scan(&id)
	if err != nil {
		t.Fatalf("testutil.InsertTrip: %v", err)
	}
	return id, row.UserID
}

// ActivityRow is an activities row to seed. DayNumber defaults to 1.
type ActivityRow struct {
	TripID     string
	Name       string
	DayNumber  int
	OrderIndex int
	Cost       decimal.Decimal
}

// InsertActivity writes an activity row with plain SQL and returns its id.
func InsertActivity(t *testing.T, q Querier, row ActivityRow) string {
	t.Helper()

	if row.Name == "" {
		row.Name = "Senso-ji"
	}
	if row.DayNumber == 0 {
		row.DayNumber = 1
	}

	const sqlInsert = `
		INSERT INTO activities (trip_id, name, day_number, order_index, estimated_cost)
		VALUES (@trip_id, @name, @day_number, @order_index, @cost)
		RETURNING id::text`

	var id string
	err := q.QueryRow(context.Background(), sqlInsert, pgx.NamedArgs{
		"trip_id":     uuid.MustParse(row.TripID),
		"name":        row.Name,
		"day_number":  row.DayNumber,
		"order_index": row.OrderIndex,
		"cost":        row.Cost,
	}).Scan(&id)
	if err != nil {
		t.Fatalf("testutil.InsertActivity: %v", err)
	}
	return id
}

// requireDSN returns TEST_DATABASE_URL, skipping the test if it is not set.
func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test")
	}
	return dsn
}
