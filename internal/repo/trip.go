// Package repo contains all access to the remote trip store.
// Each table has its own file with an interface and a Postgres implementation.
// No business logic lives here; only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/pkordes/tripplanner/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TripRepo defines the persistence operations for trip rows.
// Every read and delete is scoped to the owning user.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record (with
	// store-generated id, created_at, and updated_at populated).
	Create(ctx context.Context, trip domain.TripRecord) (domain.TripRecord, error)

	// ListByUser returns every trip owned by userID, newest created first.
	ListByUser(ctx context.Context, userID string) ([]domain.TripRecord, error)

	// Delete removes a trip by ID, but only if it is owned by userID.
	// Returns domain.ErrNotFound if no such trip exists for that user.
	Delete(ctx context.Context, tripID, userID string) error
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, user_id, name, destination, start_date, end_date, budget, notes, created_at, updated_at`

// Create inserts a new trip row and returns the full persisted record.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.TripRecord) (domain.TripRecord, error) {
	userID, err := parseID(trip.UserID)
	if err != nil {
		return domain.TripRecord{}, fmt.Errorf("repo.TripRepo.Create: user_id: %w", err)
	}

	const q = `
		INSERT INTO trips (user_id, name, destination, start_date, end_date, budget, notes)
		VALUES (@user_id, @name, @destination, @start_date, @end_date, @budget, @notes)
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"user_id":     userID,
		"name":        trip.Name,
		"destination": trip.Destination,
		"start_date":  pgtype.Date{Time: trip.StartDate, Valid: true},
		"end_date":    pgtype.Date{Time: trip.EndDate, Valid: true},
		"budget":      trip.Budget,
		"notes":       trip.Notes,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		return domain.TripRecord{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

// ListByUser returns the user's trips ordered by created_at descending.
func (r *pgTripRepo) ListByUser(ctx context.Context, userID string) ([]domain.TripRecord, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListByUser: %w", err)
	}

	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE user_id = @user_id
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": uid})
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListByUser: %w", err)
	}
	defer rows.Close()

	trips := []domain.TripRecord{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TripRepo.ListByUser: scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListByUser: rows: %w", err)
	}

	return trips, nil
}

// Delete removes a trip by primary key AND owner. Activities go with it via
// ON DELETE CASCADE.
func (r *pgTripRepo) Delete(ctx context.Context, tripID, userID string) error {
	tid, err := parseID(tripID)
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	uid, err := parseID(userID)
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}

	const q = `DELETE FROM trips WHERE id = @id AND user_id = @user_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": tid, "user_id": uid})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan helpers
// to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanTrip maps a single database row into a domain.TripRecord.
// It handles the UUID, date, and nullable budget/notes conversions. Money is
// scanned as exact decimal text, never through float64.
func scanTrip(s scanner) (domain.TripRecord, error) {
	var (
		t       domain.TripRecord
		id      pgtype.UUID
		userID  pgtype.UUID
		start   pgtype.Date
		end     pgtype.Date
		budget  decimal.NullDecimal
		notes   *string
		created pgtype.Timestamptz
		updated pgtype.Timestamptz
	)

	err := s.Scan(&id, &userID, &t.Name, &t.Destination, &start, &end, &budget, &notes, &created, &updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TripRecord{}, domain.ErrNotFound
		}
		return domain.TripRecord{}, err
	}

	t.ID = uuid.UUID(id.Bytes).String()
	t.UserID = uuid.UUID(userID.Bytes).String()
	t.StartDate = start.Time
	t.EndDate = end.Time
	if budget.Valid {
		t.Budget = budget.Decimal
	}
	if notes != nil {
		t.Notes = *notes
	}
	t.CreatedAt = created.Time
	t.UpdatedAt = updated.Time

	return t, nil
}

// parseID validates a store identifier. Locally generated placeholder IDs are
// not UUIDs and can never match a row, so they map to domain.ErrNotFound.
func parseID(id string) (uuid.UUID, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("%w: malformed id %q", domain.ErrNotFound, id)
	}
	return u, nil
}
