package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/pkordes/tripplanner/internal/domain"
)

// ActivityRepo defines the persistence operations for activity rows.
// Activities are keyed by their own id; the store links them to a trip by
// trip_id and to a day only by day_number.
type ActivityRepo interface {
	// Create inserts a new activity and returns the persisted record.
	Create(ctx context.Context, activity domain.ActivityRecord) (domain.ActivityRecord, error)

	// ListByTripIDs returns every activity belonging to any of tripIDs,
	// ordered by day_number then order_index. An empty tripIDs yields an
	// empty result without touching the store.
	ListByTripIDs(ctx context.Context, tripIDs []string) ([]domain.ActivityRecord, error)

	// Update overwrites the mutable fields of an activity and returns the
	// updated record. Returns domain.ErrNotFound if no activity has that ID.
	Update(ctx context.Context, activity domain.ActivityRecord) (domain.ActivityRecord, error)

	// Delete removes an activity by ID.
	// Returns domain.ErrNotFound if no activity has that ID.
	Delete(ctx context.Context, activityID string) error
}

// pgActivityRepo is the Postgres implementation of ActivityRepo.
type pgActivityRepo struct {
	db db
}

// NewActivityRepo constructs an ActivityRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewActivityRepo(db db) ActivityRepo {
	return &pgActivityRepo{db: db}
}

const activityColumns = `id, trip_id, name, location, day_number, start_time, duration,
		estimated_cost, notes, order_index, created_at, updated_at`

// Create inserts a new activity row and returns the full persisted record.
func (r *pgActivityRepo) Create(ctx context.Context, a domain.ActivityRecord) (domain.ActivityRecord, error) {
	tripID, err := parseID(a.TripID)
	if err != nil {
		return domain.ActivityRecord{}, fmt.Errorf("repo.ActivityRepo.Create: trip_id: %w", err)
	}

	const q = `
		INSERT INTO activities (trip_id, name, location, day_number, start_time, duration,
		                        estimated_cost, notes, order_index)
		VALUES (@trip_id, @name, @location, @day_number, @start_time, @duration,
		        @estimated_cost, @notes, @order_index)
		RETURNING ` + activityColumns

	args := activityArgs(a)
	args["trip_id"] = tripID
	args["day_number"] = a.DayNumber
	args["order_index"] = a.OrderIndex

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanActivity(row)
	if err != nil {
		return domain.ActivityRecord{}, fmt.Errorf("repo.ActivityRepo.Create: %w", err)
	}
	return result, nil
}

// ListByTripIDs returns the activities of all given trips in display order.
func (r *pgActivityRepo) ListByTripIDs(ctx context.Context, tripIDs []string) ([]domain.ActivityRecord, error) {
	activities := []domain.ActivityRecord{}
	if len(tripIDs) == 0 {
		return activities, nil
	}

	ids := make([]uuid.UUID, 0, len(tripIDs))
	for _, id := range tripIDs {
		u, err := parseID(id)
		if err != nil {
			return nil, fmt.Errorf("repo.ActivityRepo.ListByTripIDs: %w", err)
		}
		ids = append(ids, u)
	}

	const q = `
		SELECT ` + activityColumns + `
		FROM activities
		WHERE trip_id = ANY(@trip_ids)
		ORDER BY day_number ASC, order_index ASC NULLS LAST, created_at ASC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_ids": ids})
	if err != nil {
		return nil, fmt.Errorf("repo.ActivityRepo.ListByTripIDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ActivityRepo.ListByTripIDs: scan: %w", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ActivityRepo.ListByTripIDs: rows: %w", err)
	}
	return activities, nil
}

// Update overwrites the mutable fields of an activity. day_number and
// order_index are placement, not content, and are left as they are.
func (r *pgActivityRepo) Update(ctx context.Context, a domain.ActivityRecord) (domain.ActivityRecord, error) {
	id, err := parseID(a.ID)
	if err != nil {
		return domain.ActivityRecord{}, fmt.Errorf("repo.ActivityRepo.Update: %w", err)
	}

	const q = `
		UPDATE activities
		SET name           = @name,
		    location       = @location,
		    start_time     = @start_time,
		    duration       = @duration,
		    estimated_cost = @estimated_cost,
		    notes          = @notes,
		    updated_at     = now()
		WHERE id = @id
		RETURNING ` + activityColumns

	args := activityArgs(a)
	args["id"] = id

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanActivity(row)
	if err != nil {
		return domain.ActivityRecord{}, fmt.Errorf("repo.ActivityRepo.Update: %w", err)
	}
	return result, nil
}

// Delete removes an activity by primary key.
func (r *pgActivityRepo) Delete(ctx context.Context, activityID string) error {
	id, err := parseID(activityID)
	if err != nil {
		return fmt.Errorf("repo.ActivityRepo.Delete: %w", err)
	}

	const q = `DELETE FROM activities WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.ActivityRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ActivityRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// activityArgs returns the named args for the mutable activity columns.
func activityArgs(a domain.ActivityRecord) pgx.NamedArgs {
	return pgx.NamedArgs{
		"name":           a.Name,
		"location":       a.Location,
		"start_time":     a.StartTime,
		"duration":       a.Duration,
		"estimated_cost": a.EstimatedCost,
		"notes":          a.Notes,
	}
}

// scanActivity maps a single database row into a domain.ActivityRecord.
// NULL columns become zero values.
func scanActivity(s scanner) (domain.ActivityRecord, error) {
	var (
		a         domain.ActivityRecord
		id        pgtype.UUID
		tripID    pgtype.UUID
		location  *string
		startTime *string
		duration  *int32
		cost      decimal.NullDecimal
		notes     *string
		order     *int32
		created   pgtype.Timestamptz
		updated   pgtype.Timestamptz
	)

	err := s.Scan(&id, &tripID, &a.Name, &location, &a.DayNumber, &startTime, &duration,
		&cost, &notes, &order, &created, &updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ActivityRecord{}, domain.ErrNotFound
		}
		return domain.ActivityRecord{}, err
	}

	a.ID = uuid.UUID(id.Bytes).String()
	a.TripID = uuid.UUID(tripID.Bytes).String()
	if location != nil {
		a.Location = *location
	}
	if startTime != nil {
		a.StartTime = *startTime
	}
	if duration != nil {
		a.Duration = int(*duration)
	}
	if cost.Valid {
		a.EstimatedCost = cost.Decimal
	}
	if notes != nil {
		a.Notes = *notes
	}
	if order != nil {
		a.OrderIndex = int(*order)
	}
	a.CreatedAt = created.Time
	a.UpdatedAt = updated.Time

	return a, nil
}
