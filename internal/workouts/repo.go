package workouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/fitlog/internal/telemetry/tracing"
	"github.com/2beens/fitlog/pkg"
)

var _ RecordSource = (*Repo)(nil)
var _ workoutsRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// InsertMany inserts the workouts in one batch. A workout clashing with one
// already logged that day (same user, category and name) does not abort the
// batch, its result carries ErrDuplicateWorkout instead.
func (r *Repo) InsertMany(ctx context.Context, workouts []Workout) (_ []InsertResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.insertmany")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workouts.count", len(workouts)))

	if len(workouts) == 0 {
		return []InsertResult{}, nil
	}

	now := time.Now()
	batch := &pgx.Batch{}
	for i := range workouts {
		w := &workouts[i]
		if w.Date.IsZero() {
			w.Date = now
		}
		w.CreatedAt = now
		batch.Queue(
			`INSERT INTO workout
				(user_id, category, workout_name, sets, reps, weight, duration, calories_burned, logged_at, logged_on, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT DO NOTHING
			RETURNING id;`,
			w.UserID, w.Category, w.WorkoutName, w.Sets, w.Reps, w.Weight, w.Duration,
			w.CaloriesBurned, w.Date, StartOfDay(w.Date), w.CreatedAt,
		)
	}

	br := r.db.SendBatch(ctx, batch)
	defer func() {
		if closeErr := br.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close batch: %w", closeErr)
		}
	}()

	results := make([]InsertResult, 0, len(workouts))
	duplicates := 0
	for _, w := range workouts {
		var id int
		scanErr := br.QueryRow().Scan(&id)
		switch {
		case scanErr == nil:
			w.ID = id
			results = append(results, InsertResult{Workout: w})
		case errors.Is(scanErr, pgx.ErrNoRows), pkg.IsUniqueViolationError(scanErr):
			duplicates++
			results = append(results, InsertResult{Workout: w, Err: ErrDuplicateWorkout})
		default:
			return nil, fmt.Errorf("insert workout [%s] [%s]: %w", w.Category, w.WorkoutName, scanErr)
		}
	}

	span.SetAttributes(attribute.Int("workouts.duplicates", duplicates))

	return results, nil
}

// ListByUserAndRange returns the user's workouts logged in [start, end), oldest first.
func (r *Repo) ListByUserAndRange(ctx context.Context, userID int, start, end time.Time) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.listbyuserandrange")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))
	span.SetAttributes(attribute.String("start", start.String()))
	span.SetAttributes(attribute.String("end", end.String()))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				id, user_id, category, workout_name, sets, reps, weight, duration, calories_burned, logged_at, created_at
			FROM workout
			WHERE user_id = $1
				AND logged_at >= $2
				AND logged_at < $3
			ORDER BY logged_at, id;`,
		userID, start, end,
	)
	if err != nil {
		return nil, sourceError("query", err)
	}
	defer rows.Close()

	workouts, err := r.rows2workouts(rows)
	if err != nil {
		return nil, sourceError("rows2workouts", err)
	}

	return workouts, nil
}

// sourceError marks failures where postgres could not be reached with
// ErrSourceUnavailable. Errors postgres itself raised are returned as they are.
func sourceError(op string, err error) error {
	if pkg.IsConnectivityError(err) {
		return fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *Repo) rows2workouts(rows pgx.Rows) ([]Workout, error) {
	workouts := make([]Workout, 0)
	for rows.Next() {
		var w Workout
		if err := rows.Scan(
			&w.ID, &w.UserID, &w.Category, &w.WorkoutName, &w.Sets, &w.Reps,
			&w.Weight, &w.Duration, &w.CaloriesBurned, &w.Date, &w.CreatedAt,
		); err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return workouts, nil
}
