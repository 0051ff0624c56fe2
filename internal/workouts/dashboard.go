package workouts

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/2beens/fitlog/internal/telemetry/tracing"
)

//go:generate mockgen -source=$GOFILE -destination=dashboard_mocks_test.go -package=workouts_test

const trendDays = 7

// RecordSource lists the workouts of a user logged in [start, end).
type RecordSource interface {
	ListByUserAndRange(ctx context.Context, userID int, start, end time.Time) ([]Workout, error)
}

type PieChartEntry struct {
	ID    int     `json:"id"`
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

type WeeklyCalories struct {
	Weeks          []string  `json:"weeks"`
	CaloriesBurned []float64 `json:"caloriesBurned"`
}

// Summary is computed on every dashboard request and never stored.
type Summary struct {
	TotalCaloriesBurnt         float64         `json:"totalCaloriesBurnt"`
	TotalWorkouts              int             `json:"totalWorkouts"`
	AvgCaloriesBurntPerWorkout float64         `json:"avgCaloriesBurntPerWorkout"`
	TotalWeeksCaloriesBurnt    WeeklyCalories  `json:"totalWeeksCaloriesBurnt"`
	PieChartData               []PieChartEntry `json:"pieChartData"`
}

type DayWorkouts struct {
	TodaysWorkouts     []Workout `json:"todaysWorkouts"`
	TotalCaloriesBurnt float64   `json:"totalCaloriesBurnt"`
}

// AggregationError fails a whole summary when the workouts of one day could not be read.
type AggregationError struct {
	Day time.Time
	Err error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregate workouts of %s: %s", e.Day.Format(time.DateOnly), e.Err)
}

func (e *AggregationError) Unwrap() error {
	return e.Err
}

type Aggregator struct {
	source RecordSource
}

func NewAggregator(source RecordSource) *Aggregator {
	return &Aggregator{
		source: source,
	}
}

// Summarize computes today's totals and category split plus the calories of
// the 7 days ending with today. "Today" is the calendar day of now, in now's location.
func (a *Aggregator) Summarize(ctx context.Context, userID int, now time.Time) (_ *Summary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "aggregator.workouts.summarize")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	today, err := a.listDay(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	trend, err := a.weeklyTrend(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	total := totalCalories(today)
	avg := 0.0
	if len(today) > 0 {
		avg = total / float64(len(today))
	}

	return &Summary{
		TotalCaloriesBurnt:         total,
		TotalWorkouts:              len(today),
		AvgCaloriesBurntPerWorkout: avg,
		TotalWeeksCaloriesBurnt:    trend,
		PieChartData:               categoryBreakdown(today),
	}, nil
}

// DayWorkouts returns the workouts logged on the calendar day of day, with their calories total.
func (a *Aggregator) DayWorkouts(ctx context.Context, userID int, day time.Time) (_ *DayWorkouts, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "aggregator.workouts.day")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))
	span.SetAttributes(attribute.String("day", day.Format(time.DateOnly)))

	records, err := a.listDay(ctx, userID, day)
	if err != nil {
		return nil, err
	}

	if records == nil {
		records = make([]Workout, 0)
	}

	return &DayWorkouts{
		TodaysWorkouts:     records,
		TotalCaloriesBurnt: totalCalories(records),
	}, nil
}

// weeklyTrend reads the 7 days concurrently; sums land at their day's index,
// so the result is oldest to newest whatever order the queries finish in.
func (a *Aggregator) weeklyTrend(ctx context.Context, userID int, now time.Time) (WeeklyCalories, error) {
	trend := WeeklyCalories{
		Weeks:          make([]string, trendDays),
		CaloriesBurned: make([]float64, trendDays),
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < trendDays; i++ {
		day := now.AddDate(0, 0, i-(trendDays-1))
		trend.Weeks[i] = DayLabel(day)
		g.Go(func() error {
			records, err := a.listDay(gctx, userID, day)
			if err != nil {
				return err
			}
			trend.CaloriesBurned[i] = totalCalories(records)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return WeeklyCalories{}, err
	}

	return trend, nil
}

func (a *Aggregator) listDay(ctx context.Context, userID int, day time.Time) ([]Workout, error) {
	start, end := dayWindow(day)
	records, err := a.source.ListByUserAndRange(ctx, userID, start, end)
	if err != nil {
		return nil, &AggregationError{Day: start, Err: err}
	}
	return records, nil
}

// DayLabel is the day of month with a "th" suffix, whatever the number ("1th", "22th").
// Clients render it as is.
func DayLabel(day time.Time) string {
	return fmt.Sprintf("%dth", day.Day())
}

func totalCalories(records []Workout) float64 {
	total := 0.0
	for _, w := range records {
		total += w.CaloriesBurned
	}
	return total
}

// categoryBreakdown sums calories per category, categories in first-seen order.
func categoryBreakdown(records []Workout) []PieChartEntry {
	entries := make([]PieChartEntry, 0)
	category2index := make(map[string]int)
	for _, w := range records {
		idx, ok := category2index[w.Category]
		if !ok {
			idx = len(entries)
			category2index[w.Category] = idx
			entries = append(entries, PieChartEntry{
				ID:    idx,
				Label: w.Category,
			})
		}
		entries[idx].Value += w.CaloriesBurned
	}
	return entries
}
