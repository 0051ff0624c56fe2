package workouts

import (
	"errors"
	"math"
	"time"
)

const caloriesPerMinute = 5

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrSourceUnavailable = errors.New("workout source unavailable")
	ErrDuplicateWorkout  = errors.New("workout already logged")
)

// Workout is a single logged exercise. CaloriesBurned is derived from
// Duration and Weight when the workout is created and never taken from clients.
type Workout struct {
	ID             int       `json:"id"`
	UserID         int       `json:"user"`
	Category       string    `json:"category"`
	WorkoutName    string    `json:"workoutName"`
	Sets           int       `json:"sets"`
	Reps           int       `json:"reps"`
	Weight         float64   `json:"weight"`
	Duration       float64   `json:"duration"`
	CaloriesBurned float64   `json:"caloriesBurned"`
	Date           time.Time `json:"date"`
	CreatedAt      time.Time `json:"createdAt"`
}

// InsertResult carries the outcome of inserting one workout of a batch.
// Err is ErrDuplicateWorkout when the store already holds the same
// (user, category, workout name) for that calendar day. Uniqueness is scoped
// to the day, not to the triple alone, so the same exercise can be logged
// again on later days.
type InsertResult struct {
	Workout Workout
	Err     error
}

// CaloriesBurned returns duration * 5 * (weight / 10), rounded to 2 decimals.
func CaloriesBurned(durationMinutes, weightKg float64) float64 {
	return roundTo2(durationMinutes * caloriesPerMinute * (weightKg / 10))
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// StartOfDay returns local midnight of t, in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// dayWindow returns [midnight, next midnight) of the calendar day containing t.
func dayWindow(t time.Time) (time.Time, time.Time) {
	start := StartOfDay(t)
	return start, start.AddDate(0, 0, 1)
}
