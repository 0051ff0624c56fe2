package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/fitlog/internal/auth"
	"github.com/2beens/fitlog/internal/telemetry/metrics"
	"github.com/2beens/fitlog/internal/telemetry/tracing"
	"github.com/2beens/fitlog/internal/users"
	"github.com/2beens/fitlog/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=workouts_test

type workoutsRepo interface {
	RecordSource
	InsertMany(ctx context.Context, workouts []Workout) ([]InsertResult, error)
}

type usersRepo interface {
	GetByID(ctx context.Context, id int) (*users.User, error)
}

type addWorkoutsRequest struct {
	WorkoutString string `json:"workoutString"`
}

type AddWorkoutsResponse struct {
	Message    string    `json:"message"`
	Workouts   []Workout `json:"workouts"`
	Duplicates []string  `json:"duplicates"`
}

type Handler struct {
	repo       workoutsRepo
	users      usersRepo
	aggregator *Aggregator
	metrics    *metrics.Manager
	now        func() time.Time
}

func NewHandler(
	repo workoutsRepo,
	usersRepo usersRepo,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		repo:       repo,
		users:      usersRepo,
		aggregator: NewAggregator(repo),
		metrics:    metricsManager,
		now:        time.Now,
	}
}

// SetupRoutes expects the users subrouter.
func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/workout", handler.HandleAdd).Methods("POST", "OPTIONS").Name("add-workouts")
	router.HandleFunc("/workout", handler.HandleByDate).Methods("GET", "OPTIONS").Name("workouts-by-date")
	router.HandleFunc("/dashboard", handler.HandleDashboard).Methods("GET", "OPTIONS").Name("dashboard")
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.add")
	defer span.End()

	userID, ok := handler.loggedUser(ctx, w)
	if !ok {
		return
	}

	var req addWorkoutsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("add workouts, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.WorkoutString == "" {
		http.Error(w, "workoutString is required", http.StatusBadRequest)
		return
	}

	parsed, err := Parse(req.WorkoutString, userID, handler.now())
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			handler.metrics.CounterParseFailures.WithLabelValues(string(parseErr.Kind)).Inc()
			http.Error(w, parseErr.Detail, http.StatusBadRequest)
			return
		}
		log.Errorf("parse workouts of user %d: %s", userID, err)
		http.Error(w, "failed to parse workouts", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.Int("workouts.parsed", len(parsed)))

	results, err := handler.repo.InsertMany(ctx, parsed)
	if err != nil {
		log.Errorf("insert %d workouts of user %d: %s", len(parsed), userID, err)
		http.Error(w, "failed to add workouts", http.StatusInternalServerError)
		return
	}

	resp := AddWorkoutsResponse{
		Workouts:   make([]Workout, 0, len(results)),
		Duplicates: make([]string, 0),
	}
	for _, res := range results {
		if errors.Is(res.Err, ErrDuplicateWorkout) {
			resp.Duplicates = append(resp.Duplicates, res.Workout.Category+"/"+res.Workout.WorkoutName)
			continue
		}
		resp.Workouts = append(resp.Workouts, res.Workout)
	}
	handler.metrics.CounterWorkoutsAdded.Add(float64(len(resp.Workouts)))
	handler.metrics.CounterWorkoutDuplicates.Add(float64(len(resp.Duplicates)))

	if len(resp.Workouts) == 0 {
		http.Error(w, "workouts already logged today", http.StatusConflict)
		return
	}

	resp.Message = "workouts added"
	respJson, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal added workouts: %s", err)
		http.Error(w, "failed to add workouts", http.StatusInternalServerError)
		return
	}

	log.Debugf("user %d added %d workouts (%d duplicates)", userID, len(resp.Workouts), len(resp.Duplicates))
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusCreated)
}

// HandleByDate returns the workouts of the day given as ?date=YYYY-MM-DD, today if not set.
func (handler *Handler) HandleByDate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.bydate")
	defer span.End()

	userID, ok := handler.loggedUser(ctx, w)
	if !ok {
		return
	}

	day := handler.now()
	if dateParam := r.URL.Query().Get("date"); dateParam != "" {
		parsedDay, err := time.ParseInLocation(time.DateOnly, dateParam, day.Location())
		if err != nil {
			http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		day = parsedDay
	}

	dayWorkouts, err := handler.aggregator.DayWorkouts(ctx, userID, day)
	if err != nil {
		log.Errorf("get workouts of user %d on %s: %s", userID, day.Format(time.DateOnly), err)
		http.Error(w, "failed to get workouts", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(dayWorkouts)
	if err != nil {
		log.Errorf("marshal day workouts: %s", err)
		http.Error(w, "failed to get workouts", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func (handler *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.dashboard")
	defer span.End()

	userID, ok := handler.loggedUser(ctx, w)
	if !ok {
		return
	}

	start := time.Now()
	summary, err := handler.aggregator.Summarize(ctx, userID, handler.now())
	handler.metrics.HistogramDashboardDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Errorf("dashboard of user %d: %s", userID, err)
		http.Error(w, "failed to get dashboard", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(summary)
	if err != nil {
		log.Errorf("marshal dashboard: %s", err)
		http.Error(w, "failed to get dashboard", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

// loggedUser resolves the user set on the context by the auth middleware and
// makes sure it still exists. On failure the response is already written.
func (handler *Handler) loggedUser(ctx context.Context, w http.ResponseWriter) (int, bool) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return 0, false
	}

	if _, err := handler.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			http.Error(w, ErrUserNotFound.Error(), http.StatusNotFound)
			return 0, false
		}
		log.Errorf("get user %d: %s", userID, err)
		http.Error(w, "failed to get user", http.StatusInternalServerError)
		return 0, false
	}

	return userID, true
}
