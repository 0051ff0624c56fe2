package misc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"

	"github.com/2beens/fitlog/internal/auth"
	"github.com/2beens/fitlog/internal/middleware"
	"github.com/2beens/fitlog/internal/telemetry/metrics"
	"github.com/2beens/fitlog/internal/telemetry/tracing"
	"github.com/2beens/fitlog/internal/users"
	"github.com/2beens/fitlog/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=misc_test

type authService interface {
	Register(ctx context.Context, req auth.RegisterRequest, now time.Time) (*auth.Session, error)
	Login(ctx context.Context, email, password string, now time.Time) (*auth.Session, error)
	Logout(ctx context.Context, token string) (bool, error)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Handler struct {
	authService authService
	metrics     *metrics.Manager
	versionInfo string
}

func NewHandler(
	authService authService,
	metricsManager *metrics.Manager,
	versionInfo string,
) *Handler {
	return &Handler{
		authService: authService,
		metrics:     metricsManager,
		versionInfo: versionInfo,
	}
}

// SetupRoutes registers the root routes on mainRouter and the account routes on
// usersRouter. Register and login are rate limited per client IP.
func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	usersRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	allowedPerMin int,
) {
	mainRouter.HandleFunc("/", handler.handleRoot).Methods("GET", "POST", "OPTIONS").Name("root")
	mainRouter.HandleFunc("/version", handler.handleGetVersionInfo).Methods("GET").Name("version")

	accountRouter := usersRouter.NewRoute().Subrouter()
	accountRouter.
		HandleFunc("/register", handler.handleRegister).
		Methods("POST", "OPTIONS").Name("register")
	accountRouter.
		HandleFunc("/login", handler.handleLogin).
		Methods("POST", "OPTIONS").Name("login")
	// rate limit the /register and /login endpoints to prevent abuse
	accountRouter.Use(middleware.RateLimit(rateLimiter, "login", allowedPerMin, handler.metrics))

	usersRouter.
		HandleFunc("/logout", handler.handleLogout).
		Methods("GET", "OPTIONS").Name("logout")
}

func (handler *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
}

func (handler *Handler) handleGetVersionInfo(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, handler.versionInfo)
}

func (handler *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.register")
	defer span.End()

	var registerReq auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&registerReq); err != nil {
		log.Tracef("register, unmarshal json params: %s", err)
		http.Error(w, "register failed", http.StatusBadRequest)
		return
	}

	session, err := handler.authService.Register(ctx, registerReq, time.Now())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		switch {
		case errors.Is(err, auth.ErrInvalidRegistration):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, users.ErrEmailTaken):
			http.Error(w, users.ErrEmailTaken.Error(), http.StatusConflict)
		default:
			log.Errorf("register failed: %s", err)
			http.Error(w, "register failed", http.StatusInternalServerError)
		}
		return
	}

	handler.metrics.CounterRegistrations.Inc()
	log.Tracef("new user registered: %d", session.User.ID)
	handler.writeSession(w, session, http.StatusCreated)
}

func (handler *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.login")
	defer span.End()

	var loginReq loginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		log.Tracef("login, unmarshal json params: %s", err)
		http.Error(w, "login failed", http.StatusBadRequest)
		return
	}

	if loginReq.Email == "" {
		http.Error(w, "error, email empty", http.StatusBadRequest)
		return
	}
	if loginReq.Password == "" {
		http.Error(w, "error, password empty", http.StatusBadRequest)
		return
	}

	session, err := handler.authService.Login(ctx, loginReq.Email, loginReq.Password, time.Now())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		switch {
		case errors.Is(err, users.ErrUserNotFound):
			handler.metrics.CounterLogins.WithLabelValues("unknown-user").Inc()
			http.Error(w, users.ErrUserNotFound.Error(), http.StatusNotFound)
		case errors.Is(err, auth.ErrWrongPassword):
			log.Tracef("[password] failed login attempt for: %s", loginReq.Email)
			handler.metrics.CounterLogins.WithLabelValues("wrong-password").Inc()
			http.Error(w, "error, wrong credentials", http.StatusForbidden)
		default:
			log.Errorf("login failed: %s", err)
			handler.metrics.CounterLogins.WithLabelValues("error").Inc()
			http.Error(w, "login failed", http.StatusInternalServerError)
		}
		return
	}

	handler.metrics.CounterLogins.WithLabelValues("ok").Inc()
	log.Trace("new login success")
	handler.writeSession(w, session, http.StatusOK)
}

func (handler *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.logout")
	defer span.End()

	authToken := auth.TokenFromRequest(r)
	if authToken == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	loggedOut, err := handler.authService.Logout(ctx, authToken)
	if err != nil {
		log.Tracef("[failed logout] => %s: %s", r.URL.Path, err)
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	if !loggedOut {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	pkg.WriteTextResponseOK(w, "logged-out")
}

func (handler *Handler) writeSession(w http.ResponseWriter, session *auth.Session, statusCode int) {
	sessionJson, err := json.Marshal(session)
	if err != nil {
		log.Errorf("marshal session: %s", err)
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, sessionJson, statusCode)
}
