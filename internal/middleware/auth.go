package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/2beens/fitlog/internal/auth"
	"github.com/2beens/fitlog/internal/telemetry/tracing"
)

//go:generate mockgen -source=$GOFILE -destination=auth_mocks_test.go -package=middleware_test

type loginChecker interface {
	UserID(ctx context.Context, token string) (int, error)
}

type AuthMiddlewareHandler struct {
	loginChecker     loginChecker
	publicRouteNames map[string]bool
}

func NewAuthMiddlewareHandler(loginChecker loginChecker) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		loginChecker: loginChecker,
		publicRouteNames: map[string]bool{
			// misc handler:
			"root":     true,
			"version":  true,
			"register": true,
			"login":    true,

			// blog handler:
			"all-blogs":    true,
			"blogs-page":   true,
			"get-blog":     true,
			"blog-clapped": true,
		},
	}
}

func (h *AuthMiddlewareHandler) routeIsPublic(r *http.Request) bool {
	route := mux.CurrentRoute(r)
	if route == nil {
		return false
	}
	return h.publicRouteNames[route.GetName()]
}

// AuthCheck resolves the bearer token to the logged user and puts its id on
// the request context. Public routes pass through untouched.
func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, PATCH, DELETE, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if h.routeIsPublic(r) {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			authToken := auth.TokenFromRequest(r)
			if authToken == "" {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}

			userID, err := h.loginChecker.UserID(ctx, authToken)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrSessionNotFound) {
					log.Tracef("[invalid token] [auth middleware] unauthorized => %s: %s", r.URL.Path, err)
					span.SetStatus(codes.Error, "not-logged")
				} else {
					log.Errorf("[failed login check] => %s: %s", r.URL.Path, err)
					span.SetStatus(codes.Error, "check-logged-err")
					span.RecordError(err)
				}
				http.Error(w, "no can do", http.StatusUnauthorized)
				return
			}

			span.SetAttributes(attribute.Int("user.id", userID))
			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(auth.ContextWithUserID(r.Context(), userID)))
		})
	}
}
