package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/fitlog/internal/telemetry/tracing"
	"github.com/2beens/fitlog/internal/users"
	"github.com/2beens/fitlog/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=auth

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "fitlog-session||"
	sessionsSetKey   = "fitlog-sessions"

	minPasswordLength = 6
)

var (
	ErrWrongPassword       = errors.New("wrong password")
	ErrInvalidRegistration = errors.New("invalid registration")
)

type usersRepo interface {
	Add(ctx context.Context, user *users.User) error
	GetByEmail(ctx context.Context, email string) (*users.User, error)
}

type RegisterRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Img      *string `json:"img"`
}

type Session struct {
	Token string      `json:"token"`
	User  *users.User `json:"user"`
}

type Service struct {
	users       usersRepo
	tokens      *TokenIssuer
	redisClient *redis.Client
	ttl         time.Duration
}

func NewAuthService(
	usersRepo usersRepo,
	tokens *TokenIssuer,
	ttl time.Duration,
	redisClient *redis.Client,
) *Service {
	return &Service{
		users:       usersRepo,
		tokens:      tokens,
		ttl:         ttl,
		redisClient: redisClient,
	}
}

func (as *Service) Register(ctx context.Context, req RegisterRequest, now time.Time) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.register")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name empty", ErrInvalidRegistration)
	}
	if !strings.Contains(req.Email, "@") {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidRegistration)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password shorter than %d characters", ErrInvalidRegistration, minPasswordLength)
	}

	passwordHash, err := pkg.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &users.User{
		Name:         req.Name,
		Email:        req.Email,
		Img:          req.Img,
		PasswordHash: passwordHash,
	}
	if err := as.users.Add(ctx, user); err != nil {
		return nil, fmt.Errorf("add user: %w", err)
	}

	return as.startSession(ctx, user, now)
}

func (as *Service) Login(ctx context.Context, email, password string, now time.Time) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.login")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	user, err := as.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if !pkg.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrWrongPassword
	}

	return as.startSession(ctx, user, now)
}

func (as *Service) startSession(ctx context.Context, user *users.User, now time.Time) (*Session, error) {
	token, claims, err := as.tokens.Issue(user.ID, now)
	if err != nil {
		return nil, err
	}

	sessionKey := sessionKeyPrefix + claims.ID
	cmdSet := as.redisClient.Set(ctx, sessionKey, now.Unix(), as.ttl)
	if err := cmdSet.Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	// add token id to the set of sessions
	cmdSAdd := as.redisClient.SAdd(ctx, sessionsSetKey, claims.ID)
	if err := cmdSAdd.Err(); err != nil {
		return nil, fmt.Errorf("register session: %w", err)
	}

	return &Session{
		Token: token,
		User:  user,
	}, nil
}

// Logout drops the session of the token. It reports false if there was no live session.
func (as *Service) Logout(ctx context.Context, token string) (bool, error) {
	claims, err := as.tokens.Parse(token)
	if err != nil {
		return false, err
	}

	cmdDel := as.redisClient.Del(ctx, sessionKeyPrefix+claims.ID)
	if err := cmdDel.Err(); err != nil {
		return false, err
	}

	// remove token id from the set of sessions
	cmdSRem := as.redisClient.SRem(ctx, sessionsSetKey, claims.ID)
	if err := cmdSRem.Err(); err != nil {
		return false, err
	}

	return cmdDel.Val() > 0, nil
}

// ScanAndClean will run through all sessions, check the TTL, and clean them if old.
// Sessions whose key already expired in redis are only removed from the set.
func (as *Service) ScanAndClean(ctx context.Context, now time.Time) {
	cmd := as.redisClient.SMembers(ctx, sessionsSetKey)
	if err := cmd.Err(); err != nil {
		log.Errorf("!!! auth service, scan and clean, get sessions: %s", err)
		return
	}

	sessionIDs := cmd.Val()
	if len(sessionIDs) == 0 {
		log.Debugln("=> auth service, scan and clean abort, no sessions")
		return
	}

	log.Debugf("=> auth service, scan and clean [%d sessions] start ...", len(sessionIDs))
	var toRemove []string
	for _, id := range sessionIDs {
		cmd := as.redisClient.Get(ctx, sessionKeyPrefix+id)
		if err := cmd.Err(); err != nil {
			if errors.Is(err, redis.Nil) {
				toRemove = append(toRemove, id)
				continue
			}
			log.Errorf("=> auth service, scan and clean session %s: %s", id, err)
			continue
		}

		createdAtUnix, err := strconv.ParseInt(cmd.Val(), 10, 64)
		if err != nil {
			log.Errorf("=> auth service, scan and clean session %s: %s", id, err)
			continue
		}

		if now.Sub(time.Unix(createdAtUnix, 0)) > as.ttl {
			toRemove = append(toRemove, id)
		}
	}

	for _, id := range toRemove {
		log.Tracef("=>\twill clean the session: %s", id)
		if err := as.redisClient.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
			log.Errorf("=> auth service, clean session %s: %s", id, err)
			continue
		}

		if err := as.redisClient.SRem(ctx, sessionsSetKey, id).Err(); err != nil {
			log.Errorf("=> auth service, clean session %s: %s", id, err)
			continue
		}
	}
}
