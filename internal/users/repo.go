package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/coocood/freecache"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/fitlog/internal/telemetry/tracing"
	"github.com/2beens/fitlog/pkg"
)

const (
	userCacheSize = 10 * 1024 * 1024 // bytes
	// users are never updated, the TTL only bounds memory kept for idle users
	userCacheExpireSeconds = 5 * 60
)

// cachedUser keeps the password hash, which the public JSON form of User drops.
type cachedUser struct {
	User
	PasswordHash string `json:"passwordHash"`
}

type Repo struct {
	db    *pgxpool.Pool
	cache *freecache.Cache
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db:    db,
		cache: freecache.NewCache(userCacheSize),
	}
}

// NormalizeEmail is applied to every email stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *Repo) Add(ctx context.Context, user *User) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	user.Email = NormalizeEmail(user.Email)
	if user.Email == "" || user.Name == "" || user.PasswordHash == "" {
		return errors.New("user name, email or password empty")
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO app_user (name, email, img, password_hash, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id;`,
		user.Name, user.Email, user.Img, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	span.SetAttributes(attribute.Int("user.id", user.ID))

	return nil
}

// GetByID serves from the in-memory cache when it can.
func (r *Repo) GetByID(ctx context.Context, id int) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getbyid")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", id))

	cacheKey := []byte(strconv.Itoa(id))
	if userBytes, err := r.cache.Get(cacheKey); err == nil {
		var cached cachedUser
		if err := json.Unmarshal(userBytes, &cached); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			user := cached.User
			user.PasswordHash = cached.PasswordHash
			return &user, nil
		}
		log.Warnf("users cache: unmarshal user %d, dropping entry", id)
		r.cache.Del(cacheKey)
	}

	user, err := r.getOne(ctx, `WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}

	userBytes, err := json.Marshal(cachedUser{User: *user, PasswordHash: user.PasswordHash})
	if err != nil {
		log.Errorf("users cache: marshal user %d: %s", id, err)
		return user, nil
	}
	if err := r.cache.Set(cacheKey, userBytes, userCacheExpireSeconds); err != nil {
		log.Errorf("users cache: set user %d: %s", id, err)
	}

	return user, nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getbyemail")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.getOne(ctx, `WHERE email = $1`, NormalizeEmail(email))
}

func (r *Repo) getOne(ctx context.Context, where string, arg any) (*User, error) {
	var user User
	err := r.db.QueryRow(
		ctx,
		`SELECT id, name, email, img, password_hash, created_at, updated_at FROM app_user `+where,
		arg,
	).Scan(&user.ID, &user.Name, &user.Email, &user.Img, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}
