package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/2beens/fitlog/pkg"
)

const (
	tokenIDLength = 24
	bearerPrefix  = "Bearer "
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID int `json:"id"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue signs a new HS256 token for the user. The returned claims carry the
// token id (jti) the session is stored under.
func (ti *TokenIssuer) Issue(userID int, issuedAt time.Time) (string, *Claims, error) {
	jti, err := pkg.GenerateRandomString(tokenIDLength)
	if err != nil {
		return "", nil, fmt.Errorf("generate token id: %w", err)
	}

	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ti.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	return signed, claims, nil
}

// Parse verifies the signature and expiry of the token.
func (ti *TokenIssuer) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return ti.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.ID == "" || claims.UserID <= 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TokenFromRequest reads the bearer token of the Authorization header.
func TokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(authHeader[len(bearerPrefix):])
}
