package auth

import "context"

var _ Checker = (*LoginChecker)(nil)
var _ Checker = (*LoginTestChecker)(nil)

// Checker resolves a bearer token to the id of the logged user.
type Checker interface {
	UserID(ctx context.Context, token string) (int, error)
}

type LoginTestChecker struct {
	LoggedSessions map[string]int
}

func NewLoginTestChecker() *LoginTestChecker {
	return &LoginTestChecker{
		map[string]int{},
	}
}

func (c *LoginTestChecker) UserID(_ context.Context, token string) (int, error) {
	userID, ok := c.LoggedSessions[token]
	if !ok {
		return 0, ErrSessionNotFound
	}
	return userID, nil
}
