package auth

import "context"

type ctxKey int

const userIDCtxKey ctxKey = iota

func ContextWithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDCtxKey, userID)
}

// UserIDFromContext returns the id of the logged user, set by the auth middleware.
func UserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDCtxKey).(int)
	return userID, ok
}
