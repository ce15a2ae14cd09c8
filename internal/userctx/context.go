package userctx

import "context"

type contextKey string

const userIDContextKey contextKey = "user_id"

// DefaultOwnerID owns the data of anonymous requests when auth is not required.
const DefaultOwnerID = "default"

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok && userID != ""
}

// OwnerID returns the authenticated user or DefaultOwnerID.
func OwnerID(ctx context.Context) string {
	if id, ok := GetUserID(ctx); ok {
		return id
	}
	return DefaultOwnerID
}
