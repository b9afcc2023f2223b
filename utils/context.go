package utils

import (
	"context"
	"net/http"
)

type contextKey string

const RequestIDKey = contextKey("requestID")
const AdminIDKey = contextKey("adminID")

// RequestID returns the id injected by RequestIDMiddleware, or "".
func RequestID(ctx context.Context) string {
	s, _ := ctx.Value(RequestIDKey).(string)
	return s
}

// GetAdminID returns the authenticated admin id, if any.
func GetAdminID(r *http.Request) (string, bool) {
	s, ok := r.Context().Value(AdminIDKey).(string)
	return s, ok && s != ""
}
