package ctxutil

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type requestDataKey struct{}

// RequestData is the authenticated caller attached by the auth middleware.
type RequestData struct {
	LearnerID uuid.UUID
	Role      string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

// HasRole reports whether the caller's role is one of roles (case-insensitive).
func (rd *RequestData) HasRole(roles ...string) bool {
	if rd == nil {
		return false
	}
	role := strings.TrimSpace(rd.Role)
	for _, r := range roles {
		if role != "" && strings.EqualFold(role, strings.TrimSpace(r)) {
			return true
		}
	}
	return false
}
