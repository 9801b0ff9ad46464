package auth

import (
	"context"

	"github.com/climatologylab/labsite/internal/model"
)

type contextKey struct{}

// StaffContext identifies the dashboard user behind a request.
type StaffContext struct {
	UserID   int64
	Username string
	Role     string
}

func WithStaff(ctx context.Context, sc StaffContext) context.Context {
	return context.WithValue(ctx, contextKey{}, sc)
}

func FromContext(ctx context.Context) (StaffContext, bool) {
	sc, ok := ctx.Value(contextKey{}).(StaffContext)
	return sc, ok
}

func UserID(ctx context.Context) int64 {
	sc, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return sc.UserID
}

// CanDelete reports whether the request's user may delete content.
func CanDelete(ctx context.Context) bool {
	sc, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return sc.Role == model.RoleFaculty
}
