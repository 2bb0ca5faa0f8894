package identity

import (
	"context"

	"github.com/bissquit/blood-donation/internal/domain"
)

// Repository defines the interface for user data operations.
type Repository interface {
	// CreateUser inserts the user and sets its ID. A duplicate email yields ErrEmailExists.
	CreateUser(ctx context.Context, user *domain.User) error
	// FindUser returns the first user matching filter, or ErrUserNotFound.
	FindUser(ctx context.Context, filter UserFilter) (*domain.User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]domain.User, error)
	UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (domain.UpdateResult, error)
	CountUsers(ctx context.Context, filter UserFilter) (int64, error)
}

// UserFilter represents filter criteria for user queries. Empty fields do not filter.
type UserFilter struct {
	Email  string
	Role   domain.Role
	Status domain.UserStatus
}
