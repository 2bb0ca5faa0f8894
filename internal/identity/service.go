// Package identity manages platform users: registration, profiles, roles and account status.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/blood-donation/internal/domain"
)

// Service implements user business logic.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Register creates a donor account from a registration payload.
// Role, status and creation time are always assigned here; email uniqueness
// is enforced by the repository.
func (s *Service) Register(ctx context.Context, payload domain.Patch) (domain.InsertResult, error) {
	delete(payload, "role")
	delete(payload, "status")
	user, err := domain.NewUserFromPayload(payload)
	if err != nil {
		return domain.InsertResult{}, err
	}
	if user.Email == "" {
		return domain.InsertResult{}, ErrEmailRequired
	}

	user.Role = domain.RoleDonor
	user.Status = domain.UserStatusActive
	user.CreatedAt = s.now().UTC()

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return domain.InsertResult{}, ErrEmailExists
		}
		return domain.InsertResult{}, fmt.Errorf("create user: %w", err)
	}

	return domain.InsertResult{Acknowledged: true, InsertedID: user.ID}, nil
}

// GetUserByEmail returns the user with the given email. An empty email matches
// any user, so the first stored record is returned.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.repo.FindUser(ctx, UserFilter{Email: email})
}

// LookupUser resolves a user for the authorization gates.
func (s *Service) LookupUser(ctx context.Context, email string) (*domain.User, bool, error) {
	if email == "" {
		return nil, false, nil
	}
	user, err := s.repo.FindUser(ctx, UserFilter{Email: email})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return user, true, nil
}

// GetRoleByEmail returns the role of the user with the given email.
// Unknown emails get the donor role instead of an error.
func (s *Service) GetRoleByEmail(ctx context.Context, email string) (domain.Role, error) {
	user, found, err := s.LookupUser(ctx, email)
	if err != nil {
		return "", err
	}
	if !found || user.Role == "" {
		return domain.RoleDonor, nil
	}
	return user.Role, nil
}

// UpdateProfile merges the payload into the user record. Every field the caller
// sends is stored; only the id and creation time are protected.
func (s *Service) UpdateProfile(ctx context.Context, id string, payload domain.Patch) (domain.UpdateResult, error) {
	patch, err := domain.NewUserPatch(payload)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	if patch.IsEmpty() {
		return domain.UpdateResult{}, ErrEmptyUpdate
	}
	return s.update(ctx, id, patch)
}

// ListUsers returns users with the given status, or all users when status is empty.
func (s *Service) ListUsers(ctx context.Context, status domain.UserStatus) ([]domain.User, error) {
	users, err := s.repo.ListUsers(ctx, UserFilter{Status: status})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateRole sets the role of a user.
func (s *Service) UpdateRole(ctx context.Context, id string, role domain.Role) (domain.UpdateResult, error) {
	return s.update(ctx, id, domain.UserPatch{Role: &role})
}

// UpdateStatus sets the account status of a user.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.UserStatus) (domain.UpdateResult, error) {
	return s.update(ctx, id, domain.UserPatch{Status: &status})
}

// CountUsersByRole counts users holding role.
func (s *Service) CountUsersByRole(ctx context.Context, role domain.Role) (int64, error) {
	n, err := s.repo.CountUsers(ctx, UserFilter{Role: role})
	if err != nil {
		return 0, fmt.Errorf("count %s users: %w", role, err)
	}
	return n, nil
}

func (s *Service) update(ctx context.Context, id string, patch domain.UserPatch) (domain.UpdateResult, error) {
	result, err := s.repo.UpdateUser(ctx, id, patch)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return domain.UpdateResult{}, ErrEmailExists
		}
		return domain.UpdateResult{}, fmt.Errorf("update user: %w", err)
	}
	return result, nil
}
