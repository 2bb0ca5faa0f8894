// Package donations manages blood donation requests.
package donations

import (
	"context"
	"fmt"
	"time"

	"github.com/bissquit/blood-donation/internal/domain"
)

// RecentLimit is how many requests the recent-requests listing returns.
const RecentLimit = 3

// Service implements donation request business logic.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new donations service.
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Create stores a new request. Status and creation time are always assigned here.
func (s *Service) Create(ctx context.Context, payload domain.Patch) (domain.InsertResult, error) {
	delete(payload, "status")
	delete(payload, "createdAt")

	req, err := domain.NewDonationRequestFromPayload(payload)
	if err != nil {
		return domain.InsertResult{}, err
	}
	req.Status = domain.DonationStatusPending
	req.CreatedAt = s.now().UTC()

	if err := s.repo.CreateDonationRequest(ctx, req); err != nil {
		return domain.InsertResult{}, fmt.Errorf("create donation request: %w", err)
	}
	return domain.InsertResult{Acknowledged: true, InsertedID: req.ID}, nil
}

// ListRecent returns the newest requests of a requester, or of everyone when email is empty.
func (s *Service) ListRecent(ctx context.Context, requesterEmail string) ([]domain.DonationRequest, error) {
	return s.list(ctx, ListFilter{RequesterEmail: requesterEmail, Limit: RecentLimit})
}

// ListAllForDonor returns every request of one requester.
func (s *Service) ListAllForDonor(ctx context.Context, requesterEmail string) ([]domain.DonationRequest, error) {
	if requesterEmail == "" {
		return nil, ErrEmailRequired
	}
	return s.list(ctx, ListFilter{RequesterEmail: requesterEmail})
}

// ListAll returns every request in the system.
func (s *Service) ListAll(ctx context.Context) ([]domain.DonationRequest, error) {
	return s.list(ctx, ListFilter{})
}

// GetByID returns a single request.
func (s *Service) GetByID(ctx context.Context, id string) (*domain.DonationRequest, error) {
	return s.repo.GetDonationRequest(ctx, id)
}

// UpdateStatus sets the status of a request.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.DonationStatus) (domain.UpdateResult, error) {
	return s.update(ctx, id, domain.DonationRequestPatch{Status: &status})
}

// FullEdit writes every payload field onto the request and refreshes its creation time.
func (s *Service) FullEdit(ctx context.Context, id string, payload domain.Patch) (domain.UpdateResult, error) {
	delete(payload, "createdAt")

	patch, err := domain.NewDonationRequestPatch(payload)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	now := s.now().UTC()
	patch.CreatedAt = &now

	return s.update(ctx, id, patch)
}

// Delete removes a request.
func (s *Service) Delete(ctx context.Context, id string) (domain.DeleteResult, error) {
	result, err := s.repo.DeleteDonationRequest(ctx, id)
	if err != nil {
		return domain.DeleteResult{}, fmt.Errorf("delete donation request: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.DeleteResult{}, ErrDonationRequestNotFound
	}
	return result, nil
}

// CountDonationRequests returns the total number of requests.
func (s *Service) CountDonationRequests(ctx context.Context) (int64, error) {
	n, err := s.repo.CountDonationRequests(ctx)
	if err != nil {
		return 0, fmt.Errorf("count donation requests: %w", err)
	}
	return n, nil
}

func (s *Service) list(ctx context.Context, filter ListFilter) ([]domain.DonationRequest, error) {
	requests, err := s.repo.ListDonationRequests(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list donation requests: %w", err)
	}
	return requests, nil
}

func (s *Service) update(ctx context.Context, id string, patch domain.DonationRequestPatch) (domain.UpdateResult, error) {
	result, err := s.repo.UpdateDonationRequest(ctx, id, patch)
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("update donation request: %w", err)
	}
	return result, nil
}
