package donations

import (
	"context"

	"github.com/bissquit/blood-donation/internal/domain"
)

// Repository defines the interface for donation request data operations.
type Repository interface {
	// CreateDonationRequest inserts the request and sets its ID.
	CreateDonationRequest(ctx context.Context, req *domain.DonationRequest) error
	// GetDonationRequest returns ErrDonationRequestNotFound when no request has the id.
	GetDonationRequest(ctx context.Context, id string) (*domain.DonationRequest, error)
	// ListDonationRequests returns matching requests, newest createdAt first.
	ListDonationRequests(ctx context.Context, filter ListFilter) ([]domain.DonationRequest, error)
	UpdateDonationRequest(ctx context.Context, id string, patch domain.DonationRequestPatch) (domain.UpdateResult, error)
	DeleteDonationRequest(ctx context.Context, id string) (domain.DeleteResult, error)
	CountDonationRequests(ctx context.Context) (int64, error)
}

// ListFilter represents filter criteria for listing donation requests.
type ListFilter struct {
	// RequesterEmail restricts results to one requester when set.
	RequesterEmail string
	// Limit caps the number of results; zero means no limit.
	Limit uint64
}
