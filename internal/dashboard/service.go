// Package dashboard aggregates platform statistics.
package dashboard

import (
	"context"
	"fmt"

	"github.com/bissquit/blood-donation/internal/domain"
)

// UserCounter counts users by role.
type UserCounter interface {
	CountUsersByRole(ctx context.Context, role domain.Role) (int64, error)
}

// DonationRequestCounter counts donation requests.
type DonationRequestCounter interface {
	CountDonationRequests(ctx context.Context) (int64, error)
}

// FundingAggregator sums funding amounts.
type FundingAggregator interface {
	TotalAmount(ctx context.Context) (float64, error)
}

// Service builds dashboard statistics.
type Service struct {
	users    UserCounter
	requests DonationRequestCounter
	fundings FundingAggregator
}

// NewService creates a new dashboard service.
func NewService(users UserCounter, requests DonationRequestCounter, fundings FundingAggregator) *Service {
	return &Service{
		users:    users,
		requests: requests,
		fundings: fundings,
	}
}

// Stats returns the composite statistics. Any failure aborts the whole computation.
func (s *Service) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	var stats domain.DashboardStats

	roleCounts := []struct {
		role domain.Role
		dst  *int64
	}{
		{domain.RoleAdmin, &stats.TotalAdmins},
		{domain.RoleVolunteer, &stats.TotalVolunteers},
		{domain.RoleDonor, &stats.TotalDonors},
	}
	for _, rc := range roleCounts {
		n, err := s.users.CountUsersByRole(ctx, rc.role)
		if err != nil {
			return nil, fmt.Errorf("count users: %w", err)
		}
		*rc.dst = n
	}

	requests, err := s.requests.CountDonationRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("count requests: %w", err)
	}
	stats.TotalRequests = requests

	total, err := s.fundings.TotalAmount(ctx)
	if err != nil {
		return nil, fmt.Errorf("total funding: %w", err)
	}
	stats.TotalFunding = total

	return &stats, nil
}
