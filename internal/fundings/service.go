// Package fundings records contributions to the platform.
package fundings

import (
	"context"
	"fmt"
	"time"

	"github.com/bissquit/blood-donation/internal/domain"
	"github.com/bissquit/blood-donation/internal/pkg/metrics"
)

// Service implements funding business logic.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new fundings service.
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Create stores a contribution stamped with the current time. The amount is stored as sent;
// contributions without a numeric amount are counted separately.
func (s *Service) Create(ctx context.Context, payload domain.Patch) (domain.InsertResult, error) {
	funding := domain.NewFundingFromPayload(payload)
	funding.FundingDate = s.now().UTC()

	if err := s.repo.CreateFunding(ctx, funding); err != nil {
		return domain.InsertResult{}, fmt.Errorf("create funding: %w", err)
	}

	kind := "numeric"
	if _, ok := funding.Amount(); !ok {
		kind = "other"
	}
	metrics.FundingsRecorded.WithLabelValues(kind).Inc()

	return domain.InsertResult{Acknowledged: true, InsertedID: funding.ID}, nil
}

// ListAll returns every contribution, newest first.
func (s *Service) ListAll(ctx context.Context) ([]domain.Funding, error) {
	fundings, err := s.repo.ListFundings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list fundings: %w", err)
	}
	return fundings, nil
}

// TotalAmount returns the sum of all contribution amounts, zero when there are none.
func (s *Service) TotalAmount(ctx context.Context) (float64, error) {
	total, err := s.repo.SumFundingAmounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("sum fundings: %w", err)
	}
	return total, nil
}
