package fundings

import (
	"context"

	"github.com/bissquit/blood-donation/internal/domain"
)

// Repository defines the interface for funding data operations.
type Repository interface {
	// CreateFunding inserts the funding and sets its ID.
	CreateFunding(ctx context.Context, funding *domain.Funding) error
	// ListFundings returns all fundings, newest fundingDate first.
	ListFundings(ctx context.Context) ([]domain.Funding, error)
	// SumFundingAmounts adds up numeric amounts. Non-numeric amounts count as zero.
	SumFundingAmounts(ctx context.Context) (float64, error)
}
