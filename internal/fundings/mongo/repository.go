// Package mongo implements fundings.Repository on MongoDB.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/bissquit/blood-donation/internal/domain"
	"github.com/bissquit/blood-donation/internal/pkg/mongodb"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository implements fundings.Repository using a MongoDB collection.
type Repository struct {
	fundings *mongo.Collection
}

// NewRepository creates a new MongoDB repository.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{fundings: db.Collection(mongodb.FundingsCollection)}
}

type fundingDocument struct {
	ID          string            `bson:"_id"`
	FundingDate time.Time         `bson:"fundingDate"`
	Attributes  domain.Attributes `bson:",inline"`
}

// CreateFunding inserts a new funding.
func (r *Repository) CreateFunding(ctx context.Context, funding *domain.Funding) error {
	doc := fundingDocument{
		ID:          uuid.NewString(),
		FundingDate: funding.FundingDate,
		Attributes:  funding.Attributes,
	}

	if _, err := r.fundings.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert funding: %w", err)
	}

	funding.ID = doc.ID
	return nil
}

// ListFundings returns all fundings, newest first.
func (r *Repository) ListFundings(ctx context.Context) ([]domain.Funding, error) {
	opts := options.Find().SetSort(bson.D{{Key: "fundingDate", Value: -1}, {Key: "_id", Value: 1}})

	cursor, err := r.fundings.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list fundings: %w", err)
	}

	var docs []fundingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode fundings: %w", err)
	}

	fundings := make([]domain.Funding, 0, len(docs))
	for _, doc := range docs {
		attrs := doc.Attributes
		if attrs == nil {
			attrs = domain.Attributes{}
		}
		fundings = append(fundings, domain.Funding{
			ID:          doc.ID,
			FundingDate: doc.FundingDate.UTC(),
			Attributes:  attrs,
		})
	}
	return fundings, nil
}

// SumFundingAmounts adds up amounts with an aggregation. $sum skips non-numeric values.
func (r *Repository) SumFundingAmounts(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$" + domain.FundingAmountKey}}},
		}}},
	}

	cursor, err := r.fundings.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("aggregate fundings: %w", err)
	}

	var results []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("decode funding total: %w", err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}
