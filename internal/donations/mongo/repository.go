// Package mongo implements donations.Repository on MongoDB.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/bissquit/blood-donation/internal/domain"
	"github.com/bissquit/blood-donation/internal/donations"
	"github.com/bissquit/blood-donation/internal/pkg/mongodb"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository implements donations.Repository using a MongoDB collection.
type Repository struct {
	requests *mongo.Collection
}

// NewRepository creates a new MongoDB repository.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{requests: db.Collection(mongodb.DonationRequestsCollection)}
}

type donationRequestDocument struct {
	ID             string            `bson:"_id"`
	RequesterEmail string            `bson:"requesterEmail"`
	Status         string            `bson:"status"`
	CreatedAt      time.Time         `bson:"createdAt"`
	Attributes     domain.Attributes `bson:",inline"`
}

func (d donationRequestDocument) toDomain() domain.DonationRequest {
	attrs := d.Attributes
	if attrs == nil {
		attrs = domain.Attributes{}
	}
	return domain.DonationRequest{
		ID:             d.ID,
		RequesterEmail: d.RequesterEmail,
		Status:         domain.DonationStatus(d.Status),
		CreatedAt:      d.CreatedAt.UTC(),
		Attributes:     attrs,
	}
}

// CreateDonationRequest inserts a new request.
func (r *Repository) CreateDonationRequest(ctx context.Context, req *domain.DonationRequest) error {
	doc := donationRequestDocument{
		ID:             uuid.NewString(),
		RequesterEmail: req.RequesterEmail,
		Status:         string(req.Status),
		CreatedAt:      req.CreatedAt,
		Attributes:     req.Attributes,
	}

	if _, err := r.requests.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert donation request: %w", err)
	}

	req.ID = doc.ID
	return nil
}

// GetDonationRequest returns a request by id.
func (r *Repository) GetDonationRequest(ctx context.Context, id string) (*domain.DonationRequest, error) {
	var doc donationRequestDocument
	if err := r.requests.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if mongodb.IsNoDocuments(err) {
			return nil, donations.ErrDonationRequestNotFound
		}
		return nil, fmt.Errorf("get donation request: %w", err)
	}

	req := doc.toDomain()
	return &req, nil
}

// ListDonationRequests returns requests matching filter, newest first.
func (r *Repository) ListDonationRequests(ctx context.Context, filter donations.ListFilter) ([]domain.DonationRequest, error) {
	query := bson.M{}
	if filter.RequesterEmail != "" {
		query["requesterEmail"] = filter.RequesterEmail
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.requests.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list donation requests: %w", err)
	}

	var docs []donationRequestDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode donation requests: %w", err)
	}

	requests := make([]domain.DonationRequest, 0, len(docs))
	for _, doc := range docs {
		requests = append(requests, doc.toDomain())
	}
	return requests, nil
}

// UpdateDonationRequest applies patch with $set.
func (r *Repository) UpdateDonationRequest(ctx context.Context, id string, patch domain.DonationRequestPatch) (domain.UpdateResult, error) {
	if patch.IsEmpty() {
		return domain.UpdateResult{Acknowledged: true}, nil
	}

	set := bson.M{}
	for k, v := range patch.Attributes {
		set[k] = v
	}
	if patch.RequesterEmail != nil {
		set["requesterEmail"] = *patch.RequesterEmail
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.CreatedAt != nil {
		set["createdAt"] = *patch.CreatedAt
	}

	res, err := r.requests.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("update donation request: %w", err)
	}

	return domain.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
	}, nil
}

// DeleteDonationRequest removes the request with the given id.
func (r *Repository) DeleteDonationRequest(ctx context.Context, id string) (domain.DeleteResult, error) {
	res, err := r.requests.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return domain.DeleteResult{}, fmt.Errorf("delete donation request: %w", err)
	}
	return domain.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

// CountDonationRequests counts all requests.
func (r *Repository) CountDonationRequests(ctx context.Context) (int64, error) {
	n, err := r.requests.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count donation requests: %w", err)
	}
	return n, nil
}
