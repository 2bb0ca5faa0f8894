// Package mongo implements identity.Repository on MongoDB.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/bissquit/blood-donation/internal/domain"
	"github.com/bissquit/blood-donation/internal/identity"
	"github.com/bissquit/blood-donation/internal/pkg/mongodb"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository implements identity.Repository using a MongoDB collection.
type Repository struct {
	users *mongo.Collection
}

// NewRepository creates a new MongoDB repository.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{users: db.Collection(mongodb.UsersCollection)}
}

type userDocument struct {
	ID         string            `bson:"_id"`
	Email      string            `bson:"email"`
	Role       string            `bson:"role,omitempty"`
	Status     string            `bson:"status,omitempty"`
	CreatedAt  time.Time         `bson:"createdAt"`
	Attributes domain.Attributes `bson:",inline"`
}

func (d userDocument) toDomain() domain.User {
	attrs := d.Attributes
	if attrs == nil {
		attrs = domain.Attributes{}
	}
	return domain.User{
		ID:         d.ID,
		Email:      d.Email,
		Role:       domain.Role(d.Role),
		Status:     domain.UserStatus(d.Status),
		CreatedAt:  d.CreatedAt.UTC(),
		Attributes: attrs,
	}
}

// CreateUser inserts a new user. The unique email index rejects duplicates.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	doc := userDocument{
		ID:         uuid.NewString(),
		Email:      user.Email,
		Role:       string(user.Role),
		Status:     string(user.Status),
		CreatedAt:  user.CreatedAt,
		Attributes: user.Attributes,
	}

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongodb.IsDuplicateKey(err) {
			return identity.ErrEmailExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = doc.ID
	return nil
}

// FindUser returns the oldest user matching filter.
func (r *Repository) FindUser(ctx context.Context, filter identity.UserFilter) (*domain.User, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	var doc userDocument
	if err := r.users.FindOne(ctx, filterDocument(filter), opts).Decode(&doc); err != nil {
		if mongodb.IsNoDocuments(err) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	user := doc.toDomain()
	return &user, nil
}

// ListUsers returns users matching filter, newest first.
func (r *Repository) ListUsers(ctx context.Context, filter identity.UserFilter) ([]domain.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})

	cursor, err := r.users.Find(ctx, filterDocument(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]domain.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.toDomain())
	}
	return users, nil
}

// UpdateUser applies patch with $set so fields absent from the patch survive.
func (r *Repository) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (domain.UpdateResult, error) {
	if patch.IsEmpty() {
		return domain.UpdateResult{Acknowledged: true}, nil
	}

	set := bson.M{}
	for k, v := range patch.Attributes {
		set[k] = v
	}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.Role != nil {
		set["role"] = string(*patch.Role)
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}

	res, err := r.users.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return domain.UpdateResult{}, identity.ErrEmailExists
		}
		return domain.UpdateResult{}, fmt.Errorf("update user: %w", err)
	}

	return domain.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
	}, nil
}

// CountUsers counts users matching filter.
func (r *Repository) CountUsers(ctx context.Context, filter identity.UserFilter) (int64, error) {
	n, err := r.users.CountDocuments(ctx, filterDocument(filter))
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func filterDocument(filter identity.UserFilter) bson.M {
	doc := bson.M{}
	if filter.Email != "" {
		doc["email"] = filter.Email
	}
	if filter.Role != "" {
		doc["role"] = string(filter.Role)
	}
	if filter.Status != "" {
		doc["status"] = string(filter.Status)
	}
	return doc
}
