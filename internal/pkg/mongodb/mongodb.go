// Package mongodb provides MongoDB connection utilities.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/blood-donation/internal/pkg/connect"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	UsersCollection            = "users"
	DonationRequestsCollection = "donationRequests"
	FundingsCollection         = "fundings"
)

// Config contains MongoDB connection configuration.
type Config struct {
	URL             string
	Database        string
	MaxPoolSize     uint64
	ConnectAttempts int
	ConnectTimeout  time.Duration
}

// Connect creates a client and verifies the deployment answers a ping, retrying on failure.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URL).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("parse mongodb url: %w", err)
	}

	var client *mongo.Client
	err := connect.Retry(ctx, "mongodb", cfg.ConnectAttempts, cfg.ConnectTimeout, func(ctx context.Context) error {
		c, err := mongo.Connect(ctx, opts)
		if err != nil {
			return fmt.Errorf("create client: %w", err)
		}
		if err := c.Ping(ctx, readpref.Primary()); err != nil {
			_ = c.Disconnect(context.Background())
			return fmt.Errorf("ping deployment: %w", err)
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	return client, nil
}

// EnsureIndexes creates the indexes the repositories rely on.
// The unique email index is what enforces one account per email.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	users := db.Collection(UsersCollection)
	_, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("users_email_key"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("users_status_idx"),
		},
	})
	if err != nil {
		return fmt.Errorf("create users indexes: %w", err)
	}

	requests := db.Collection(DonationRequestsCollection)
	_, err = requests.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "requesterEmail", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("donation_requests_requester_created_idx"),
	})
	if err != nil {
		return fmt.Errorf("create donation requests indexes: %w", err)
	}

	fundings := db.Collection(FundingsCollection)
	_, err = fundings.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "fundingDate", Value: -1}},
		Options: options.Index().SetName("fundings_date_idx"),
	})
	if err != nil {
		return fmt.Errorf("create fundings indexes: %w", err)
	}

	return nil
}

// IsDuplicateKey reports whether err is a unique index violation.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// IsNoDocuments reports whether err means a single-document lookup found nothing.
func IsNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
