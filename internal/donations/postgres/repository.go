// Package postgres implements donations.Repository on PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bissquit/blood-donation/internal/domain"
	"github.com/bissquit/blood-donation/internal/donations"
	"github.com/bissquit/blood-donation/internal/pkg/postgres"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const donationRequestsTable = "donation_requests"

var donationRequestColumns = []string{"id::text AS id", "requester_email", "status", "created_at", "attributes"}

// Repository implements donations.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

type donationRequestRow struct {
	ID             string    `db:"id"`
	RequesterEmail string    `db:"requester_email"`
	Status         string    `db:"status"`
	CreatedAt      time.Time `db:"created_at"`
	Attributes     []byte    `db:"attributes"`
}

func (row donationRequestRow) toDomain() (domain.DonationRequest, error) {
	attrs, err := domain.ParseAttributes(row.Attributes)
	if err != nil {
		return domain.DonationRequest{}, err
	}
	return domain.DonationRequest{
		ID:             row.ID,
		RequesterEmail: row.RequesterEmail,
		Status:         domain.DonationStatus(row.Status),
		CreatedAt:      row.CreatedAt.UTC(),
		Attributes:     attrs,
	}, nil
}

// CreateDonationRequest inserts a new request.
func (r *Repository) CreateDonationRequest(ctx context.Context, req *domain.DonationRequest) error {
	attrs, err := domain.DonationRequestPatch{Attributes: req.Attributes}.AttributesJSON()
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}

	query, args, err := postgres.Psql().
		Insert(donationRequestsTable).
		Columns("requester_email", "status", "created_at", "attributes").
		Values(req.RequesterEmail, string(req.Status), req.CreatedAt, sq.Expr("?::jsonb", string(attrs))).
		Suffix("RETURNING id::text").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert donation request query: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&req.ID); err != nil {
		return fmt.Errorf("insert donation request: %w", err)
	}
	return nil
}

// GetDonationRequest returns a request by id.
func (r *Repository) GetDonationRequest(ctx context.Context, id string) (*domain.DonationRequest, error) {
	if !postgres.IsUUID(id) {
		return nil, donations.ErrDonationRequestNotFound
	}

	query, args, err := postgres.Psql().
		Select(donationRequestColumns...).
		From(donationRequestsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get donation request query: %w", err)
	}

	var row donationRequestRow
	if err := pgxscan.Get(ctx, r.db, &row, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, donations.ErrDonationRequestNotFound
		}
		return nil, fmt.Errorf("get donation request: %w", err)
	}

	req, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListDonationRequests returns requests matching filter, newest first.
func (r *Repository) ListDonationRequests(ctx context.Context, filter donations.ListFilter) ([]domain.DonationRequest, error) {
	builder := postgres.Psql().
		Select(donationRequestColumns...).
		From(donationRequestsTable).
		OrderBy("created_at DESC", "id")
	if filter.RequesterEmail != "" {
		builder = builder.Where(sq.Eq{"requester_email": filter.RequesterEmail})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list donation requests query: %w", err)
	}

	var rows []donationRequestRow
	if err := pgxscan.Select(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list donation requests: %w", err)
	}

	requests := make([]domain.DonationRequest, 0, len(rows))
	for _, row := range rows {
		req, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, nil
}

// UpdateDonationRequest applies patch to the request with the given id.
func (r *Repository) UpdateDonationRequest(ctx context.Context, id string, patch domain.DonationRequestPatch) (domain.UpdateResult, error) {
	if !postgres.IsUUID(id) || patch.IsEmpty() {
		return domain.UpdateResult{Acknowledged: true}, nil
	}

	set := map[string]interface{}{}
	if patch.RequesterEmail != nil {
		set["requester_email"] = *patch.RequesterEmail
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.CreatedAt != nil {
		set["created_at"] = *patch.CreatedAt
	}
	if len(patch.Attributes) > 0 {
		attrs, err := patch.AttributesJSON()
		if err != nil {
			return domain.UpdateResult{}, fmt.Errorf("encode attributes: %w", err)
		}
		set["attributes"] = sq.Expr("attributes || ?::jsonb", string(attrs))
	}

	query, args, err := postgres.Psql().
		Update(donationRequestsTable).
		SetMap(set).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("build update donation request query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("update donation request: %w", err)
	}

	n := tag.RowsAffected()
	return domain.UpdateResult{Acknowledged: true, MatchedCount: n, ModifiedCount: n}, nil
}

// DeleteDonationRequest removes the request with the given id.
func (r *Repository) DeleteDonationRequest(ctx context.Context, id string) (domain.DeleteResult, error) {
	if !postgres.IsUUID(id) {
		return domain.DeleteResult{Acknowledged: true}, nil
	}

	query, args, err := postgres.Psql().
		Delete(donationRequestsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.DeleteResult{}, fmt.Errorf("build delete donation request query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return domain.DeleteResult{}, fmt.Errorf("delete donation request: %w", err)
	}
	return domain.DeleteResult{Acknowledged: true, DeletedCount: tag.RowsAffected()}, nil
}

// CountDonationRequests counts all requests.
func (r *Repository) CountDonationRequests(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+donationRequestsTable).Scan(&n); err != nil {
		return 0, fmt.Errorf("count donation requests: %w", err)
	}
	return n, nil
}
