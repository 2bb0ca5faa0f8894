// Package postgres implements fundings.Repository on PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bissquit/blood-donation/internal/domain"
	"github.com/bissquit/blood-donation/internal/pkg/postgres"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const fundingsTable = "fundings"

// sumAmountSQL ignores amounts that are not JSON numbers.
const sumAmountSQL = `COALESCE(SUM(CASE WHEN jsonb_typeof(attributes->'amount') = 'number'
	THEN (attributes->>'amount')::double precision ELSE 0 END), 0)`

// Repository implements fundings.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

type fundingRow struct {
	ID          string    `db:"id"`
	FundingDate time.Time `db:"funding_date"`
	Attributes  []byte    `db:"attributes"`
}

// CreateFunding inserts a new funding.
func (r *Repository) CreateFunding(ctx context.Context, funding *domain.Funding) error {
	attrs, err := json.Marshal(funding.Attributes)
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}
	if funding.Attributes == nil {
		attrs = []byte("{}")
	}

	query, args, err := postgres.Psql().
		Insert(fundingsTable).
		Columns("funding_date", "attributes").
		Values(funding.FundingDate, sq.Expr("?::jsonb", string(attrs))).
		Suffix("RETURNING id::text").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert funding query: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&funding.ID); err != nil {
		return fmt.Errorf("insert funding: %w", err)
	}
	return nil
}

// ListFundings returns all fundings, newest first.
func (r *Repository) ListFundings(ctx context.Context) ([]domain.Funding, error) {
	query, args, err := postgres.Psql().
		Select("id::text AS id", "funding_date", "attributes").
		From(fundingsTable).
		OrderBy("funding_date DESC", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list fundings query: %w", err)
	}

	var rows []fundingRow
	if err := pgxscan.Select(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list fundings: %w", err)
	}

	fundings := make([]domain.Funding, 0, len(rows))
	for _, row := range rows {
		attrs, err := domain.ParseAttributes(row.Attributes)
		if err != nil {
			return nil, err
		}
		fundings = append(fundings, domain.Funding{
			ID:          row.ID,
			FundingDate: row.FundingDate.UTC(),
			Attributes:  attrs,
		})
	}
	return fundings, nil
}

// SumFundingAmounts adds up the numeric amounts of all fundings.
func (r *Repository) SumFundingAmounts(ctx context.Context) (float64, error) {
	query, args, err := postgres.Psql().
		Select(sumAmountSQL).
		From(fundingsTable).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build sum fundings query: %w", err)
	}

	var total float64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum fundings: %w", err)
	}
	return total, nil
}
