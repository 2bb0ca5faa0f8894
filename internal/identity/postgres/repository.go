// Package postgres implements identity.Repository on PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bissquit/blood-donation/internal/domain"
	"github.com/bissquit/blood-donation/internal/identity"
	"github.com/bissquit/blood-donation/internal/pkg/postgres"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	usersTable         = "users"
	usersEmailKey      = "users_email_key"
	attributesMergeSQL = "attributes || ?::jsonb"
)

var userColumns = []string{"id::text AS id", "email", "role", "status", "created_at", "attributes"}

// Repository implements identity.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

type userRow struct {
	ID         string    `db:"id"`
	Email      string    `db:"email"`
	Role       string    `db:"role"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
	Attributes []byte    `db:"attributes"`
}

func (row userRow) toDomain() (domain.User, error) {
	attrs, err := domain.ParseAttributes(row.Attributes)
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:         row.ID,
		Email:      row.Email,
		Role:       domain.Role(row.Role),
		Status:     domain.UserStatus(row.Status),
		CreatedAt:  row.CreatedAt.UTC(),
		Attributes: attrs,
	}, nil
}

// CreateUser inserts a new user. The unique email constraint rejects duplicates.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	attrs, err := domain.UserPatch{Attributes: user.Attributes}.AttributesJSON()
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}

	query, args, err := postgres.Psql().
		Insert(usersTable).
		Columns("email", "role", "status", "created_at", "attributes").
		Values(user.Email, string(user.Role), string(user.Status), user.CreatedAt, sq.Expr("?::jsonb", string(attrs))).
		Suffix("RETURNING id::text").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user query: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&user.ID); err != nil {
		if postgres.IsUniqueViolation(err, usersEmailKey) {
			return identity.ErrEmailExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// FindUser returns the oldest user matching filter.
func (r *Repository) FindUser(ctx context.Context, filter identity.UserFilter) (*domain.User, error) {
	query, args, err := postgres.Psql().
		Select(userColumns...).
		From(usersTable).
		Where(filterWhere(filter)).
		OrderBy("created_at", "id").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find user query: %w", err)
	}

	var row userRow
	if err := pgxscan.Get(ctx, r.db, &row, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	user, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns users matching filter, newest first.
func (r *Repository) ListUsers(ctx context.Context, filter identity.UserFilter) ([]domain.User, error) {
	query, args, err := postgres.Psql().
		Select(userColumns...).
		From(usersTable).
		Where(filterWhere(filter)).
		OrderBy("created_at DESC", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list users query: %w", err)
	}

	var rows []userRow
	if err := pgxscan.Select(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		user, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// UpdateUser applies patch to the user with the given id.
// Attributes are merged into the stored JSONB document.
func (r *Repository) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (domain.UpdateResult, error) {
	if !postgres.IsUUID(id) || patch.IsEmpty() {
		return domain.UpdateResult{Acknowledged: true}, nil
	}

	set := map[string]interface{}{}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.Role != nil {
		set["role"] = string(*patch.Role)
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if len(patch.Attributes) > 0 {
		attrs, err := patch.AttributesJSON()
		if err != nil {
			return domain.UpdateResult{}, fmt.Errorf("encode attributes: %w", err)
		}
		set["attributes"] = sq.Expr(attributesMergeSQL, string(attrs))
	}

	query, args, err := postgres.Psql().
		Update(usersTable).
		SetMap(set).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("build update user query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if postgres.IsUniqueViolation(err, usersEmailKey) {
			return domain.UpdateResult{}, identity.ErrEmailExists
		}
		return domain.UpdateResult{}, fmt.Errorf("update user: %w", err)
	}

	n := tag.RowsAffected()
	return domain.UpdateResult{Acknowledged: true, MatchedCount: n, ModifiedCount: n}, nil
}

// CountUsers counts users matching filter.
func (r *Repository) CountUsers(ctx context.Context, filter identity.UserFilter) (int64, error) {
	query, args, err := postgres.Psql().
		Select("COUNT(*)").
		From(usersTable).
		Where(filterWhere(filter)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count users query: %w", err)
	}

	var n int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func filterWhere(filter identity.UserFilter) sq.Eq {
	where := sq.Eq{}
	if filter.Email != "" {
		where["email"] = filter.Email
	}
	if filter.Role != "" {
		where["role"] = string(filter.Role)
	}
	if filter.Status != "" {
		where["status"] = string(filter.Status)
	}
	return where
}
