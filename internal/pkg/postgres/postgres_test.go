package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}

	assert.True(t, IsUniqueViolation(dup, ""))
	assert.True(t, IsUniqueViolation(dup, "users_email_key"))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert user: %w", dup), "users_email_key"))
	assert.False(t, IsUniqueViolation(dup, "other_key"))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, IsUniqueViolation(errors.New("boom"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}

func TestMigrate_UnknownDirection(t *testing.T) {
	err := Migrate("postgres://localhost:1/none?sslmode=disable", t.TempDir(), MigrateDirection("sideways"))
	assert.Error(t, err)
}

func TestIsUUID(t *testing.T) {
	assert.True(t, IsUUID("8b1c6c1e-4a0e-4f55-9f54-5a1b0f4c2d11"))
	assert.False(t, IsUUID("not-a-uuid"))
	assert.False(t, IsUUID(""))
}

func TestPsql_UsesDollarPlaceholders(t *testing.T) {
	query, args, err := Psql().Select("id").From("users").Where("email = ?", "a@x.com").ToSql()

	assert.NoError(t, err)
	assert.Equal(t, "SELECT id FROM users WHERE email = $1", query)
	assert.Equal(t, []interface{}{"a@x.com"}, args)
}
