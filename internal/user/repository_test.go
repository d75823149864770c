package user

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupUserMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, closer
}

func userRow(id int, email, role string, balance int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "email", "password_hash", "role", "gold_id", "wallet_balance", "created_at", "updated_at",
	}).AddRow(id, "Alice", email, "hash", role, nil, balance, now, now)
}

func TestRepository_CreateAndFind(t *testing.T) {
	repo, mock, close := setupUserMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("Alice", "a@example.com", "hash", "fan").
		WillReturnRows(userRow(1, "a@example.com", "fan", 0))

	created, err := repo.Create(ctx, "Alice", "a@example.com", "hash", "fan")
	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)
	assert.Equal(t, int64(0), created.WalletBalance)
	assert.Nil(t, created.GoldID)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, email, password_hash, role, gold_id, wallet_balance, created_at, updated_at FROM users WHERE email = $1`)).
		WithArgs("a@example.com").
		WillReturnRows(userRow(1, "a@example.com", "fan", 0))

	found, err := repo.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", found.Name)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, email, password_hash, role, gold_id, wallet_balance, created_at, updated_at FROM users WHERE email = $1`)).
		WithArgs("missing@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.FindByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRepository_SetGoldID(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns when unset", func(t *testing.T) {
		repo, mock, close := setupUserMock(t)
		defer close()

		mock.ExpectExec(`UPDATE users SET gold_id`).
			WithArgs("AAAAAA", 1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SetGoldID(ctx, 1, "AAAAAA")
		assert.NoError(t, err)
	})

	t.Run("already assigned", func(t *testing.T) {
		repo, mock, close := setupUserMock(t)
		defer close()

		mock.ExpectExec(`UPDATE users SET gold_id`).
			WithArgs("AAAAAA", 1).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`)).
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		err := repo.SetGoldID(ctx, 1, "AAAAAA")
		assert.ErrorIs(t, err, ErrGoldIDAlready)
	})

	t.Run("user missing", func(t *testing.T) {
		repo, mock, close := setupUserMock(t)
		defer close()

		mock.ExpectExec(`UPDATE users SET gold_id`).
			WithArgs("AAAAAA", 99).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`)).
			WithArgs(99).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		err := repo.SetGoldID(ctx, 99, "AAAAAA")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestRepository_GoldIDExists(t *testing.T) {
	repo, mock, close := setupUserMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM users WHERE gold_id = $1)`)).
		WithArgs("ABABAB").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.GoldIDExists(context.Background(), "ABABAB")
	require.NoError(t, err)
	assert.True(t, exists)
}
