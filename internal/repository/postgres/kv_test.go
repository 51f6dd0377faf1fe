package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/InSync/internal/repository"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, repository.KeyValueStore) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return db, mock, NewKeyValueRepository(db)
}

func TestGet_Found(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT storage_value\s+FROM device_storage`).
		WithArgs("chat:7:user_id").
		WillReturnRows(sqlmock.NewRows([]string{"storage_value"}).AddRow("42"))

	value, found, err := repo.Get(context.Background(), "chat:7:user_id")

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "42", value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_NotFound(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT storage_value`).
		WithArgs("user_id").
		WillReturnError(sql.ErrNoRows)

	_, found, err := repo.Get(context.Background(), "user_id")

	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_Error(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery(`SELECT storage_value`).
		WithArgs("user_id").
		WillReturnError(boom)

	_, found, err := repo.Get(context.Background(), "user_id")

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, found)
}

func TestSet_Upserts(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO device_storage .* ON CONFLICT \(storage_key\) DO UPDATE`).
		WithArgs("user_id", "42", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Set(context.Background(), "user_id", "42"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_AbsentKeyIsNotAnError(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM device_storage`).
		WithArgs("user_id").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "user_id"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
