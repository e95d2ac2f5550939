package creds

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewStore(mock, nil), mock
}

func TestSaveReplacesExistingRow(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectExec("DELETE FROM user_credentials").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("INSERT INTO user_credentials").
		WithArgs("key-1", "dev-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.Save(context.Background(), Credentials{APIKey: "key-1", DeviceID: "dev-1"}, false)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadSingleRow(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectQuery("SELECT api_key, device_id FROM user_credentials").
		WillReturnRows(pgxmock.NewRows([]string{"api_key", "device_id"}).AddRow("key-1", "dev-1"))

	pair, err := s.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Credentials{APIKey: "key-1", DeviceID: "dev-1"}, pair)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadNoRowsIsConfigurationError(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectQuery("SELECT api_key, device_id FROM user_credentials").
		WillReturnRows(pgxmock.NewRows([]string{"api_key", "device_id"}))

	_, err := s.Load(context.Background())

	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadMultipleRowsIsConfigurationError(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectQuery("SELECT api_key, device_id FROM user_credentials").
		WillReturnRows(pgxmock.NewRows([]string{"api_key", "device_id"}).
			AddRow("key-1", "dev-1").
			AddRow("key-2", "dev-2"))

	_, err := s.Load(context.Background())

	assert.ErrorIs(t, err, ErrAmbiguous)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedWithoutCache(t *testing.T) {
	s, _ := newTestStore(t)

	_, ok, err := s.Cached(context.Background())

	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, s.ClearCache(context.Background()))
}
