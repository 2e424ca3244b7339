package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth_ReportsHealthyOnSuccessfulPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()

	status, err := Health(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, "healthy", status.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealth_ReportsUnhealthyWhenPingFails(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(assert.AnError)

	status, err := Health(context.Background(), db)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, "unhealthy", status.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
