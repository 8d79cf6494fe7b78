package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.Background(), nil, "maintenance_tasks", []string{"a"}, nil)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"maintenance_tasks"}, []string{"home_id", "title"}).WillReturnResult(2)

	n, err := CopyFrom(context.Background(), mock, "maintenance_tasks", []string{"home_id", "title"},
		[][]any{{"h1", "Clean gutters"}, {"h1", "Flush water heater"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_SchemaQualified(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"ref", "lifespans"}, []string{"x"}).WillReturnError(errors.New("copy failed"))

	_, err = CopyFrom(context.Background(), mock, "ref.lifespans", []string{"x"}, [][]any{{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy into ref.lifespans")
	assert.NoError(t, mock.ExpectationsWereMet())
}
