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

var refConfig = UpsertConfig{
	Table:        "lifespan_references",
	Columns:      []string{"system_type", "system_subtype", "climate_zone", "typical_years"},
	ConflictKeys: []string{"system_type", "system_subtype", "climate_zone"},
}

func TestUpsertStatement(t *testing.T) {
	sql, err := UpsertStatement(UpsertConfig{
		Table:        "predictions",
		Columns:      []string{"address_id", "field", "model_version", "predicted_value"},
		ConflictKeys: []string{"address_id", "field", "model_version"},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO "predictions" ("address_id", "field", "model_version", "predicted_value") VALUES ($1, $2, $3, $4) `+
			`ON CONFLICT ("address_id", "field", "model_version") DO UPDATE SET "predicted_value" = EXCLUDED."predicted_value"`,
		sql)
}

func TestUpsertStatement_DoNothing(t *testing.T) {
	sql, err := UpsertStatement(UpsertConfig{Table: "s.t", Columns: []string{"id"}, ConflictKeys: []string{"id"}})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "s"."t" ("id") VALUES ($1) ON CONFLICT ("id") DO NOTHING`, sql)
}

func TestUpsertStatement_Invalid(t *testing.T) {
	_, err := UpsertStatement(UpsertConfig{Table: "t", ConflictKeys: []string{"id"}})
	assert.ErrorContains(t, err, "no columns specified")
	_, err = UpsertStatement(UpsertConfig{Table: "t", Columns: []string{"id"}})
	assert.ErrorContains(t, err, "no conflict keys specified")
	_, err = UpsertStatement(UpsertConfig{Columns: []string{"id"}, ConflictKeys: []string{"id"}})
	assert.ErrorContains(t, err, "no table specified")
}

func TestBulkUpsert_EmptyRows(t *testing.T) {
	n, err := BulkUpsert(context.Background(), nil, refConfig, nil)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestBulkUpsert_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_stage_lifespan_references"`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_lifespan_references"}, refConfig.Columns).WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "lifespan_references" .* ON CONFLICT \("system_type", "system_subtype", "climate_zone"\) DO UPDATE SET "typical_years" = EXCLUDED."typical_years"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.Background(), mock, refConfig, [][]any{
		{"roof", "metal", "default", 45},
		{"roof", "tile", "default", 40},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestBulkUpsert_MergeFails(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_lifespan_references"}, refConfig.Columns).WillReturnResult(1)
	mock.ExpectExec(`INSERT INTO`).WillReturnError(errors.New("constraint missing"))
	mock.ExpectRollback()

	_, err = BulkUpsert(context.Background(), mock, refConfig, [][]any{{"roof", "metal", "default", 45}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merge lifespan_references")
	assert.NoError(t, mock.ExpectationsWereMet())
}
