package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunward-group/rooftop-cli/internal/model"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock}, mock
}

func TestPostgres_CreateRun(t *testing.T) {
	st, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), string(model.RunStatusQueued), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := st.CreateRun(context.Background(), testSite())
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)
	assert.Equal(t, "maple-street", run.Site.Name)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateRunStatus(t *testing.T) {
	st, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET status`).
		WithArgs(string(model.RunStatusAnalyzing), pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, st.UpdateRunStatus(context.Background(), "run-1", model.RunStatusAnalyzing))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateRunStatus_NotFound(t *testing.T) {
	st, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET status`).
		WithArgs(string(model.RunStatusFailed), pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := st.UpdateRunStatus(context.Background(), "missing", model.RunStatusFailed)
	assert.ErrorContains(t, err, "run not found: missing")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateRunResult(t *testing.T) {
	st, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET result`).
		WithArgs(pgxmock.AnyArg(), string(model.RunStatusComplete), pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, st.UpdateRunResult(context.Background(), "run-1", testResult()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetRun(t *testing.T) {
	st, mock := newMockPostgresStore(t)

	siteJSON, err := json.Marshal(testSite())
	require.NoError(t, err)
	resultJSON, err := json.Marshal(testResult())
	require.NoError(t, err)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{"id", "site", "status", "result", "created_at", "updated_at"}).
		AddRow("run-1", siteJSON, model.RunStatusComplete, &resultJSON, now, now)
	mock.ExpectQuery(`SELECT id, site, status, result, created_at, updated_at FROM runs WHERE id`).
		WithArgs("run-1").
		WillReturnRows(rows)

	run, err := st.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, "maple-street", run.Site.Name)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Result)
	assert.Equal(t, 43, run.Result.PanelLayout.PanelCount)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetRun_NotFound(t *testing.T) {
	st, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, site, status, result, created_at, updated_at FROM runs WHERE id`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := st.GetRun(context.Background(), "missing")
	assert.ErrorContains(t, err, "get run missing")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListRuns_Filters(t *testing.T) {
	st, mock := newMockPostgresStore(t)

	siteJSON, err := json.Marshal(testSite())
	require.NoError(t, err)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{"id", "site", "status", "result", "created_at", "updated_at"}).
		AddRow("run-1", siteJSON, model.RunStatusComplete, (*[]byte)(nil), now, now)
	mock.ExpectQuery(`SELECT .+ FROM runs WHERE true AND status = \$1 AND site->>'name' = \$2`).
		WithArgs(string(model.RunStatusComplete), "maple-street", 25).
		WillReturnRows(rows)

	runs, err := st.ListRuns(context.Background(), RunFilter{
		Status:   model.RunStatusComplete,
		SiteName: "maple-street",
		Limit:    25,
	})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Nil(t, runs[0].Result)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListRuns_DefaultLimit(t *testing.T) {
	st, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"id", "site", "status", "result", "created_at", "updated_at"})
	mock.ExpectQuery(`SELECT .+ FROM runs WHERE true ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(100).
		WillReturnRows(rows)

	runs, err := st.ListRuns(context.Background(), RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)

	assert.NoError(t, mock.ExpectationsWereMet())
}
