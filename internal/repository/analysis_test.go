package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wisefido-sleep-analyzer/internal/models"
)

func analysisRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"analysis_id", "tenant_id", "session_id", "algorithm",
		"processing_status", "processing_error", "result",
		"processed_at", "processing_duration_seconds", "created_at",
	})
}

func TestSleepAnalysisRepository_Claim_NewRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO sleep_analysis").
		WillReturnRows(sqlmock.NewRows([]string{"analysis_id"}).AddRow("a-1"))

	repo := NewSleepAnalysisRepository(db, zap.NewNop())
	owned, existing, err := repo.Claim(context.Background(), "tenant-1", "session-1", "threshold")
	require.NoError(t, err)
	assert.True(t, owned)
	assert.Nil(t, existing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSleepAnalysisRepository_Claim_ConflictCompleted(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// 唯一约束冲突：INSERT 不返回行
	mock.ExpectQuery("INSERT INTO sleep_analysis").
		WillReturnError(sql.ErrNoRows)

	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT analysis_id").
		WithArgs("session-1", "threshold").
		WillReturnRows(analysisRows().AddRow(
			"a-1", "tenant-1", "session-1", "threshold",
			models.StatusCompleted, nil, []byte(`{"algorithm_used":"threshold"}`),
			created.Add(time.Minute), 1.5, created,
		))

	repo := NewSleepAnalysisRepository(db, zap.NewNop())
	owned, existing, err := repo.Claim(context.Background(), "tenant-1", "session-1", "threshold")
	require.NoError(t, err)
	assert.False(t, owned)
	require.NotNil(t, existing)
	assert.Equal(t, models.StatusCompleted, existing.ProcessingStatus)
	assert.JSONEq(t, `{"algorithm_used":"threshold"}`, string(existing.Result))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSleepAnalysisRepository_Claim_ReclaimErrorRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO sleep_analysis").
		WillReturnError(sql.ErrNoRows)

	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT analysis_id").
		WithArgs("session-1", "threshold").
		WillReturnRows(analysisRows().AddRow(
			"a-1", "tenant-1", "session-1", "threshold",
			models.StatusError, "no sleep periods detected", nil,
			created.Add(time.Minute), 0.4, created,
		))

	// error 行重置回 processing
	mock.ExpectExec("UPDATE sleep_analysis").
		WithArgs(models.StatusProcessing, "session-1", "threshold", models.StatusError).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewSleepAnalysisRepository(db, zap.NewNop())
	owned, _, err := repo.Claim(context.Background(), "tenant-1", "session-1", "threshold")
	require.NoError(t, err)
	assert.True(t, owned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSleepAnalysisRepository_Claim_ReclaimLostRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO sleep_analysis").
		WillReturnError(sql.ErrNoRows)

	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT analysis_id").
		WithArgs("session-1", "threshold").
		WillReturnRows(analysisRows().AddRow(
			"a-1", "tenant-1", "session-1", "threshold",
			models.StatusError, "boom", nil,
			nil, nil, created,
		))

	// 并发者抢先重置：条件 UPDATE 影响 0 行
	mock.ExpectExec("UPDATE sleep_analysis").
		WithArgs(models.StatusProcessing, "session-1", "threshold", models.StatusError).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewSleepAnalysisRepository(db, zap.NewNop())
	owned, existing, err := repo.Claim(context.Background(), "tenant-1", "session-1", "threshold")
	require.NoError(t, err)
	assert.False(t, owned)
	require.NotNil(t, existing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSleepAnalysisRepository_Complete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE sleep_analysis").
		WithArgs(models.StatusCompleted, []byte(`{"total_sleep":420}`), 2.5, "session-1", "threshold").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewSleepAnalysisRepository(db, zap.NewNop())
	err = repo.Complete(context.Background(), "session-1", "threshold",
		map[string]int{"total_sleep": 420}, 2500*time.Millisecond)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSleepAnalysisRepository_Fail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE sleep_analysis").
		WithArgs(models.StatusError, "no sleep periods detected", 0.5, "session-1", "threshold").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewSleepAnalysisRepository(db, zap.NewNop())
	err = repo.Fail(context.Background(), "session-1", "threshold",
		"no sleep periods detected", 500*time.Millisecond)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSleepAnalysisRepository_GetBySession_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT analysis_id").
		WithArgs("session-x", "threshold").
		WillReturnRows(analysisRows())

	repo := NewSleepAnalysisRepository(db, zap.NewNop())
	rec, err := repo.GetBySession(context.Background(), "session-x", "threshold")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}
