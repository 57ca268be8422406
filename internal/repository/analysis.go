package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wisefido-sleep-analyzer/internal/models"
)

// SleepAnalysisRepository sleep_analysis 表仓库
//
// 承载 at-most-once 状态机：抢占（插入 processing 行）→ 完成/失败。
// 唯一约束 (session_id, algorithm) 是外部去重语义的最终保障，
// 引擎本身是幂等纯函数，不做任何锁。
type SleepAnalysisRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSleepAnalysisRepository 创建 sleep_analysis 仓库
func NewSleepAnalysisRepository(db *sql.DB, logger *zap.Logger) *SleepAnalysisRepository {
	return &SleepAnalysisRepository{db: db, logger: logger}
}

// Claim 抢占一次会话的分析所有权
//
// 返回 (owned, existing)：
//   - owned=true：本调用抢到所有权（插入了新 processing 行，或把 error 行重置回 processing）
//   - owned=false：已有别的调用在处理或已完成，existing 为现有行
func (r *SleepAnalysisRepository) Claim(ctx context.Context, tenantID, sessionID, algorithm string) (bool, *models.AnalysisRecord, error) {
	insert := `
		INSERT INTO sleep_analysis (analysis_id, tenant_id, session_id, algorithm, processing_status, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (session_id, algorithm) DO NOTHING
		RETURNING analysis_id
	`

	var analysisID string
	err := r.db.QueryRowContext(ctx, insert,
		uuid.New().String(), tenantID, sessionID, algorithm, models.StatusProcessing,
	).Scan(&analysisID)
	if err == nil {
		return true, nil, nil
	}
	if err != sql.ErrNoRows {
		return false, nil, fmt.Errorf("failed to claim analysis: %w", err)
	}

	// 冲突：读取现有行
	existing, err := r.GetBySession(ctx, sessionID, algorithm)
	if err != nil {
		return false, nil, err
	}
	if existing == nil {
		return false, nil, fmt.Errorf("analysis row for session %s disappeared after conflict", sessionID)
	}

	// error 行允许重新抢占
	if existing.ProcessingStatus == models.StatusError {
		update := `
			UPDATE sleep_analysis
			SET processing_status = $1, processing_error = NULL
			WHERE session_id = $2 AND algorithm = $3 AND processing_status = $4
		`
		result, err := r.db.ExecContext(ctx, update, models.StatusProcessing, sessionID, algorithm, models.StatusError)
		if err != nil {
			return false, nil, fmt.Errorf("failed to reclaim errored analysis: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 1 {
			return true, existing, nil
		}
		// 并发者抢先重置了，按未抢到处理
	}

	return false, existing, nil
}

// Complete 写入完整分析结果并置为 completed
//
// 失败路径不会走到这里：引擎失败时整行走 Fail，不存在部分填充的结果。
func (r *SleepAnalysisRepository) Complete(ctx context.Context, sessionID, algorithm string, result any, duration time.Duration) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis result: %w", err)
	}

	query := `
		UPDATE sleep_analysis
		SET processing_status = $1,
		    processing_error = NULL,
		    result = $2,
		    processed_at = NOW(),
		    processing_duration_seconds = $3
		WHERE session_id = $4 AND algorithm = $5
	`
	if _, err := r.db.ExecContext(ctx, query,
		models.StatusCompleted, payload, duration.Seconds(), sessionID, algorithm,
	); err != nil {
		return fmt.Errorf("failed to complete analysis: %w", err)
	}

	r.logger.Info("Analysis completed",
		zap.String("session_id", sessionID),
		zap.String("algorithm", algorithm),
		zap.Duration("duration", duration),
	)
	return nil
}

// Fail 记录失败原因并置为 error
func (r *SleepAnalysisRepository) Fail(ctx context.Context, sessionID, algorithm, message string, duration time.Duration) error {
	query := `
		UPDATE sleep_analysis
		SET processing_status = $1,
		    processing_error = $2,
		    processed_at = NOW(),
		    processing_duration_seconds = $3
		WHERE session_id = $4 AND algorithm = $5
	`
	if _, err := r.db.ExecContext(ctx, query,
		models.StatusError, message, duration.Seconds(), sessionID, algorithm,
	); err != nil {
		return fmt.Errorf("failed to mark analysis as error: %w", err)
	}
	return nil
}

// GetBySession 读取一次会话某算法的分析行，不存在时返回 (nil, nil)
func (r *SleepAnalysisRepository) GetBySession(ctx context.Context, sessionID, algorithm string) (*models.AnalysisRecord, error) {
	query := `
		SELECT analysis_id::text, tenant_id::text, session_id::text, algorithm,
		       processing_status, processing_error, result,
		       processed_at, processing_duration_seconds, created_at
		FROM sleep_analysis
		WHERE session_id = $1 AND algorithm = $2
	`

	var rec models.AnalysisRecord
	var procErr sql.NullString
	var result []byte
	var processedAt sql.NullTime
	var duration sql.NullFloat64

	err := r.db.QueryRowContext(ctx, query, sessionID, algorithm).Scan(
		&rec.AnalysisID,
		&rec.TenantID,
		&rec.SessionID,
		&rec.Algorithm,
		&rec.ProcessingStatus,
		&procErr,
		&result,
		&processedAt,
		&duration,
		&rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	if procErr.Valid {
		rec.ProcessingError = &procErr.String
	}
	if len(result) > 0 {
		rec.Result = json.RawMessage(result)
	}
	if processedAt.Valid {
		t := processedAt.Time
		rec.ProcessedAt = &t
	}
	if duration.Valid {
		d := duration.Float64
		rec.ProcessingDurationSeconds = &d
	}
	return &rec, nil
}
