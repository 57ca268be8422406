package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"wisefido-sleep-analyzer/internal/models"
)

// ReadingsSource 原始读数来源接口
//
// PostgreSQL 与 REST 两种实现；service 层按配置选择。
type ReadingsSource interface {
	// ListBySession 按时间戳升序返回一次记录会话的全部原始读数
	ListBySession(ctx context.Context, sessionID string) ([]models.RawSample, error)
}

// SensorReadingsRepository sensor_readings 表仓库
type SensorReadingsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSensorReadingsRepository 创建 sensor_readings 仓库
func NewSensorReadingsRepository(db *sql.DB, logger *zap.Logger) *SensorReadingsRepository {
	return &SensorReadingsRepository{db: db, logger: logger}
}

var _ ReadingsSource = (*SensorReadingsRepository)(nil)

// ListBySession 按时间戳升序读取一次会话的全部读数
func (r *SensorReadingsRepository) ListBySession(ctx context.Context, sessionID string) ([]models.RawSample, error) {
	query := `
		SELECT timestamp, ppg, acc_x, acc_y, acc_z, gyro_x, gyro_y, gyro_z
		FROM sensor_readings
		WHERE session_id = $1
		ORDER BY timestamp
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sensor readings: %w", err)
	}
	defer rows.Close()

	var samples []models.RawSample
	for rows.Next() {
		var s models.RawSample
		var ppg, ax, ay, az, gx, gy, gz sql.NullFloat64
		if err := rows.Scan(&s.Timestamp, &ppg, &ax, &ay, &az, &gx, &gy, &gz); err != nil {
			return nil, fmt.Errorf("failed to scan sensor reading: %w", err)
		}
		s.PPG = nullableFloat(ppg)
		s.AccX = nullableFloat(ax)
		s.AccY = nullableFloat(ay)
		s.AccZ = nullableFloat(az)
		s.GyroX = nullableFloat(gx)
		s.GyroY = nullableFloat(gy)
		s.GyroZ = nullableFloat(gz)
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sensor readings: %w", err)
	}

	return samples, nil
}

// InsertBatch 批量写入一组原始读数（MQTT 样本上报路径）
//
// 单事务写入，任一行失败整体回滚。
func (r *SensorReadingsRepository) InsertBatch(ctx context.Context, sessionID string, samples []models.RawSample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sensor_readings (
			session_id, timestamp, ppg, acc_x, acc_y, acc_z, gyro_x, gyro_y, gyro_z
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range samples {
		if _, err := stmt.ExecContext(ctx,
			sessionID, s.Timestamp, s.PPG, s.AccX, s.AccY, s.AccZ, s.GyroX, s.GyroY, s.GyroZ,
		); err != nil {
			return fmt.Errorf("failed to insert sensor reading: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sensor readings: %w", err)
	}

	r.logger.Debug("Inserted sensor readings batch",
		zap.String("session_id", sessionID),
		zap.Int("count", len(samples)),
	)
	return nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
