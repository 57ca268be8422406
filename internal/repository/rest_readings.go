package repository

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"wisefido-sleep-analyzer/internal/models"
)

// RestReadingsSource Supabase 风格的 REST 读数来源
//
// 设备数据留在托管库时走此路径：
// GET {base}/rest/v1/sensor_readings?session_id=eq.{id}&order=timestamp
type RestReadingsSource struct {
	client *resty.Client
	logger *zap.Logger
}

// NewRestReadingsSource 创建 REST 读数来源
func NewRestReadingsSource(baseURL, apiKey string, logger *zap.Logger) *RestReadingsSource {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("apikey", apiKey).
		SetHeader("Authorization", "Bearer "+apiKey)
	return &RestReadingsSource{client: client, logger: logger}
}

var _ ReadingsSource = (*RestReadingsSource)(nil)

// ListBySession 拉取一次会话的全部读数（服务端已按时间戳排序）
func (r *RestReadingsSource) ListBySession(ctx context.Context, sessionID string) ([]models.RawSample, error) {
	var samples []models.RawSample

	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"session_id": "eq." + sessionID,
			"select":     "timestamp,ppg,acc_x,acc_y,acc_z,gyro_x,gyro_y,gyro_z",
			"order":      "timestamp",
		}).
		SetResult(&samples).
		Get("/rest/v1/sensor_readings")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sensor readings: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("sensor readings request failed: status %d: %s", resp.StatusCode(), resp.String())
	}

	r.logger.Debug("Fetched sensor readings from REST source",
		zap.String("session_id", sessionID),
		zap.Int("count", len(samples)),
	)
	return samples, nil
}
