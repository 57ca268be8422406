package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"wisefido-sleep-analyzer/internal/models"
	"wisefido-sleep-analyzer/internal/repository"
)

const insertTimeout = 30 * time.Second

// samplePayload 设备上报的样本批次
//
// 主题 wearable/{device_id}/samples，payload 为一批原始读数。
type samplePayload struct {
	SessionID string             `json:"session_id"`
	Samples   []models.RawSample `json:"samples"`
}

// Ingester 订阅设备样本并写入 sensor_readings
type Ingester struct {
	client   *Client
	readings *repository.SensorReadingsRepository
	logger   *zap.Logger
}

// NewIngester 创建样本接入器
func NewIngester(client *Client, readings *repository.SensorReadingsRepository, logger *zap.Logger) *Ingester {
	return &Ingester{client: client, readings: readings, logger: logger}
}

// Start 订阅样本主题
func (i *Ingester) Start(topic string) error {
	return i.client.Subscribe(topic, i.handleMessage)
}

// handleMessage 处理一条样本消息
func (i *Ingester) handleMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	deviceID := deviceIDFromTopic(msg.Topic())

	var payload samplePayload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		i.logger.Warn("Invalid sample payload",
			zap.String("topic", msg.Topic()),
			zap.Error(err),
		)
		return
	}
	if payload.SessionID == "" || len(payload.Samples) == 0 {
		i.logger.Warn("Sample payload missing session_id or samples",
			zap.String("topic", msg.Topic()),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	if err := i.readings.InsertBatch(ctx, payload.SessionID, payload.Samples); err != nil {
		i.logger.Error("Failed to insert sample batch",
			zap.String("device_id", deviceID),
			zap.String("session_id", payload.SessionID),
			zap.Int("samples", len(payload.Samples)),
			zap.Error(err),
		)
		return
	}
	i.logger.Debug("Inserted sample batch",
		zap.String("device_id", deviceID),
		zap.String("session_id", payload.SessionID),
		zap.Int("samples", len(payload.Samples)),
	)
}

// deviceIDFromTopic 从 wearable/{device_id}/samples 中提取设备 ID
func deviceIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) >= 2 {
		return parts[1]
	}
	return ""
}
