package models

import (
	"encoding/json"
	"time"
)

// 分析行处理状态（at-most-once 状态机：processing → completed / error）
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// AnalysisRecord sleep_analysis 表的一行
//
// (session_id, algorithm) 唯一约束 + 先插 processing 行的抢占语义
// 保证同一会话同一算法至多一次计算；error 行可被重新抢占。
type AnalysisRecord struct {
	AnalysisID                string          `json:"analysis_id"`
	TenantID                  string          `json:"tenant_id"`
	SessionID                 string          `json:"session_id"`
	Algorithm                 string          `json:"algorithm"`
	ProcessingStatus          string          `json:"processing_status"`
	ProcessingError           *string         `json:"processing_error,omitempty"`
	Result                    json.RawMessage `json:"result,omitempty"`
	ProcessedAt               *time.Time      `json:"processed_at,omitempty"`
	ProcessingDurationSeconds *float64        `json:"processing_duration_seconds,omitempty"`
	CreatedAt                 time.Time       `json:"created_at"`
}
