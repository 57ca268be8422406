// Package service 分析服务编排层
//
// 引擎之外的一切 I/O 都在这里：取原始读数、redis 去重锁、
// sleep_analysis 状态机落库。引擎失败视为原子失败，不写部分结果。
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"wisefido-sleep-analyzer/internal/engine"
	"wisefido-sleep-analyzer/internal/models"
	"wisefido-sleep-analyzer/internal/repository"
)

// 去重锁参数
const (
	lockKeyPrefix = "sleep:analysis:lock:"
	lockTTL       = 10 * time.Minute
)

// AlgorithmHavok HAVOK 节律分析的算法标签（与睡眠分类算法共用状态机）
const AlgorithmHavok = "havok"

// Outcome 一次分析请求的结果
type Outcome struct {
	Status   string          `json:"status"` // processing / completed
	Cached   bool            `json:"cached"`
	Analysis json.RawMessage `json:"analysis,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// AnalysisService 睡眠分析服务
type AnalysisService struct {
	engine       *engine.Engine
	readings     repository.ReadingsSource
	analysisRepo *repository.SleepAnalysisRepository
	redisClient  *redis.Client
	logger       *zap.Logger
}

// NewAnalysisService 创建分析服务
func NewAnalysisService(
	eng *engine.Engine,
	readings repository.ReadingsSource,
	analysisRepo *repository.SleepAnalysisRepository,
	redisClient *redis.Client,
	logger *zap.Logger,
) *AnalysisService {
	return &AnalysisService{
		engine:       eng,
		readings:     readings,
		analysisRepo: analysisRepo,
		redisClient:  redisClient,
		logger:       logger,
	}
}

// AnalyzeSession 对一次记录会话执行睡眠分析
//
// algorithm 取 engine.AlgorithmThreshold 或 engine.AlgorithmColeKripke。
// 去重语义：
// 1. redis SETNX 锁挡掉同进程/跨进程的并发重复请求
// 2. sleep_analysis 唯一约束做最终保障（error 行可重新抢占）
// 3. completed 行直接返回缓存结果，引擎不重算
func (s *AnalysisService) AnalyzeSession(ctx context.Context, tenantID, sessionID, algorithm string) (*Outcome, error) {
	return s.run(ctx, tenantID, sessionID, algorithm, func(samples []models.RawSample) (any, error) {
		return s.engine.AnalyzeSleep(samples, algorithm)
	})
}

// AnalyzeRhythm 对一次记录会话执行 HAVOK 节律分析
func (s *AnalysisService) AnalyzeRhythm(ctx context.Context, tenantID, sessionID string) (*Outcome, error) {
	return s.run(ctx, tenantID, sessionID, AlgorithmHavok, func(samples []models.RawSample) (any, error) {
		return s.engine.AnalyzeRhythm(samples)
	})
}

// GetAnalysis 读取已有的分析行
func (s *AnalysisService) GetAnalysis(ctx context.Context, sessionID, algorithm string) (*models.AnalysisRecord, error) {
	return s.analysisRepo.GetBySession(ctx, sessionID, algorithm)
}

// run 公共编排路径
func (s *AnalysisService) run(ctx context.Context, tenantID, sessionID, algorithm string, compute func([]models.RawSample) (any, error)) (*Outcome, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required")
	}

	lockKey := lockKeyPrefix + sessionID + ":" + algorithm
	locked, err := s.redisClient.SetNX(ctx, lockKey, time.Now().Unix(), lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire analysis lock: %w", err)
	}
	if !locked {
		return &Outcome{Status: models.StatusProcessing, Message: "analysis already in progress"}, nil
	}
	defer s.redisClient.Del(ctx, lockKey)

	owned, existing, err := s.analysisRepo.Claim(ctx, tenantID, sessionID, algorithm)
	if err != nil {
		return nil, err
	}
	if !owned {
		if existing.ProcessingStatus == models.StatusCompleted {
			return &Outcome{Status: models.StatusCompleted, Cached: true, Analysis: existing.Result}, nil
		}
		return &Outcome{Status: models.StatusProcessing, Message: "analysis already in progress"}, nil
	}

	start := time.Now()
	result, err := s.computeSession(ctx, sessionID, compute)
	if err != nil {
		if failErr := s.analysisRepo.Fail(ctx, sessionID, algorithm, err.Error(), time.Since(start)); failErr != nil {
			s.logger.Error("Failed to record analysis error", zap.Error(failErr))
		}
		s.logger.Warn("Analysis failed",
			zap.String("session_id", sessionID),
			zap.String("algorithm", algorithm),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.analysisRepo.Complete(ctx, sessionID, algorithm, result, time.Since(start)); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analysis result: %w", err)
	}
	return &Outcome{Status: models.StatusCompleted, Analysis: payload}, nil
}

// computeSession 取数 + 调用引擎
func (s *AnalysisService) computeSession(ctx context.Context, sessionID string, compute func([]models.RawSample) (any, error)) (any, error) {
	samples, err := s.readings.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Fetched raw readings",
		zap.String("session_id", sessionID),
		zap.Int("samples", len(samples)),
	)
	return compute(samples)
}
