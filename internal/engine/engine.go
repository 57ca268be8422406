// Package engine 睡眠分析引擎门面
//
// 引擎是无状态纯函数：一次调用对应一次对内存中完整样本序列的
// 同步计算，不做任何 I/O，不持有跨请求状态。取数与落库由
// service/repository 层负责；调用方需自行包裹超时与去重。
package engine

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"wisefido-sleep-analyzer/internal/classifier"
	"wisefido-sleep-analyzer/internal/features"
	"wisefido-sleep-analyzer/internal/havok"
	"wisefido-sleep-analyzer/internal/models"
	"wisefido-sleep-analyzer/internal/sleepmetrics"
)

// MinRawSamples 引擎接受的最小原始样本数
const MinRawSamples = 100

// AlgorithmThreshold / AlgorithmColeKripke 支持的睡眠分类算法标签
const (
	AlgorithmThreshold  = "threshold"
	AlgorithmColeKripke = "cole-kripke"
)

// Params 引擎参数（全部有文档化默认值）
type Params struct {
	PPG       features.PPGParams
	Threshold classifier.ThresholdParams
	Havok     havok.Params
}

// DefaultParams 默认引擎参数
func DefaultParams() Params {
	return Params{
		PPG:       features.DefaultPPGParams(),
		Threshold: classifier.DefaultThresholdParams(),
		Havok:     havok.DefaultParams(),
	}
}

// Engine 睡眠分析引擎
type Engine struct {
	params Params
	logger *zap.Logger
}

// New 创建引擎
func New(params Params, logger *zap.Logger) *Engine {
	return &Engine{params: params, logger: logger}
}

// AnalyzeSleep 对一次记录会话的原始样本执行睡眠分析
//
// 流程：排序去重 → 特征提取（心率+活动）→ 按时间戳合并 →
// 指定分类器打标签 → 指标提取。失败时返回单个带分类与阶段
// 上下文的错误，绝不返回部分填充的汇总。
func (e *Engine) AnalyzeSleep(samples []models.RawSample, algorithm string) (*models.SleepSummary, error) {
	feats, err := e.extractFeatures(samples)
	if err != nil {
		return nil, err
	}

	var c classifier.SleepClassifier
	switch algorithm {
	case AlgorithmColeKripke:
		c = classifier.NewColeKripke()
	case AlgorithmThreshold, "":
		c = classifier.NewThreshold(e.params.Threshold)
	default:
		return nil, fmt.Errorf("unknown sleep algorithm %q", algorithm)
	}

	epochs, err := c.Classify(feats)
	if err != nil {
		return nil, fmt.Errorf("%w: classify stage (%s): %v", ErrInsufficientData, c.Name(), err)
	}

	summary, err := sleepmetrics.Extract(epochs, feats.Merged, c.MetricsOptions())
	if err != nil {
		switch {
		case errors.Is(err, sleepmetrics.ErrNoSleep):
			return nil, fmt.Errorf("%w: metrics stage (%s): %v", ErrNoSleepDetected, c.Name(), err)
		case errors.Is(err, sleepmetrics.ErrTooFewEpochs):
			return nil, fmt.Errorf("%w: metrics stage (%s): %v", ErrInsufficientData, c.Name(), err)
		default:
			return nil, fmt.Errorf("metrics stage (%s): %w", c.Name(), err)
		}
	}

	if e.logger != nil {
		e.logger.Info("Sleep analysis completed",
			zap.String("algorithm", summary.AlgorithmUsed),
			zap.Int("epochs", len(epochs)),
			zap.Float64("total_sleep_minutes", summary.TotalSleepTimeMinutes),
			zap.Float64("efficiency_percent", summary.SleepEfficiencyPercent),
		)
	}
	return summary, nil
}

// AnalyzeRhythm 对同一样本序列执行 HAVOK 节律分析
//
// 独立于睡眠分类器运行，不喂给分类器。
func (e *Engine) AnalyzeRhythm(samples []models.RawSample) (*models.RhythmReport, error) {
	feats, err := e.extractFeatures(samples)
	if err != nil {
		return nil, err
	}

	analyzer := havok.NewAnalyzer(e.params.Havok, e.logger)
	report, err := analyzer.Analyze(feats.Merged, feats.HasActivity, feats.HasHR)
	if err != nil {
		if len(feats.Merged) < e.params.Havok.Stackmax {
			return nil, fmt.Errorf("%w: havok stage: %v", ErrInsufficientData, err)
		}
		return nil, fmt.Errorf("%w: havok stage: %v", ErrMissingSignal, err)
	}
	return report, nil
}

// extractFeatures 共享的特征提取阶段
func (e *Engine) extractFeatures(samples []models.RawSample) (*features.FeatureSet, error) {
	if len(samples) < MinRawSamples {
		return nil, fmt.Errorf("%w: feature stage: got %d raw samples, minimum %d required", ErrInsufficientData, len(samples), MinRawSamples)
	}

	sorted := models.SortSamples(samples)

	hr := features.ExtractHeartRate(sorted, e.params.PPG)
	activity := features.ExtractActivity(sorted)
	counts := features.ExtractActivityCounts(sorted)

	merged := features.Merge(activity, hr)
	if merged == nil {
		return nil, fmt.Errorf("%w: merge stage: neither activity nor heart rate epochs could be derived from %d samples", ErrMissingSignal, len(sorted))
	}

	if e.logger != nil {
		e.logger.Debug("Feature extraction completed",
			zap.Int("raw_samples", len(sorted)),
			zap.Int("activity_epochs", len(activity)),
			zap.Int("hr_epochs", len(hr)),
			zap.Int("merged_epochs", len(merged)),
		)
	}

	return &features.FeatureSet{
		Merged:      merged,
		Counts:      counts,
		HasActivity: len(activity) > 0,
		HasHR:       len(hr) > 0,
	}, nil
}
