package classifier

import (
	"fmt"
	"time"

	"wisefido-sleep-analyzer/internal/features"
	"wisefido-sleep-analyzer/internal/models"
	"wisefido-sleep-analyzer/internal/signal"
	"wisefido-sleep-analyzer/internal/sleepmetrics"
)

// ThresholdParams 阈值分类器参数
type ThresholdParams struct {
	ActivityPercentile float64 // 活动量阈值百分位（默认 40）
	HRPercentile       float64 // 心率阈值百分位（默认 60）
	// ApplyHRGate 是否把心率阈值纳入标签判定。
	// 历史实现计算了心率阈值但未用于判定，属于刻意保留的
	// 未启用逻辑，这里以开关形式暴露，默认关闭。
	ApplyHRGate    bool
	WakeTolerance  int                   // 睡眠段容忍的连续清醒 Epoch 数（默认 3）
	MinBlockEpochs int                   // 睡眠段最小 Epoch 跨度（默认 10）
	BlockPolicy    sleepmetrics.TieBreak // 主段策略：main 或 span
}

// DefaultThresholdParams 默认阈值参数
func DefaultThresholdParams() ThresholdParams {
	return ThresholdParams{
		ActivityPercentile: 40,
		HRPercentile:       60,
		ApplyHRGate:        false,
		WakeTolerance:      3,
		MinBlockEpochs:     10,
		BlockPolicy:        sleepmetrics.TieBreakMain,
	}
}

// Threshold 百分位阈值启发式睡眠分类器
//
// 活动量低于其 40 百分位的 Epoch 判为"疑似睡眠"。
// 输入是仅含非空窗口的合并 Epoch 序列（与 Cole-Kripke 的连续
// 序列是刻意的口径差异，不能统一）。
type Threshold struct {
	params ThresholdParams
}

// NewThreshold 创建阈值分类器
func NewThreshold(params ThresholdParams) *Threshold {
	return &Threshold{params: params}
}

var _ SleepClassifier = (*Threshold)(nil)

// Name 算法标签
func (t *Threshold) Name() string { return "threshold" }

// Classify 按百分位阈值逐 Epoch 判定
func (t *Threshold) Classify(feats *features.FeatureSet) ([]models.SleepEpoch, error) {
	merged := feats.Merged
	if len(merged) < sleepmetrics.MinEpochs {
		return nil, fmt.Errorf("insufficient processed data for sleep analysis: got %d epochs, need at least %d", len(merged), sleepmetrics.MinEpochs)
	}

	activity := make([]float64, len(merged))
	var hrValues []float64
	for i, m := range merged {
		activity[i] = m.ActivityMagnitude
		if m.HeartRate != nil {
			hrValues = append(hrValues, *m.HeartRate)
		}
	}

	activityThreshold := signal.Percentile(activity, t.params.ActivityPercentile)

	// 心率阈值始终计算（便于诊断日志），默认不参与判定
	hrThreshold := 0.0
	hasHR := len(hrValues) > 0
	if hasHR {
		hrThreshold = signal.Percentile(hrValues, t.params.HRPercentile)
	}

	epochs := make([]models.SleepEpoch, len(merged))
	for i, m := range merged {
		sleep := m.ActivityMagnitude < activityThreshold
		if t.params.ApplyHRGate && hasHR && m.HeartRate != nil {
			sleep = sleep && *m.HeartRate < hrThreshold
		}
		epochs[i] = models.SleepEpoch{
			Timestamp: m.Timestamp,
			Sleep:     sleep,
		}
	}
	return epochs, nil
}

// MetricsOptions 阈值分类器指标口径
//
// 容忍式睡眠段；在床时间 = 整个序列跨度；潜伏期 = 入睡点 − 序列起点；
// 段时长按时间戳差计。
func (t *Threshold) MetricsOptions() sleepmetrics.Options {
	return sleepmetrics.Options{
		Algorithm:      "threshold",
		BlockMode:      sleepmetrics.BlockTolerant,
		Tolerance:      t.params.WakeTolerance,
		MinBlockEpochs: t.params.MinBlockEpochs,
		TieBreak:       t.params.BlockPolicy,
		DurationMode:   sleepmetrics.DurationTimeSpan,
		FullSeriesTIB:  true,
		ComputeLatency: true,
		EpochDuration:  time.Minute,
	}
}
