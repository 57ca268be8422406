// Package features 将原始传感器样本转换为 1 分钟 Epoch 特征序列
//
// 包含三个步骤：PPG→心率、加速度计→活动量、以及两者按时间戳合并。
// 窗口均按日历分钟对齐（重采样，非滑动窗口），各窗口独立计算。
package features

import (
	"math"
	"time"

	"wisefido-sleep-analyzer/internal/models"
	"wisefido-sleep-analyzer/internal/signal"
)

// PPGParams PPG 心率提取参数
type PPGParams struct {
	SamplingRateHz    float64 // PPG 采样率（Hz）
	MinWindowSamples  int     // 每分钟窗口的最小样本数
	PeakMinDistance   int     // 峰间最小样本间隔
	PeakMinProminence float64 // 峰最小突出度
	PeakMinHeight     float64 // 归一化后峰最小高度
	MinHeartRate      float64 // 生理合理下界（bpm）
	MaxHeartRate      float64 // 生理合理上界（bpm）
}

// DefaultPPGParams 默认 PPG 参数
func DefaultPPGParams() PPGParams {
	return PPGParams{
		SamplingRateHz:    135,
		MinWindowSamples:  50,
		PeakMinDistance:   50,
		PeakMinProminence: 0.5,
		PeakMinHeight:     0.3,
		MinHeartRate:      30,
		MaxHeartRate:      200,
	}
}

// ExtractHeartRate 从 PPG 样本提取每分钟心率 Epoch
//
// 流程：
// 1. 丢弃无 PPG 值的样本
// 2. 按日历分钟分桶（非重叠）
// 3. 每个满足最小样本数的窗口内：z-归一化 → 峰检测 → 峰间隔中位数换算心率
// 4. 心率超出生理合理范围的窗口直接丢弃（不生成 Epoch）
//
// 输出为稀疏序列：只有合格的分钟才有 Epoch。
func ExtractHeartRate(samples []models.RawSample, params PPGParams) []models.HeartRateEpoch {
	type window struct {
		start  time.Time
		values []float64
	}

	var windows []*window
	var current *window
	for _, s := range samples {
		if !s.HasPPG() {
			continue
		}
		minute := s.Timestamp.Truncate(time.Minute)
		if current == nil || !current.start.Equal(minute) {
			current = &window{start: minute}
			windows = append(windows, current)
		}
		current.values = append(current.values, *s.PPG)
	}

	var epochs []models.HeartRateEpoch
	for _, w := range windows {
		if len(w.values) < params.MinWindowSamples {
			continue
		}

		normalized := signal.ZNormalize(w.values)
		peaks := signal.FindPeaks(normalized, signal.PeakOptions{
			MinHeight:     params.PeakMinHeight,
			MinProminence: params.PeakMinProminence,
			MinDistance:   params.PeakMinDistance,
			UseHeight:     true,
			UseProminence: true,
		})
		if len(peaks) < 2 {
			continue
		}

		indices := make([]float64, len(peaks))
		for i, p := range peaks {
			indices[i] = float64(p.Index)
		}
		medianInterval := signal.Median(signal.Diff(indices))
		if medianInterval <= 0 {
			continue
		}

		heartRate := params.SamplingRateHz / medianInterval * 60
		if heartRate < params.MinHeartRate || heartRate > params.MaxHeartRate {
			continue
		}
		if math.IsNaN(heartRate) || math.IsInf(heartRate, 0) {
			continue
		}

		epochs = append(epochs, models.HeartRateEpoch{
			Timestamp: w.start,
			HeartRate: heartRate,
		})
	}
	return epochs
}
