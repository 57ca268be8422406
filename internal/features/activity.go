package features

import (
	"math"
	"time"

	"wisefido-sleep-analyzer/internal/models"
	"wisefido-sleep-analyzer/internal/signal"
)

// ExtractActivity 从加速度计样本提取每分钟活动 Epoch
//
// 丢弃缺少任一轴的样本；按日历分钟分桶，仅非空窗口生成 Epoch：
//   - activity_magnitude: 窗口内逐样本欧氏模长的均值
//   - movement_intensity: 模长超过 mean+1σ 的样本数（σ 为样本标准差，σ=0 时为 0）
func ExtractActivity(samples []models.RawSample) []models.ActivityEpoch {
	type window struct {
		start      time.Time
		magnitudes []float64
	}

	var windows []*window
	var current *window
	for _, s := range samples {
		if !s.HasAccelerometer() {
			continue
		}
		minute := s.Timestamp.Truncate(time.Minute)
		if current == nil || !current.start.Equal(minute) {
			current = &window{start: minute}
			windows = append(windows, current)
		}
		current.magnitudes = append(current.magnitudes, magnitude(&s))
	}

	epochs := make([]models.ActivityEpoch, 0, len(windows))
	for _, w := range windows {
		mean := signal.Mean(w.magnitudes)
		std := signal.SampleStd(w.magnitudes)

		intensity := 0
		if std > 0 {
			threshold := mean + std
			for _, m := range w.magnitudes {
				if m > threshold {
					intensity++
				}
			}
		}

		epochs = append(epochs, models.ActivityEpoch{
			Timestamp:         w.start,
			ActivityMagnitude: mean,
			MovementIntensity: intensity,
		})
	}
	return epochs
}

// ExtractActivityCounts 为 Cole-Kripke 路径生成连续的活动计数序列
//
// 与 ExtractActivity 的两点刻意差异（不可合并）：
//   - Epoch 从首样本所在分钟连续延伸到末样本所在分钟，空分钟计数为 0
//   - 计数为窗口内模长之和取整（求和而非平均）
func ExtractActivityCounts(samples []models.RawSample) []models.ActivityCount {
	sums := make(map[time.Time]float64)
	var first, last time.Time
	found := false
	for _, s := range samples {
		if !s.HasAccelerometer() {
			continue
		}
		minute := s.Timestamp.Truncate(time.Minute)
		sums[minute] += magnitude(&s)
		if !found {
			first, last = minute, minute
			found = true
			continue
		}
		if minute.Before(first) {
			first = minute
		}
		if minute.After(last) {
			last = minute
		}
	}
	if !found {
		return nil
	}

	var counts []models.ActivityCount
	for t := first; !t.After(last); t = t.Add(time.Minute) {
		counts = append(counts, models.ActivityCount{
			Timestamp: t,
			Count:     int(sums[t]),
		})
	}
	return counts
}

// magnitude 三轴欧氏模长
func magnitude(s *models.RawSample) float64 {
	x, y, z := *s.AccX, *s.AccY, *s.AccZ
	return math.Sqrt(x*x + y*y + z*z)
}
