package features

import (
	"time"

	"wisefido-sleep-analyzer/internal/models"
)

// MergeTolerance 合并时允许的最大时间戳偏差
const MergeTolerance = 30 * time.Second

// FeatureSet 特征提取阶段的完整输出
type FeatureSet struct {
	Merged      []models.MergedEpoch   // 合并后的 Epoch 行（阈值分类器与 HAVOK 输入）
	Counts      []models.ActivityCount // 连续活动计数序列（Cole-Kripke 输入）
	HasActivity bool                   // 活动序列是否非空
	HasHR       bool                   // 心率序列是否非空
}

// Merge 以最近时间戳匹配（容差 30 秒）合并活动与心率序列
//
// 退化规则：
//   - 心率序列为空：每行 HeartRate 为 nil，行不丢弃
//   - 活动序列为空：以心率序列为基准，活动字段填零
//   - 两者皆空：返回 nil（由上游判定为致命错误）
func Merge(activity []models.ActivityEpoch, hr []models.HeartRateEpoch) []models.MergedEpoch {
	if len(activity) == 0 && len(hr) == 0 {
		return nil
	}

	if len(activity) == 0 {
		merged := make([]models.MergedEpoch, len(hr))
		for i, h := range hr {
			rate := h.HeartRate
			merged[i] = models.MergedEpoch{
				Timestamp: h.Timestamp,
				HeartRate: &rate,
			}
		}
		return merged
	}

	merged := make([]models.MergedEpoch, len(activity))
	for i, a := range activity {
		merged[i] = models.MergedEpoch{
			Timestamp:         a.Timestamp,
			ActivityMagnitude: a.ActivityMagnitude,
			MovementIntensity: a.MovementIntensity,
		}
		if rate, ok := nearestHR(hr, a.Timestamp); ok {
			merged[i].HeartRate = &rate
		}
	}
	return merged
}

// nearestHR 在容差内查找离 t 最近的心率值
func nearestHR(hr []models.HeartRateEpoch, t time.Time) (float64, bool) {
	best := time.Duration(-1)
	var bestRate float64
	for _, h := range hr {
		d := h.Timestamp.Sub(t)
		if d < 0 {
			d = -d
		}
		if d <= MergeTolerance && (best < 0 || d < best) {
			best = d
			bestRate = h.HeartRate
		}
	}
	return bestRate, best >= 0
}
