// Package classifier 提供 Epoch 级睡眠/清醒分类器
//
// 两个分类器（Cole-Kripke 公式与阈值启发式）实现同一个
// SleepClassifier 接口，共享 sleepmetrics 提取器，各自通过
// MetricsOptions 声明自己的睡眠段与指标口径。
package classifier

import (
	"wisefido-sleep-analyzer/internal/features"
	"wisefido-sleep-analyzer/internal/models"
	"wisefido-sleep-analyzer/internal/sleepmetrics"
)

// SleepClassifier 睡眠分类器策略接口
type SleepClassifier interface {
	// Name 算法标签（写入 algorithm_used）
	Name() string
	// Classify 将特征集转换为 Epoch 级睡眠标签序列
	Classify(feats *features.FeatureSet) ([]models.SleepEpoch, error)
	// MetricsOptions 该分类器对应的指标提取口径
	MetricsOptions() sleepmetrics.Options
}
