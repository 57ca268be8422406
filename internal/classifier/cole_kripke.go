package classifier

import (
	"fmt"
	"time"

	"wisefido-sleep-analyzer/internal/features"
	"wisefido-sleep-analyzer/internal/models"
	"wisefido-sleep-analyzer/internal/sleepmetrics"
)

// Cole-Kripke 研究固定参数，不可配置
//
// Cole, R.J., et al. (1992). "Automatic sleep/wake identification
// from wrist activity." Sleep, 15(5):461-469
var coleKripkeWeights = [7]float64{106, 54, 58, 76, 230, 74, 67} // offset -4..+2

const (
	coleKripkeScale     = 0.001
	coleKripkeDivisor   = 100.0
	coleKripkeClipUpper = 300.0
	// MinColeKripkeEpochs Cole-Kripke 路径的最小 Epoch 数（60 分钟）
	MinColeKripkeEpochs = 60
)

// ColeKripke Cole-Kripke 活动计数睡眠分类器
//
// 对每分钟活动计数应用固定 7-Epoch 加权窗口：
//
//	SI = 0.001 × (106×A₋₄ + 54×A₋₃ + 58×A₋₂ + 76×A₋₁ + 230×A₀ + 74×A₊₁ + 67×A₊₂)
//
// 计数先除以 100 并在 300 处截断；越界偏移按 0 填充。
// SI ≥ 1 判为睡眠。纯函数，无学习参数，逐位可复现。
type ColeKripke struct{}

// NewColeKripke 创建 Cole-Kripke 分类器
func NewColeKripke() *ColeKripke {
	return &ColeKripke{}
}

var _ SleepClassifier = (*ColeKripke)(nil)

// Name 算法标签
func (c *ColeKripke) Name() string { return "cole-kripke" }

// Classify 对连续活动计数序列逐 Epoch 计算睡眠指数并二值化
func (c *ColeKripke) Classify(feats *features.FeatureSet) ([]models.SleepEpoch, error) {
	counts := feats.Counts
	if len(counts) < MinColeKripkeEpochs {
		return nil, fmt.Errorf("insufficient data for cole-kripke analysis: got %d epochs, need at least %d minutes", len(counts), MinColeKripkeEpochs)
	}

	scaled := make([]float64, len(counts))
	for i, e := range counts {
		v := float64(e.Count) / coleKripkeDivisor
		if v > coleKripkeClipUpper {
			v = coleKripkeClipUpper
		}
		scaled[i] = v
	}

	epochs := make([]models.SleepEpoch, len(counts))
	for i := range counts {
		si := 0.0
		for w, weight := range coleKripkeWeights {
			offset := w - 4 // 权重表覆盖偏移 -4..+2
			j := i + offset
			if j < 0 || j >= len(scaled) {
				continue // 边界按 0 填充
			}
			si += weight * scaled[j]
		}
		si *= coleKripkeScale

		epochs[i] = models.SleepEpoch{
			Timestamp:  counts[i].Timestamp,
			SleepIndex: si,
			Sleep:      si >= 1,
		}
	}
	return epochs, nil
}

// MetricsOptions Cole-Kripke 指标口径
//
// 主睡眠 = 最长连续睡眠段；在床时间 = 主段跨度；潜伏期固定为 0；
// 段时长按 Epoch 数计。
func (c *ColeKripke) MetricsOptions() sleepmetrics.Options {
	return sleepmetrics.Options{
		Algorithm:     "cole-kripke",
		BlockMode:     sleepmetrics.BlockRuns,
		TieBreak:      sleepmetrics.TieBreakMain,
		DurationMode:  sleepmetrics.DurationEpochCount,
		EpochDuration: time.Minute,
	}
}
