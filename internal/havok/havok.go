// Package havok 基于时延嵌入与 SVD 的超昼夜节律/状态切换分析
//
// 实现 HAVOK（Hankel Alternative View of Koopman）分解：
// 对归一化生理信号构建 Hankel 矩阵，SVD 截断后取最后一个
// 右奇异向量作为强迫/间歇信号，用于检测离散状态切换事件；
// 超昼夜周期由自相关峰检测给出。
//
// 参考：Brunton et al. (2017). "Chaos as an intermittently forced
// linear system," Nature Communications
package havok

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"wisefido-sleep-analyzer/internal/models"
	"wisefido-sleep-analyzer/internal/signal"
)

// Params HAVOK 分析参数
type Params struct {
	Stackmax             int     // 时延嵌入深度（Hankel 矩阵行数）
	SVDRank              int     // 保留的奇异三元组个数
	MinPeriodMinutes     float64 // 超昼夜周期搜索下界
	MaxPeriodMinutes     float64 // 超昼夜周期搜索上界
	TransitionPercentile float64 // 状态切换阈值百分位
	MinSignalPoints      int     // 信号可用的最小非缺失点数
	MaxTransitions       int     // 输出的状态切换事件上限
	EpochDuration        time.Duration
}

// DefaultParams 默认 HAVOK 参数
func DefaultParams() Params {
	return Params{
		Stackmax:             100,
		SVDRank:              15,
		MinPeriodMinutes:     30,
		MaxPeriodMinutes:     180,
		TransitionPercentile: 75,
		MinSignalPoints:      100,
		MaxTransitions:       20,
		EpochDuration:        time.Minute,
	}
}

// Analyzer HAVOK 节律分析器
type Analyzer struct {
	params Params
	logger *zap.Logger
}

// NewAnalyzer 创建 HAVOK 分析器
func NewAnalyzer(params Params, logger *zap.Logger) *Analyzer {
	return &Analyzer{params: params, logger: logger}
}

// Analyze 对合并 Epoch 序列执行完整 HAVOK 分析
//
// 信号选择：优先活动量（非缺失点 > MinSignalPoints），否则心率
// （缺口前向/后向填充）；两者皆不合格时报错。
func (a *Analyzer) Analyze(epochs []models.MergedEpoch, hasActivity, hasHR bool) (*models.RhythmReport, error) {
	values, signalType, err := a.selectSignal(epochs, hasActivity, hasHR)
	if err != nil {
		return nil, err
	}
	if len(values) < a.params.Stackmax {
		return nil, fmt.Errorf("insufficient data for havok analysis: got %d samples, need at least stackmax=%d", len(values), a.params.Stackmax)
	}

	normalized := signal.ZNormalize(values)

	hankel := buildHankel(normalized, a.params.Stackmax)

	var svd mat.SVD
	if ok := svd.Factorize(hankel, mat.SVDThin); !ok {
		return nil, fmt.Errorf("havok svd factorization failed: hankel matrix %dx%d", a.params.Stackmax, len(normalized)-a.params.Stackmax+1)
	}
	singular := svd.Values(nil)

	rank := a.params.SVDRank
	if rank > len(singular) {
		rank = len(singular)
	}

	// 能量分布：奇异值平方归一化到总和 1，截断到 rank
	totalEnergy := 0.0
	for _, s := range singular {
		totalEnergy += s * s
	}
	energy := make([]float64, rank)
	for i := 0; i < rank; i++ {
		energy[i] = singular[i] * singular[i] / totalEnergy
	}

	// 强迫信号：最后一个保留的右奇异向量（捕捉间歇/非线性动力学）
	var v mat.Dense
	svd.VTo(&v)
	rows, _ := v.Dims()
	forcing := make([]float64, rows)
	for i := 0; i < rows; i++ {
		forcing[i] = v.At(i, rank-1)
	}

	cycles := a.detectUltradianCycles(normalized)
	transitions := a.detectStateTransitions(forcing, epochs)

	report := a.buildReport(epochs, signalType, energy, forcing, cycles, transitions)
	if a.logger != nil {
		a.logger.Debug("HAVOK analysis completed",
			zap.String("signal_type", signalType),
			zap.Int("samples", len(values)),
			zap.Int("cycles", len(cycles)),
			zap.Int("transitions", len(transitions)),
		)
	}
	return report, nil
}

// selectSignal 选择分析信号
func (a *Analyzer) selectSignal(epochs []models.MergedEpoch, hasActivity, hasHR bool) ([]float64, string, error) {
	if hasActivity && len(epochs) > a.params.MinSignalPoints {
		values := make([]float64, len(epochs))
		for i, e := range epochs {
			values[i] = e.ActivityMagnitude
		}
		return values, "activity", nil
	}

	if hasHR {
		count := 0
		for _, e := range epochs {
			if e.HeartRate != nil {
				count++
			}
		}
		if count > a.params.MinSignalPoints {
			return fillHeartRate(epochs), "heart_rate", nil
		}
	}

	return nil, "", fmt.Errorf("insufficient data in activity or heart rate for havok analysis: %d epochs", len(epochs))
}

// fillHeartRate 心率缺口前向填充，序列头部再后向填充
func fillHeartRate(epochs []models.MergedEpoch) []float64 {
	values := make([]float64, len(epochs))
	lastValid := math.NaN()
	for i, e := range epochs {
		if e.HeartRate != nil {
			lastValid = *e.HeartRate
		}
		values[i] = lastValid
	}
	// 后向填充前导 NaN
	firstValid := math.NaN()
	for _, v := range values {
		if !math.IsNaN(v) {
			firstValid = v
			break
		}
	}
	for i := range values {
		if math.IsNaN(values[i]) {
			values[i] = firstValid
		} else {
			break
		}
	}
	return values
}

// buildHankel 构建时延嵌入矩阵：第 i 行是信号右移 i 的片段
//
// 形状 stackmax × (N − stackmax + 1)。
func buildHankel(data []float64, stackmax int) *mat.Dense {
	n := len(data)
	cols := n - stackmax + 1
	h := mat.NewDense(stackmax, cols, nil)
	for i := 0; i < stackmax; i++ {
		h.SetRow(i, data[i:i+cols])
	}
	return h
}

// detectUltradianCycles 自相关峰检测超昼夜周期
func (a *Analyzer) detectUltradianCycles(normalized []float64) []models.UltradianCycle {
	autocorr := signal.Autocorrelation(normalized)

	samplesPerMinute := time.Minute.Minutes() / a.params.EpochDuration.Minutes()
	minSamples := int(a.params.MinPeriodMinutes * samplesPerMinute)
	maxSamples := int(a.params.MaxPeriodMinutes * samplesPerMinute)
	if len(autocorr) <= maxSamples || minSamples <= 0 {
		return nil
	}

	window := autocorr[minSamples:maxSamples]
	peaks := signal.FindPeaks(window, signal.PeakOptions{
		MinHeight:   0.2,
		MinDistance: minSamples / 2,
		UseHeight:   true,
	})

	cycles := make([]models.UltradianCycle, 0, len(peaks))
	for _, p := range peaks {
		lag := p.Index + minSamples
		period := float64(lag) / samplesPerMinute
		cycles = append(cycles, models.UltradianCycle{
			PeriodMinutes: math.Round(period*10) / 10,
			Strength:      math.Round(p.Height*1000) / 1000,
			LagSamples:    lag,
		})
	}
	return cycles
}

// detectStateTransitions 强迫信号超阈值点合并为离散切换事件
//
// 阈值取 |forcing| 的 TransitionPercentile 百分位；距离上一个
// 超阈值点超过 10 个样本才开启新事件，其余点被吸收。
func (a *Analyzer) detectStateTransitions(forcing []float64, epochs []models.MergedEpoch) []models.StateTransition {
	absForcing := make([]float64, len(forcing))
	for i, f := range forcing {
		absForcing[i] = math.Abs(f)
	}
	threshold := signal.Percentile(absForcing, a.params.TransitionPercentile)

	var transitions []models.StateTransition
	prev := -100
	for idx, v := range absForcing {
		if v <= threshold {
			continue
		}
		if idx-prev > 10 {
			t := models.StateTransition{
				SampleIndex: idx,
				Magnitude:   v,
			}
			// Hankel 偏移校正后映射回真实时间戳；假定 1 分钟等间距 Epoch
			real := idx + a.params.Stackmax - 1
			if real < len(epochs) {
				ts := epochs[real].Timestamp.Format(time.RFC3339)
				t.Timestamp = &ts
				t.TimeOffsetMinutes = math.Round(float64(real)*a.params.EpochDuration.Minutes()*10) / 10
			}
			transitions = append(transitions, t)
		}
		prev = idx
	}

	if len(transitions) > a.params.MaxTransitions {
		transitions = transitions[:a.params.MaxTransitions]
	}
	return transitions
}

// buildReport 汇总节律报告
func (a *Analyzer) buildReport(
	epochs []models.MergedEpoch,
	signalType string,
	energy []float64,
	forcing []float64,
	cycles []models.UltradianCycle,
	transitions []models.StateTransition,
) *models.RhythmReport {
	absForcing := make([]float64, len(forcing))
	for i, f := range forcing {
		absForcing[i] = math.Abs(f)
	}

	top5 := 0.0
	for i, e := range energy {
		if i >= 5 {
			break
		}
		top5 += e
	}

	metrics := models.RhythmMetrics{
		SignalType:           signalType,
		TotalSamples:         len(epochs),
		SVDRankUsed:          a.params.SVDRank,
		StackmaxUsed:         a.params.Stackmax,
		EnergyInTop5Modes:    round3(top5),
		ForcingMagnitudeMean: round3(signal.Mean(absForcing)),
		ForcingMagnitudeStd:  round3(signal.Std(forcing)),
		RhythmStabilityScore: round3(energy[0]),
		ChaosIndicator:       round3(signal.Mean(absForcing)),
	}

	var dominant, avgCycle *float64
	if len(cycles) > 0 {
		d := cycles[0].PeriodMinutes
		dominant = &d
		sum := 0.0
		for _, c := range cycles {
			sum += c.PeriodMinutes
		}
		avg := math.Round(sum/float64(len(cycles))*10) / 10
		avgCycle = &avg
	}

	duration := 0.0
	if len(epochs) > 1 {
		duration = epochs[len(epochs)-1].Timestamp.Sub(epochs[0].Timestamp).Hours()
	}

	return &models.RhythmReport{
		AlgorithmUsed:           "havok",
		CyclesDetected:          len(cycles) > 0,
		UltradianCycles:         cycles,
		DominantPeriodMinutes:   dominant,
		AverageCycleDurationMin: avgCycle,
		StateTransitions:        transitions,
		StateTransitionsCount:   len(transitions),
		EnergyDistribution:      energy,
		RhythmMetrics:           metrics,
		SessionDurationHours:    math.Round(duration*100) / 100,
		SVDRank:                 a.params.SVDRank,
		Stackmax:                a.params.Stackmax,
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
