// Package sleepmetrics 将 Epoch 级睡眠标签转换为标准睡眠统计指标
//
// 两个分类器共用同一个提取器，差异（睡眠段检测方式、主段策略、
// 在床时间口径、入睡潜伏期口径）通过 Options 表达，而不是复制管线。
package sleepmetrics

import (
	"fmt"
	"math"
	"time"

	"wisefido-sleep-analyzer/internal/models"
	"wisefido-sleep-analyzer/internal/signal"
)

// MinEpochs 指标提取的最小 Epoch 数
const MinEpochs = 10

// BlockMode 睡眠段检测方式
type BlockMode int

const (
	// BlockRuns 纯连续段：任何清醒 Epoch 都会切断睡眠段（Cole-Kripke 路径）
	BlockRuns BlockMode = iota
	// BlockTolerant 容忍短暂清醒：最多 Tolerance 个连续清醒 Epoch 不切断段，
	// 段需达到 MinBlockEpochs 才计入（阈值分类器路径）
	BlockTolerant
)

// TieBreak 主睡眠段选择策略
type TieBreak string

const (
	// TieBreakMain 主段 = 时长最大的段
	TieBreakMain TieBreak = "main"
	// TieBreakSpan 主段 = 首段起点到末段终点的整个跨度
	TieBreakSpan TieBreak = "span"
)

// DurationMode 段时长口径
type DurationMode int

const (
	// DurationEpochCount 段时长 = Epoch 数 × 1 分钟
	DurationEpochCount DurationMode = iota
	// DurationTimeSpan 段时长 = 终点时间戳 − 起点时间戳
	DurationTimeSpan
)

// Options 指标提取选项（由各分类器给出自己的口径）
type Options struct {
	Algorithm      string       // 写入 algorithm_used 字段
	BlockMode      BlockMode
	Tolerance      int          // BlockTolerant：容忍的连续清醒 Epoch 数
	MinBlockEpochs int          // BlockTolerant：段的最小 Epoch 跨度
	TieBreak       TieBreak
	DurationMode   DurationMode
	FullSeriesTIB  bool // true: 在床时间取整个序列跨度；false: 取主段跨度
	ComputeLatency bool // true: 潜伏期 = 入睡点 − 序列起点；false: 固定为 0
	EpochDuration  time.Duration
}

// ErrNoSleep 整个序列没有任何睡眠 Epoch
var ErrNoSleep = fmt.Errorf("no sleep periods detected")

// ErrTooFewEpochs 序列长度不足
var ErrTooFewEpochs = fmt.Errorf("insufficient epochs for sleep metrics")

// Extract 从标签序列提取睡眠汇总指标
//
// merged 仅用于描述性统计（活动/心率），可以与 epochs 长度不同；
// 传 nil 时 movement_metrics/hr_metrics 为 null。
func Extract(epochs []models.SleepEpoch, merged []models.MergedEpoch, opts Options) (*models.SleepSummary, error) {
	if len(epochs) < MinEpochs {
		return nil, fmt.Errorf("%w: got %d epochs, need at least %d", ErrTooFewEpochs, len(epochs), MinEpochs)
	}
	if opts.EpochDuration <= 0 {
		opts.EpochDuration = time.Minute
	}

	blocks := DetectBlocks(epochs, opts)
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: %d epochs, all wake or below block floor", ErrNoSleep, len(epochs))
	}

	onsetIdx, wakeIdx := selectMainWindow(blocks, opts.TieBreak)
	onset := epochs[onsetIdx].Timestamp
	wake := epochs[wakeIdx].Timestamp

	totalSleep := 0.0
	for _, b := range blocks {
		totalSleep += b.DurationMinutes
	}

	var timeInBed float64
	if opts.FullSeriesTIB {
		timeInBed = epochs[len(epochs)-1].Timestamp.Sub(epochs[0].Timestamp).Minutes()
	} else {
		timeInBed = wake.Sub(onset).Minutes()
	}

	efficiency := 0.0
	if timeInBed > 0 {
		efficiency = totalSleep / timeInBed * 100
	}
	// 主段口径的在床时间不含段外睡眠，比值可能越过 100，输出夹在 0-100
	if efficiency > 100 {
		efficiency = 100
	}

	var latency *float64
	if opts.ComputeLatency {
		l := round2(onset.Sub(epochs[0].Timestamp).Minutes())
		latency = &l
	} else {
		zero := 0.0
		latency = &zero
	}

	waso := 0.0
	awakenings := 0
	inWake := false
	for i := onsetIdx; i <= wakeIdx; i++ {
		if !epochs[i].Sleep {
			waso += opts.EpochDuration.Minutes()
			if !inWake {
				awakenings++
				inWake = true
			}
		} else {
			inWake = false
		}
	}

	awakeningIndex := 0.0
	if totalSleep > 0 {
		awakeningIndex = float64(awakenings) / (totalSleep / 60)
	}

	onsetStr := onset.Format(time.RFC3339)
	wakeStr := wake.Format(time.RFC3339)
	wasoRounded := round2(waso)

	summary := &models.SleepSummary{
		SleepOnset:               &onsetStr,
		WakeTime:                 &wakeStr,
		TotalSleepTimeMinutes:    round2(totalSleep),
		TimeInBedMinutes:         round2(timeInBed),
		SleepEfficiencyPercent:   round2(efficiency),
		SleepOnsetLatencyMinutes: latency,
		WakeAfterSleepOnsetMin:   &wasoRounded,
		NumberOfAwakenings:       awakenings,
		AwakeningIndex:           round2(awakeningIndex),
		AlgorithmUsed:            opts.Algorithm,
	}
	attachDescriptiveStats(summary, merged)
	return summary, nil
}

// DetectBlocks 按 Options 的口径检测睡眠段
func DetectBlocks(epochs []models.SleepEpoch, opts Options) []models.SleepBlock {
	switch opts.BlockMode {
	case BlockTolerant:
		return tolerantBlocks(epochs, opts)
	default:
		return runBlocks(epochs, opts)
	}
}

// runBlocks 纯连续睡眠段（游程编码）
func runBlocks(epochs []models.SleepEpoch, opts Options) []models.SleepBlock {
	var blocks []models.SleepBlock
	start := -1
	for i, e := range epochs {
		if e.Sleep {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			blocks = append(blocks, newBlock(epochs, start, i-1, opts))
			start = -1
		}
	}
	if start >= 0 {
		blocks = append(blocks, newBlock(epochs, start, len(epochs)-1, opts))
	}
	return blocks
}

// tolerantBlocks 容忍短暂清醒的睡眠段
//
// 连续清醒 Epoch 超过 Tolerance 个才关闭当前段；段跨度不足
// MinBlockEpochs 则丢弃。
func tolerantBlocks(epochs []models.SleepEpoch, opts Options) []models.SleepBlock {
	var blocks []models.SleepBlock
	start := -1
	lastSleep := -1
	wakeRun := 0

	closeBlock := func() {
		if start >= 0 && lastSleep >= start && lastSleep-start+1 >= opts.MinBlockEpochs {
			blocks = append(blocks, newBlock(epochs, start, lastSleep, opts))
		}
		start = -1
		lastSleep = -1
	}

	for i, e := range epochs {
		if e.Sleep {
			if start < 0 {
				start = i
			}
			lastSleep = i
			wakeRun = 0
			continue
		}
		if start < 0 {
			continue
		}
		wakeRun++
		if wakeRun > opts.Tolerance {
			closeBlock()
			wakeRun = 0
		}
	}
	closeBlock()
	return blocks
}

// newBlock 构造睡眠段并按口径计算时长
func newBlock(epochs []models.SleepEpoch, start, end int, opts Options) models.SleepBlock {
	b := models.SleepBlock{
		StartIdx:  start,
		EndIdx:    end,
		StartTime: epochs[start].Timestamp,
		EndTime:   epochs[end].Timestamp,
	}
	if opts.DurationMode == DurationEpochCount {
		b.DurationMinutes = float64(end-start+1) * opts.EpochDuration.Minutes()
	} else {
		b.DurationMinutes = b.EndTime.Sub(b.StartTime).Minutes()
	}
	return b
}

// selectMainWindow 按策略选出主睡眠窗口的起止下标
func selectMainWindow(blocks []models.SleepBlock, policy TieBreak) (int, int) {
	if policy == TieBreakSpan {
		return blocks[0].StartIdx, blocks[len(blocks)-1].EndIdx
	}
	main := blocks[0]
	for _, b := range blocks[1:] {
		if b.DurationMinutes > main.DurationMinutes {
			main = b
		}
	}
	return main.StartIdx, main.EndIdx
}

// attachDescriptiveStats 附加活动/心率描述性统计
func attachDescriptiveStats(summary *models.SleepSummary, merged []models.MergedEpoch) {
	if len(merged) == 0 {
		return
	}

	activity := make([]float64, len(merged))
	var hr []float64
	for i, m := range merged {
		activity[i] = m.ActivityMagnitude
		if m.HeartRate != nil {
			hr = append(hr, *m.HeartRate)
		}
	}

	summary.MovementMetrics = &models.MovementMetrics{
		AvgActivity: round2(signal.Mean(activity)),
		ActivityStd: round2(signal.SampleStd(activity)),
	}
	if len(hr) > 0 {
		summary.HRMetrics = &models.HRMetrics{
			AvgHR: round2(signal.Mean(hr)),
			MinHR: round2(signal.Min(hr)),
			MaxHR: round2(signal.Max(hr)),
		}
	}
}

// round2 输出边界的两位小数舍入
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
