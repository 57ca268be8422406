// Package signal 提供分析引擎使用的基础信号统计原语
//
// 所有函数均为纯函数，不持有状态；百分位数与标准差的语义
// 与 numpy/pandas 对齐，保证与历史分析结果可逐位复现。
package signal

import (
	"math"
	"sort"
)

// Epsilon 零方差保护用的加性小量
const Epsilon = 1e-8

// Mean 算术均值，空切片返回 0
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Std 总体标准差（ddof=0，与 np.std 一致）
func Std(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// SampleStd 样本标准差（ddof=1，与 pandas Series.std 一致）
//
// 少于 2 个样本时返回 0。
func SampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

// Min 最小值，空切片返回 0
func Min(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// Max 最大值，空切片返回 0
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Percentile 线性插值百分位数（与 np.percentile 默认行为一致）
//
// p 取值 0-100；空切片返回 0。
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// Median 中位数
func Median(values []float64) float64 {
	return Percentile(values, 50)
}

// Diff 相邻元素差分，返回长度 len-1 的切片
func Diff(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = values[i] - values[i-1]
	}
	return out
}

// ZNormalize 零均值单位方差归一化
//
// 分母加 Epsilon 保护零方差窗口：引擎的策略是永不因零方差失败。
func ZNormalize(values []float64) []float64 {
	mean := Mean(values)
	std := Std(values)
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - mean) / (std + Epsilon)
	}
	return out
}

// Autocorrelation 全自相关的非负滞后半边，lag-0 归一化为 1
//
// 与 np.correlate(x, x, mode='full') 取后半段再除以首元素等价。
func Autocorrelation(values []float64) []float64 {
	n := len(values)
	if n == 0 {
		return nil
	}
	out := make([]float64, n)
	for lag := 0; lag < n; lag++ {
		sum := 0.0
		for i := 0; i+lag < n; i++ {
			sum += values[i] * values[i+lag]
		}
		out[lag] = sum
	}
	if out[0] != 0 {
		norm := out[0]
		for i := range out {
			out[i] /= norm
		}
	}
	return out
}
