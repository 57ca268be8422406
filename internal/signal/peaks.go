package signal

import "sort"

// PeakOptions 峰检测约束
//
// 语义对齐 scipy.signal.find_peaks：先找局部极大值（平台取中点），
// 再依次按 height、distance、prominence 过滤。
type PeakOptions struct {
	MinHeight     float64 // 峰值的最小绝对高度；0 表示不限制时需显式设 NoHeight
	MinProminence float64 // 最小突出度
	MinDistance   int     // 相邻峰的最小样本间隔
	UseHeight     bool    // 是否启用高度过滤
	UseProminence bool    // 是否启用突出度过滤
}

// Peak 单个检测到的峰
type Peak struct {
	Index      int
	Height     float64
	Prominence float64
}

// FindPeaks 在一维信号中检测峰
//
// 返回的峰按下标升序排列。
func FindPeaks(values []float64, opts PeakOptions) []Peak {
	candidates := localMaxima(values)

	if opts.UseHeight {
		filtered := candidates[:0]
		for _, idx := range candidates {
			if values[idx] >= opts.MinHeight {
				filtered = append(filtered, idx)
			}
		}
		candidates = filtered
	}

	peaks := make([]Peak, 0, len(candidates))
	for _, idx := range candidates {
		peaks = append(peaks, Peak{Index: idx, Height: values[idx]})
	}

	if opts.MinDistance > 1 {
		peaks = enforceDistance(peaks, opts.MinDistance)
	}

	// 突出度在距离筛除之后计算，低突出度的高峰仍可先压制近邻
	out := peaks[:0]
	for _, p := range peaks {
		p.Prominence = prominence(values, p.Index)
		if opts.UseProminence && p.Prominence < opts.MinProminence {
			continue
		}
		out = append(out, p)
	}
	return out
}

// localMaxima 找局部极大值下标；相等值形成的平台取平台中点
func localMaxima(values []float64) []int {
	var maxima []int
	n := len(values)
	i := 1
	for i < n-1 {
		if values[i] > values[i-1] {
			// 向右扫过平台
			j := i
			for j < n-1 && values[j+1] == values[i] {
				j++
			}
			if j < n-1 && values[j+1] < values[i] {
				maxima = append(maxima, (i+j)/2)
			}
			i = j + 1
		} else {
			i++
		}
	}
	return maxima
}

// prominence 计算峰的突出度（scipy 同义）
//
// 向左/右延伸到更高点或信号边界，取两侧区间最小值中的较大者作为基线。
func prominence(values []float64, peak int) float64 {
	h := values[peak]

	leftBase := h
	for i := peak - 1; i >= 0; i-- {
		if values[i] > h {
			break
		}
		if values[i] < leftBase {
			leftBase = values[i]
		}
	}

	rightBase := h
	for i := peak + 1; i < len(values); i++ {
		if values[i] > h {
			break
		}
		if values[i] < rightBase {
			rightBase = values[i]
		}
	}

	base := leftBase
	if rightBase > base {
		base = rightBase
	}
	return h - base
}

// enforceDistance 按高度优先保留峰，剔除与已保留峰间隔不足的峰
func enforceDistance(peaks []Peak, minDistance int) []Peak {
	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return peaks[order[a]].Height > peaks[order[b]].Height
	})

	keep := make([]bool, len(peaks))
	for i := range keep {
		keep[i] = true
	}
	for _, i := range order {
		if !keep[i] {
			continue
		}
		for j := range peaks {
			if j == i || !keep[j] {
				continue
			}
			d := peaks[j].Index - peaks[i].Index
			if d < 0 {
				d = -d
			}
			if d < minDistance {
				keep[j] = false
			}
		}
	}

	var out []Peak
	for i, p := range peaks {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}
