package signal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindPeaks_SimpleMaxima(t *testing.T) {
	values := []float64{0, 1, 0, 2, 0, 3, 0}
	peaks := FindPeaks(values, PeakOptions{})
	require.Len(t, peaks, 3)
	assert.Equal(t, 1, peaks[0].Index)
	assert.Equal(t, 3, peaks[1].Index)
	assert.Equal(t, 5, peaks[2].Index)
}

func TestFindPeaks_PlateauMidpoint(t *testing.T) {
	// 平台 [2,3,4] 取中点 3
	values := []float64{0, 1, 5, 5, 5, 1, 0}
	peaks := FindPeaks(values, PeakOptions{})
	require.Len(t, peaks, 1)
	assert.Equal(t, 3, peaks[0].Index)
}

func TestFindPeaks_EdgesNotPeaks(t *testing.T) {
	// 首尾元素不算峰
	values := []float64{5, 1, 2, 1, 5}
	peaks := FindPeaks(values, PeakOptions{})
	require.Len(t, peaks, 1)
	assert.Equal(t, 2, peaks[0].Index)
}

func TestFindPeaks_HeightFilter(t *testing.T) {
	values := []float64{0, 1, 0, 2, 0, 3, 0}
	peaks := FindPeaks(values, PeakOptions{MinHeight: 2, UseHeight: true})
	require.Len(t, peaks, 2)
	assert.Equal(t, 3, peaks[0].Index)
	assert.Equal(t, 5, peaks[1].Index)
}

func TestFindPeaks_ProminenceFilter(t *testing.T) {
	// 两个峰：大峰突出度 3，骑在坡上的小峰突出度 0.5
	values := []float64{0, 3, 2, 2.5, 2, 0}
	peaks := FindPeaks(values, PeakOptions{MinProminence: 1, UseProminence: true})
	require.Len(t, peaks, 1)
	assert.Equal(t, 1, peaks[0].Index)
	assert.InDelta(t, 3.0, peaks[0].Prominence, 1e-12)
}

func TestFindPeaks_DistanceKeepsHighest(t *testing.T) {
	// 间隔约束下保留较高的峰
	values := []float64{0, 2, 0, 3, 0}
	peaks := FindPeaks(values, PeakOptions{MinDistance: 3})
	require.Len(t, peaks, 1)
	assert.Equal(t, 3, peaks[0].Index)
	assert.Equal(t, 3.0, peaks[0].Height)
}

func TestFindPeaks_DistanceThinsBeforeProminence(t *testing.T) {
	// 末端上坡使 idx3 的高峰突出度仅 0.2：距离筛除先按高度压制
	// idx1 的近邻峰，随后 idx3 自身被突出度过滤剔除
	values := []float64{0, 2, 0.2, 3, 2.8, 3.5}
	peaks := FindPeaks(values, PeakOptions{
		MinProminence: 1,
		MinDistance:   3,
		UseProminence: true,
	})
	assert.Empty(t, peaks)
}

func TestFindPeaks_Sinusoid(t *testing.T) {
	// 周期 20 的正弦，峰间隔应恒等于 20
	n := 200
	period := 20
	values := make([]float64, n)
	for i := range values {
		values[i] = math.Sin(2 * math.Pi * float64(i) / float64(period))
	}
	peaks := FindPeaks(values, PeakOptions{
		MinHeight:     0.5,
		UseHeight:     true,
		MinProminence: 0.5,
		UseProminence: true,
		MinDistance:   10,
	})
	require.GreaterOrEqual(t, len(peaks), 8)
	for i := 1; i < len(peaks); i++ {
		assert.Equal(t, period, peaks[i].Index-peaks[i-1].Index)
	}
}

func TestFindPeaks_MonotonicNoPeaks(t *testing.T) {
	assert.Empty(t, FindPeaks([]float64{1, 2, 3, 4}, PeakOptions{}))
	assert.Empty(t, FindPeaks([]float64{4, 3, 2, 1}, PeakOptions{}))
	assert.Empty(t, FindPeaks([]float64{1, 1}, PeakOptions{}))
	assert.Empty(t, FindPeaks(nil, PeakOptions{}))
}
