package signal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
	assert.Equal(t, -1.5, Mean([]float64{-1, -2}))
}

func TestStd_Population(t *testing.T) {
	// np.std([1,2,3,4]) = sqrt(1.25)
	assert.InDelta(t, math.Sqrt(1.25), Std([]float64{1, 2, 3, 4}), 1e-12)
	assert.Equal(t, 0.0, Std(nil))
	assert.Equal(t, 0.0, Std([]float64{5, 5, 5}))
}

func TestSampleStd_Ddof1(t *testing.T) {
	// pandas std([1,2,3,4]) = sqrt(5/3)
	assert.InDelta(t, math.Sqrt(5.0/3.0), SampleStd([]float64{1, 2, 3, 4}), 1e-12)
	// 少于 2 个样本返回 0
	assert.Equal(t, 0.0, SampleStd([]float64{7}))
	assert.Equal(t, 0.0, SampleStd(nil))
}

func TestPercentile_LinearInterpolation(t *testing.T) {
	values := []float64{1, 2, 3, 4}

	// np.percentile([1,2,3,4], 40) = 2.2
	assert.InDelta(t, 2.2, Percentile(values, 40), 1e-12)
	// np.percentile([1,2,3,4], 75) = 3.25
	assert.InDelta(t, 3.25, Percentile(values, 75), 1e-12)
	assert.Equal(t, 1.0, Percentile(values, 0))
	assert.Equal(t, 4.0, Percentile(values, 100))
	assert.Equal(t, 0.0, Percentile(nil, 50))
}

func TestPercentile_UnsortedInput(t *testing.T) {
	// 输入无需有序，且不被修改
	values := []float64{3, 1, 4, 2}
	assert.InDelta(t, 2.5, Percentile(values, 50), 1e-12)
	assert.Equal(t, []float64{3, 1, 4, 2}, values)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.0, Median([]float64{1, 2, 3}))
	assert.Equal(t, 2.5, Median([]float64{1, 2, 3, 4}))
}

func TestDiff(t *testing.T) {
	assert.Equal(t, []float64{1, 2, -3}, Diff([]float64{1, 2, 4, 1}))
	assert.Nil(t, Diff([]float64{5}))
	assert.Nil(t, Diff(nil))
}

func TestZNormalize_MeanZeroUnitVariance(t *testing.T) {
	out := ZNormalize([]float64{1, 2, 3, 4, 5})
	require.Len(t, out, 5)
	assert.InDelta(t, 0.0, Mean(out), 1e-6)
	assert.InDelta(t, 1.0, Std(out), 1e-6)
}

func TestZNormalize_ConstantSignal(t *testing.T) {
	// 零方差窗口不应产生 NaN/Inf
	out := ZNormalize([]float64{3, 3, 3})
	for _, v := range out {
		assert.False(t, math.IsNaN(v))
		assert.False(t, math.IsInf(v, 0))
		assert.InDelta(t, 0.0, v, 1e-6)
	}
}

func TestAutocorrelation_Lag0Normalized(t *testing.T) {
	out := Autocorrelation([]float64{1, -1, 1, -1, 1, -1})
	require.Len(t, out, 6)
	assert.Equal(t, 1.0, out[0])
	// 交替信号的自相关符号随滞后交替
	assert.Less(t, out[1], 0.0)
	assert.Greater(t, out[2], 0.0)
}

func TestAutocorrelation_PeriodicSignal(t *testing.T) {
	// 周期 8 的正弦：自相关在 lag=8 处出现局部峰
	n := 64
	period := 8
	values := make([]float64, n)
	for i := range values {
		values[i] = math.Sin(2 * math.Pi * float64(i) / float64(period))
	}
	out := Autocorrelation(values)
	assert.Greater(t, out[period], out[period/2])
	assert.Greater(t, out[period], out[period+period/2])
}

func TestMinMax(t *testing.T) {
	values := []float64{2, -5, 9, 0}
	assert.Equal(t, -5.0, Min(values))
	assert.Equal(t, 9.0, Max(values))
	assert.Equal(t, 0.0, Min(nil))
	assert.Equal(t, 0.0, Max(nil))
}
