package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wisefido-sleep-analyzer/internal/models"
)

var baseTime = time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)

// ppgSinusoid 生成 minutes 分钟、指定心率的合成 PPG 信号
func ppgSinusoid(start time.Time, minutes int, bpm float64, params PPGParams) []models.RawSample {
	beatHz := bpm / 60
	samplePeriod := time.Duration(float64(time.Second) / params.SamplingRateHz)
	total := int(params.SamplingRateHz * 60 * float64(minutes))

	samples := make([]models.RawSample, 0, total)
	for i := 0; i < total; i++ {
		tSec := float64(i) / params.SamplingRateHz
		v := math.Sin(2 * math.Pi * beatHz * tSec)
		samples = append(samples, models.RawSample{
			Timestamp: start.Add(time.Duration(i) * samplePeriod),
			PPG:       &v,
		})
	}
	return samples
}

func TestExtractHeartRate_Sinusoid(t *testing.T) {
	params := DefaultPPGParams()
	samples := ppgSinusoid(baseTime, 5, 72, params)

	epochs := ExtractHeartRate(samples, params)
	require.NotEmpty(t, epochs)

	// 每个窗口的心率都应落在真实值 ±2 bpm 内
	for _, e := range epochs {
		assert.InDelta(t, 72.0, e.HeartRate, 2.0)
		assert.Equal(t, e.Timestamp, e.Timestamp.Truncate(time.Minute))
	}
}

func TestExtractHeartRate_SlowHeartRate(t *testing.T) {
	params := DefaultPPGParams()
	samples := ppgSinusoid(baseTime, 3, 48, params)

	epochs := ExtractHeartRate(samples, params)
	require.NotEmpty(t, epochs)
	for _, e := range epochs {
		assert.InDelta(t, 48.0, e.HeartRate, 2.0)
	}
}

func TestExtractHeartRate_SparseWindowSkipped(t *testing.T) {
	params := DefaultPPGParams()
	// 窗口内样本数低于最小值：不产生 Epoch
	var samples []models.RawSample
	for i := 0; i < params.MinWindowSamples-1; i++ {
		v := math.Sin(float64(i))
		samples = append(samples, models.RawSample{
			Timestamp: baseTime.Add(time.Duration(i) * 100 * time.Millisecond),
			PPG:       &v,
		})
	}
	assert.Empty(t, ExtractHeartRate(samples, params))
}

func TestExtractHeartRate_ConstantSignalSkipped(t *testing.T) {
	params := DefaultPPGParams()
	// 常量信号无峰，窗口被丢弃而非报错
	var samples []models.RawSample
	for i := 0; i < 200; i++ {
		v := 1.0
		samples = append(samples, models.RawSample{
			Timestamp: baseTime.Add(time.Duration(i) * 100 * time.Millisecond),
			PPG:       &v,
		})
	}
	assert.Empty(t, ExtractHeartRate(samples, params))
}

func TestExtractHeartRate_OutOfRangeSkipped(t *testing.T) {
	params := DefaultPPGParams()
	// 20 bpm 低于生理下界，窗口被丢弃
	samples := ppgSinusoid(baseTime, 2, 20, params)
	assert.Empty(t, ExtractHeartRate(samples, params))
}

func TestExtractHeartRate_IgnoresNonPPGSamples(t *testing.T) {
	params := DefaultPPGParams()
	samples := ppgSinusoid(baseTime, 2, 60, params)

	// 混入纯加速度计样本不影响心率提取
	one := 1.0
	samples = append(samples, models.RawSample{
		Timestamp: baseTime.Add(30 * time.Second),
		AccX:      &one, AccY: &one, AccZ: &one,
	})

	epochs := ExtractHeartRate(samples, params)
	require.NotEmpty(t, epochs)
	for _, e := range epochs {
		assert.InDelta(t, 60.0, e.HeartRate, 2.0)
	}
}
