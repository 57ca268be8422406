package classifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wisefido-sleep-analyzer/internal/features"
	"wisefido-sleep-analyzer/internal/models"
)

var baseTime = time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)

func countSeries(counts []int) *features.FeatureSet {
	out := make([]models.ActivityCount, len(counts))
	for i, c := range counts {
		out[i] = models.ActivityCount{
			Timestamp: baseTime.Add(time.Duration(i) * time.Minute),
			Count:     c,
		}
	}
	return &features.FeatureSet{Counts: out, HasActivity: true}
}

func repeatCounts(value, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = value
	}
	return out
}

func TestColeKripke_AllZeroCountsAreWake(t *testing.T) {
	ck := NewColeKripke()
	epochs, err := ck.Classify(countSeries(repeatCounts(0, 90)))
	require.NoError(t, err)
	require.Len(t, epochs, 90)

	// 计数全 0：SI=0 < 1，全部清醒
	for _, e := range epochs {
		assert.Equal(t, 0.0, e.SleepIndex)
		assert.False(t, e.Sleep)
	}
}

func TestColeKripke_KnownSleepIndex(t *testing.T) {
	ck := NewColeKripke()
	// 常量计数 c=100：scaled=1，窗口完整时
	// SI = 0.001 × (106+54+58+76+230+74+67) = 0.665
	epochs, err := ck.Classify(countSeries(repeatCounts(100, 90)))
	require.NoError(t, err)

	mid := epochs[45]
	assert.InDelta(t, 0.665, mid.SleepIndex, 1e-9)
	assert.False(t, mid.Sleep)
}

func TestColeKripke_SleepThreshold(t *testing.T) {
	ck := NewColeKripke()
	// 常量计数 c=200：scaled=2，完整窗口 SI = 1.33 ≥ 1 → 睡眠
	epochs, err := ck.Classify(countSeries(repeatCounts(200, 90)))
	require.NoError(t, err)

	mid := epochs[45]
	assert.InDelta(t, 1.33, mid.SleepIndex, 1e-9)
	assert.True(t, mid.Sleep)
}

func TestColeKripke_BoundaryZeroPadding(t *testing.T) {
	ck := NewColeKripke()
	epochs, err := ck.Classify(countSeries(repeatCounts(100, 90)))
	require.NoError(t, err)

	// 首 Epoch 只保留偏移 0..+2：SI = 0.001 × (230+74+67) = 0.371
	assert.InDelta(t, 0.371, epochs[0].SleepIndex, 1e-9)
	// 末 Epoch 只保留偏移 -4..0：SI = 0.001 × (106+54+58+76+230) = 0.524
	assert.InDelta(t, 0.524, epochs[89].SleepIndex, 1e-9)
}

func TestColeKripke_CountsClippedAt300(t *testing.T) {
	ck := NewColeKripke()
	// 计数 100000 → scaled 1000 截断到 300：SI = 0.001 × 665 × 300
	epochs, err := ck.Classify(countSeries(repeatCounts(100000, 90)))
	require.NoError(t, err)
	assert.InDelta(t, 0.665*300, epochs[45].SleepIndex, 1e-6)
}

func TestColeKripke_TooFewEpochs(t *testing.T) {
	ck := NewColeKripke()
	_, err := ck.Classify(countSeries(repeatCounts(0, 59)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient data")
}

func TestColeKripke_Deterministic(t *testing.T) {
	ck := NewColeKripke()
	counts := make([]int, 120)
	for i := range counts {
		counts[i] = (i * 37) % 250
	}
	a, err := ck.Classify(countSeries(counts))
	require.NoError(t, err)
	b, err := ck.Classify(countSeries(counts))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
