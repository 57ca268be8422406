package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wisefido-sleep-analyzer/internal/models"
)

func TestMerge_NearestTimestampWithinTolerance(t *testing.T) {
	activity := []models.ActivityEpoch{
		{Timestamp: baseTime, ActivityMagnitude: 1.5, MovementIntensity: 2},
		{Timestamp: baseTime.Add(time.Minute), ActivityMagnitude: 0.5},
	}
	hr := []models.HeartRateEpoch{
		{Timestamp: baseTime.Add(20 * time.Second), HeartRate: 62},
		{Timestamp: baseTime.Add(time.Minute + 25*time.Second), HeartRate: 58},
	}

	merged := Merge(activity, hr)
	require.Len(t, merged, 2)

	require.NotNil(t, merged[0].HeartRate)
	assert.Equal(t, 62.0, *merged[0].HeartRate)
	assert.Equal(t, 1.5, merged[0].ActivityMagnitude)
	assert.Equal(t, 2, merged[0].MovementIntensity)

	require.NotNil(t, merged[1].HeartRate)
	assert.Equal(t, 58.0, *merged[1].HeartRate)
}

func TestMerge_OutsideToleranceLeavesNil(t *testing.T) {
	activity := []models.ActivityEpoch{{Timestamp: baseTime}}
	hr := []models.HeartRateEpoch{
		{Timestamp: baseTime.Add(45 * time.Second), HeartRate: 70},
	}

	merged := Merge(activity, hr)
	require.Len(t, merged, 1)
	assert.Nil(t, merged[0].HeartRate)
}

func TestMerge_NoHeartRate(t *testing.T) {
	activity := []models.ActivityEpoch{
		{Timestamp: baseTime, ActivityMagnitude: 1},
		{Timestamp: baseTime.Add(time.Minute), ActivityMagnitude: 2},
	}

	merged := Merge(activity, nil)
	require.Len(t, merged, 2)
	for _, m := range merged {
		assert.Nil(t, m.HeartRate)
	}
}

func TestMerge_NoActivityFallsBackToHR(t *testing.T) {
	hr := []models.HeartRateEpoch{
		{Timestamp: baseTime, HeartRate: 55},
		{Timestamp: baseTime.Add(time.Minute), HeartRate: 57},
	}

	merged := Merge(nil, hr)
	require.Len(t, merged, 2)
	for i, m := range merged {
		require.NotNil(t, m.HeartRate)
		assert.Equal(t, hr[i].HeartRate, *m.HeartRate)
		assert.Equal(t, 0.0, m.ActivityMagnitude)
		assert.Equal(t, 0, m.MovementIntensity)
	}
}

func TestMerge_BothEmpty(t *testing.T) {
	assert.Nil(t, Merge(nil, nil))
}

func TestMerge_PicksClosestOfSeveral(t *testing.T) {
	activity := []models.ActivityEpoch{{Timestamp: baseTime}}
	hr := []models.HeartRateEpoch{
		{Timestamp: baseTime.Add(-25 * time.Second), HeartRate: 80},
		{Timestamp: baseTime.Add(10 * time.Second), HeartRate: 64},
		{Timestamp: baseTime.Add(28 * time.Second), HeartRate: 90},
	}

	merged := Merge(activity, hr)
	require.Len(t, merged, 1)
	require.NotNil(t, merged[0].HeartRate)
	assert.Equal(t, 64.0, *merged[0].HeartRate)
}
