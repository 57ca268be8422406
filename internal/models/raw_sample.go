package models

import (
	"sort"
	"time"
)

// RawSample 单条原始传感器读数
//
// 对应 sensor_readings 表的一行：同一时间戳下可能只有 PPG、
// 只有加速度计、或两者都有。陀螺仪数据存储但分析引擎不使用。
type RawSample struct {
	Timestamp time.Time `json:"timestamp"`
	PPG       *float64  `json:"ppg,omitempty"`
	AccX      *float64  `json:"acc_x,omitempty"`
	AccY      *float64  `json:"acc_y,omitempty"`
	AccZ      *float64  `json:"acc_z,omitempty"`
	GyroX     *float64  `json:"gyro_x,omitempty"`
	GyroY     *float64  `json:"gyro_y,omitempty"`
	GyroZ     *float64  `json:"gyro_z,omitempty"`
}

// HasPPG 是否包含 PPG 值
func (s *RawSample) HasPPG() bool {
	return s.PPG != nil
}

// HasAccelerometer 是否包含完整的三轴加速度数据
func (s *RawSample) HasAccelerometer() bool {
	return s.AccX != nil && s.AccY != nil && s.AccZ != nil
}

// Usable 样本是否可用于分析（至少包含 PPG 或完整三轴加速度之一）
func (s *RawSample) Usable() bool {
	return s.HasPPG() || s.HasAccelerometer()
}

// SortSamples 按时间戳排序并去除重复时间戳（保留首次出现的样本）
//
// 返回新切片，不修改输入。
func SortSamples(samples []RawSample) []RawSample {
	sorted := make([]RawSample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	deduped := sorted[:0]
	for i, s := range sorted {
		if i > 0 && s.Timestamp.Equal(sorted[i-1].Timestamp) {
			continue
		}
		deduped = append(deduped, s)
	}
	return deduped
}
