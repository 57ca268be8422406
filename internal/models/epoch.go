package models

import "time"

// ActivityEpoch 单个 1 分钟活动特征 Epoch（日历分钟对齐，仅非空窗口）
type ActivityEpoch struct {
	Timestamp         time.Time `json:"timestamp"`
	ActivityMagnitude float64   `json:"activity_magnitude"` // 窗口内样本模长均值
	MovementIntensity int       `json:"movement_intensity"` // 模长超过 mean+1σ 的样本数
}

// ActivityCount Cole-Kripke 路径的活动计数 Epoch
//
// 与 ActivityEpoch 不同：计数序列从首样本所在分钟到末样本所在分钟
// 连续生成，空窗口计数为 0；计数是窗口内模长之和取整（求和而非平均）。
type ActivityCount struct {
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count"`
}

// HeartRateEpoch 单个 1 分钟心率 Epoch
//
// 仅当窗口内 PPG 样本充足且峰结构有效时生成，不存在"心率为 0"的 Epoch。
type HeartRateEpoch struct {
	Timestamp time.Time `json:"timestamp"`
	HeartRate float64   `json:"heart_rate"` // 次/分钟
}

// MergedEpoch 活动与心率按时间戳合并后的 Epoch 行
//
// HeartRate 为 nil 表示该分钟没有匹配到心率（容差 30 秒）。
type MergedEpoch struct {
	Timestamp         time.Time `json:"timestamp"`
	ActivityMagnitude float64   `json:"activity_magnitude"`
	MovementIntensity int       `json:"movement_intensity"`
	HeartRate         *float64  `json:"heart_rate,omitempty"`
}

// SleepEpoch 分类器输出的单个 Epoch 标签
type SleepEpoch struct {
	Timestamp  time.Time `json:"timestamp"`
	SleepIndex float64   `json:"sleep_index"` // Cole-Kripke SI，阈值分类器恒为 0
	Sleep      bool      `json:"sleep"`       // true=睡眠, false=清醒
}

// SleepBlock 连续（或容忍短暂清醒）的睡眠段
type SleepBlock struct {
	StartIdx        int       `json:"start_idx"`
	EndIdx          int       `json:"end_idx"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes float64   `json:"duration_minutes"`
}
