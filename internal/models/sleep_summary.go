package models

// MovementMetrics 活动描述性统计
type MovementMetrics struct {
	AvgActivity float64 `json:"avg_activity"`
	ActivityStd float64 `json:"activity_std"`
}

// HRMetrics 心率描述性统计
type HRMetrics struct {
	AvgHR float64 `json:"avg_hr"`
	MinHR float64 `json:"min_hr"`
	MaxHR float64 `json:"max_hr"`
}

// SleepSummary 睡眠分析汇总结果
//
// 字段与前端及 sleep_analysis 表的 JSON 结构保持一致。
// 时间戳为 ISO-8601 字符串，缺失时为 null；所有数值在输出边界
// 四舍五入到 1-2 位小数，内部计算保留完整精度。
type SleepSummary struct {
	SleepOnset               *string          `json:"sleep_onset"`
	WakeTime                 *string          `json:"wake_time"`
	TotalSleepTimeMinutes    float64          `json:"total_sleep_time_minutes"`
	TimeInBedMinutes         float64          `json:"time_in_bed_minutes"`
	SleepEfficiencyPercent   float64          `json:"sleep_efficiency_percent"`
	SleepOnsetLatencyMinutes *float64         `json:"sleep_onset_latency_minutes"`
	WakeAfterSleepOnsetMin   *float64         `json:"wake_after_sleep_onset_minutes"`
	NumberOfAwakenings       int              `json:"number_of_awakenings"`
	AwakeningIndex           float64          `json:"awakening_index"`
	AlgorithmUsed            string           `json:"algorithm_used"`
	MovementMetrics          *MovementMetrics `json:"movement_metrics"`
	HRMetrics                *HRMetrics       `json:"hr_metrics"`
}
