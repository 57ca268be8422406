package models

// UltradianCycle 检测到的超昼夜节律周期（自相关峰）
type UltradianCycle struct {
	PeriodMinutes float64 `json:"period_minutes"`
	Strength      float64 `json:"strength"`    // 归一化自相关峰高
	LagSamples    int     `json:"lag_samples"` // 峰对应的滞后样本数
}

// StateTransition 离散状态切换事件（强迫信号超阈值点）
type StateTransition struct {
	SampleIndex       int     `json:"sample_index"`
	Magnitude         float64 `json:"magnitude"`
	Timestamp         *string `json:"timestamp,omitempty"` // Hankel 偏移校正后的真实时间戳
	TimeOffsetMinutes float64 `json:"time_offset_minutes"`
}

// RhythmMetrics 节律汇总统计
type RhythmMetrics struct {
	SignalType           string  `json:"signal_type"` // "activity" 或 "heart_rate"
	TotalSamples         int     `json:"total_samples"`
	SVDRankUsed          int     `json:"svd_rank_used"`
	StackmaxUsed         int     `json:"stackmax_used"`
	EnergyInTop5Modes    float64 `json:"energy_in_top_5_modes"`
	ForcingMagnitudeMean float64 `json:"forcing_magnitude_mean"`
	ForcingMagnitudeStd  float64 `json:"forcing_magnitude_std"`
	RhythmStabilityScore float64 `json:"rhythm_stability_score"` // 第一模态能量占比
	ChaosIndicator       float64 `json:"chaos_indicator"`        // 强迫信号模长均值，高=更混沌
}

// RhythmReport HAVOK 节律分析报告
type RhythmReport struct {
	AlgorithmUsed           string            `json:"algorithm_used"`
	CyclesDetected          bool              `json:"cycles_detected"`
	UltradianCycles         []UltradianCycle  `json:"ultradian_cycles"`
	DominantPeriodMinutes   *float64          `json:"dominant_period_minutes"`
	AverageCycleDurationMin *float64          `json:"average_cycle_duration_minutes"`
	StateTransitions        []StateTransition `json:"state_transitions"`
	StateTransitionsCount   int               `json:"state_transitions_count"`
	EnergyDistribution      []float64         `json:"energy_distribution"`
	RhythmMetrics           RhythmMetrics     `json:"rhythm_metrics"`
	SessionDurationHours    float64           `json:"session_duration_hours"`
	SVDRank                 int               `json:"svd_rank"`
	Stackmax                int               `json:"stackmax"`
}
