package engine

import "errors"

// 引擎错误分类：所有成员对当前请求都是终止性的，引擎不做内部重试。
// 相同输入重新调用是确定性且安全的，重试责任在调用方。
var (
	// ErrInsufficientData 低于最小样本/Epoch 下限
	ErrInsufficientData = errors.New("insufficient data")
	// ErrMissingSignal PPG 与加速度计均不可用，或 HAVOK 无合格信号
	ErrMissingSignal = errors.New("missing signal")
	// ErrNoSleepDetected 分类器未产生任何睡眠 Epoch
	ErrNoSleepDetected = errors.New("no sleep periods detected")
)
