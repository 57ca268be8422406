package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT配置
type MQTTConfig struct {
	Enabled  bool
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
	Topic    string // 可穿戴设备样本上报主题
}

// Config 睡眠分析服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig

	HTTP struct {
		Addr string
	}

	// 原始读数来源：postgres（默认）或 rest（Supabase 风格读数 API）
	Readings struct {
		Source      string
		RestBaseURL string
		RestAPIKey  string
	}

	// 引擎参数（全部有文档化默认值）
	Engine struct {
		EpochSeconds      int
		PPGSamplingRateHz float64
		AccSamplingRateHz float64 // 历史回退窗口参数，已由日历对齐重采样取代

		Stackmax             int
		SVDRank              int
		UltradianMinPeriod   int // 分钟
		UltradianMaxPeriod   int // 分钟
		TransitionPercentile float64

		ActivityPercentile float64
		HRPercentile       float64
		ApplyHRGate        bool
		WakeTolerance      int
		MinBlockEpochs     int
		BlockPolicy        string // "main" 或 "span"
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	// 从环境变量加载（默认值）
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "owlrd")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Enabled = getEnvBool("MQTT_ENABLED", false)
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "wisefido-sleep-analyzer")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = 1
	cfg.MQTT.Topic = getEnv("MQTT_SAMPLE_TOPIC", "wearable/+/samples")

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8084")

	cfg.Readings.Source = getEnv("READINGS_SOURCE", "postgres")
	cfg.Readings.RestBaseURL = getEnv("READINGS_REST_BASE_URL", "")
	cfg.Readings.RestAPIKey = getEnv("READINGS_REST_API_KEY", "")

	// 引擎参数
	cfg.Engine.EpochSeconds = getEnvInt("ENGINE_EPOCH_SECONDS", 60)
	cfg.Engine.PPGSamplingRateHz = getEnvFloat("ENGINE_PPG_SAMPLING_RATE_HZ", 135)
	cfg.Engine.AccSamplingRateHz = getEnvFloat("ENGINE_ACC_SAMPLING_RATE_HZ", 52)
	cfg.Engine.Stackmax = getEnvInt("ENGINE_HAVOK_STACKMAX", 100)
	cfg.Engine.SVDRank = getEnvInt("ENGINE_HAVOK_SVD_RANK", 15)
	cfg.Engine.UltradianMinPeriod = getEnvInt("ENGINE_ULTRADIAN_MIN_PERIOD_MIN", 30)
	cfg.Engine.UltradianMaxPeriod = getEnvInt("ENGINE_ULTRADIAN_MAX_PERIOD_MIN", 180)
	cfg.Engine.TransitionPercentile = getEnvFloat("ENGINE_TRANSITION_PERCENTILE", 75)
	cfg.Engine.ActivityPercentile = getEnvFloat("ENGINE_ACTIVITY_PERCENTILE", 40)
	cfg.Engine.HRPercentile = getEnvFloat("ENGINE_HR_PERCENTILE", 60)
	cfg.Engine.ApplyHRGate = getEnvBool("ENGINE_APPLY_HR_GATE", false)
	cfg.Engine.WakeTolerance = getEnvInt("ENGINE_WAKE_TOLERANCE_EPOCHS", 3)
	cfg.Engine.MinBlockEpochs = getEnvInt("ENGINE_MIN_BLOCK_EPOCHS", 10)
	cfg.Engine.BlockPolicy = getEnv("ENGINE_BLOCK_POLICY", "main")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if cfg.Engine.BlockPolicy != "main" && cfg.Engine.BlockPolicy != "span" {
		return nil, fmt.Errorf("invalid ENGINE_BLOCK_POLICY %q: must be main or span", cfg.Engine.BlockPolicy)
	}
	if cfg.Readings.Source != "postgres" && cfg.Readings.Source != "rest" {
		return nil, fmt.Errorf("invalid READINGS_SOURCE %q: must be postgres or rest", cfg.Readings.Source)
	}
	if cfg.Readings.Source == "rest" && cfg.Readings.RestBaseURL == "" {
		return nil, fmt.Errorf("READINGS_REST_BASE_URL is required when READINGS_SOURCE=rest")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
