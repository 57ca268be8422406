// Package mqtt 可穿戴设备样本的 MQTT 接入
package mqtt

import (
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"wisefido-sleep-analyzer/internal/config"
)

// Client MQTT 客户端封装
type Client struct {
	client pahomqtt.Client
	config config.MQTTConfig
	logger *zap.Logger
}

// NewClient 创建并连接 MQTT 客户端
func NewClient(cfg config.MQTTConfig, logger *zap.Logger) (*Client, error) {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetCleanSession(false)

	opts.SetOnConnectHandler(func(c pahomqtt.Client) {
		logger.Info("MQTT connected", zap.String("broker", cfg.Broker))
	})
	opts.SetConnectionLostHandler(func(c pahomqtt.Client, err error) {
		logger.Warn("MQTT connection lost", zap.Error(err))
	})

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timeout: broker=%s", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect mqtt broker: %w", err)
	}

	return &Client{client: client, config: cfg, logger: logger}, nil
}

// Subscribe 订阅主题
func (c *Client) Subscribe(topic string, handler pahomqtt.MessageHandler) error {
	token := c.client.Subscribe(topic, c.config.QoS, handler)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to subscribe %s: %w", topic, err)
	}
	c.logger.Info("MQTT subscribed", zap.String("topic", topic))
	return nil
}

// Close 断开连接
func (c *Client) Close() {
	c.client.Disconnect(250)
}
