package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/langchou/vehiclesim/internal/models"
)

// Config MQTT 连接参数
type Config struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	QoS         byte
	Retain      bool
}

// pahoClient 便于测试替换的 paho 子集
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newPahoClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

const publishTimeout = 2 * time.Second

// Bridge 把状态事件转发到 MQTT
type Bridge struct {
	cli    pahoClient
	cfg    Config
	logger *zap.Logger
}

// NewBridge 连接 broker
func NewBridge(cfg Config, logger *zap.Logger) (*Bridge, error) {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "vehicles"
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.OnConnect = func(paho.Client) {
		logger.Info("Connected to MQTT broker", zap.String("broker", cfg.Broker))
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		logger.Warn("MQTT connection lost", zap.Error(err))
	}

	cli := newPahoClient(opts)
	token := cli.Connect()
	if !token.WaitTimeout(10*time.Second) || token.Error() != nil {
		cli.Disconnect(250)
		if token.Error() != nil {
			return nil, fmt.Errorf("connect mqtt broker: %w", token.Error())
		}
		return nil, fmt.Errorf("connect mqtt broker: timeout")
	}

	return &Bridge{cli: cli, cfg: cfg, logger: logger}, nil
}

// Topic 车辆状态主题
func (b *Bridge) Topic(vehicleID string) string {
	return fmt.Sprintf("%s/%s/state", b.cfg.TopicPrefix, vehicleID)
}

// Publish 发布一个状态事件
func (b *Bridge) Publish(e models.StateEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal state event: %w", err)
	}

	token := b.cli.Publish(b.Topic(e.VehicleID), b.cfg.QoS, b.cfg.Retain, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish state event: timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish state event: %w", err)
	}
	return nil
}

// Forward 持续转发事件直到 channel 关闭
func (b *Bridge) Forward(events <-chan models.StateEvent) {
	for e := range events {
		if err := b.Publish(e); err != nil {
			b.logger.Error("Failed to publish state to MQTT", zap.Error(err), zap.String("vehicle_id", e.VehicleID))
		}
	}
}

// Close 断开连接
func (b *Bridge) Close() {
	b.cli.Disconnect(250)
}
