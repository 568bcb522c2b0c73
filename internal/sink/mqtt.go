package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/tejusbharadwaj/renugrid/internal/models"
	"github.com/tejusbharadwaj/renugrid/internal/telemetry"
)

// MQTTConfig describes the broker samples are republished to.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Topic    string
	Username string
	Password string
	QoS      byte
}

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

type mqttPayload struct {
	models.Sample
	Mode string `json:"mode"`
}

// MQTTPublisher republishes each new sample as a JSON message.
type MQTTPublisher struct {
	client  publisher
	topic   string
	qos     byte
	timeout time.Duration
}

// NewMQTTPublisher connects to the broker.
func NewMQTTPublisher(cfg MQTTConfig) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return newMQTTPublisher(client, cfg.Topic, cfg.QoS), nil
}

func newMQTTPublisher(client publisher, topic string, qos byte) *MQTTPublisher {
	return &MQTTPublisher{
		client:  client,
		topic:   topic,
		qos:     qos,
		timeout: 5 * time.Second,
	}
}

func (p *MQTTPublisher) Name() string { return "mqtt" }

func (p *MQTTPublisher) Record(ctx context.Context, samples []models.Sample) error {
	for _, s := range samples {
		payload, err := json.Marshal(mqttPayload{Sample: s, Mode: telemetry.Classify(s).String()})
		if err != nil {
			return fmt.Errorf("mqtt encode: %w", err)
		}

		token := p.client.Publish(p.topic, p.qos, false, payload)
		select {
		case <-token.Done():
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.timeout):
			return fmt.Errorf("mqtt publish %s: timed out", p.topic)
		}
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt publish %s: %w", p.topic, err)
		}
	}
	return nil
}

func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
