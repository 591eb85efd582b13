package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// backlogCapacity bounds how many messages are held while the broker is
// unreachable. Dose events are rare; readings dominate, one per 5s, so this
// covers well over an hour of outage.
const backlogCapacity = 1024

// RealPublisher publishes to an actual MQTT broker. Messages that cannot be
// delivered while disconnected are held in a backlog and replayed on
// reconnect.
type RealPublisher struct {
	client paho.Client

	mu      sync.Mutex
	backlog *backlog
}

// NewRealPublisher creates a publisher connected to the given broker.
// Connection is retried in the background; publishing before the first
// successful connect lands in the backlog.
func NewRealPublisher(broker string) *RealPublisher {
	p := &RealPublisher{backlog: newBacklog(backlogCapacity)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("ph-doser").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(paho.Client) {
			logrus.Info("mqtt connected")
			p.drain()
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logrus.WithError(err).Warn("mqtt connection lost, backlogging telemetry")
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// PublishReading sends a pH measurement (QoS 0, not retained).
func (p *RealPublisher) PublishReading(event ReadingEvent) error {
	payload, err := FormatReadingPayload(event)
	if err != nil {
		return fmt.Errorf("format reading payload: %w", err)
	}
	return p.publish(Topic, payload, 0, false)
}

// PublishDose sends a valve transition (QoS 1: dosing history matters).
func (p *RealPublisher) PublishDose(event DoseEvent) error {
	payload, err := FormatDosePayload(event)
	if err != nil {
		return fmt.Errorf("format dose payload: %w", err)
	}
	return p.publish(TopicDosing, payload, 1, false)
}

// PublishSystem sends a system lifecycle event (QoS 1).
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(TopicSystem, payload, 1, event.Retained)
}

func (p *RealPublisher) publish(topic string, payload []byte, qos byte, retained bool) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		p.backlog.push(pending{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout on %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// drain replays the backlog after a reconnect, oldest first.
func (p *RealPublisher) drain() {
	p.mu.Lock()
	msgs := p.backlog.drainAll()
	p.mu.Unlock()

	if len(msgs) == 0 {
		return
	}
	logrus.Infof("mqtt: replaying %d backlogged messages", len(msgs))
	for _, m := range msgs {
		token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(5 * time.Second) {
			logrus.Warnf("mqtt: replay timeout on %s", m.topic)
		} else if err := token.Error(); err != nil {
			logrus.WithError(err).Warnf("mqtt: replay failed on %s", m.topic)
		}
	}
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
