package publish

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// messageClient is the subset of the MQTT client used for publishing.
type messageClient interface {
	Publish(ctx context.Context, topic string, payload []byte, retained bool) error
	Close()
}

// MQTTPublisher sends summaries as retained JSON messages.
type MQTTPublisher struct {
	client messageClient
	topic  string
}

// NewMQTTPublisher publishes under topic. Each run goes to <topic>/<run id>,
// and <topic>/latest is overwritten.
func NewMQTTPublisher(client messageClient, topic string) (*MQTTPublisher, error) {
	topic = strings.Trim(strings.TrimSpace(topic), "/")
	if topic == "" {
		return nil, errors.New("mqtt: topic is empty")
	}
	return &MQTTPublisher{client: client, topic: topic}, nil
}

// Topics returns the topics a run is published to.
func (p *MQTTPublisher) Topics(runID string) []string {
	return []string{p.topic + "/" + runID, p.topic + "/" + latestRun}
}

// Publish sends the JSON summary to every run topic.
func (p *MQTTPublisher) Publish(ctx context.Context, summary Summary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	for _, topic := range p.Topics(summary.RunID) {
		if err := p.client.Publish(ctx, topic, payload, true); err != nil {
			return err
		}
	}
	return nil
}

// Close disconnects the client.
func (p *MQTTPublisher) Close() error {
	p.client.Close()
	return nil
}
