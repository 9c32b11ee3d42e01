package mqtt

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	defaultConnectTimeout = 5 * time.Second
	defaultPublishTimeout = 10 * time.Second
	disconnectQuiesceMs   = 250
)

// Client wraps a paho MQTT client used for one-shot publishing.
type Client struct {
	client pahomqtt.Client
	logger *zap.Logger
}

// BrokerURL converts mqtt/mqtts/ws/wss URLs into the form paho expects.
func BrokerURL(raw string) (string, *url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", nil, fmt.Errorf("mqtt: invalid url: %w", err)
	}

	switch parsed.Scheme {
	case "ws", "wss", "tcp", "ssl":
		return stripUser(parsed), parsed, nil
	case "mqtt":
		return strings.Replace(stripUser(parsed), "mqtt://", "tcp://", 1), parsed, nil
	case "mqtts":
		return strings.Replace(stripUser(parsed), "mqtts://", "ssl://", 1), parsed, nil
	default:
		return "", nil, fmt.Errorf("mqtt: unsupported scheme %q (supported: mqtt, mqtts, ws, wss)", parsed.Scheme)
	}
}

func stripUser(u *url.URL) string {
	clean := *u
	clean.User = nil
	return clean.String()
}

// NewClient connects to the broker named by rawURL. Credentials embedded in the URL are used.
func NewClient(ctx context.Context, rawURL, clientID string, logger *zap.Logger) (*Client, error) {
	broker, parsed, err := BrokerURL(rawURL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(clientID) == "" {
		return nil, errors.New("mqtt: client id is empty")
	}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectTimeout(defaultConnectTimeout)
	if parsed.Scheme == "mqtts" || parsed.Scheme == "wss" || parsed.Scheme == "ssl" {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	if parsed.User != nil {
		opts.SetUsername(parsed.User.Username())
		if password, ok := parsed.User.Password(); ok {
			opts.SetPassword(password)
		}
	}
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		logger.Warn("mqtt connection lost", zap.Error(err))
	})

	client := pahomqtt.NewClient(opts)
	if err := wait(ctx, client.Connect(), defaultConnectTimeout); err != nil {
		return nil, fmt.Errorf("mqtt: connect: %w", err)
	}

	logger.Info("mqtt client connected",
		zap.String("broker", broker),
		zap.String("client_id", clientID),
	)

	return &Client{client: client, logger: logger}, nil
}

// Publish sends payload with QoS 1 and waits for the broker acknowledgement.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte, retained bool) error {
	if strings.TrimSpace(topic) == "" {
		return errors.New("mqtt: topic is empty")
	}
	if err := wait(ctx, c.client.Publish(topic, 1, retained, payload), defaultPublishTimeout); err != nil {
		return fmt.Errorf("mqtt: publish %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (c *Client) Close() {
	c.client.Disconnect(disconnectQuiesceMs)
}

func wait(ctx context.Context, token pahomqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errors.New("timed out")
	}
}
