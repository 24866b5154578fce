package mqtt

import (
	"context"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/oshokin/doorbell-panel/internal/config"
	"github.com/oshokin/doorbell-panel/internal/domain/event"
	"github.com/oshokin/doorbell-panel/internal/logger"
)

// SourceName is the source tag on events published by this adapter.
const SourceName = "mqtt"

// Reconnect pacing for the broker connection.
const (
	connectRetryInterval = 2 * time.Second
	maxReconnectInterval = 30 * time.Second
	disconnectQuiesceMs  = 250
)

// publisher feeds translated events into the merged stream.
type publisher interface {
	Publish(ev event.Event)
}

// errNoPublisher is returned when the source is built without an event sink.
var errNoPublisher = errors.New("event publisher must be provided")

// Source is the MQTT event feed adapter.
type Source struct {
	// cfg holds the broker connection and topic names.
	cfg config.MQTTConfig
	// events receives the translated events.
	events publisher
	// client is the paho MQTT client.
	client paho.Client
}

// New prepares the adapter; Start establishes the connection.
func New(cfg config.MQTTConfig, events publisher) (*Source, error) {
	if events == nil {
		return nil, errNoPublisher
	}

	return &Source{
		cfg:    cfg,
		events: events,
	}, nil
}

// Start connects to the broker and keeps reconnecting in the background.
// It does not wait for the first connection: until the broker is reachable
// the source simply reports itself unavailable.
func (s *Source) Start(ctx context.Context) error {
	ctx = logger.WithName(ctx, SourceName)

	opts := paho.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", s.cfg.Broker, s.cfg.Port))
	opts.SetClientID(s.cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(connectRetryInterval)
	opts.SetMaxReconnectInterval(maxReconnectInterval)

	if s.cfg.Username != "" {
		opts.SetUsername(s.cfg.Username)
		opts.SetPassword(s.cfg.Password)
	}

	opts.OnConnect = func(client paho.Client) {
		logger.InfoKV(ctx, "Broker connection established", "broker", s.cfg.Broker)
		s.publishStatus(true)
		s.subscribe(ctx, client)
	}

	opts.OnConnectionLost = func(_ paho.Client, err error) {
		logger.WarnKV(ctx, "Broker connection lost, reconnecting", "error", err)
		s.publishStatus(false)
	}

	s.client = paho.NewClient(opts)

	logger.InfoKV(ctx, "Connecting to broker",
		"broker", s.cfg.Broker, "port", s.cfg.Port, "client_id", s.cfg.ClientID)

	// With connect retry enabled the token resolves only on success; the
	// OnConnect handler does the rest, so there is nothing to wait for here.
	s.client.Connect()

	return nil
}

// Stop disconnects from the broker.
func (s *Source) Stop() {
	if s.client != nil {
		s.client.Disconnect(disconnectQuiesceMs)
	}
}

// subscribe registers the three topic handlers on every (re)connect.
func (s *Source) subscribe(ctx context.Context, client paho.Client) {
	handlers := map[string]paho.MessageHandler{
		s.cfg.Topics.Doorbell: s.makeRingHandler(ctx, event.KindDoorbell),
		s.cfg.Topics.Motion:   s.makeRingHandler(ctx, event.KindMotion),
		s.cfg.Topics.Message:  s.makeMessageHandler(ctx),
	}

	for topic, handler := range handlers {
		token := client.Subscribe(topic, 0, handler)
		go func(topic string, token paho.Token) {
			token.Wait()
			if err := token.Error(); err != nil {
				logger.ErrorKV(ctx, "Subscription failed", "topic", topic, "error", err)
			}
		}(topic, token)
	}
}

// makeRingHandler builds the handler for the doorbell or motion topic.
func (s *Source) makeRingHandler(ctx context.Context, kind event.Kind) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		active, ts, url, err := parseRingPayload(msg.Payload())
		if err != nil {
			logger.WarnKV(ctx, "Malformed ring payload dropped",
				"topic", msg.Topic(), "error", err)
			return
		}

		ev := event.Event{
			Kind:   kind,
			Source: SourceName,
		}

		switch kind {
		case event.KindDoorbell:
			ev.Doorbell = &event.Doorbell{Active: active, Timestamp: ts, VideoURL: url}
		case event.KindMotion:
			ev.Motion = &event.Motion{Active: active, Timestamp: ts, VideoURL: url}
		default:
			return
		}

		s.events.Publish(ev)
	}
}

// makeMessageHandler builds the handler for the free-form message topic.
func (s *Source) makeMessageHandler(ctx context.Context) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		text := parseMessagePayload(msg.Payload())
		if text == "" {
			logger.WarnKV(ctx, "Empty message payload dropped", "topic", msg.Topic())
			return
		}

		s.events.Publish(event.Event{
			Kind:    event.KindMessage,
			Source:  SourceName,
			Message: &event.Message{Text: text},
		})
	}
}

// publishStatus reports availability changes onto the merged stream.
func (s *Source) publishStatus(available bool) {
	s.events.Publish(event.Event{
		Kind:   event.KindSourceStatus,
		Source: SourceName,
		Status: &event.SourceStatus{Name: SourceName, Available: available},
	})
}
