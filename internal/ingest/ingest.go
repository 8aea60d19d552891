// Package ingest feeds point samples published on an MQTT broker into the
// live store.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"memory_console/internal/logger"
	"memory_console/internal/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	qos            = 1
	connectTimeout = 10 * time.Second
	disconnectMs   = 250
)

// Sampler accepts one reading for a declared point.
type Sampler interface {
	Sample(ctx context.Context, pointID string, v models.Scalar) error
}

// Config selects the broker and the topic tree. Samples for point <id> are
// expected on <TopicPrefix>/<id>.
type Config struct {
	Broker      string
	ClientID    string
	TopicPrefix string
}

// Subscriber owns one broker connection.
type Subscriber struct {
	cfg     Config
	sampler Sampler
	log     *logger.Logger
	client  mqtt.Client
}

func NewSubscriber(cfg Config, sampler Sampler, log *logger.Logger) *Subscriber {
	if log == nil {
		log = logger.Nop()
	}
	cfg.TopicPrefix = strings.Trim(cfg.TopicPrefix, "/")
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout)
	s := &Subscriber{cfg: cfg, sampler: sampler, log: log}
	// Resubscribe after every (re)connect; the session is not persistent.
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		if err := s.subscribe(c); err != nil {
			s.log.Errorw("ingest_subscribe_failed", "err", err, "topic", s.filter())
		}
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.log.Warnw("ingest_connection_lost", "err", err)
	})
	s.client = mqtt.NewClient(opts)
	return s
}

// Start connects and blocks until ctx is done, then disconnects.
func (s *Subscriber) Start(ctx context.Context) error {
	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt connect %s: timeout", s.cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect %s: %w", s.cfg.Broker, err)
	}
	s.log.Infow("ingest_started", "broker", s.cfg.Broker, "topic", s.filter())

	<-ctx.Done()
	s.client.Disconnect(disconnectMs)
	s.log.Infow("ingest_stopped")
	return nil
}

func (s *Subscriber) filter() string {
	if s.cfg.TopicPrefix == "" {
		return "+"
	}
	return s.cfg.TopicPrefix + "/+"
}

func (s *Subscriber) subscribe(c mqtt.Client) error {
	token := c.Subscribe(s.filter(), qos, func(_ mqtt.Client, msg mqtt.Message) {
		s.handle(context.Background(), msg.Topic(), msg.Payload())
	})
	token.Wait()
	return token.Error()
}

// handle applies one message. Bad messages are logged and dropped.
func (s *Subscriber) handle(ctx context.Context, topic string, payload []byte) {
	id, ok := PointID(s.cfg.TopicPrefix, topic)
	if !ok {
		s.log.Debugw("ingest_topic_ignored", "topic", topic)
		return
	}
	v, err := ParsePayload(payload)
	if err != nil {
		s.log.Warnw("ingest_payload_rejected", "point_id", id, "err", err)
		return
	}
	if err := s.sampler.Sample(ctx, id, v); err != nil {
		s.log.Warnw("ingest_sample_rejected", "point_id", id, "err", err)
	}
}

// PointID extracts the point id from <prefix>/<id>.
func PointID(prefix, topic string) (string, bool) {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		rest, ok := strings.CutPrefix(topic, prefix+"/")
		if !ok {
			return "", false
		}
		topic = rest
	}
	if topic == "" || strings.Contains(topic, "/") {
		return "", false
	}
	return topic, true
}

var errEmptyPayload = errors.New("empty payload")

type samplePayload struct {
	Value *models.Scalar `json:"value"`
}

// ParsePayload accepts a bare scalar (true, 21.5, "21.5") or {"value": ...}.
func ParsePayload(payload []byte) (models.Scalar, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return models.Scalar{}, errEmptyPayload
	}
	if payload[0] == '{' {
		var p samplePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return models.Scalar{}, fmt.Errorf("invalid sample object: %w", err)
		}
		if p.Value == nil {
			return models.Scalar{}, errors.New(`sample object has no "value"`)
		}
		return *p.Value, nil
	}
	return models.ParseScalar(strings.Trim(string(payload), `"`))
}
