// Package notify publishes turntable progress to an MQTT broker.
package notify

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/logger"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/turntable"
)

// Config configures the MQTT connection.
type Config struct {
	Broker      string        `yaml:"broker"`
	ClientID    string        `yaml:"client_id"`
	TopicPrefix string        `yaml:"topic_prefix"`
	QoS         byte          `yaml:"qos"`
	Timeout     time.Duration `yaml:"timeout"`
	// Frames publishes one message per frame in addition to file events.
	Frames bool `yaml:"frames"`
}

// DefaultConfig returns a local broker configuration.
func DefaultConfig() Config {
	return Config{
		Broker:      "tcp://localhost:1883",
		ClientID:    "spinner",
		TopicPrefix: "spinner",
		QoS:         1,
		Timeout:     10 * time.Second,
	}
}

// ConnectTimeoutError indicates the broker did not answer in time.
type ConnectTimeoutError struct {
	Broker string
}

func (e *ConnectTimeoutError) Error() string {
	return "mqtt connect timeout: " + e.Broker
}

// publisher is the part of paho.Client the publisher uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Publisher is a turntable.Observer that sends JSON events to
// <prefix>/<run>/start, <prefix>/<run>/frame and <prefix>/<run>/done.
type Publisher struct {
	client publisher
	cfg    Config
	mu     sync.Mutex
}

// Connect dials the broker and returns a ready publisher.
func Connect(cfg Config) (*Publisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetKeepAlive(30 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		return nil, &ConnectTimeoutError{Broker: cfg.Broker}
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, err)
	}
	logger.Info("mqtt connected", zap.String("broker", cfg.Broker))
	return newPublisher(client, cfg), nil
}

func newPublisher(client publisher, cfg Config) *Publisher {
	return &Publisher{client: client, cfg: cfg}
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.client.Disconnect(250)
}

type startMessage struct {
	Run  string `json:"run"`
	Path string `json:"path"`
}

type frameMessage struct {
	Run   string `json:"run"`
	Hash  string `json:"hash"`
	Angle int    `json:"angle"`
	Path  string `json:"path"`
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

type doneMessage struct {
	Run        string `json:"run"`
	Source     string `json:"source"`
	Path       string `json:"path,omitempty"`
	Hash       string `json:"hash,omitempty"`
	Status     string `json:"status"`
	Frames     int    `json:"frames"`
	Rendered   int    `json:"rendered"`
	Skipped    int    `json:"skipped"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

func (p *Publisher) OnFileStart(runID, path string) {
	p.send(runID, "start", startMessage{Run: runID, Path: path})
}

func (p *Publisher) OnFrame(ev turntable.FrameEvent) {
	if !p.cfg.Frames {
		return
	}
	msg := frameMessage{
		Run:   ev.RunID,
		Hash:  ev.Hash,
		Angle: ev.Job.Angle,
		Path:  ev.Job.Path,
		State: ev.State.String(),
	}
	if ev.Err != nil {
		msg.Error = ev.Err.Error()
	}
	p.send(ev.RunID, "frame", msg)
}

func (p *Publisher) OnFileDone(rep turntable.Report) {
	msg := doneMessage{
		Run:        rep.RunID,
		Source:     rep.Source,
		Path:       rep.Path,
		Hash:       rep.Hash,
		Status:     rep.Status,
		Frames:     rep.Frames,
		Rendered:   rep.Rendered,
		Skipped:    rep.Skipped,
		DurationMS: rep.Duration.Milliseconds(),
	}
	if rep.Err != nil {
		msg.Error = rep.Err.Error()
	}
	p.send(rep.RunID, "done", msg)
}

// send publishes and waits for the broker. Failures are only logged.
func (p *Publisher) send(runID, event string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		logger.Warn("mqtt payload", zap.Error(err))
		return
	}
	topic := p.cfg.TopicPrefix + "/" + runID + "/" + event

	p.mu.Lock()
	defer p.mu.Unlock()

	token := p.client.Publish(topic, p.cfg.QoS, false, payload)
	if !token.WaitTimeout(p.cfg.Timeout) {
		logger.Warn("mqtt publish timeout", zap.String("topic", topic))
		return
	}
	if err := token.Error(); err != nil {
		logger.Warn("mqtt publish failed", zap.String("topic", topic), zap.Error(err))
	}
}
