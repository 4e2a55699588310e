package mqtt

import (
	"fmt"
	"sync"

	coremqtt "github.com/kilianp07/bikecast/core/mqtt"
)

// Publisher mirrors the core mqtt.Publisher interface.
type Publisher = coremqtt.Publisher

// New returns a connected PahoClient when cfg is enabled and a NopPublisher
// otherwise. The returned close function is never nil.
func New(cfg Config) (Publisher, func(), error) {
	if !cfg.Enabled {
		return coremqtt.NopPublisher{}, func() {}, nil
	}
	cli, err := NewPahoClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cli, cli.Disconnect, nil
}

// MockPublisher is a simple publisher used in tests.
type MockPublisher struct {
	Messages []coremqtt.ForecastMessage
	Fail     bool
	mu       sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// PublishForecast records the message or returns an error if configured to fail.
func (m *MockPublisher) PublishForecast(msg coremqtt.ForecastMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return "", fmt.Errorf("publish failed")
	}
	if msg.MessageID == "" {
		msg.MessageID = fmt.Sprintf("msg-%d", len(m.Messages)+1)
	}
	m.Messages = append(m.Messages, msg)
	return msg.MessageID, nil
}

// Published returns a copy of the recorded messages.
func (m *MockPublisher) Published() []coremqtt.ForecastMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]coremqtt.ForecastMessage(nil), m.Messages...)
}
