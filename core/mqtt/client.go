package mqtt

import (
	"time"

	"github.com/kilianp07/bikecast/core/model"
)

// ForecastMessage is the payload published for every produced horizon.
type ForecastMessage struct {
	// MessageID is filled by the publisher when empty.
	MessageID string    `json:"message_id"`
	Source    string    `json:"source"`
	IssuedAt  time.Time `json:"issued_at"`
	// Start is the date of the first forecast step when known.
	Start  *time.Time           `json:"start,omitempty"`
	Result model.ForecastResult `json:"result"`
}

// Publisher sends forecasts to downstream consumers.
type Publisher interface {
	PublishForecast(msg ForecastMessage) (messageID string, err error)
}

// NopPublisher drops every message. Used when publishing is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishForecast(msg ForecastMessage) (string, error) { return msg.MessageID, nil }
