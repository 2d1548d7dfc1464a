package amqp

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NotificationMessage carries one user-facing notification from the core to
// the delivery worker.
type NotificationMessage struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// NewNotificationMessage stamps a message with a fresh ID.
func NewNotificationMessage(title, body string, now time.Time) *NotificationMessage {
	return &NotificationMessage{
		ID:        uuid.NewString(),
		Title:     title,
		Body:      body,
		Timestamp: now,
	}
}

// ToJSON converts the message to JSON bytes
func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// NotificationMessageFromJSON decodes and validates a message.
func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(msg.Title) == "" {
		return nil, errors.New("notification without title")
	}
	return &msg, nil
}
