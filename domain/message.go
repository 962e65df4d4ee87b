// Package domain contains core concepts of the chat relay.
// This file defines Message and its wire rendering.
// Messages are transient: built, routed and discarded.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StampLayout renders the HH:MM prefix of every delivered line.
const StampLayout = "15:04"

// Message represents one routed chat line.
type Message struct {
	ID        uuid.UUID // unique identifier
	Sender    string
	Recipient *string // nil for broadcast
	Body      string
	CreatedAt time.Time
}

func NewMessage(sender string, recipient *string, body string, at time.Time) Message {
	return Message{
		ID:        uuid.New(),
		Sender:    sender,
		Recipient: recipient,
		Body:      body,
		CreatedAt: at,
	}
}

func (m Message) IsPrivate() bool {
	return m.Recipient != nil
}

// Format renders "[HH:MM] <sender>: <body>" or "[HH:MM] (private) <sender>: <body>".
func (m Message) Format() string {
	stamp := m.CreatedAt.Format(StampLayout)
	if m.IsPrivate() {
		return fmt.Sprintf("[%s] (private) %s: %s", stamp, m.Sender, m.Body)
	}
	return fmt.Sprintf("[%s] %s: %s", stamp, m.Sender, m.Body)
}
