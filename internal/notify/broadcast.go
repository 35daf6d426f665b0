// Package notify fans messages out to the operator allow-list. Delivery
// is best effort: one operator's failure never blocks the others.
package notify

import (
	"context"
	"log/slog"
)

// Button is one inline control; Data is an encoded callback token.
type Button struct {
	Label string
	Data  string
}

// Keyboard is rows of inline controls.
type Keyboard [][]Button

// Message is an outbound notification. PhotoURL is optional; when set,
// Text becomes the caption.
type Message struct {
	Text     string
	PhotoURL string
	Keyboard Keyboard
}

// Sender delivers one message to one chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, msg Message) error
}

// Delivery is the per-recipient result of a broadcast.
type Delivery struct {
	ChatID int64
	Err    error
}

type Broadcaster struct {
	sender    Sender
	operators []int64
}

func NewBroadcaster(sender Sender, operators []int64) *Broadcaster {
	return &Broadcaster{sender: sender, operators: operators}
}

// Broadcast sends msg to every operator sequentially, logging and
// swallowing per-recipient failures. The returned slice has one entry
// per operator so callers can observe partial delivery.
func (b *Broadcaster) Broadcast(ctx context.Context, msg Message) []Delivery {
	deliveries := make([]Delivery, 0, len(b.operators))
	for _, chatID := range b.operators {
		err := b.sender.Send(ctx, chatID, msg)
		if err != nil {
			slog.Warn("Broadcast delivery failed", "chat_id", chatID, "error", err)
		}
		deliveries = append(deliveries, Delivery{ChatID: chatID, Err: err})
	}
	return deliveries
}

func (b *Broadcaster) Operators() []int64 {
	return b.operators
}
