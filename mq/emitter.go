package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"hackconnect/logger"

	"github.com/redis/go-redis/v9"
)

// TicketChannel carries ticket lifecycle notifications.
const TicketChannel = "ticket-events"

const (
	TicketIssued    = "ticket.issued"
	TicketCheckedIn = "ticket.checkedIn"
)

// Message is the payload published on TicketChannel.
type Message struct {
	Type          string    `json:"type"`
	TicketID      string    `json:"ticketId"`
	EventID       string    `json:"eventId"`
	WalletAddress string    `json:"walletAddress"`
	TierName      string    `json:"tierName,omitempty"`
	At            time.Time `json:"at"`
}

// Publisher emits ticket notifications. Delivery is best-effort.
type Publisher interface {
	Emit(ctx context.Context, msg Message) error
}

type Redis struct {
	conn    redis.UniversalClient
	channel string
}

func NewRedis(conn redis.UniversalClient) *Redis {
	return &Redis{conn: conn, channel: TicketChannel}
}

func (r *Redis) Emit(ctx context.Context, msg Message) error {
	const op = "mq.Redis.Emit"

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := r.conn.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Nop drops every message. Used when REDIS_ADDR is not configured.
type Nop struct{}

func (Nop) Emit(context.Context, Message) error { return nil }

// Listen logs every message on TicketChannel until ctx is done.
func Listen(ctx context.Context, conn redis.UniversalClient, log *slog.Logger) {
	log = log.With(slog.String("op", "mq.Listen"), slog.String("channel", TicketChannel))

	sub := conn.Subscribe(ctx, TicketChannel)
	defer sub.Close()
	ch := sub.Channel()

	log.Info("listening for ticket events")
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			var msg Message
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				log.Warn("bad ticket event payload", logger.Err(err))
				continue
			}
			log.Info("ticket event",
				slog.String("type", msg.Type),
				slog.String("ticketId", msg.TicketID),
				slog.String("eventId", msg.EventID),
			)
		}
	}
}
