package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/inside-thenga/thenga/internal/model"
	"github.com/inside-thenga/thenga/internal/notifier"
	"github.com/inside-thenga/thenga/pkg/logger"
)

// DefaultPrefix is the root of every subject used by the robot.
const DefaultPrefix = "thenga"

// deviceTimeout bounds the handling of one device event received over NATS.
const deviceTimeout = 30 * time.Second

// DeviceHandler processes device events.
type DeviceHandler interface {
	Handle(ctx context.Context, kind notifier.Kind, ev model.DeviceEvent, source string) (any, error)
}

// Bus publishes conversation entries and routes device events to a handler.
type Bus struct {
	conn   *nats.Conn
	prefix string
	logger *logger.Logger

	subs []*nats.Subscription
}

// NewBus creates a bus on client's connection rooted at prefix.
func NewBus(client *Client, prefix string, log *logger.Logger) *Bus {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Bus{
		conn:   client.Conn(),
		prefix: prefix,
		logger: log.Component("bus"),
	}
}

// HistorySubject returns the subject an entry of type t is published on.
func HistorySubject(prefix string, t model.EntryType) string {
	return fmt.Sprintf("%s.history.%s", prefix, t)
}

// DeviceSubject returns the subject device events of kind are received on.
func DeviceSubject(prefix string, kind notifier.Kind) string {
	return fmt.Sprintf("%s.device.%s", prefix, kind)
}

// PublishEntry publishes an appended conversation entry.
func (b *Bus) PublishEntry(entry model.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	if err := b.conn.Publish(HistorySubject(b.prefix, entry.Kind()), data); err != nil {
		return fmt.Errorf("failed to publish entry: %w", err)
	}
	return nil
}

// SubscribeDevices routes every message on <prefix>.device.<kind> to handler. When
// the message carries a reply subject the handler's result is sent back as JSON.
func (b *Bus) SubscribeDevices(handler DeviceHandler) error {
	subject := b.prefix + ".device.*"
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		out := b.process(handler, msg.Subject, msg.Data)
		if msg.Reply == "" {
			return
		}
		if err := msg.Respond(out); err != nil {
			b.logger.Warn("failed to respond", zap.String("subject", msg.Subject), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	b.subs = append(b.subs, sub)
	b.logger.Info("listening for device events", zap.String("subject", subject))
	return nil
}

// process decodes and handles one device message, returning the JSON reply.
func (b *Bus) process(handler DeviceHandler, subject string, data []byte) []byte {
	kind := notifier.Kind(subject[strings.LastIndex(subject, ".")+1:])

	ev := model.DeviceEvent{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &ev); err != nil {
			b.logger.Warn("invalid device event", zap.String("subject", subject), zap.Error(err))
			return errorReply("Invalid JSON data")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), deviceTimeout)
	defer cancel()

	result, err := handler.Handle(ctx, kind, ev, "nats")
	if err != nil {
		b.logger.Error("device event failed", zap.String("subject", subject), zap.Error(err))
		if errors.Is(err, notifier.ErrGenerateAudio) {
			return errorReply("Failed to generate audio")
		}
		return errorReply(err.Error())
	}

	out, err := json.Marshal(result)
	if err != nil {
		return errorReply(err.Error())
	}
	return out
}

// Unsubscribe removes every device subscription.
func (b *Bus) Unsubscribe() {
	for _, sub := range b.subs {
		if err := sub.Unsubscribe(); err != nil {
			b.logger.Warn("failed to unsubscribe", zap.String("subject", sub.Subject), zap.Error(err))
		}
	}
	b.subs = nil
}

func errorReply(msg string) []byte {
	out, _ := json.Marshal(map[string]string{"error": msg})
	return out
}
