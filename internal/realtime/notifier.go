package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/erp-backend/internal/clock"
)

// Channel carries notifications between API instances.
const Channel = "erp:notifications"

const defaultKind = "info"

type Target string

const (
	TargetUser  Target = "user"
	TargetGroup Target = "group"
	TargetAll   Target = "all"
)

// Envelope is a notification and who should get it.
type Envelope struct {
	Target       Target       `json:"target"`
	Key          string       `json:"key,omitempty"`
	Notification Notification `json:"notification"`
}

// Notifier sends notifications to hub connections. With a Redis client every
// send is published and each instance's Subscribe delivers it locally;
// without one it delivers straight to the local hub.
type Notifier struct {
	hub    *Hub
	client *redis.Client
	clock  clock.Clock
	logger *zap.Logger
}

func NewNotifier(hub *Hub, client *redis.Client, clk clock.Clock, logger *zap.Logger) *Notifier {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{hub: hub, client: client, clock: clk, logger: logger.Named("notifier")}
}

func (n *Notifier) SendNotification(ctx context.Context, userID, message, kind string) error {
	return n.send(ctx, TargetUser, userID, message, kind)
}

func (n *Notifier) SendNotificationToGroup(ctx context.Context, group, message, kind string) error {
	return n.send(ctx, TargetGroup, group, message, kind)
}

func (n *Notifier) SendNotificationToAll(ctx context.Context, message, kind string) error {
	return n.send(ctx, TargetAll, "", message, kind)
}

// send never returns an error; failures are logged. The error result lets
// callers treat the notifier like any other side effect.
func (n *Notifier) send(ctx context.Context, target Target, key, message, kind string) error {
	if kind == "" {
		kind = defaultKind
	}
	e := Envelope{
		Target:       target,
		Key:          key,
		Notification: Notification{Message: message, Type: kind, Timestamp: n.clock.UTCNow()},
	}

	if n.client == nil {
		n.hub.Deliver(e)
		return nil
	}

	payload, err := json.Marshal(e)
	if err != nil {
		n.logger.Error("failed to encode notification", zap.Error(err))
		return nil
	}
	if err := n.client.Publish(ctx, Channel, payload).Err(); err != nil {
		n.logger.Error("failed to publish notification",
			zap.String("target", string(target)),
			zap.String("key", key),
			zap.Error(err))
	}
	return nil
}

// Subscribe delivers published notifications to the local hub until ctx is
// done. It returns immediately when there is no Redis client.
func (n *Notifier) Subscribe(ctx context.Context) error {
	if n.client == nil {
		return nil
	}

	sub := n.client.Subscribe(ctx, Channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", Channel, err)
	}
	n.logger.Info("subscribed to notifications", zap.String("channel", Channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var e Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				n.logger.Warn("discarding malformed notification", zap.Error(err))
				continue
			}
			n.hub.Deliver(e)
		}
	}
}
