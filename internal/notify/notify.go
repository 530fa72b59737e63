// Package notify fans engine events out to delivery channels. Delivery is
// best-effort: failures are logged and never reach the caller.
package notify

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/kjelstad/chorebank/internal/engine"
	"github.com/kjelstad/chorebank/internal/model"
	"github.com/kjelstad/chorebank/internal/push"
	"github.com/kjelstad/chorebank/internal/websocket"
)

// SubscriptionStore lists and prunes push subscriptions.
type SubscriptionStore interface {
	Subscriptions() ([]model.PushSubscription, error)
	DeleteByEndpoint(endpoint string) error
}

// Sender delivers one push payload to one subscription.
type Sender interface {
	Send(sub *model.PushSubscription, payload push.Payload) error
}

// Dispatcher broadcasts events over the WebSocket hub and, when a push
// sender is configured, to registered push subscriptions.
type Dispatcher struct {
	hub    *websocket.Hub
	sender Sender
	subs   SubscriptionStore
	logger *slog.Logger
}

// New creates a dispatcher. sender may be nil when push is not configured;
// the WebSocket broadcast still happens.
func New(hub *websocket.Hub, sender Sender, subs SubscriptionStore, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		hub:    hub,
		sender: sender,
		subs:   subs,
		logger: logger.With("component", "notify"),
	}
}

// Notify implements engine.Notifier. The push fan-out runs on its own
// goroutine so a slow push service never stalls a mutation.
func (d *Dispatcher) Notify(ev engine.Event) {
	d.hub.Broadcast(ev)

	if d.sender == nil || d.subs == nil {
		return
	}
	go d.sendPush(ev)
}

func (d *Dispatcher) sendPush(ev engine.Event) {
	payload := payloadFor(ev)
	if payload.Title == "" {
		return
	}

	subs, err := d.subs.Subscriptions()
	if err != nil {
		d.logger.Error("list push subscriptions", "error", err)
		return
	}

	for i := range subs {
		sub := &subs[i]
		err := d.sender.Send(sub, payload)
		if errors.Is(err, push.ErrExpired) {
			if err := d.subs.DeleteByEndpoint(sub.Endpoint); err != nil {
				d.logger.Error("prune expired subscription", "error", err)
			}
			continue
		}
		if err != nil {
			d.logger.Error("send push", "endpoint", sub.Endpoint, "error", err)
		}
	}
}

func payloadFor(ev engine.Event) push.Payload {
	switch ev.Kind {
	case engine.EventTaskCompleted:
		body := fmt.Sprintf("%s finished %q", ev.ChildName, ev.TaskTitle)
		if ev.ChildName == "" {
			body = fmt.Sprintf("%q was finished", ev.TaskTitle)
		}
		if !ev.SkipApproval {
			body += " and is waiting for approval"
		}
		return push.Payload{Title: "Task completed", Body: body, Tag: "task-" + ev.TaskID}
	case engine.EventBonusCompleted:
		return push.Payload{
			Title: "Bonus completed",
			Body:  fmt.Sprintf("%s finished the bonus %q", ev.ChildName, ev.BonusTitle),
			Tag:   "task-" + ev.TaskID,
		}
	case engine.EventTaskApproved:
		return push.Payload{
			Title: "Task approved",
			Body:  fmt.Sprintf("%s earned %d points for %q", ev.ChildName, ev.Points, ev.TaskTitle),
			Tag:   "task-" + ev.TaskID,
		}
	case engine.EventBonusApproved:
		return push.Payload{
			Title: "Bonus approved",
			Body:  fmt.Sprintf("%s earned %d bonus points for %q", ev.ChildName, ev.Points, ev.BonusTitle),
			Tag:   "task-" + ev.TaskID,
		}
	case engine.EventPurchase:
		return push.Payload{
			Title: "Shop purchase",
			Body:  fmt.Sprintf("%s bought %q for %d points", ev.ChildName, ev.ItemTitle, ev.Price),
			Tag:   "purchase-" + ev.ItemID,
		}
	default:
		return push.Payload{}
	}
}
