package server

import (
	"context"
	"sort"
	"time"

	"github.com/BogdanYarotsky/opcua/pkg/log"
	"github.com/BogdanYarotsky/opcua/pkg/subscription"
	"github.com/BogdanYarotsky/opcua/pkg/ua"
)

// PublishSink receives the deferred publish responses the driver produces.
// It is called outside the session lock and must not block for long;
// transports should queue the response for sending.
type PublishSink func(resp *ua.PublishResponse)

// Publisher is the publish-timer driver for one session. On every tick it
// offers the session's queued publish slots to the subscriptions in
// priority order and removes the ones that have closed.
//
// The driver owns nothing: it borrows mutable access to the session for the
// duration of each tick, under the same lock the message handler uses, so a
// tick and a dispatch of the same session never interleave.
type Publisher struct {
	server   *ServerState
	session  *SessionState
	sink     PublishSink
	interval time.Duration
}

// NewPublisher creates a driver ticking the session at the given interval.
func NewPublisher(server *ServerState, session *SessionState, interval time.Duration, sink PublishSink) *Publisher {
	return &Publisher{
		server:   server,
		session:  session,
		sink:     sink,
		interval: interval,
	}
}

// Run ticks until the context is cancelled.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			p.TickOnce(now)
		}
	}
}

// TickOnce advances every subscription by one tick. Subscriptions are
// offered the publish budget in descending priority order, ascending id as
// the tie-break, so higher-priority subscriptions drain first when slots
// are scarce. Responses are emitted through the sink after the session lock
// is released.
func (p *Publisher) TickOnce(now time.Time) {
	p.session.mu.Lock()

	var responses []*ua.PublishResponse
	for _, sub := range p.orderedSubscriptions() {
		result := sub.Tick(now, p.session.hasPublishSlot())
		if result != nil {
			slot := p.session.takePublishSlot()
			responses = append(responses, p.buildResponse(sub, slot, result))
			p.logEmit(sub, &result.Message)
		}
		if sub.State() == subscription.StateClosed {
			p.session.subscriptions.Delete(sub.ID())
			p.logExpiry(sub)
		}
	}

	p.session.mu.Unlock()

	if p.sink == nil {
		return
	}
	for _, resp := range responses {
		p.sink(resp)
	}
}

// orderedSubscriptions snapshots the registry ordered by publish priority.
// Called with the session lock held.
func (p *Publisher) orderedSubscriptions() []*subscription.Subscription {
	ids := p.session.subscriptions.IDs()
	if ids == nil {
		return nil
	}
	subs := make([]*subscription.Subscription, 0, len(ids))
	for _, id := range ids {
		if sub, ok := p.session.subscriptions.Get(id); ok {
			subs = append(subs, sub)
		}
	}
	sort.SliceStable(subs, func(i, j int) bool {
		if subs[i].Priority() != subs[j].Priority() {
			return subs[i].Priority() > subs[j].Priority()
		}
		return subs[i].ID() < subs[j].ID()
	})
	return subs
}

func (p *Publisher) buildResponse(sub *subscription.Subscription, slot queuedPublish, result *subscription.PublishResult) *ua.PublishResponse {
	return &ua.PublishResponse{
		ResponseHeader: ua.ResponseHeader{
			Timestamp:     result.Message.PublishTime,
			RequestHandle: slot.requestHandle,
			ServiceResult: ua.Good,
		},
		SubscriptionID:           sub.ID(),
		AvailableSequenceNumbers: sub.AvailableSequenceNumbers(),
		MoreNotifications:        result.MoreNotifications,
		NotificationMessage:      result.Message,
		Results:                  slot.ackResults,
	}
}

func (p *Publisher) logEmit(sub *subscription.Subscription, msg *ua.NotificationMessage) {
	p.server.logger().Log(log.Event{
		Timestamp: time.Now(),
		SessionID: p.session.sessionID.String(),
		Direction: log.DirectionOut,
		Category:  log.CategorySubscription,
		Subscription: &log.SubscriptionEvent{
			SubscriptionID: sub.ID(),
			State:          sub.State().String(),
			SequenceNumber: msg.SequenceNumber,
			KeepAlive:      msg.IsKeepAlive(),
		},
	})
}

func (p *Publisher) logExpiry(sub *subscription.Subscription) {
	p.server.logger().Log(log.Event{
		Timestamp: time.Now(),
		SessionID: p.session.sessionID.String(),
		Direction: log.DirectionOut,
		Category:  log.CategorySubscription,
		Subscription: &log.SubscriptionEvent{
			SubscriptionID: sub.ID(),
			State:          subscription.StateClosed.String(),
		},
	})
}
