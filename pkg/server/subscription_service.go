package server

import (
	"time"

	"github.com/BogdanYarotsky/opcua/pkg/log"
	"github.com/BogdanYarotsky/opcua/pkg/subscription"
	"github.com/BogdanYarotsky/opcua/pkg/ua"
)

// SubscriptionService implements the subscription management services. It
// translates the registry's permissive found/absent results into the
// protocol's per-id status codes; the registry itself never speaks
// protocol.
type SubscriptionService struct{}

// CreateSubscription creates a subscription with revised parameters and
// registers it in the session's registry.
func (SubscriptionService) CreateSubscription(server *ServerState, session *SessionState, req *ua.CreateSubscriptionRequest) (*ua.CreateSubscriptionResponse, error) {
	if err := session.authorize(&req.RequestHeader); err != nil {
		return nil, err
	}
	if session.subscriptions.Len() >= server.Limits.MaxSubscriptionsPerSession {
		return nil, ua.BadTooManySubscriptions
	}

	params := reviseParameters(server.Limits, subscription.Parameters{
		PublishingInterval:         req.RequestedPublishingInterval,
		LifetimeCount:              req.RequestedLifetimeCount,
		MaxKeepAliveCount:          req.RequestedMaxKeepAliveCount,
		MaxNotificationsPerPublish: req.MaxNotificationsPerPublish,
		Priority:                   req.Priority,
	})

	sub := subscription.New(server.NextSubscriptionID(), params, req.PublishingEnabled)
	session.subscriptions.Add(sub)

	server.logger().Log(log.Event{
		Timestamp: time.Now(),
		SessionID: session.sessionID.String(),
		Direction: log.DirectionOut,
		Category:  log.CategorySubscription,
		Subscription: &log.SubscriptionEvent{
			SubscriptionID: sub.ID(),
			State:          sub.State().String(),
		},
	})

	return &ua.CreateSubscriptionResponse{
		ResponseHeader:            responseHeader(&req.RequestHeader),
		SubscriptionID:            sub.ID(),
		RevisedPublishingInterval: params.PublishingInterval,
		RevisedLifetimeCount:      params.LifetimeCount,
		RevisedMaxKeepAliveCount:  params.MaxKeepAliveCount,
	}, nil
}

// ModifySubscription updates a subscription's settings without touching its
// monitored items or counters.
func (SubscriptionService) ModifySubscription(server *ServerState, session *SessionState, req *ua.ModifySubscriptionRequest) (*ua.ModifySubscriptionResponse, error) {
	if err := session.authorize(&req.RequestHeader); err != nil {
		return nil, err
	}

	params := reviseParameters(server.Limits, subscription.Parameters{
		PublishingInterval:         req.RequestedPublishingInterval,
		LifetimeCount:              req.RequestedLifetimeCount,
		MaxKeepAliveCount:          req.RequestedMaxKeepAliveCount,
		MaxNotificationsPerPublish: req.MaxNotificationsPerPublish,
		Priority:                   req.Priority,
	})
	if !session.subscriptions.Modify(req.SubscriptionID, params) {
		return nil, ua.BadSubscriptionIDInvalid
	}

	return &ua.ModifySubscriptionResponse{
		ResponseHeader:            responseHeader(&req.RequestHeader),
		RevisedPublishingInterval: params.PublishingInterval,
		RevisedLifetimeCount:      params.LifetimeCount,
		RevisedMaxKeepAliveCount:  params.MaxKeepAliveCount,
	}, nil
}

// DeleteSubscriptions removes subscriptions by id. Deletion is terminal;
// each id is answered individually and an unknown id never aborts the
// batch.
func (SubscriptionService) DeleteSubscriptions(server *ServerState, session *SessionState, req *ua.DeleteSubscriptionsRequest) (*ua.DeleteSubscriptionsResponse, error) {
	if err := session.authorize(&req.RequestHeader); err != nil {
		return nil, err
	}
	if len(req.SubscriptionIDs) == 0 {
		return nil, ua.BadNothingToDo
	}

	results := make([]ua.StatusCode, len(req.SubscriptionIDs))
	for i, id := range req.SubscriptionIDs {
		sub, ok := session.subscriptions.Delete(id)
		if !ok {
			results[i] = ua.BadSubscriptionIDInvalid
			continue
		}
		sub.Close()
		results[i] = ua.Good
	}

	return &ua.DeleteSubscriptionsResponse{
		ResponseHeader: responseHeader(&req.RequestHeader),
		Results:        results,
	}, nil
}

// SetPublishingMode flips the publishing flag on a batch of subscriptions,
// answering each id individually.
func (SubscriptionService) SetPublishingMode(server *ServerState, session *SessionState, req *ua.SetPublishingModeRequest) (*ua.SetPublishingModeResponse, error) {
	if err := session.authorize(&req.RequestHeader); err != nil {
		return nil, err
	}
	if len(req.SubscriptionIDs) == 0 {
		return nil, ua.BadNothingToDo
	}

	found := session.subscriptions.SetPublishingMode(req.SubscriptionIDs, req.PublishingEnabled)
	results := make([]ua.StatusCode, len(found))
	for i, ok := range found {
		if !ok {
			results[i] = ua.BadSubscriptionIDInvalid
		}
	}

	return &ua.SetPublishingModeResponse{
		ResponseHeader: responseHeader(&req.RequestHeader),
		Results:        results,
	}, nil
}

// Publish answers the request's acknowledgements and queues a publish slot.
// The response itself is deferred: the publish driver fills the slot with
// the next notification message and delivers it through its sink, so
// Publish returns no immediate response.
func (SubscriptionService) Publish(server *ServerState, session *SessionState, req *ua.PublishRequest) error {
	if err := session.authorize(&req.RequestHeader); err != nil {
		return err
	}
	if session.subscriptions.Len() == 0 {
		return ua.BadNoSubscription
	}
	if len(session.publishQueue) >= server.Limits.MaxPublishRequests {
		return ua.BadTooManyPublishRequests
	}

	ackResults := make([]ua.StatusCode, len(req.SubscriptionAcknowledgements))
	for i, ack := range req.SubscriptionAcknowledgements {
		sub, ok := session.subscriptions.Get(ack.SubscriptionID)
		if !ok {
			ackResults[i] = ua.BadSubscriptionIDInvalid
			continue
		}
		if !sub.Acknowledge(ack.SequenceNumber) {
			ackResults[i] = ua.BadSequenceNumberUnknown
		}
	}

	session.publishQueue = append(session.publishQueue, queuedPublish{
		requestHandle: req.RequestHandle,
		ackResults:    ackResults,
	})
	return nil
}

// Republish retransmits an unacknowledged notification message. Retired
// sequence numbers fail with BadMessageNotAvailable.
func (SubscriptionService) Republish(server *ServerState, session *SessionState, req *ua.RepublishRequest) (*ua.RepublishResponse, error) {
	if err := session.authorize(&req.RequestHeader); err != nil {
		return nil, err
	}
	sub, ok := session.subscriptions.Get(req.SubscriptionID)
	if !ok {
		return nil, ua.BadSubscriptionIDInvalid
	}
	msg, ok := sub.Republish(req.RetransmitSequenceNumber)
	if !ok {
		return nil, ua.BadMessageNotAvailable
	}

	return &ua.RepublishResponse{
		ResponseHeader:      responseHeader(&req.RequestHeader),
		NotificationMessage: msg,
	}, nil
}

// reviseParameters clamps client-requested subscription settings to the
// server limits. The lifetime must cover at least three keep-alive periods
// so a slow client cannot configure a subscription that expires before its
// first keep-alive.
func reviseParameters(limits Limits, p subscription.Parameters) subscription.Parameters {
	if p.PublishingInterval < limits.MinPublishingInterval {
		p.PublishingInterval = limits.MinPublishingInterval
	}
	if p.MaxKeepAliveCount == 0 {
		p.MaxKeepAliveCount = 1
	}
	if p.MaxKeepAliveCount > limits.MaxKeepAliveCount {
		p.MaxKeepAliveCount = limits.MaxKeepAliveCount
	}
	if min := 3 * p.MaxKeepAliveCount; p.LifetimeCount < min {
		p.LifetimeCount = min
	}
	if p.LifetimeCount > limits.MaxLifetimeCount {
		p.LifetimeCount = limits.MaxLifetimeCount
	}
	return p
}
