package server

import (
	"testing"
	"time"

	"github.com/BogdanYarotsky/opcua/pkg/subscription"
	"github.com/BogdanYarotsky/opcua/pkg/ua"
)

// sinkRecorder collects the deferred publish responses a tick emits.
type sinkRecorder struct {
	responses []*ua.PublishResponse
}

func (r *sinkRecorder) sink(resp *ua.PublishResponse) {
	r.responses = append(r.responses, resp)
}

func newTestPublisher(server *ServerState, session *SessionState) (*Publisher, *sinkRecorder) {
	rec := &sinkRecorder{}
	return NewPublisher(server, session, 100*time.Millisecond, rec.sink), rec
}

func queuePublish(t *testing.T, h *MessageHandler, token ua.NodeID, handle uint32, acks ...ua.SubscriptionAcknowledgement) {
	t.Helper()
	_, err := h.Handle(&ua.PublishRequest{
		RequestHeader:                ua.RequestHeader{AuthenticationToken: token, RequestHandle: handle},
		SubscriptionAcknowledgements: acks,
	})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
}

// createPromptSubscription creates a subscription whose first keep-alive is
// due after a single quiet interval.
func createPromptSubscription(t *testing.T, h *MessageHandler, token ua.NodeID, priority uint8) uint32 {
	t.Helper()
	resp, err := h.Handle(&ua.CreateSubscriptionRequest{
		RequestHeader:               ua.RequestHeader{AuthenticationToken: token},
		RequestedPublishingInterval: 100,
		RequestedLifetimeCount:      30,
		RequestedMaxKeepAliveCount:  1,
		PublishingEnabled:           true,
		Priority:                    priority,
	})
	if err != nil {
		t.Fatalf("CreateSubscription failed: %v", err)
	}
	return resp.(*ua.CreateSubscriptionResponse).SubscriptionID
}

// TestPublisherKeepAlive verifies that a quiet subscription emits a
// keep-alive through the sink once the keep-alive counter expires, consuming
// a queued publish slot and echoing its request handle.
func TestPublisherKeepAlive(t *testing.T) {
	server, session, h := newTestState()
	token := openSession(t, h)
	id := createPromptSubscription(t, h, token, 0)
	queuePublish(t, h, token, 42)

	pub, rec := newTestPublisher(server, session)
	pub.TickOnce(time.Now())

	if len(rec.responses) != 1 {
		t.Fatalf("got %d responses, want 1", len(rec.responses))
	}
	resp := rec.responses[0]
	if resp.SubscriptionID != id {
		t.Errorf("SubscriptionID = %d, want %d", resp.SubscriptionID, id)
	}
	if resp.RequestHandle != 42 {
		t.Errorf("RequestHandle = %d, want 42", resp.RequestHandle)
	}
	if !resp.NotificationMessage.IsKeepAlive() {
		t.Error("message carries data, want keep-alive")
	}
	if resp.NotificationMessage.SequenceNumber != 1 {
		t.Errorf("SequenceNumber = %d, want 1", resp.NotificationMessage.SequenceNumber)
	}
	if got := session.PendingPublishCount(); got != 0 {
		t.Errorf("PendingPublishCount = %d, want 0 after slot consumed", got)
	}
}

// TestPublisherDataChange verifies that pending data changes are delivered
// before any keep-alive, tagged with the item's client handle.
func TestPublisherDataChange(t *testing.T) {
	server, session, h := newTestState()
	token := openSession(t, h)
	id := createPromptSubscription(t, h, token, 0)

	sub, _ := session.subscriptions.Get(id)
	sub.DataChange([]ua.DataChangeNotification{{
		MonitoredItems: []ua.MonitoredItemNotification{{
			ClientHandle: 7,
			Value:        ua.DataValue{Value: 21.5, Status: ua.Good},
		}},
	}})
	queuePublish(t, h, token, 1)

	pub, rec := newTestPublisher(server, session)
	pub.TickOnce(time.Now())

	if len(rec.responses) != 1 {
		t.Fatalf("got %d responses, want 1", len(rec.responses))
	}
	msg := rec.responses[0].NotificationMessage
	if msg.IsKeepAlive() {
		t.Fatal("got keep-alive, want data change")
	}
	items := msg.NotificationData[0].MonitoredItems
	if len(items) != 1 || items[0].ClientHandle != 7 {
		t.Errorf("notifications = %v, want one with client handle 7", items)
	}
	if rec.responses[0].MoreNotifications {
		t.Error("MoreNotifications = true, want false")
	}
}

// TestPublisherNoSlotGoesLate verifies that a subscription with pending data
// but no queued publish request transitions to LATE instead of emitting.
func TestPublisherNoSlotGoesLate(t *testing.T) {
	server, session, h := newTestState()
	token := openSession(t, h)
	id := createPromptSubscription(t, h, token, 0)

	sub, _ := session.subscriptions.Get(id)
	sub.DataChange([]ua.DataChangeNotification{{
		MonitoredItems: []ua.MonitoredItemNotification{{ClientHandle: 1}},
	}})

	pub, rec := newTestPublisher(server, session)
	pub.TickOnce(time.Now())

	if len(rec.responses) != 0 {
		t.Fatalf("got %d responses, want 0", len(rec.responses))
	}
	if sub.State() != subscription.StateLate {
		t.Errorf("state = %v, want LATE", sub.State())
	}

	// Once a publish request arrives the backlog drains on the next tick.
	queuePublish(t, h, token, 2)
	pub.TickOnce(time.Now())
	if len(rec.responses) != 1 {
		t.Fatalf("got %d responses after slot arrived, want 1", len(rec.responses))
	}
	if sub.State() != subscription.StateNormal {
		t.Errorf("state = %v, want NORMAL after emission", sub.State())
	}
}

// TestPublisherPriorityOrdering verifies that when publish slots are scarce
// the higher-priority subscription is served first.
func TestPublisherPriorityOrdering(t *testing.T) {
	server, session, h := newTestState()
	token := openSession(t, h)
	lowID := createPromptSubscription(t, h, token, 1)
	highID := createPromptSubscription(t, h, token, 10)

	change := []ua.DataChangeNotification{{
		MonitoredItems: []ua.MonitoredItemNotification{{ClientHandle: 1}},
	}}
	low, _ := session.subscriptions.Get(lowID)
	high, _ := session.subscriptions.Get(highID)
	low.DataChange(change)
	high.DataChange(change)

	queuePublish(t, h, token, 1) // one slot for two hungry subscriptions

	pub, rec := newTestPublisher(server, session)
	pub.TickOnce(time.Now())

	if len(rec.responses) != 1 {
		t.Fatalf("got %d responses, want 1", len(rec.responses))
	}
	if rec.responses[0].SubscriptionID != highID {
		t.Errorf("slot went to subscription %d, want high-priority %d",
			rec.responses[0].SubscriptionID, highID)
	}
	if low.State() != subscription.StateLate {
		t.Errorf("low-priority state = %v, want LATE", low.State())
	}
}

// TestPublisherRemovesExpiredSubscription verifies that a subscription whose
// lifetime runs out without client contact is closed and dropped from the
// registry.
func TestPublisherRemovesExpiredSubscription(t *testing.T) {
	server, session, h := newTestState()
	token := openSession(t, h)

	resp, err := h.Handle(&ua.CreateSubscriptionRequest{
		RequestHeader:              ua.RequestHeader{AuthenticationToken: token},
		RequestedLifetimeCount:     1, // revised up to three keep-alive periods
		RequestedMaxKeepAliveCount: 1,
		PublishingEnabled:          false,
	})
	if err != nil {
		t.Fatalf("CreateSubscription failed: %v", err)
	}
	created := resp.(*ua.CreateSubscriptionResponse)
	lifetime := int(created.RevisedLifetimeCount)

	pub, rec := newTestPublisher(server, session)
	for i := 0; i < lifetime-1; i++ {
		pub.TickOnce(time.Now())
	}
	if got := session.SubscriptionIDs(); len(got) != 1 {
		t.Fatalf("subscription gone after %d ticks, want it alive until tick %d", lifetime-1, lifetime)
	}

	pub.TickOnce(time.Now())
	if got := session.SubscriptionIDs(); got != nil {
		t.Errorf("SubscriptionIDs = %v, want nil after lifetime expiry", got)
	}
	if len(rec.responses) != 0 {
		t.Errorf("got %d responses from an abandoned disabled subscription, want 0", len(rec.responses))
	}
}

// TestPublisherAcknowledgeRetiresMessage walks the full retransmission
// cycle: emit, republish, acknowledge, then fail to republish.
func TestPublisherAcknowledgeRetiresMessage(t *testing.T) {
	server, session, h := newTestState()
	token := openSession(t, h)
	id := createPromptSubscription(t, h, token, 0)
	queuePublish(t, h, token, 1)

	pub, rec := newTestPublisher(server, session)
	pub.TickOnce(time.Now())
	if len(rec.responses) != 1 {
		t.Fatalf("got %d responses, want 1", len(rec.responses))
	}
	seq := rec.responses[0].NotificationMessage.SequenceNumber
	if avail := rec.responses[0].AvailableSequenceNumbers; len(avail) != 1 || avail[0] != seq {
		t.Errorf("AvailableSequenceNumbers = %v, want [%d]", avail, seq)
	}

	// The unacknowledged message must be retransmittable.
	rresp, err := h.Handle(&ua.RepublishRequest{
		RequestHeader:            ua.RequestHeader{AuthenticationToken: token},
		SubscriptionID:           id,
		RetransmitSequenceNumber: seq,
	})
	if err != nil {
		t.Fatalf("Republish failed: %v", err)
	}
	if got := rresp.(*ua.RepublishResponse).NotificationMessage.SequenceNumber; got != seq {
		t.Errorf("republished sequence = %d, want %d", got, seq)
	}

	// Acknowledging retires it.
	queuePublish(t, h, token, 2, ua.SubscriptionAcknowledgement{SubscriptionID: id, SequenceNumber: seq})
	_, err = h.Handle(&ua.RepublishRequest{
		RequestHeader:            ua.RequestHeader{AuthenticationToken: token},
		SubscriptionID:           id,
		RetransmitSequenceNumber: seq,
	})
	if err != ua.BadMessageNotAvailable {
		t.Errorf("Republish after acknowledge error = %v, want BadMessageNotAvailable", err)
	}

	// The next emission carries the next sequence number; numbering never
	// restarts after acknowledgements.
	pub.TickOnce(time.Now())
	if len(rec.responses) != 2 {
		t.Fatalf("got %d responses, want 2", len(rec.responses))
	}
	if got := rec.responses[1].NotificationMessage.SequenceNumber; got != seq+1 {
		t.Errorf("second sequence = %d, want %d", got, seq+1)
	}
	if results := rec.responses[1].Results; len(results) != 1 || results[0] != ua.Good {
		t.Errorf("ack results = %v, want [Good]", results)
	}
}

// TestPublisherBatchesOversizedNotifications verifies that a backlog larger
// than maxNotificationsPerPublish is split across publishes with
// MoreNotifications set on all but the last.
func TestPublisherBatchesOversizedNotifications(t *testing.T) {
	server, session, h := newTestState()
	token := openSession(t, h)

	resp, err := h.Handle(&ua.CreateSubscriptionRequest{
		RequestHeader:              ua.RequestHeader{AuthenticationToken: token},
		RequestedLifetimeCount:     30,
		RequestedMaxKeepAliveCount: 10,
		MaxNotificationsPerPublish: 2,
		PublishingEnabled:          true,
	})
	if err != nil {
		t.Fatalf("CreateSubscription failed: %v", err)
	}
	id := resp.(*ua.CreateSubscriptionResponse).SubscriptionID

	sub, _ := session.subscriptions.Get(id)
	var items []ua.MonitoredItemNotification
	for i := uint32(1); i <= 3; i++ {
		items = append(items, ua.MonitoredItemNotification{ClientHandle: i})
	}
	sub.DataChange([]ua.DataChangeNotification{{MonitoredItems: items}})

	queuePublish(t, h, token, 1)
	queuePublish(t, h, token, 2)

	pub, rec := newTestPublisher(server, session)
	pub.TickOnce(time.Now())
	pub.TickOnce(time.Now())

	if len(rec.responses) != 2 {
		t.Fatalf("got %d responses, want 2", len(rec.responses))
	}
	first, second := rec.responses[0], rec.responses[1]
	if !first.MoreNotifications {
		t.Error("first response MoreNotifications = false, want true")
	}
	if second.MoreNotifications {
		t.Error("second response MoreNotifications = true, want false")
	}
	if n := len(first.NotificationMessage.NotificationData[0].MonitoredItems); n != 2 {
		t.Errorf("first batch size = %d, want 2", n)
	}
	if n := len(second.NotificationMessage.NotificationData[0].MonitoredItems); n != 1 {
		t.Errorf("second batch size = %d, want 1", n)
	}
}
