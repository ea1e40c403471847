package subscription

import (
	"sort"
	"time"

	"github.com/BogdanYarotsky/opcua/pkg/ua"
)

// State is the lifecycle state of a subscription.
type State uint8

const (
	// StateCreating is the initial state, before the first tick.
	StateCreating State = iota

	// StateNormal means the last tick delivered pending notifications.
	StateNormal

	// StateLate means notifications were pending but no publish slot was
	// available to deliver them.
	StateLate

	// StateKeepAlive means the last emitted message was a keep-alive.
	StateKeepAlive

	// StateClosed is terminal. The subscription holds no items and emits
	// nothing; the registry removes closed subscriptions.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateCreating:
		return "CREATING"
	case StateNormal:
		return "NORMAL"
	case StateLate:
		return "LATE"
	case StateKeepAlive:
		return "KEEPALIVE"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Parameters are the client-visible settings of a subscription.
type Parameters struct {
	// PublishingInterval is the nominal tick period in milliseconds.
	PublishingInterval float64

	// LifetimeCount is how many consecutive ticks without an emitted
	// message the subscription survives before closing.
	LifetimeCount uint32

	// MaxKeepAliveCount is how many idle ticks pass before a keep-alive
	// message is forced.
	MaxKeepAliveCount uint32

	// MaxNotificationsPerPublish caps the batch size of one data-change
	// message. Zero means unbounded.
	MaxNotificationsPerPublish uint32

	// Priority breaks ties when several subscriptions compete for the
	// same publish slot; higher drains first.
	Priority uint8
}

// PublishResult is the outcome of a tick that emitted a message.
type PublishResult struct {
	Message ua.NotificationMessage

	// MoreNotifications is set when MaxNotificationsPerPublish truncated
	// the batch and pending notifications remain queued.
	MoreNotifications bool
}

// Subscription runs the publish state machine for one set of monitored
// items. It is owned by a Registry and guarded by the owning session's
// exclusive lock.
type Subscription struct {
	id     uint32
	params Parameters

	publishingEnabled bool
	state             State

	keepAliveCounter uint32
	lifetimeCounter  uint32

	// nextSequence is the sequence number the next emitted message takes.
	nextSequence uint32

	items      map[uint32]*MonitoredItem
	nextItemID uint32

	pending []ua.MonitoredItemNotification

	// retransmission holds emitted messages until acknowledged, keyed by
	// sequence number.
	retransmission map[uint32]ua.NotificationMessage
}

// New creates a subscription in the Creating state.
func New(id uint32, params Parameters, publishingEnabled bool) *Subscription {
	return &Subscription{
		id:                id,
		params:            params,
		publishingEnabled: publishingEnabled,
		state:             StateCreating,
		nextSequence:      1,
		items:             make(map[uint32]*MonitoredItem),
		retransmission:    make(map[uint32]ua.NotificationMessage),
	}
}

// ID returns the subscription id.
func (s *Subscription) ID() uint32 { return s.id }

// State returns the current lifecycle state.
func (s *Subscription) State() State { return s.state }

// Params returns the current settings.
func (s *Subscription) Params() Parameters { return s.params }

// Priority returns the publish tie-break priority.
func (s *Subscription) Priority() uint8 { return s.params.Priority }

// PublishingEnabled reports whether data notifications are emitted.
func (s *Subscription) PublishingEnabled() bool { return s.publishingEnabled }

// SetPublishingEnabled flips the publishing flag. The flag is orthogonal to
// the state machine; timers keep running while disabled.
func (s *Subscription) SetPublishingEnabled(enabled bool) {
	s.publishingEnabled = enabled
}

// SetParameters replaces the subscription settings. Monitored items,
// counters, and queued notifications are untouched.
func (s *Subscription) SetParameters(params Parameters) {
	s.params = params
}

// ItemCount returns the number of monitored items.
func (s *Subscription) ItemCount() int { return len(s.items) }

// Item returns a monitored item by id.
func (s *Subscription) Item(id uint32) (*MonitoredItem, bool) {
	m, ok := s.items[id]
	return m, ok
}

// LifetimeCounter returns the ticks elapsed since the last emitted message.
func (s *Subscription) LifetimeCounter() uint32 { return s.lifetimeCounter }

// NotificationsPending reports whether any notifications are queued for the
// next publish, in the subscription itself or in a reporting item's queue.
func (s *Subscription) NotificationsPending() bool {
	if len(s.pending) > 0 {
		return true
	}
	for _, m := range s.items {
		if m.monitoringMode == ua.MonitoringModeReporting && len(m.queue) > 0 {
			return true
		}
	}
	return false
}

// Sample offers a sampled value to every item watching the given node and
// returns the number of items that queued it.
func (s *Subscription) Sample(id ua.NodeID, value ua.DataValue) int {
	if s.state == StateClosed {
		return 0
	}
	recorded := 0
	for _, m := range s.items {
		if m.itemToMonitor.NodeID != id {
			continue
		}
		if m.Record(value) {
			recorded++
		}
	}
	return recorded
}

// InsertMonitoredItems creates items from the given requests and returns
// them in request order. Item ids are assigned from a per-subscription
// counter and never reused while the subscription lives.
func (s *Subscription) InsertMonitoredItems(creates []ua.MonitoredItemCreateRequest) []*MonitoredItem {
	created := make([]*MonitoredItem, len(creates))
	for i, req := range creates {
		s.nextItemID++
		m := newMonitoredItem(s.nextItemID, req)
		s.items[m.id] = m
		created[i] = m
	}
	return created
}

// ModifyMonitoredItems applies new parameters to existing items. The
// returned slice reports, per request, whether the item was found; unknown
// ids are skipped.
func (s *Subscription) ModifyMonitoredItems(modifies []ua.MonitoredItemModifyRequest) []bool {
	found := make([]bool, len(modifies))
	for i, req := range modifies {
		m, ok := s.items[req.MonitoredItemID]
		if !ok {
			continue
		}
		m.applyParameters(req.RequestedParameters)
		found[i] = true
	}
	return found
}

// DeleteMonitoredItems removes items by id. The returned slice reports, per
// id, whether the item existed. Removing the last item does not close the
// subscription.
func (s *Subscription) DeleteMonitoredItems(ids []uint32) []bool {
	found := make([]bool, len(ids))
	for i, id := range ids {
		if _, ok := s.items[id]; !ok {
			continue
		}
		delete(s.items, id)
		found[i] = true
	}
	return found
}

// DataChange appends already-built change records to the pending queue in
// arrival order. This is the path the registry uses to forward data changes
// produced outside the monitored-item sampler.
func (s *Subscription) DataChange(notifications []ua.DataChangeNotification) {
	if s.state == StateClosed {
		return
	}
	for _, n := range notifications {
		s.pending = append(s.pending, n.MonitoredItems...)
	}
}

// Tick advances the state machine by one publishing interval.
// publishAvailable tells the subscription whether the session has a queued
// publish request a message could be delivered on. The returned result is
// nil when the tick emitted nothing.
func (s *Subscription) Tick(now time.Time, publishAvailable bool) *PublishResult {
	if s.state == StateClosed {
		return nil
	}
	if s.state == StateCreating && (len(s.items) > 0 || s.publishingEnabled) {
		s.state = StateNormal
	}

	s.collectItemNotifications()

	if s.publishingEnabled && len(s.pending) > 0 {
		if publishAvailable {
			return s.emitDataChange(now)
		}
		s.state = StateLate
	} else {
		s.keepAliveCounter++
		if s.keepAliveCounter >= s.params.MaxKeepAliveCount && publishAvailable {
			return s.emitKeepAlive(now)
		}
	}

	s.lifetimeCounter++
	if s.lifetimeCounter >= s.params.LifetimeCount {
		s.close()
	}
	return nil
}

// collectItemNotifications drains every reporting item's queue into the
// pending queue, in ascending item-id order so batches are deterministic.
func (s *Subscription) collectItemNotifications() {
	if len(s.items) == 0 {
		return
	}
	ids := make([]uint32, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		s.pending = append(s.pending, s.items[id].takeNotifications()...)
	}
}

func (s *Subscription) emitDataChange(now time.Time) *PublishResult {
	batch := s.pending
	more := false
	if max := s.params.MaxNotificationsPerPublish; max > 0 && uint32(len(batch)) > max {
		batch = s.pending[:max]
		more = true
	}
	s.pending = s.pending[len(batch):]

	msg := ua.NotificationMessage{
		SequenceNumber: s.takeSequenceNumber(),
		PublishTime:    now,
		NotificationData: []ua.DataChangeNotification{
			{MonitoredItems: batch},
		},
	}
	s.retransmission[msg.SequenceNumber] = msg

	s.state = StateNormal
	s.keepAliveCounter = 0
	s.lifetimeCounter = 0
	return &PublishResult{Message: msg, MoreNotifications: more}
}

func (s *Subscription) emitKeepAlive(now time.Time) *PublishResult {
	msg := ua.NotificationMessage{
		SequenceNumber: s.takeSequenceNumber(),
		PublishTime:    now,
	}
	s.retransmission[msg.SequenceNumber] = msg

	s.state = StateKeepAlive
	s.keepAliveCounter = 0
	s.lifetimeCounter = 0
	return &PublishResult{Message: msg}
}

func (s *Subscription) takeSequenceNumber() uint32 {
	n := s.nextSequence
	s.nextSequence++
	return n
}

// Acknowledge retires an emitted message from the retransmission queue.
// Returns false if the sequence number was never issued or already retired.
func (s *Subscription) Acknowledge(sequenceNumber uint32) bool {
	if _, ok := s.retransmission[sequenceNumber]; !ok {
		return false
	}
	delete(s.retransmission, sequenceNumber)
	return true
}

// Republish returns the unacknowledged message with the given sequence
// number. Retired sequence numbers fail; stale data is never resent.
func (s *Subscription) Republish(sequenceNumber uint32) (ua.NotificationMessage, bool) {
	msg, ok := s.retransmission[sequenceNumber]
	return msg, ok
}

// AvailableSequenceNumbers lists the unacknowledged sequence numbers in
// ascending order. Nil when everything has been acknowledged.
func (s *Subscription) AvailableSequenceNumbers() []uint32 {
	if len(s.retransmission) == 0 {
		return nil
	}
	seqs := make([]uint32, 0, len(s.retransmission))
	for n := range s.retransmission {
		seqs = append(seqs, n)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
	return seqs
}

// close is the terminal transition. Pending notifications and monitored
// items are discarded; the id must not be referenced afterwards.
func (s *Subscription) close() {
	s.state = StateClosed
	s.pending = nil
	s.items = make(map[uint32]*MonitoredItem)
}

// Close transitions the subscription to Closed from any state.
func (s *Subscription) Close() {
	if s.state != StateClosed {
		s.close()
	}
}
