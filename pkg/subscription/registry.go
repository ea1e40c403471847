package subscription

import (
	"sort"

	"github.com/BogdanYarotsky/opcua/pkg/ua"
)

// Registry owns the subscriptions of one session. It is a pure storage and
// dispatch layer: operations on unknown subscription ids are no-ops, not
// errors, because translating "not found" into a protocol status belongs to
// the service layer. Methods that the services need to report per-target
// outcomes for return found/absent results alongside the mutation.
//
// The registry is not safe for concurrent use; every call must be made
// under the owning session's exclusive lock.
type Registry struct {
	subscriptions map[uint32]*Subscription
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		subscriptions: make(map[uint32]*Subscription),
	}
}

// Len returns the number of live subscriptions.
func (r *Registry) Len() int {
	return len(r.subscriptions)
}

// Exists reports whether the subscription id is present.
func (r *Registry) Exists(id uint32) bool {
	_, ok := r.subscriptions[id]
	return ok
}

// Get returns the subscription with the given id. The subscription remains
// owned by the registry; callers must not retain it past the lock window.
func (r *Registry) Get(id uint32) (*Subscription, bool) {
	s, ok := r.subscriptions[id]
	return s, ok
}

// IDs returns the current subscription ids in ascending order, or nil when
// the registry is empty so callers can tell "no subscriptions" apart from
// an empty batch.
func (r *Registry) IDs() []uint32 {
	if len(r.subscriptions) == 0 {
		return nil
	}
	ids := make([]uint32, 0, len(r.subscriptions))
	for id := range r.subscriptions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Add inserts a subscription keyed by its own id. An existing subscription
// with the same id is silently overwritten; id uniqueness is the caller's
// precondition, not a validated contract.
func (r *Registry) Add(s *Subscription) {
	r.subscriptions[s.ID()] = s
}

// Modify updates the named settings of a subscription, leaving its
// monitored items and counters untouched. Unknown ids are a no-op.
// Returns whether the subscription was found.
func (r *Registry) Modify(id uint32, params Parameters) bool {
	s, ok := r.subscriptions[id]
	if !ok {
		return false
	}
	s.SetParameters(params)
	return true
}

// Delete removes and returns the subscription, or nil, false when the id is
// unknown. Deletion is terminal: the caller receives full ownership and the
// id must not be referenced against the registry afterwards.
func (r *Registry) Delete(id uint32) (*Subscription, bool) {
	s, ok := r.subscriptions[id]
	if !ok {
		return nil, false
	}
	delete(r.subscriptions, id)
	return s, true
}

// SetPublishingMode applies the publishing flag to every listed id that is
// present and silently skips the rest. The batch is not atomic; an unknown
// id never prevents the remaining ids from being processed. The returned
// slice reports found/absent per id, in order.
func (r *Registry) SetPublishingMode(ids []uint32, enabled bool) []bool {
	found := make([]bool, len(ids))
	for i, id := range ids {
		s, ok := r.subscriptions[id]
		if !ok {
			continue
		}
		s.SetPublishingEnabled(enabled)
		found[i] = true
	}
	return found
}

// DataChange forwards change records to a subscription's pending queue.
// Unknown ids are a no-op. Returns whether the subscription was found.
func (r *Registry) DataChange(id uint32, notifications []ua.DataChangeNotification) bool {
	s, ok := r.subscriptions[id]
	if !ok {
		return false
	}
	s.DataChange(notifications)
	return true
}

// Sample offers a sampled node value to every subscription and returns the
// total number of item queues it landed in.
func (r *Registry) Sample(nodeID ua.NodeID, value ua.DataValue) int {
	recorded := 0
	for _, s := range r.subscriptions {
		recorded += s.Sample(nodeID, value)
	}
	return recorded
}

// InsertMonitoredItems creates monitored items on a subscription. Unknown
// ids are a no-op with ok=false and a nil result.
func (r *Registry) InsertMonitoredItems(id uint32, creates []ua.MonitoredItemCreateRequest) ([]*MonitoredItem, bool) {
	s, ok := r.subscriptions[id]
	if !ok {
		return nil, false
	}
	return s.InsertMonitoredItems(creates), true
}

// ModifyMonitoredItems updates monitored items on a subscription. Unknown
// subscription ids are a no-op with ok=false.
func (r *Registry) ModifyMonitoredItems(id uint32, modifies []ua.MonitoredItemModifyRequest) ([]bool, bool) {
	s, ok := r.subscriptions[id]
	if !ok {
		return nil, false
	}
	return s.ModifyMonitoredItems(modifies), true
}

// DeleteMonitoredItems removes monitored items from a subscription.
// Unknown subscription ids are a no-op with ok=false.
func (r *Registry) DeleteMonitoredItems(id uint32, itemIDs []uint32) ([]bool, bool) {
	s, ok := r.subscriptions[id]
	if !ok {
		return nil, false
	}
	return s.DeleteMonitoredItems(itemIDs), true
}

// Drain empties the registry and hands full ownership of its contents to
// the caller. Used on session teardown to move live subscriptions to a
// transfer target or discard them; no two registries ever share a
// subscription.
func (r *Registry) Drain() map[uint32]*Subscription {
	drained := r.subscriptions
	r.subscriptions = make(map[uint32]*Subscription)
	return drained
}
