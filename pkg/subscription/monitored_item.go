package subscription

import (
	"math"

	"github.com/BogdanYarotsky/opcua/pkg/ua"
)

// Monitored item limits applied when revising client-requested parameters.
const (
	MinQueueSize        = 1
	MaxQueueSize        = 1024
	MinSamplingInterval = 50.0    // milliseconds
	MaxSamplingInterval = 60000.0 // milliseconds
)

// MonitoredItem watches one attribute of one node and queues value changes
// that pass its data-change filter. Items are owned by a Subscription and
// only created, modified, and deleted through it.
type MonitoredItem struct {
	id             uint32
	itemToMonitor  ua.ReadValueID
	monitoringMode ua.MonitoringMode

	clientHandle     uint32
	samplingInterval float64
	queueSize        uint32
	discardOldest    bool
	filter           ua.DataChangeFilter

	// euRange is the engineering-unit span used by percent deadband.
	// Zero disables percent filtering.
	euRange float64

	queue     []ua.DataValue
	lastValue *ua.DataValue
}

func newMonitoredItem(id uint32, req ua.MonitoredItemCreateRequest) *MonitoredItem {
	m := &MonitoredItem{
		id:             id,
		itemToMonitor:  req.ItemToMonitor,
		monitoringMode: req.MonitoringMode,
	}
	m.applyParameters(req.RequestedParameters)
	return m
}

// applyParameters revises and installs client-requested settings. Requests
// outside the server limits are clamped, not rejected.
func (m *MonitoredItem) applyParameters(p ua.MonitoringParameters) {
	m.clientHandle = p.ClientHandle
	m.samplingInterval = reviseSamplingInterval(p.SamplingInterval)
	m.queueSize = reviseQueueSize(p.QueueSize)
	m.discardOldest = p.DiscardOldest
	// An absent filter defaults to reporting status and value changes.
	if p.Filter != nil {
		m.filter = *p.Filter
	} else {
		m.filter = ua.DataChangeFilter{Trigger: ua.DataChangeTriggerStatusValue}
	}

	// Shrinking the queue drops the oldest entries.
	if uint32(len(m.queue)) > m.queueSize {
		m.queue = m.queue[uint32(len(m.queue))-m.queueSize:]
	}
}

func reviseSamplingInterval(requested float64) float64 {
	switch {
	case requested < MinSamplingInterval:
		return MinSamplingInterval
	case requested > MaxSamplingInterval:
		return MaxSamplingInterval
	default:
		return requested
	}
}

func reviseQueueSize(requested uint32) uint32 {
	switch {
	case requested < MinQueueSize:
		return MinQueueSize
	case requested > MaxQueueSize:
		return MaxQueueSize
	default:
		return requested
	}
}

// ID returns the item id, unique within the owning subscription.
func (m *MonitoredItem) ID() uint32 { return m.id }

// ClientHandle returns the client's correlation id for the item.
func (m *MonitoredItem) ClientHandle() uint32 { return m.clientHandle }

// SamplingInterval returns the revised sampling interval in milliseconds.
func (m *MonitoredItem) SamplingInterval() float64 { return m.samplingInterval }

// QueueSize returns the revised queue depth.
func (m *MonitoredItem) QueueSize() uint32 { return m.queueSize }

// ItemToMonitor returns the watched node and attribute.
func (m *MonitoredItem) ItemToMonitor() ua.ReadValueID { return m.itemToMonitor }

// MonitoringMode returns the item's monitoring mode.
func (m *MonitoredItem) MonitoringMode() ua.MonitoringMode { return m.monitoringMode }

// SetEURange sets the engineering-unit span used by percent deadband.
func (m *MonitoredItem) SetEURange(r float64) { m.euRange = r }

// Record offers a sampled value to the item. The value is queued when the
// item is not disabled and the change passes the data-change filter.
// A full queue drops from the end selected by the discard policy.
// Returns true if the value was queued.
func (m *MonitoredItem) Record(v ua.DataValue) bool {
	if m.monitoringMode == ua.MonitoringModeDisabled {
		return false
	}
	if !m.passesFilter(v) {
		return false
	}
	m.lastValue = &v

	if uint32(len(m.queue)) >= m.queueSize {
		if m.discardOldest {
			m.queue = m.queue[1:]
		} else {
			m.queue = m.queue[:len(m.queue)-1]
		}
	}
	m.queue = append(m.queue, v)
	return true
}

// QueuedCount returns the number of values waiting to be reported.
func (m *MonitoredItem) QueuedCount() int { return len(m.queue) }

// takeNotifications drains the queue into client-handle-tagged
// notifications, oldest first. Items in sampling-only mode keep their
// queue and report nothing.
func (m *MonitoredItem) takeNotifications() []ua.MonitoredItemNotification {
	if m.monitoringMode != ua.MonitoringModeReporting || len(m.queue) == 0 {
		return nil
	}
	notifs := make([]ua.MonitoredItemNotification, len(m.queue))
	for i, v := range m.queue {
		notifs[i] = ua.MonitoredItemNotification{ClientHandle: m.clientHandle, Value: v}
	}
	m.queue = m.queue[:0]
	return notifs
}

// passesFilter applies the trigger and deadband of the data-change filter
// against the last recorded value.
func (m *MonitoredItem) passesFilter(v ua.DataValue) bool {
	prev := m.lastValue
	if prev == nil {
		return true
	}
	if prev.Status != v.Status {
		return true
	}

	switch m.filter.Trigger {
	case ua.DataChangeTriggerStatus:
		return false
	case ua.DataChangeTriggerStatusValueTimestamp:
		if !prev.SourceTimestamp.Equal(v.SourceTimestamp) {
			return true
		}
	}

	return m.valueChanged(prev.Value, v.Value)
}

func (m *MonitoredItem) valueChanged(prev, next any) bool {
	pf, pok := asFloat(prev)
	nf, nok := asFloat(next)
	if !pok || !nok {
		// Non-numeric values bypass the deadband.
		return prev != next
	}

	delta := math.Abs(nf - pf)
	switch m.filter.DeadbandType {
	case ua.DeadbandAbsolute:
		return delta > m.filter.DeadbandValue
	case ua.DeadbandPercent:
		if m.euRange <= 0 {
			return delta != 0
		}
		return delta > m.filter.DeadbandValue/100*m.euRange
	default:
		return delta != 0
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
