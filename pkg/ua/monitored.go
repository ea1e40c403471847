package ua

import "time"

// AttributeID selects the node attribute a monitored item samples.
type AttributeID uint32

const (
	AttributeValue       AttributeID = 13
	AttributeDisplayName AttributeID = 4
)

// ReadValueID names the node and attribute a monitored item watches.
type ReadValueID struct {
	NodeID      NodeID
	AttributeID AttributeID
}

// MonitoringMode controls whether an item samples and reports.
type MonitoringMode uint32

const (
	MonitoringModeDisabled  MonitoringMode = 0
	MonitoringModeSampling  MonitoringMode = 1
	MonitoringModeReporting MonitoringMode = 2
)

// String returns the monitoring mode name.
func (m MonitoringMode) String() string {
	switch m {
	case MonitoringModeDisabled:
		return "Disabled"
	case MonitoringModeSampling:
		return "Sampling"
	case MonitoringModeReporting:
		return "Reporting"
	default:
		return "Unknown"
	}
}

// DataChangeTrigger selects which changes pass the data-change filter.
type DataChangeTrigger uint32

const (
	// DataChangeTriggerStatus reports only quality changes.
	DataChangeTriggerStatus DataChangeTrigger = 0

	// DataChangeTriggerStatusValue reports quality or value changes.
	DataChangeTriggerStatusValue DataChangeTrigger = 1

	// DataChangeTriggerStatusValueTimestamp reports quality, value, or
	// source-timestamp changes.
	DataChangeTriggerStatusValueTimestamp DataChangeTrigger = 2
)

// DeadbandType selects the deadband applied to numeric value changes.
type DeadbandType uint32

const (
	DeadbandNone     DeadbandType = 0
	DeadbandAbsolute DeadbandType = 1
	DeadbandPercent  DeadbandType = 2
)

// DataChangeFilter is the sampling/reporting filter of a monitored item.
type DataChangeFilter struct {
	Trigger       DataChangeTrigger
	DeadbandType  DeadbandType
	DeadbandValue float64
}

// MonitoringParameters are the client-requested sampling settings for a
// monitored item.
type MonitoringParameters struct {
	// ClientHandle is an opaque correlation id the client attaches to the
	// item; it is echoed in every notification for the item.
	ClientHandle uint32

	// SamplingInterval is the requested sampling period in milliseconds.
	SamplingInterval float64

	// Filter decides which sampled changes are queued for reporting.
	// Nil selects the server default (status and value changes).
	Filter *DataChangeFilter

	// QueueSize is the requested depth of the item's notification queue.
	QueueSize uint32

	// DiscardOldest selects which end of a full queue is dropped.
	DiscardOldest bool
}

// MonitoredItemCreateRequest asks the server to create one monitored item.
type MonitoredItemCreateRequest struct {
	ItemToMonitor       ReadValueID
	MonitoringMode      MonitoringMode
	RequestedParameters MonitoringParameters
}

// MonitoredItemCreateResult reports the outcome for one created item.
type MonitoredItemCreateResult struct {
	StatusCode              StatusCode
	MonitoredItemID         uint32
	RevisedSamplingInterval float64
	RevisedQueueSize        uint32
}

// MonitoredItemModifyRequest asks the server to change one item's settings.
type MonitoredItemModifyRequest struct {
	MonitoredItemID     uint32
	RequestedParameters MonitoringParameters
}

// MonitoredItemModifyResult reports the outcome for one modified item.
type MonitoredItemModifyResult struct {
	StatusCode              StatusCode
	RevisedSamplingInterval float64
	RevisedQueueSize        uint32
}

// MonitoredItemNotification is one queued value change, correlated to the
// client by the item's client handle.
type MonitoredItemNotification struct {
	ClientHandle uint32
	Value        DataValue
}

// DataChangeNotification is the batch of item notifications carried by one
// notification message.
type DataChangeNotification struct {
	MonitoredItems []MonitoredItemNotification
}

// NotificationMessage is one sequenced message emitted by a subscription.
// A message with no notification data is a keep-alive. Sequence numbers
// start at 1 and increase by exactly 1 per message, keep-alives included.
type NotificationMessage struct {
	SequenceNumber   uint32
	PublishTime      time.Time
	NotificationData []DataChangeNotification
}

// IsKeepAlive returns true if the message carries no data changes.
func (m *NotificationMessage) IsKeepAlive() bool {
	return len(m.NotificationData) == 0
}

// SubscriptionAcknowledgement retires one received notification message
// from a subscription's retransmission queue.
type SubscriptionAcknowledgement struct {
	SubscriptionID uint32
	SequenceNumber uint32
}
