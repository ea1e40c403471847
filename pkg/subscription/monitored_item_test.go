package subscription

import (
	"testing"
	"time"

	"github.com/BogdanYarotsky/opcua/pkg/ua"
)

func newTestItem(params ua.MonitoringParameters) *MonitoredItem {
	return newMonitoredItem(1, ua.MonitoredItemCreateRequest{
		ItemToMonitor:       ua.ReadValueID{NodeID: ua.NewNodeID(2, "tank.level"), AttributeID: ua.AttributeValue},
		MonitoringMode:      ua.MonitoringModeReporting,
		RequestedParameters: params,
	})
}

func TestMonitoredItemRevisesParameters(t *testing.T) {
	tests := []struct {
		name         string
		interval     float64
		queueSize    uint32
		wantInterval float64
		wantQueue    uint32
	}{
		{"below minimums", 0, 0, MinSamplingInterval, MinQueueSize},
		{"within limits", 500, 16, 500, 16},
		{"above maximums", 1e9, 1 << 20, MaxSamplingInterval, MaxQueueSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestItem(ua.MonitoringParameters{
				SamplingInterval: tt.interval,
				QueueSize:        tt.queueSize,
			})
			if m.SamplingInterval() != tt.wantInterval {
				t.Errorf("SamplingInterval() = %v, want %v", m.SamplingInterval(), tt.wantInterval)
			}
			if m.QueueSize() != tt.wantQueue {
				t.Errorf("QueueSize() = %v, want %v", m.QueueSize(), tt.wantQueue)
			}
		})
	}
}

func TestMonitoredItemDiscardOldest(t *testing.T) {
	m := newTestItem(ua.MonitoringParameters{ClientHandle: 5, QueueSize: 2, DiscardOldest: true})

	m.Record(ua.DataValue{Value: 1.0})
	m.Record(ua.DataValue{Value: 2.0})
	m.Record(ua.DataValue{Value: 3.0})

	notifs := m.takeNotifications()
	if len(notifs) != 2 {
		t.Fatalf("queued %d values, want 2", len(notifs))
	}
	if notifs[0].Value.Value != 2.0 || notifs[1].Value.Value != 3.0 {
		t.Errorf("queue = %v, want oldest value dropped", notifs)
	}
}

func TestMonitoredItemDiscardNewest(t *testing.T) {
	m := newTestItem(ua.MonitoringParameters{ClientHandle: 5, QueueSize: 2, DiscardOldest: false})

	m.Record(ua.DataValue{Value: 1.0})
	m.Record(ua.DataValue{Value: 2.0})
	m.Record(ua.DataValue{Value: 3.0})

	notifs := m.takeNotifications()
	if len(notifs) != 2 {
		t.Fatalf("queued %d values, want 2", len(notifs))
	}
	if notifs[0].Value.Value != 1.0 || notifs[1].Value.Value != 3.0 {
		t.Errorf("queue = %v, want newest queued value dropped", notifs)
	}
}

func TestMonitoredItemAbsoluteDeadband(t *testing.T) {
	m := newTestItem(ua.MonitoringParameters{
		QueueSize: 8,
		Filter: &ua.DataChangeFilter{
			Trigger:       ua.DataChangeTriggerStatusValue,
			DeadbandType:  ua.DeadbandAbsolute,
			DeadbandValue: 5,
		},
	})

	if !m.Record(ua.DataValue{Value: 100.0}) {
		t.Error("first value rejected")
	}
	if m.Record(ua.DataValue{Value: 103.0}) {
		t.Error("change inside the deadband queued")
	}
	if !m.Record(ua.DataValue{Value: 106.0}) {
		t.Error("change beyond the deadband rejected")
	}
}

func TestMonitoredItemPercentDeadband(t *testing.T) {
	m := newTestItem(ua.MonitoringParameters{
		QueueSize: 8,
		Filter: &ua.DataChangeFilter{
			Trigger:       ua.DataChangeTriggerStatusValue,
			DeadbandType:  ua.DeadbandPercent,
			DeadbandValue: 10,
		},
	})
	m.SetEURange(200) // 10% of 200 = 20

	m.Record(ua.DataValue{Value: 50.0})
	if m.Record(ua.DataValue{Value: 60.0}) {
		t.Error("10-unit change queued against a 20-unit deadband")
	}
	if !m.Record(ua.DataValue{Value: 75.0}) {
		t.Error("25-unit change rejected against a 20-unit deadband")
	}
}

func TestMonitoredItemDefaultFilter(t *testing.T) {
	// No filter supplied: status and value changes report, timestamp-only
	// changes do not.
	m := newTestItem(ua.MonitoringParameters{QueueSize: 8})

	m.Record(ua.DataValue{Value: 1.0, Status: ua.Good})
	if !m.Record(ua.DataValue{Value: 2.0, Status: ua.Good}) {
		t.Error("value change rejected under the default filter")
	}
	if m.Record(ua.DataValue{Value: 2.0, Status: ua.Good, SourceTimestamp: time.Now()}) {
		t.Error("timestamp-only change queued under the default filter")
	}
}

func TestMonitoredItemStatusTrigger(t *testing.T) {
	m := newTestItem(ua.MonitoringParameters{
		QueueSize: 8,
		Filter:    &ua.DataChangeFilter{Trigger: ua.DataChangeTriggerStatus},
	})

	m.Record(ua.DataValue{Value: 1.0, Status: ua.Good})
	if m.Record(ua.DataValue{Value: 2.0, Status: ua.Good}) {
		t.Error("value-only change queued under a status-only trigger")
	}
	if !m.Record(ua.DataValue{Value: 2.0, Status: ua.BadInternalError}) {
		t.Error("status change rejected under a status-only trigger")
	}
}

func TestMonitoredItemTimestampTrigger(t *testing.T) {
	m := newTestItem(ua.MonitoringParameters{
		QueueSize: 8,
		Filter:    &ua.DataChangeFilter{Trigger: ua.DataChangeTriggerStatusValueTimestamp},
	})

	ts := time.Now()
	m.Record(ua.DataValue{Value: 1.0, SourceTimestamp: ts})
	if !m.Record(ua.DataValue{Value: 1.0, SourceTimestamp: ts.Add(time.Second)}) {
		t.Error("timestamp-only change rejected under a timestamp trigger")
	}
}

func TestMonitoredItemDisabledRecordsNothing(t *testing.T) {
	m := newTestItem(ua.MonitoringParameters{QueueSize: 4})
	m.monitoringMode = ua.MonitoringModeDisabled

	if m.Record(ua.DataValue{Value: 1.0}) {
		t.Error("disabled item queued a value")
	}
}

func TestMonitoredItemSamplingModeHoldsQueue(t *testing.T) {
	m := newTestItem(ua.MonitoringParameters{QueueSize: 4})
	m.monitoringMode = ua.MonitoringModeSampling

	m.Record(ua.DataValue{Value: 1.0})
	if notifs := m.takeNotifications(); notifs != nil {
		t.Errorf("sampling-only item reported %v", notifs)
	}
	if m.QueuedCount() != 1 {
		t.Errorf("QueuedCount() = %d, want 1", m.QueuedCount())
	}
}
