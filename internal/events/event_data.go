package events

import (
	"encoding/json"
	"time"
)

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// PriceUpdatedData contains data for PriceUpdated events
type PriceUpdatedData struct {
	Symbol   string  `json:"symbol"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Stale    bool    `json:"stale,omitempty"`
}

// EventType returns the event type for PriceUpdatedData
func (d *PriceUpdatedData) EventType() EventType {
	return PriceUpdated
}

// RatesUpdatedData contains data for RatesUpdated events
type RatesUpdatedData struct {
	Pairs  int `json:"pairs"`
	Failed int `json:"failed,omitempty"`
}

// EventType returns the event type for RatesUpdatedData
func (d *RatesUpdatedData) EventType() EventType {
	return RatesUpdated
}

// TransactionEventData contains data for transaction lifecycle events
// (recorded, soft-deleted, restored)
type TransactionEventData struct {
	ID        int64  `json:"id"`
	HoldingID string `json:"holding_id"`
	Action    string `json:"action"`
	Quantity  string `json:"quantity"`
	Date      string `json:"date"`

	// Change is "recorded", "deleted" or "restored"
	Change string `json:"change"`
}

// EventType returns the event type for TransactionEventData
func (d *TransactionEventData) EventType() EventType {
	switch d.Change {
	case "deleted":
		return TransactionDeleted
	case "restored":
		return TransactionRestored
	default:
		return TransactionRecorded
	}
}

// SnapshotEventData contains data for SnapshotRecorded events
type SnapshotEventData struct {
	ID        int64  `json:"id"`
	HoldingID string `json:"holding_id"`
	Month     string `json:"month"`
	Balance   string `json:"balance"`
	Currency  string `json:"currency"`
}

// EventType returns the event type for SnapshotEventData
func (d *SnapshotEventData) EventType() EventType {
	return SnapshotRecorded
}

// HoldingChangedData contains data for HoldingChanged events
type HoldingChangedData struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Change string `json:"change"` // "created", "updated", "deleted", "restored"
}

// EventType returns the event type for HoldingChangedData
func (d *HoldingChangedData) EventType() EventType {
	return HoldingChanged
}

// NetWorthCalculatedData contains data for NetWorthCalculated events
type NetWorthCalculatedData struct {
	NetWorth     float64 `json:"net_worth"`
	TotalAssets  float64 `json:"total_assets"`
	TotalDebt    float64 `json:"total_debt"`
	HasStaleData bool    `json:"has_stale_data"`
}

// EventType returns the event type for NetWorthCalculatedData
func (d *NetWorthCalculatedData) EventType() EventType {
	return NetWorthCalculated
}

// BudgetPeriodCreatedData contains data for BudgetPeriodCreated events
type BudgetPeriodCreatedData struct {
	ID        int64  `json:"id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// EventType returns the event type for BudgetPeriodCreatedData
func (d *BudgetPeriodCreatedData) EventType() EventType {
	return BudgetPeriodCreated
}

// AnomaliesDetectedData contains data for AnomaliesDetected events
type AnomaliesDetectedData struct {
	Count    int   `json:"count"`
	PeriodID int64 `json:"period_id"`
}

// EventType returns the event type for AnomaliesDetectedData
func (d *AnomaliesDetectedData) EventType() EventType {
	return AnomaliesDetected
}

// SettingsChangedData contains data for SettingsChanged events
type SettingsChangedData struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// EventType returns the event type for SettingsChangedData
func (d *SettingsChangedData) EventType() EventType {
	return SettingsChanged
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}

// JobStatusData contains data for job lifecycle events
type JobStatusData struct {
	Timestamp time.Time `json:"timestamp"`
	JobName   string    `json:"job_name"`
	Status    string    `json:"status"` // "started", "completed", "failed"
	Error     string    `json:"error,omitempty"`
	Duration  float64   `json:"duration,omitempty"`
}

// EventType returns the event type for JobStatusData
// Note: The actual event type is determined by the Status field
func (d *JobStatusData) EventType() EventType {
	switch d.Status {
	case "completed":
		return JobCompleted
	case "failed":
		return JobFailed
	default:
		return JobStarted
	}
}

// EventWithData represents an event with typed data
type EventWithData struct {
	Timestamp time.Time `json:"timestamp"`
	Data      EventData `json:"data"`
	Type      EventType `json:"type"`
	Module    string    `json:"module"`
}

// MarshalJSON customizes JSON serialization for EventWithData
func (e *EventWithData) MarshalJSON() ([]byte, error) {
	type Alias EventWithData
	aux := &struct {
		Data json.RawMessage `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if e.Data != nil {
		dataBytes, err := json.Marshal(e.Data)
		if err != nil {
			return nil, err
		}
		aux.Data = dataBytes
	}

	return json.Marshal(aux)
}

// UnmarshalJSON customizes JSON deserialization for EventWithData
func (e *EventWithData) UnmarshalJSON(data []byte) error {
	type Alias EventWithData
	aux := &struct {
		Data json.RawMessage `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	if len(aux.Data) > 0 {
		var eventData EventData
		switch aux.Type {
		case PriceUpdated:
			eventData = &PriceUpdatedData{}
		case RatesUpdated:
			eventData = &RatesUpdatedData{}
		case TransactionRecorded, TransactionDeleted, TransactionRestored:
			eventData = &TransactionEventData{}
		case SnapshotRecorded:
			eventData = &SnapshotEventData{}
		case HoldingChanged:
			eventData = &HoldingChangedData{}
		case NetWorthCalculated:
			eventData = &NetWorthCalculatedData{}
		case BudgetPeriodCreated:
			eventData = &BudgetPeriodCreatedData{}
		case AnomaliesDetected:
			eventData = &AnomaliesDetectedData{}
		case SettingsChanged:
			eventData = &SettingsChangedData{}
		case ErrorOccurred:
			eventData = &ErrorEventData{}
		case JobStarted, JobCompleted, JobFailed:
			eventData = &JobStatusData{}
		default:
			// For unknown types, fall back to a raw map
			var rawData map[string]interface{}
			if err := json.Unmarshal(aux.Data, &rawData); err != nil {
				return err
			}
			eventData = &GenericEventData{Type: aux.Type, Data: rawData}
		}

		if _, ok := eventData.(*GenericEventData); !ok {
			if err := json.Unmarshal(aux.Data, eventData); err != nil {
				return err
			}
		}
		e.Data = eventData
	}

	return nil
}

// GenericEventData is a fallback for events that don't have a specific type
type GenericEventData struct {
	Type EventType              `json:"-"`
	Data map[string]interface{} `json:"-"`
}

// EventType returns the event type for GenericEventData
func (d *GenericEventData) EventType() EventType {
	return d.Type
}

// MarshalJSON customizes JSON serialization for GenericEventData
func (d *GenericEventData) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Data)
}

// UnmarshalJSON customizes JSON deserialization for GenericEventData
func (d *GenericEventData) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &d.Data)
}
