package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderIngested = "OrderIngested"
	EventStepCompleted = "OrderStepCompleted"
)

// Envelope wraps every event published by this service. Downstream
// consumers (notifications, chat) are external collaborators.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderIngestedPayload struct {
	OrderID         string `json:"order_id"`
	ExternalOrderID string `json:"external_order_id"`
	StoreID         string `json:"store_id"`
	ProductID       string `json:"product_id"`
	CustomerEmail   string `json:"customer_email"`
	StepsScheduled  int    `json:"steps_scheduled"`
	Progress        int    `json:"progress"`
}

type StepCompletedPayload struct {
	OrderID       string    `json:"order_id"`
	StoreID       string    `json:"store_id"`
	StepIndex     int       `json:"step_index"`
	StepName      string    `json:"step_name"`
	ScheduledFor  time.Time `json:"scheduled_for"`
	Progress      int       `json:"progress"`
	OrderComplete bool      `json:"order_complete"`
}
