package orders

const (
	TopicOrderIngested = "order.ingested"
	TopicStepCompleted = "order.step.completed"
)

// Partition key = order id, so every event for one order keeps ordering.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
