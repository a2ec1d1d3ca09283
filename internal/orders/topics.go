package orders

const (
	TopicPickupEvents  = "emall.pickup.events"
	TopicNotifications = "emall.notifications"
)

// Partition by order id so every event of one order keeps its order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
