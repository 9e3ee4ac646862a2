package orders

// Status is the order fulfilment state.
type Status string

const (
	StatusInCart         Status = "in-cart"
	StatusPending        Status = "pending"
	StatusProcessing     Status = "processing"
	StatusShipped        Status = "shipped"
	StatusOutForDelivery Status = "out-for-delivery"
	StatusDelivered      Status = "delivered"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
	StatusReturned       Status = "returned"
)

// StatusValues lists every valid status, used by the enum rule.
func StatusValues() []string {
	return []string{
		string(StatusInCart), string(StatusPending), string(StatusProcessing),
		string(StatusShipped), string(StatusOutForDelivery), string(StatusDelivered),
		string(StatusCompleted), string(StatusCancelled), string(StatusReturned),
	}
}
