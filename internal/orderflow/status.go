package orderflow

// Status is an order lifecycle state. Wire values match the rows the
// mobile apps and the database webhooks carry, spaces included.
type Status string

const (
	StatusPlaced         Status = "Placed"
	StatusAccepted       Status = "Accepted"
	StatusPreparing      Status = "Preparing"
	StatusReadyForPickup Status = "Ready for Pickup"
	StatusDriverAssigned Status = "Driver Assigned"
	StatusPickedUp       Status = "Picked Up"
	StatusOnTheWay       Status = "On the Way"
	StatusDelivered      Status = "Delivered"
	StatusCancelled      Status = "Cancelled"
	StatusRejected       Status = "Rejected"
)

// Terminal reports whether no further transitions may leave the state.
func (s Status) Terminal() bool {
	switch s {
	case StatusDelivered, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// NonTerminal lists every state a rejection or cancellation may leave.
func NonTerminal() []Status {
	return []Status{
		StatusPlaced,
		StatusAccepted,
		StatusPreparing,
		StatusReadyForPickup,
		StatusDriverAssigned,
		StatusPickedUp,
		StatusOnTheWay,
	}
}
