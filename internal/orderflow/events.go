package orderflow

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/abebe-delivery/gateway/internal/entity"
)

// Audience selects how a Notification is addressed.
type Audience string

const (
	// AudienceCustomer targets the order's owning customer.
	AudienceCustomer Audience = "customer"
	// AudienceDriver targets the order's assigned driver.
	AudienceDriver Audience = "driver"
	// AudienceAllDrivers broadcasts to every profile with the driver role.
	AudienceAllDrivers Audience = "all_drivers"
)

// Notification is one derived push event. UserID is set for single-recipient
// audiences and empty for broadcasts.
type Notification struct {
	Audience Audience
	UserID   string
	Title    string
	Body     string
	Data     map[string]string
}

func orderData(o *entity.Order) map[string]string {
	id := o.PublicID.String()
	if o.PublicID == uuid.Nil {
		id = fmt.Sprintf("%d", o.ID)
	}
	return map[string]string{
		"order_id":   id,
		"display_id": o.DisplayID(),
		"type":       "order",
	}
}

// CreationEvent is the customer push emitted when an order row appears.
func CreationEvent(o *entity.Order) Notification {
	return Notification{
		Audience: AudienceCustomer,
		UserID:   o.UserID,
		Title:    "Order Placed",
		Body:     fmt.Sprintf("Order #%s has been placed and is being reviewed!", o.DisplayID()),
		Data:     orderData(o),
	}
}

// EventsForChange derives the push notifications owed for a status change.
// Evaluated strictly on old != new; an update that leaves the status alone
// produces nothing.
func EventsForChange(oldStatus Status, o *entity.Order) []Notification {
	newStatus := Status(o.Status)
	if oldStatus == newStatus {
		return nil
	}

	display := o.DisplayID()
	data := orderData(o)
	var events []Notification

	customer := func(title, body string) {
		events = append(events, Notification{
			Audience: AudienceCustomer,
			UserID:   o.UserID,
			Title:    title,
			Body:     body,
			Data:     data,
		})
	}

	switch newStatus {
	case StatusAccepted:
		customer("Order Accepted", fmt.Sprintf("Order #%s has been accepted!", display))
	case StatusPreparing:
		customer("Order Being Prepared", fmt.Sprintf("Order #%s is now being prepared!", display))
	case StatusReadyForPickup:
		if o.DriverID == nil {
			events = append(events, Notification{
				Audience: AudienceAllDrivers,
				Title:    "Order Ready for Pickup",
				Body:     fmt.Sprintf("Order #%s is ready and needs a driver!", display),
				Data:     data,
			})
		}
	case StatusDriverAssigned:
		customer("Driver Assigned", fmt.Sprintf("A driver has been assigned to Order #%s!", display))
		if o.DriverID != nil {
			events = append(events, Notification{
				Audience: AudienceDriver,
				UserID:   *o.DriverID,
				Title:    "Order Claimed",
				Body:     fmt.Sprintf("You've claimed Order #%s. Head to the restaurant!", display),
				Data:     data,
			})
		}
	case StatusPickedUp:
		customer("Order Picked Up", fmt.Sprintf("Order #%s has been picked up from the restaurant!", display))
	case StatusOnTheWay:
		customer("On the Way", fmt.Sprintf("Order #%s is out for delivery!", display))
	case StatusDelivered:
		customer("Order Delivered", fmt.Sprintf("Order #%s has been delivered. Enjoy your meal!", display))
	case StatusCancelled:
		customer("Order Cancelled", fmt.Sprintf("Order #%s has been cancelled.", display))
	case StatusRejected:
		body := fmt.Sprintf("Order #%s has been rejected.", display)
		if o.AdminNotes != "" {
			body = fmt.Sprintf("Sorry, your order #%s was rejected: %s", display, o.AdminNotes)
		}
		customer("Order Rejected", body)
	}

	return events
}
