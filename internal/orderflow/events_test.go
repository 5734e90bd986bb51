package orderflow

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abebe-delivery/gateway/internal/entity"
)

func orderWithStatus(s Status) *entity.Order {
	return &entity.Order{
		ID:          42,
		PublicID:    uuid.MustParse("0b0d8f0e-4c3a-4a7e-9f3d-2f5a8c1b6d4e"),
		DisplayCode: "AB-1042",
		Status:      string(s),
		UserID:      "customer-uuid",
	}
}

func TestUnchangedStatusProducesNoEvents(t *testing.T) {
	o := orderWithStatus(StatusPreparing)
	assert.Empty(t, EventsForChange(StatusPreparing, o))
}

func TestCustomerEventsPerStatus(t *testing.T) {
	cases := []struct {
		from  Status
		to    Status
		title string
	}{
		{StatusPlaced, StatusAccepted, "Order Accepted"},
		{StatusAccepted, StatusPreparing, "Order Being Prepared"},
		{StatusDriverAssigned, StatusPickedUp, "Order Picked Up"},
		{StatusPickedUp, StatusOnTheWay, "On the Way"},
		{StatusOnTheWay, StatusDelivered, "Order Delivered"},
		{StatusPlaced, StatusCancelled, "Order Cancelled"},
	}

	for _, tc := range cases {
		o := orderWithStatus(tc.to)
		events := EventsForChange(tc.from, o)
		require.Len(t, events, 1, "%s -> %s", tc.from, tc.to)
		assert.Equal(t, AudienceCustomer, events[0].Audience)
		assert.Equal(t, o.UserID, events[0].UserID)
		assert.Equal(t, tc.title, events[0].Title)
		assert.Contains(t, events[0].Body, "AB-1042")
		assert.Equal(t, "order", events[0].Data["type"])
	}
}

func TestUnassignedReadyBroadcastsToDrivers(t *testing.T) {
	o := orderWithStatus(StatusReadyForPickup)
	events := EventsForChange(StatusPreparing, o)

	require.Len(t, events, 1)
	assert.Equal(t, AudienceAllDrivers, events[0].Audience)
	assert.Empty(t, events[0].UserID)
	assert.Contains(t, events[0].Body, "needs a driver")
}

func TestAssignedReadyStaysQuiet(t *testing.T) {
	o := orderWithStatus(StatusReadyForPickup)
	driver := "driver-uuid"
	o.DriverID = &driver

	assert.Empty(t, EventsForChange(StatusPreparing, o))
}

func TestDriverAssignedTargetsBothParties(t *testing.T) {
	o := orderWithStatus(StatusDriverAssigned)
	driver := "driver-uuid"
	o.DriverID = &driver

	events := EventsForChange(StatusReadyForPickup, o)
	require.Len(t, events, 2)
	assert.Equal(t, AudienceCustomer, events[0].Audience)
	assert.Equal(t, AudienceDriver, events[1].Audience)
	assert.Equal(t, driver, events[1].UserID)
	assert.Contains(t, events[1].Body, "Head to the restaurant")
}

func TestRejectionCarriesReason(t *testing.T) {
	o := orderWithStatus(StatusRejected)
	o.AdminNotes = "Kitchen Busy"

	events := EventsForChange(StatusPlaced, o)
	require.Len(t, events, 1)
	assert.Equal(t, "Order Rejected", events[0].Title)
	assert.Contains(t, events[0].Body, "Kitchen Busy")
}

func TestCreationEvent(t *testing.T) {
	o := orderWithStatus(StatusPlaced)
	ev := CreationEvent(o)

	assert.Equal(t, AudienceCustomer, ev.Audience)
	assert.Equal(t, "Order Placed", ev.Title)
	assert.Equal(t, o.PublicID.String(), ev.Data["order_id"])
	assert.Equal(t, "AB-1042", ev.Data["display_id"])
}
