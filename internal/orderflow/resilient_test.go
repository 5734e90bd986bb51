package orderflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abebe-delivery/gateway/pkg/errorbank"
)

func TestTransportBlipWithLandedWriteVerifiesAsSuccess(t *testing.T) {
	store := &fakeStore{
		order:      placedOrder(7),
		applyErr:   errors.New("fetch failed"),
		applyLands: true,
	}
	m := NewMachine(store, zap.NewNop())
	m.mutator.backoff = time.Millisecond

	order, err := m.Accept(context.Background(), 7, 30)
	require.NoError(t, err)
	assert.Equal(t, string(StatusAccepted), order.Status)
	assert.Equal(t, 30, order.EstimatedTime)
}

func TestTransportBlipWithLostWriteFails(t *testing.T) {
	store := &fakeStore{
		order:    placedOrder(7),
		applyErr: errors.New("connection reset"),
	}
	m := NewMachine(store, zap.NewNop())
	m.mutator.backoff = time.Millisecond

	_, err := m.Accept(context.Background(), 7, 30)
	require.Error(t, err)
	assert.Equal(t, errorbank.KindInternal, errorbank.From(err).Kind())
	assert.Equal(t, string(StatusPlaced), store.order.Status)
}

func TestPredicateMissIsNotRetried(t *testing.T) {
	store := &fakeStore{order: placedOrder(7)}
	store.order.Status = string(StatusAccepted)
	m := NewMachine(store, zap.NewNop())

	_, err := m.Accept(context.Background(), 7, 30)
	require.Error(t, err)
	assert.Equal(t, errorbank.KindConflict, errorbank.From(err).Kind())
	assert.Zero(t, store.applies)
}

func TestVerificationComparesIntendedFields(t *testing.T) {
	eta := 25
	notes := "Payment confirmed. Order accepted."
	now := time.Now()
	u := StatusUpdate{
		OrderID:       1,
		To:            StatusAccepted,
		EstimatedTime: &eta,
		AcceptedAt:    &now,
		AdminNotes:    &notes,
	}

	order := placedOrder(1)
	assert.False(t, u.Matches(order))

	order.Status = string(StatusAccepted)
	order.EstimatedTime = 25
	order.AdminNotes = notes
	assert.False(t, u.Matches(order), "accepted_at still missing")

	order.AcceptedAt = &now
	assert.True(t, u.Matches(order))

	order.EstimatedTime = 40
	assert.False(t, u.Matches(order))
}
