package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionTo_LegalEdges(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		by       Authority
	}{
		{OrderStatusPending, OrderStatusPaid, AuthoritySystem},
		{OrderStatusPending, OrderStatusCanceled, AuthorityOwner},
		{OrderStatusPending, OrderStatusCanceled, AuthorityAdmin},
		{OrderStatusPaid, OrderStatusShipped, AuthorityAdmin},
		{OrderStatusPaid, OrderStatusCanceled, AuthorityOwner},
		{OrderStatusShipped, OrderStatusDelivered, AuthorityAdmin},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to)+" by "+string(tt.by), func(t *testing.T) {
			assert.NoError(t, CanTransitionTo(tt.from, tt.to, tt.by))
		})
	}
}

func TestCanTransitionTo_WrongAuthority(t *testing.T) {
	assert.ErrorIs(t, CanTransitionTo(OrderStatusPending, OrderStatusPaid, AuthorityOwner), ErrTransitionNotPermitted)
	assert.ErrorIs(t, CanTransitionTo(OrderStatusPending, OrderStatusPaid, AuthorityAdmin), ErrTransitionNotPermitted)
	assert.ErrorIs(t, CanTransitionTo(OrderStatusPaid, OrderStatusShipped, AuthorityOwner), ErrTransitionNotPermitted)
	assert.ErrorIs(t, CanTransitionTo(OrderStatusShipped, OrderStatusDelivered, AuthoritySystem), ErrTransitionNotPermitted)
	assert.ErrorIs(t, CanTransitionTo(OrderStatusPending, OrderStatusCanceled, AuthoritySystem), ErrTransitionNotPermitted)
}

func TestCanTransitionTo_TerminalStates(t *testing.T) {
	for _, from := range []OrderStatus{OrderStatusDelivered, OrderStatusCanceled} {
		for _, to := range []OrderStatus{OrderStatusPending, OrderStatusPaid, OrderStatusCanceled} {
			err := CanTransitionTo(from, to, AuthorityAdmin)
			var ite *InvalidTransitionError
			require.ErrorAs(t, err, &ite)
			assert.Equal(t, from, ite.From)
			assert.Equal(t, to, ite.To)
		}
	}
}

func TestCanTransitionTo_SkippingSteps(t *testing.T) {
	var ite *InvalidTransitionError
	assert.ErrorAs(t, CanTransitionTo(OrderStatusPending, OrderStatusShipped, AuthorityAdmin), &ite)
	assert.ErrorAs(t, CanTransitionTo(OrderStatusShipped, OrderStatusCanceled, AuthorityAdmin), &ite)
	assert.ErrorAs(t, CanTransitionTo(OrderStatusPaid, OrderStatusPaid, AuthoritySystem), &ite)
}

func TestOrderStatus_Reached(t *testing.T) {
	assert.True(t, OrderStatusPaid.Reached(OrderStatusPaid))
	assert.True(t, OrderStatusDelivered.Reached(OrderStatusPaid))
	assert.False(t, OrderStatusPending.Reached(OrderStatusPaid))
	assert.False(t, OrderStatusCanceled.Reached(OrderStatusPaid))
}

func TestIsBusiness(t *testing.T) {
	assert.True(t, IsBusiness(ErrEmptyCart))
	assert.True(t, IsBusiness(&InsufficientStockError{Requested: 6, Available: 5}))
	assert.True(t, IsBusiness(&AuthorizationError{Resource: "cart"}))
	assert.False(t, IsBusiness(assert.AnError))
}
