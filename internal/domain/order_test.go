package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrukshagro/backend-go/internal/domain"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to domain.OrderStatus
		allowed  bool
	}{
		{domain.OrderPending, domain.OrderProcessing, true},
		{domain.OrderPending, domain.OrderAccepted, true},
		{domain.OrderPending, domain.OrderRejected, true},
		{domain.OrderPending, domain.OrderFarmReady, true},
		{domain.OrderPending, domain.OrderCancelled, true},
		{domain.OrderPending, domain.OrderCompleted, false},
		{domain.OrderPending, domain.OrderDispatched, false},
		{domain.OrderProcessing, domain.OrderDispatchProcess, true},
		{domain.OrderAccepted, domain.OrderCancelled, true},
		{domain.OrderFarmReady, domain.OrderDispatchProcess, true},
		{domain.OrderDispatchProcess, domain.OrderCompleted, true},
		{domain.OrderDispatchProcess, domain.OrderDispatched, true},
		{domain.OrderDispatchProcess, domain.OrderCancelled, false},
		{domain.OrderCompleted, domain.OrderCancelled, false},
		{domain.OrderCancelled, domain.OrderPending, false},
		{domain.OrderRejected, domain.OrderProcessing, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, domain.CanTransition(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	for _, s := range []domain.OrderStatus{
		domain.OrderCompleted, domain.OrderDispatched, domain.OrderRejected, domain.OrderCancelled,
	} {
		assert.True(t, s.Terminal(), "%s", s)
	}
	for _, s := range []domain.OrderStatus{
		domain.OrderPending, domain.OrderProcessing, domain.OrderAccepted,
		domain.OrderFarmReady, domain.OrderDispatchProcess,
	} {
		assert.False(t, s.Terminal(), "%s", s)
	}
}

func TestOrder_ChangeStatusAppendsHistory(t *testing.T) {
	order := &domain.Order{Status: domain.OrderPending}

	require.NoError(t, order.ChangeStatus(domain.OrderProcessing, "picked up", "ops"))
	require.NoError(t, order.ChangeStatus(domain.OrderAccepted, "", "ops"))

	require.Len(t, order.StatusHistory, 2)
	assert.Equal(t, domain.OrderPending, order.StatusHistory[0].Previous)
	assert.Equal(t, domain.OrderProcessing, order.StatusHistory[0].New)
	assert.Equal(t, "picked up", order.StatusHistory[0].Reason)
	assert.Equal(t, domain.OrderProcessing, order.StatusHistory[1].Previous)
	assert.Equal(t, domain.OrderAccepted, order.Status)

	// An illegal transition changes nothing.
	err := order.ChangeStatus(domain.OrderPending, "", "ops")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Len(t, order.StatusHistory, 2)
	assert.Equal(t, domain.OrderAccepted, order.Status)
}

func TestResolveIntent(t *testing.T) {
	cases := []struct {
		name         string
		dealerOrder  bool
		companyQuota bool
		role         string
		dealerID     int64
		want         domain.AllocationIntent
	}{
		{"dealer building stock", true, false, domain.RoleDealer, 5, domain.IntentSelfStock},
		{"dealer order wins over quota", true, true, domain.RoleDealer, 5, domain.IntentSelfStock},
		{"company quota", false, true, domain.RoleDealer, 5, domain.IntentQuotaOverride},
		{"dealer mediated", false, false, domain.RoleDealer, 5, domain.IntentDealerMediated},
		{"dealer role without dealer", false, false, domain.RoleDealer, 0, domain.IntentDirect},
		{"direct salesperson", false, false, domain.RoleDirect, 0, domain.IntentDirect},
		{"direct with dealer attached", false, false, domain.RoleDirect, 5, domain.IntentDirect},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := domain.ResolveIntent(tc.dealerOrder, tc.companyQuota, tc.role, tc.dealerID)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOrder_CollectedAmount(t *testing.T) {
	order := &domain.Order{
		Payments: []domain.Payment{
			{Amount: decimal.NewFromInt(500), Status: domain.PaymentCollected},
			{Amount: decimal.NewFromInt(200), Status: domain.PaymentPending},
			{Amount: decimal.NewFromInt(300), Status: domain.PaymentCollected},
			{Amount: decimal.NewFromInt(100), Status: domain.PaymentRejected},
		},
	}
	assert.True(t, order.CollectedAmount().Equal(decimal.NewFromInt(800)))

	empty := &domain.Order{}
	assert.True(t, empty.CollectedAmount().IsZero())
}
