package service_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrukshagro/backend-go/internal/domain"
	"github.com/vrukshagro/backend-go/internal/repository/memory"
	"github.com/vrukshagro/backend-go/internal/service"
)

type orderFixture struct {
	store   *memory.Store
	slots   *service.SlotService
	wallets *service.WalletService
	orders  *service.OrderService
	periods []domain.SlotPeriod
}

// newOrderFixture wires the order service over the in-memory store with one
// registered slot of 1000 plants per period.
func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	store := memory.NewStore()
	slots := service.NewSlotService(store, nil)
	wallets := service.NewWalletService(store)

	slot, err := slots.RegisterSlot(context.Background(), 1, 2, 2026, 5, 1000)
	require.NoError(t, err)

	return &orderFixture{
		store:   store,
		slots:   slots,
		wallets: wallets,
		orders:  service.NewOrderService(store, wallets, nil),
		periods: slot.Periods,
	}
}

func (f *orderFixture) directInput(periodID int64, quantity int) service.CreateOrderInput {
	return service.CreateOrderInput{
		FarmerID:        50,
		SalespersonID:   60,
		SalespersonRole: domain.RoleDirect,
		PlantID:         1,
		SubtypeID:       2,
		SlotPeriodID:    periodID,
		Quantity:        quantity,
		Rate:            decimal.NewFromInt(12),
		CreatedBy:       "tester",
	}
}

func (f *orderFixture) periodPlants(t *testing.T, periodID int64) int {
	t.Helper()
	p, err := f.slots.GetPeriod(context.Background(), periodID)
	require.NoError(t, err)
	return p.TotalPlants
}

func TestCreateOrder_DirectReservesFullQuantity(t *testing.T) {
	f := newOrderFixture(t)
	periodID := f.periods[0].ID

	order, err := f.orders.Create(context.Background(), f.directInput(periodID, 300))
	require.NoError(t, err)

	assert.Equal(t, domain.IntentDirect, order.Intent)
	assert.Equal(t, domain.OrderPending, order.Status)
	assert.Equal(t, int64(1), order.OrderNumber)
	assert.Equal(t, 0, order.FromWallet)
	assert.Equal(t, 300, order.FromSlot)
	assert.Equal(t, 300, order.Remaining)
	assert.Equal(t, 700, f.periodPlants(t, periodID))
}

func TestCreateOrder_NumbersAreSequential(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	first, err := f.orders.Create(ctx, f.directInput(f.periods[0].ID, 10))
	require.NoError(t, err)
	second, err := f.orders.Create(ctx, f.directInput(f.periods[1].ID, 10))
	require.NoError(t, err)

	assert.Equal(t, first.OrderNumber+1, second.OrderNumber)
}

func TestCreateOrder_DealerMediatedSplitsAcrossWalletAndSlot(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	periodID := f.periods[0].ID

	seeded := domain.NewDealerWallet(20)
	seeded.CreditStock(1, 2, periodID, 400)
	_, err := f.store.SaveWallet(ctx, seeded)
	require.NoError(t, err)

	in := f.directInput(periodID, 600)
	in.DealerID = 20
	in.SalespersonRole = domain.RoleDealer
	order, err := f.orders.Create(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, domain.IntentDealerMediated, order.Intent)
	assert.Equal(t, 400, order.FromWallet)
	assert.Equal(t, 200, order.FromSlot)
	assert.Equal(t, order.Quantity, order.FromWallet+order.FromSlot)

	// Only the slot share hits the capacity ledger.
	assert.Equal(t, 800, f.periodPlants(t, periodID))

	wallet, err := f.wallets.GetWallet(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, 400, wallet.Entries[0].BookedQuantity)
	assert.Equal(t, 0, wallet.Entries[0].RemainingQuantity)
}

func TestCreateOrder_SelfStockCreditsWallet(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	periodID := f.periods[0].ID

	in := f.directInput(periodID, 250)
	in.DealerID = 21
	in.DealerOrder = true
	order, err := f.orders.Create(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, domain.IntentSelfStock, order.Intent)
	assert.Equal(t, 250, order.FromSlot)
	assert.Equal(t, 750, f.periodPlants(t, periodID))

	wallet, err := f.wallets.GetWallet(ctx, 21)
	require.NoError(t, err)
	require.Len(t, wallet.Entries, 1)
	assert.Equal(t, 250, wallet.Entries[0].Quantity)
	assert.Equal(t, 250, wallet.Entries[0].RemainingQuantity)
}

func TestCreateOrder_SelfStockWithoutDealerRejected(t *testing.T) {
	f := newOrderFixture(t)

	in := f.directInput(f.periods[0].ID, 100)
	in.DealerOrder = true
	_, err := f.orders.Create(context.Background(), in)

	var missing *domain.MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "dealer", missing.Field)
}

func TestCreateOrder_QuotaOverrideBypassesWallet(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	periodID := f.periods[0].ID

	seeded := domain.NewDealerWallet(22)
	seeded.CreditStock(1, 2, periodID, 400)
	_, err := f.store.SaveWallet(ctx, seeded)
	require.NoError(t, err)

	in := f.directInput(periodID, 300)
	in.DealerID = 22
	in.SalespersonRole = domain.RoleDealer
	in.CompanyQuota = true
	order, err := f.orders.Create(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, domain.IntentQuotaOverride, order.Intent)
	assert.Equal(t, 0, order.FromWallet)
	assert.Equal(t, 300, order.FromSlot)
	assert.Equal(t, 700, f.periodPlants(t, periodID))

	wallet, err := f.wallets.GetWallet(ctx, 22)
	require.NoError(t, err)
	assert.Equal(t, 0, wallet.Entries[0].BookedQuantity)
}

func TestCreateOrder_InsufficientCapacityLeavesNothingBehind(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	periodID := f.periods[0].ID

	seeded := domain.NewDealerWallet(23)
	seeded.CreditStock(1, 2, periodID, 100)
	_, err := f.store.SaveWallet(ctx, seeded)
	require.NoError(t, err)

	// 100 covered by the wallet, 1100 against 1000 slot capacity.
	in := f.directInput(periodID, 1200)
	in.DealerID = 23
	in.SalespersonRole = domain.RoleDealer
	_, err = f.orders.Create(ctx, in)
	require.ErrorIs(t, err, domain.ErrInsufficientCapacity)

	// No order, no slot movement, no wallet booking.
	_, err = f.orders.Get(ctx, 1)
	assert.True(t, domain.IsNotFound(err))
	assert.Equal(t, 1000, f.periodPlants(t, periodID))
	wallet, err := f.wallets.GetWallet(ctx, 23)
	require.NoError(t, err)
	assert.Equal(t, 0, wallet.Entries[0].BookedQuantity)
}

func TestCreateOrder_MissingFields(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*service.CreateOrderInput)
		field  string
	}{
		{"no slot", func(in *service.CreateOrderInput) { in.SlotPeriodID = 0 }, "booking_slot"},
		{"no plant", func(in *service.CreateOrderInput) { in.PlantID = 0 }, "plant"},
		{"no subtype", func(in *service.CreateOrderInput) { in.SubtypeID = 0 }, "plant_subtype"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := f.directInput(f.periods[0].ID, 100)
			tc.mutate(&in)
			_, err := f.orders.Create(ctx, in)
			var missing *domain.MissingFieldError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tc.field, missing.Field)
		})
	}
}

func TestUpdateOrder_SlotChangeMovesReservation(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	oldPeriod, newPeriod := f.periods[0].ID, f.periods[1].ID

	order, err := f.orders.Create(ctx, f.directInput(oldPeriod, 300))
	require.NoError(t, err)

	updated, err := f.orders.Update(ctx, order.ID, service.UpdateOrderInput{
		SlotPeriodID: &newPeriod,
		Reason:       "farmer postponed",
		ChangedBy:    "tester",
	})
	require.NoError(t, err)

	assert.Equal(t, newPeriod, updated.SlotPeriodID)
	assert.Equal(t, 1000, f.periodPlants(t, oldPeriod))
	assert.Equal(t, 700, f.periodPlants(t, newPeriod))

	require.Len(t, updated.DeliveryHistory, 1)
	assert.Equal(t, oldPeriod, updated.DeliveryHistory[0].PreviousPeriodID)
	assert.Equal(t, newPeriod, updated.DeliveryHistory[0].NewPeriodID)
	assert.Equal(t, "farmer postponed", updated.DeliveryHistory[0].Reason)
}

func TestUpdateOrder_QuantityChangeAdjustsReservation(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	periodID := f.periods[0].ID

	order, err := f.orders.Create(ctx, f.directInput(periodID, 300))
	require.NoError(t, err)

	quantity := 450
	updated, err := f.orders.Update(ctx, order.ID, service.UpdateOrderInput{
		Quantity:  &quantity,
		ChangedBy: "tester",
	})
	require.NoError(t, err)

	assert.Equal(t, 450, updated.Quantity)
	assert.Equal(t, 450, updated.Remaining)
	assert.Equal(t, 550, f.periodPlants(t, periodID))
	assert.Empty(t, updated.DeliveryHistory)
}

func TestUpdateOrder_StaleVersionConflicts(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.orders.Create(ctx, f.directInput(f.periods[0].ID, 100))
	require.NoError(t, err)

	stale, err := f.store.GetOrder(ctx, order.ID)
	require.NoError(t, err)

	_, err = f.orders.AddPayment(ctx, order.ID, decimal.NewFromInt(500), "cash", "tester", domain.PaymentCollected)
	require.NoError(t, err)

	_, err = f.store.UpdateOrder(ctx, stale, nil)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCancelOrder_DirectRestoresCapacity(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	periodID := f.periods[0].ID

	order, err := f.orders.Create(ctx, f.directInput(periodID, 300))
	require.NoError(t, err)

	cancelled, err := f.orders.Cancel(ctx, order.ID, "farmer withdrew", "tester")
	require.NoError(t, err)

	assert.Equal(t, domain.OrderCancelled, cancelled.Status)
	assert.Equal(t, 1000, f.periodPlants(t, periodID))
	require.Len(t, cancelled.StatusHistory, 1)
	assert.Equal(t, domain.OrderPending, cancelled.StatusHistory[0].Previous)
	assert.Equal(t, domain.OrderCancelled, cancelled.StatusHistory[0].New)

	// Terminal orders admit no further edits.
	quantity := 50
	_, err = f.orders.Update(ctx, order.ID, service.UpdateOrderInput{Quantity: &quantity})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCancelOrder_DealerMediatedReleasesBookingAndLedger(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	periodID := f.periods[0].ID

	seeded := domain.NewDealerWallet(24)
	seeded.CreditStock(1, 2, periodID, 400)
	_, err := f.store.SaveWallet(ctx, seeded)
	require.NoError(t, err)

	in := f.directInput(periodID, 600)
	in.DealerID = 24
	in.SalespersonRole = domain.RoleDealer
	order, err := f.orders.Create(ctx, in)
	require.NoError(t, err)

	_, err = f.orders.AddPayment(ctx, order.ID, decimal.NewFromInt(1200), "upi", "tester", domain.PaymentCollected)
	require.NoError(t, err)

	_, err = f.orders.Cancel(ctx, order.ID, "dealer default", "tester")
	require.NoError(t, err)

	assert.Equal(t, 1000, f.periodPlants(t, periodID))

	wallet, err := f.wallets.GetWallet(ctx, 24)
	require.NoError(t, err)
	assert.Equal(t, 0, wallet.Entries[0].BookedQuantity)
	assert.Equal(t, 400, wallet.Entries[0].RemainingQuantity)

	// The collected amount is reconciled as an INVENTORY_RELEASE row.
	require.Len(t, wallet.Transactions, 1)
	assert.Equal(t, domain.TxInventoryRelease, wallet.Transactions[0].Type)
	assert.True(t, wallet.Transactions[0].Amount.Equal(decimal.NewFromInt(1200)))
}

func TestCancelOrder_SelfStockRemovesCreditedStock(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	periodID := f.periods[0].ID

	in := f.directInput(periodID, 250)
	in.DealerID = 25
	in.DealerOrder = true
	order, err := f.orders.Create(ctx, in)
	require.NoError(t, err)

	_, err = f.orders.Cancel(ctx, order.ID, "stock order withdrawn", "tester")
	require.NoError(t, err)

	assert.Equal(t, 1000, f.periodPlants(t, periodID))
	wallet, err := f.wallets.GetWallet(ctx, 25)
	require.NoError(t, err)
	assert.Equal(t, 0, wallet.Entries[0].Quantity)
	assert.Equal(t, 0, wallet.Entries[0].RemainingQuantity)
}

func TestChangeStatus_FollowsStateMachine(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.orders.Create(ctx, f.directInput(f.periods[0].ID, 100))
	require.NoError(t, err)

	for _, status := range []domain.OrderStatus{
		domain.OrderProcessing, domain.OrderAccepted, domain.OrderFarmReady,
		domain.OrderDispatchProcess, domain.OrderCompleted,
	} {
		_, err = f.orders.ChangeStatus(ctx, order.ID, status, "", "tester")
		require.NoError(t, err, "transition to %s", status)
	}

	final, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCompleted, final.Status)
	assert.Len(t, final.StatusHistory, 5)

	// Completed orders reserve their capacity for good.
	assert.Equal(t, 900, f.periodPlants(t, f.periods[0].ID))
}

func TestChangeStatus_IllegalTransitionRejected(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.orders.Create(ctx, f.directInput(f.periods[0].ID, 100))
	require.NoError(t, err)

	_, err = f.orders.ChangeStatus(ctx, order.ID, domain.OrderCompleted, "", "tester")
	assert.ErrorIs(t, err, domain.ErrValidation)

	// Cancellation past dispatch is not allowed.
	_, err = f.orders.ChangeStatus(ctx, order.ID, domain.OrderDispatchProcess, "", "tester")
	require.NoError(t, err)
	_, err = f.orders.Cancel(ctx, order.ID, "", "tester")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAddPayment_AppendsToOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.orders.Create(ctx, f.directInput(f.periods[0].ID, 100))
	require.NoError(t, err)

	updated, err := f.orders.AddPayment(ctx, order.ID, decimal.NewFromInt(700), "cash", "field-officer", "")
	require.NoError(t, err)
	updated, err = f.orders.AddPayment(ctx, updated.ID, decimal.NewFromInt(300), "upi", "field-officer", domain.PaymentPending)
	require.NoError(t, err)

	require.Len(t, updated.Payments, 2)
	assert.Equal(t, domain.PaymentCollected, updated.Payments[0].Status)
	assert.Equal(t, domain.PaymentPending, updated.Payments[1].Status)
	assert.True(t, updated.CollectedAmount().Equal(decimal.NewFromInt(700)))

	_, err = f.orders.AddPayment(ctx, order.ID, decimal.Zero, "cash", "tester", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
