package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending         OrderStatus = "PENDING"
	OrderProcessing      OrderStatus = "PROCESSING"
	OrderAccepted        OrderStatus = "ACCEPTED"
	OrderRejected        OrderStatus = "REJECTED"
	OrderFarmReady       OrderStatus = "FARM_READY"
	OrderDispatchProcess OrderStatus = "DISPATCH_PROCESS"
	OrderCompleted       OrderStatus = "COMPLETED"
	OrderDispatched      OrderStatus = "DISPATCHED"
	OrderCancelled       OrderStatus = "CANCELLED"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:         {OrderProcessing, OrderAccepted, OrderRejected, OrderFarmReady, OrderCancelled},
	OrderProcessing:      {OrderAccepted, OrderRejected, OrderFarmReady, OrderDispatchProcess, OrderCancelled},
	OrderAccepted:        {OrderFarmReady, OrderDispatchProcess, OrderCancelled},
	OrderFarmReady:       {OrderDispatchProcess, OrderCancelled},
	OrderDispatchProcess: {OrderCompleted, OrderDispatched},
	OrderCompleted:       {},
	OrderDispatched:      {},
	OrderRejected:        {},
	OrderCancelled:       {},
}

// CanTransition reports whether an order may move from one status to
// another. CANCELLED is reachable from every pre-dispatch state.
func CanTransition(from, to OrderStatus) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

// PaymentStatus is the collection state of one order payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCollected PaymentStatus = "COLLECTED"
	PaymentRejected  PaymentStatus = "REJECTED"
)

// Payment is one monetary collection against an order.
type Payment struct {
	Amount      decimal.Decimal `json:"amount"`
	Status      PaymentStatus   `json:"status"`
	Mode        string          `json:"mode,omitempty"`
	CollectedBy string          `json:"collected_by,omitempty"`
	CollectedAt time.Time       `json:"collected_at,omitempty"`
}

// StatusChange is one immutable row of the order's status history.
type StatusChange struct {
	Previous  OrderStatus `json:"previous_status"`
	New       OrderStatus `json:"new_status"`
	Reason    string      `json:"reason,omitempty"`
	ChangedBy string      `json:"changed_by"`
	ChangedAt time.Time   `json:"changed_at"`
}

// DeliveryChange records a booking-slot move.
type DeliveryChange struct {
	PreviousPeriodID int64     `json:"previous_period_id"`
	NewPeriodID      int64     `json:"new_period_id"`
	Reason           string    `json:"reason,omitempty"`
	ChangedBy        string    `json:"changed_by"`
	ChangedAt        time.Time `json:"changed_at"`
}

// AllocationIntent is the closed set of order-routing decisions. The intent
// decides whether demand is satisfied from slot capacity, a dealer wallet,
// or a blend of both.
type AllocationIntent string

const (
	// IntentDirect is a plain farmer order via a direct salesperson; the
	// full quantity reserves slot capacity.
	IntentDirect AllocationIntent = "direct"
	// IntentDealerMediated is a farmer order routed through a dealer;
	// wallet stock is consumed first, the remainder reserves slot capacity.
	IntentDealerMediated AllocationIntent = "dealer_mediated"
	// IntentSelfStock is a dealer building stock for themselves; slot
	// capacity is reserved and the wallet entry credited.
	IntentSelfStock AllocationIntent = "self_stock"
	// IntentQuotaOverride is a dealer order under company quota; slot
	// capacity is reserved directly, bypassing the wallet.
	IntentQuotaOverride AllocationIntent = "quota_override"
)

// ResolveIntent maps order flags and the salesperson's role onto an
// allocation intent.
func ResolveIntent(dealerOrder, companyQuota bool, salespersonRole string, dealerID int64) AllocationIntent {
	switch {
	case dealerOrder:
		return IntentSelfStock
	case companyQuota:
		return IntentQuotaOverride
	case salespersonRole == RoleDealer && dealerID != 0:
		return IntentDealerMediated
	default:
		return IntentDirect
	}
}

// Salesperson roles recognized by order routing.
const (
	RoleDealer = "dealer"
	RoleDirect = "direct"
)

// Order is one customer request for plants in a delivery period.
type Order struct {
	ID              int64            `json:"id"`
	OrderNumber     int64            `json:"order_number"`
	FarmerID        int64            `json:"farmer_id,omitempty"`
	DealerID        int64            `json:"dealer_id,omitempty"`
	SalespersonID   int64            `json:"salesperson_id"`
	PlantID         int64            `json:"plant_id"`
	SubtypeID       int64            `json:"subtype_id"`
	SlotPeriodID    int64            `json:"slot_period_id"`
	Quantity        int              `json:"quantity"`
	Remaining       int              `json:"remaining"`
	Rate            decimal.Decimal  `json:"rate"`
	FromWallet      int              `json:"from_wallet"`
	FromSlot        int              `json:"from_slot"`
	Intent          AllocationIntent `json:"intent"`
	CompanyQuota    bool             `json:"company_quota"`
	DealerOrder     bool             `json:"dealer_order"`
	Status          OrderStatus      `json:"order_status"`
	Payments        []Payment        `json:"payments,omitempty"`
	StatusHistory   []StatusChange   `json:"status_history,omitempty"`
	DeliveryHistory []DeliveryChange `json:"delivery_history,omitempty"`
	Version         int64            `json:"version"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// ChangeStatus applies a state-machine transition and appends the history
// record. The history is append-only; entries are never rewritten.
func (o *Order) ChangeStatus(to OrderStatus, reason, changedBy string) error {
	if !CanTransition(o.Status, to) {
		return ErrValidation
	}
	o.StatusHistory = append(o.StatusHistory, StatusChange{
		Previous:  o.Status,
		New:       to,
		Reason:    reason,
		ChangedBy: changedBy,
		ChangedAt: time.Now().UTC(),
	})
	o.Status = to
	return nil
}

// CollectedAmount sums the order's collected payments.
func (o *Order) CollectedAmount() decimal.Decimal {
	total := decimal.Zero
	for _, p := range o.Payments {
		if p.Status == PaymentCollected {
			total = total.Add(p.Amount)
		}
	}
	return total
}
