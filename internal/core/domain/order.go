package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusReady          OrderStatus = "ready"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// transitions is the allowed order lifecycle. Cancellation is only reachable
// from pending and confirmed.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:        {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:      {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing:      {OrderStatusReady},
	OrderStatusReady:          {OrderStatusOutForDelivery},
	OrderStatusOutForDelivery: {OrderStatusDelivered},
}

// ValidOrderStatus reports whether s names a known order status.
func ValidOrderStatus(s string) bool {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReady, OrderStatusOutForDelivery, OrderStatusDelivered,
		OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether an order in status from may move to status to.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Order struct {
	ID               string
	UserID           string
	Status           OrderStatus
	TotalAmountCents int64
	Items            []OrderItem
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OrderItem snapshots the listing's unit price at purchase time; later price
// edits on the listing do not change past orders.
type OrderItem struct {
	ID             string
	OrderID        string
	ListingID      string
	Quantity       int
	UnitPriceCents int64
	TotalCents     int64
}
