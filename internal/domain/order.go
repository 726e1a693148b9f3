package domain

import "time"

type Order struct {
	ID          uint
	UserID      uint
	TotalAmount float64
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Items       []OrderItem
}

const (
	OrderStatusCreated    = "CREATED"
	OrderStatusConfirmed  = "CONFIRMED"
	OrderStatusCancelled  = "CANCELLED"
	OrderStatusCheckedOut = "CHECKED_OUT"
)

// statusTransitions is the full set of legal status edges. A transition is
// legal only if the target appears under the source; terminal statuses have
// no entry at all.
var statusTransitions = map[string][]string{
	OrderStatusCreated:   {OrderStatusConfirmed, OrderStatusCancelled, OrderStatusCheckedOut},
	OrderStatusConfirmed: {OrderStatusCancelled, OrderStatusCheckedOut},
}

// OrderStatuses returns every member of the status enumeration.
func OrderStatuses() []string {
	return []string{
		OrderStatusCreated,
		OrderStatusConfirmed,
		OrderStatusCancelled,
		OrderStatusCheckedOut,
	}
}

func IsValidStatus(status string) bool {
	switch status {
	case OrderStatusCreated, OrderStatusConfirmed, OrderStatusCancelled, OrderStatusCheckedOut:
		return true
	}
	return false
}

// IsTerminalStatus reports whether no further transition is legal from status.
func IsTerminalStatus(status string) bool {
	return status == OrderStatusCancelled || status == OrderStatusCheckedOut
}

// CanTransition reports whether (from, to) is an edge of the transition table.
func CanTransition(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
