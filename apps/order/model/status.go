package model

// Status 订单状态
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// transitions is the forward chain. refunded is only reached through the
// payment path or a forced change.
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  nil,
	StatusCancelled:  nil,
	StatusRefunded:   nil,
}

func (s Status) String() string { return string(s) }

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether to is a legal next state.
func (s Status) CanTransitionTo(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s has no outgoing transitions.
func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// Next lists the legal next states.
func (s Status) Next() []Status {
	return append([]Status(nil), transitions[s]...)
}

// Deletable reports whether an order in state s may be removed.
func (s Status) Deletable() bool {
	return s == StatusPending || s == StatusCancelled
}

// HoldsStock reports whether an order moving into s keeps its items out of
// stock, given whether it held them before. Cancelled releases the stock and
// refunded leaves it as it was; every other state holds it.
func (s Status) HoldsStock(held bool) bool {
	switch s {
	case StatusCancelled:
		return false
	case StatusRefunded:
		return held
	default:
		return true
	}
}

// PaymentStatus 支付状态, independent of the order status.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (p PaymentStatus) String() string { return string(p) }

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}
