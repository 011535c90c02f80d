package redemption

import "time"

type Status string

const (
	StatusPending           Status = "PENDING"
	StatusCompleted         Status = "COMPLETED"
	StatusCancelled         Status = "CANCELLED"
	StatusRefunded          Status = "REFUNDED"
	StatusPartiallyRefunded Status = "PARTIALLY_REFUNDED"
)

var statusTransitions = map[Status][]Status{
	StatusPending:           {StatusCompleted, StatusCancelled},
	StatusCompleted:         {StatusRefunded, StatusPartiallyRefunded},
	StatusPartiallyRefunded: {StatusRefunded, StatusPartiallyRefunded},
}

// CanTransitionTo reports whether s -> next is a legal edge of the redeem
// order state machine. CANCELLED and REFUNDED are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

type Product struct {
	ID         string
	ClubID     string
	Name       string
	UnitPoints int64
	Stock      int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Order is a redeem order. UnitPoints and TotalPoints are snapshotted at
// order time so later product price changes never affect refunds.
type Order struct {
	ID               string
	OrderCode        string
	ProductID        string
	ProductName      string
	MembershipID     string
	MemberID         string
	Quantity         int64
	UnitPoints       int64
	TotalPoints      int64
	RefundedQuantity int64
	RefundedPoints   int64
	Status           Status
	ReasonRefund     *string
	CreatedAt        time.Time
	CompletedAt      *time.Time
	UpdatedAt        time.Time
}

// RemainingPoints is the unrefunded part of the order's value.
func (o Order) RemainingPoints() int64 {
	return o.TotalPoints - o.RefundedPoints
}

// RemainingQuantity is the unrefunded part of the order's quantity.
func (o Order) RemainingQuantity() int64 {
	return o.Quantity - o.RefundedQuantity
}
