package redemption

import "time"

type OrderResponse struct {
	ID               string     `json:"id"`
	OrderCode        string     `json:"order_code"`
	ProductID        string     `json:"product_id"`
	ProductName      string     `json:"product_name"`
	MembershipID     string     `json:"membership_id"`
	MemberID         string     `json:"member_id"`
	Quantity         int64      `json:"quantity"`
	UnitPoints       int64      `json:"unit_points"`
	TotalPoints      int64      `json:"total_points"`
	RefundedQuantity int64      `json:"refunded_quantity"`
	RefundedPoints   int64      `json:"refunded_points"`
	Status           Status     `json:"status"`
	ReasonRefund     *string    `json:"reason_refund,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (r *OrderResponse) PopulateFromEntity(o Order) {
	r.ID = o.ID
	r.OrderCode = o.OrderCode
	r.ProductID = o.ProductID
	r.ProductName = o.ProductName
	r.MembershipID = o.MembershipID
	r.MemberID = o.MemberID
	r.Quantity = o.Quantity
	r.UnitPoints = o.UnitPoints
	r.TotalPoints = o.TotalPoints
	r.RefundedQuantity = o.RefundedQuantity
	r.RefundedPoints = o.RefundedPoints
	r.Status = o.Status
	r.ReasonRefund = o.ReasonRefund
	r.CreatedAt = o.CreatedAt
	r.CompletedAt = o.CompletedAt
	r.UpdatedAt = o.UpdatedAt
}

type GetManyOrderResponse []OrderResponse
