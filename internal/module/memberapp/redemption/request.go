package redemption

type RedeemRequest struct {
	MembershipID string `json:"membership_id" validate:"required"`
	ProductID    string `json:"product_id" validate:"required"`
	Quantity     int64  `json:"quantity" validate:"required,min=1"`
}
