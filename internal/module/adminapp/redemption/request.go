package redemption

type RefundRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type PartialRefundRequest struct {
	Quantity int64  `json:"quantity" validate:"required"`
	Reason   string `json:"reason" validate:"required"`
}
