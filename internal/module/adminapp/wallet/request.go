package wallet

type DepositRequest struct {
	ClubID    string `json:"club_id" validate:"required"`
	Amount    int64  `json:"amount" validate:"required,min=1"`
	Reference string `json:"reference" validate:"required"`
}

type GrantRequest struct {
	MemberID  string `json:"member_id" validate:"required"`
	Amount    int64  `json:"amount" validate:"required,min=1"`
	Reference string `json:"reference" validate:"required"`
}
