package wallet

import (
	"time"

	memberwallet "github.com/uniclub/uc-points/internal/module/memberapp/wallet"
)

type TransactionResponse struct {
	ID             string            `json:"id"`
	OwnerID        string            `json:"owner_id"`
	Type           memberwallet.Type `json:"type"`
	Amount         int64             `json:"amount"`
	Description    string            `json:"description"`
	RelatedOrderID string            `json:"related_order_id,omitempty"`
	RelatedEventID string            `json:"related_event_id,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

func (r *TransactionResponse) PopulateFromEntity(t memberwallet.Transaction) {
	r.ID = t.ID
	r.OwnerID = t.OwnerID
	r.Type = t.Type
	r.Amount = t.Amount
	r.Description = t.Description
	r.RelatedOrderID = t.RelatedOrderID
	r.RelatedEventID = t.RelatedEventID
	r.CreatedAt = t.CreatedAt
}

type BalanceResponse struct {
	OwnerID string `json:"owner_id"`
	Balance int64  `json:"balance"`
}
