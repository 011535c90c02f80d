package wallet

import "time"

type Meta struct {
	Page  int64 `json:"page"`
	Size  int64 `json:"size"`
	Total int64 `json:"total"`
}

type TransactionResponse struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	Type           Type      `json:"type"`
	Amount         int64     `json:"amount"`
	Description    string    `json:"description"`
	RelatedOrderID string    `json:"related_order_id,omitempty"`
	RelatedEventID string    `json:"related_event_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (r *TransactionResponse) PopulateFromEntity(trx Transaction) {
	r.ID = trx.ID
	r.OwnerID = trx.OwnerID
	r.Type = trx.Type
	r.Amount = trx.Amount
	r.Description = trx.Description
	r.RelatedOrderID = trx.RelatedOrderID
	r.RelatedEventID = trx.RelatedEventID
	r.CreatedAt = trx.CreatedAt
}

type GetHistoryResponse []TransactionResponse
