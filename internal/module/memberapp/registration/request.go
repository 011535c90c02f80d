package registration

type RegisterRequest struct {
	EventID string `json:"event_id" validate:"required"`
}
