package registration

import "time"

type RegistrationResponse struct {
	EventID         string    `json:"event_id"`
	MemberID        string    `json:"member_id"`
	Status          Status    `json:"status"`
	CommittedPoints int64     `json:"committed_points"`
	RegisteredAt    time.Time `json:"registered_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (r *RegistrationResponse) PopulateFromEntity(reg Registration) {
	r.EventID = reg.EventID
	r.MemberID = reg.MemberID
	r.Status = reg.Status
	r.CommittedPoints = reg.CommittedPoints
	r.RegisteredAt = reg.RegisteredAt
	r.UpdatedAt = reg.UpdatedAt
}

type GetManyRegistrationResponse []RegistrationResponse
