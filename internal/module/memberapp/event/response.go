package event

import "time"

type GetStatusResponse struct {
	EventID            string        `json:"event_id"`
	Status             Status        `json:"status"`
	DisplayStatus      DisplayStatus `json:"display_status"`
	WindowStart        *time.Time    `json:"window_start,omitempty"`
	WindowEnd          *time.Time    `json:"window_end,omitempty"`
	CanRegister        bool          `json:"can_register"`
	RegistrationStatus *string       `json:"registration_status,omitempty"`
	CanCheckIn         *bool         `json:"can_check_in,omitempty"`
}
