package event

import (
	"time"

	memberevent "github.com/uniclub/uc-points/internal/module/memberapp/event"
)

type DayResponse struct {
	Date      time.Time `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
}

type EventResponse struct {
	ID                  string             `json:"id"`
	HostClubID          string             `json:"host_club_id"`
	Name                string             `json:"name"`
	Description         string             `json:"description"`
	Status              memberevent.Status `json:"status"`
	Date                *time.Time         `json:"date,omitempty"`
	StartTime           string             `json:"start_time,omitempty"`
	EndTime             string             `json:"end_time,omitempty"`
	Days                []DayResponse      `json:"days,omitempty"`
	MaxCheckInCount     int64              `json:"max_check_in_count"`
	CurrentCheckInCount int64              `json:"current_check_in_count"`
	CommitPointCost     int64              `json:"commit_point_cost"`
	BudgetPoints        int64              `json:"budget_points"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

func (r *EventResponse) PopulateFromEntity(e memberevent.Event) {
	r.ID = e.ID
	r.HostClubID = e.HostClubID
	r.Name = e.Name
	r.Description = e.Description
	r.Status = e.Status
	r.Date = e.Date
	r.StartTime = e.StartTime
	r.EndTime = e.EndTime
	r.MaxCheckInCount = e.MaxCheckInCount
	r.CurrentCheckInCount = e.CurrentCheckInCount
	r.CommitPointCost = e.CommitPointCost
	r.BudgetPoints = e.BudgetPoints
	r.CreatedAt = e.CreatedAt
	r.UpdatedAt = e.UpdatedAt

	for _, d := range e.Days {
		r.Days = append(r.Days, DayResponse{
			Date:      d.Date,
			StartTime: d.StartTime,
			EndTime:   d.EndTime,
		})
	}
}

type SettlementResponse struct {
	EventID        string `json:"event_id"`
	Rewarded       int64  `json:"rewarded"`
	NoShow         int64  `json:"no_show"`
	Failed         int64  `json:"failed"`
	ReturnedBudget int64  `json:"returned_budget"`
}
