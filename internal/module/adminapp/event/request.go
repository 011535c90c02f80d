package event

type DayRequest struct {
	Date      string `json:"date" validate:"required"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type SubmitEventRequest struct {
	Name            string       `json:"name" validate:"required"`
	Description     string       `json:"description"`
	Date            string       `json:"date"`
	StartTime       string       `json:"start_time"`
	EndTime         string       `json:"end_time"`
	Days            []DayRequest `json:"days" validate:"dive"`
	MaxCheckInCount int64        `json:"max_check_in_count" validate:"required,min=1"`
	CommitPointCost int64        `json:"commit_point_cost" validate:"min=0"`
	BudgetPoints    int64        `json:"budget_points" validate:"min=0"`
}

type ReviewRequest struct {
	Approve *bool  `json:"approve" validate:"required"`
	Reason  string `json:"reason"`
}
