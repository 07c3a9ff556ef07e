package model

// Metrics is the dashboard read model. It is a pure fold over a request
// snapshot; identical input yields identical output.
type Metrics struct {
	TotalCount             int             `json:"total_count"`
	PendingCount           int             `json:"pending_count"`
	AcceptedCount          int             `json:"accepted_count"`
	CompletedCount         int             `json:"completed_count"`
	CancelledCount         int             `json:"cancelled_count"`
	SuccessRate            float64         `json:"success_rate"`
	AvgHandlingTimeMinutes int             `json:"avg_handling_time_minutes"`
	SuccessRateByDay       []DaySuccess    `json:"success_rate_by_day"`
	RequestsByHour         map[int]int     `json:"requests_by_hour"`
	RequestsByDepartment   map[string]int  `json:"requests_by_department"`
	RequestsByLanguage     map[string]int  `json:"requests_by_language"`
	StaffSummaries         []StaffActivity `json:"staff_summaries"`
}

// DaySuccess is one point of the per-day success-rate series, keyed by
// the request date in YYYY-MM-DD form and sorted ascending.
type DaySuccess struct {
	Date        string  `json:"date"`
	Total       int     `json:"total"`
	Completed   int     `json:"completed"`
	SuccessRate float64 `json:"success_rate"`
}

// StaffActivity summarizes one assignee's workload within the snapshot.
type StaffActivity struct {
	AssigneeID   string `json:"assignee_id"`
	AssigneeName string `json:"assignee_name"`
	Handled      int    `json:"handled"`
	Finished     int    `json:"finished"`
}
