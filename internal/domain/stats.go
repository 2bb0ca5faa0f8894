package domain

// DashboardStats is the aggregate shown on the admin and volunteer dashboards.
type DashboardStats struct {
	TotalAdmins     int64   `json:"totalAdmins"`
	TotalVolunteers int64   `json:"totalVolunteers"`
	TotalDonors     int64   `json:"totalDonors"`
	TotalRequests   int64   `json:"totalRequests"`
	TotalFunding    float64 `json:"totalFunding"`
}
