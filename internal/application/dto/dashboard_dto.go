package dto

// StatCardDTO tarjeta del dashboard.
type StatCardDTO struct {
	Title  string `json:"title"`
	Value  string `json:"value"`
	Change string `json:"change"`
	Trend  string `json:"trend"` // "up" | "down"
	Color  string `json:"color"`
}

// DashboardStatsDTO respuesta de GET /api/stats/dashboard.
type DashboardStatsDTO struct {
	Stats  []StatCardDTO `json:"stats"`
	Period string        `json:"period,omitempty"` // ej: "Octubre 2026"
}
