package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Farmacia-api/internal/application/stats"
)

// StatsHandler maneja los endpoints del dashboard.
type StatsHandler struct {
	uc *stats.DashboardUseCase
}

// NewStatsHandler construye el handler.
func NewStatsHandler(uc *stats.DashboardUseCase) *StatsHandler {
	return &StatsHandler{uc: uc}
}

// Dashboard devuelve las cuatro tarjetas del dashboard con su variación mensual.
// GET /api/stats/dashboard
//
// Respuesta: DashboardStatsDTO (stats[4], period).
// No requiere parámetros; las ventanas mensuales se calculan en el servidor.
func (h *StatsHandler) Dashboard(c *fiber.Ctx) error {
	out, err := h.uc.GetDashboardStats(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
