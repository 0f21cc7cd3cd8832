package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/visitorlog/visitorlog-backend/internal/services"
)

// DashboardHandler serves the reception dashboard aggregates
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Summary handles GET /api/v1/dashboard/summary
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.dashboardService.Summary()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// VisitorsPerDay handles GET /api/v1/dashboard/charts/visitors-per-day
func (h *DashboardHandler) VisitorsPerDay(c *gin.Context) {
	days := queryInt(c, "days", 7)

	chart, err := h.dashboardService.VisitorsPerDay(days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chart)
}

// VisitorStatus handles GET /api/v1/dashboard/charts/visitor-status
func (h *DashboardHandler) VisitorStatus(c *gin.Context) {
	chart, err := h.dashboardService.VisitorStatus()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chart)
}

// TopRooms handles GET /api/v1/dashboard/charts/top-rooms
func (h *DashboardHandler) TopRooms(c *gin.Context) {
	top := queryInt(c, "top", 5)
	days := queryInt(c, "days", 7)

	chart, err := h.dashboardService.TopRooms(top, days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chart)
}
