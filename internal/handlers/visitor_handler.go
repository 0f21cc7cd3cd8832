package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/visitorlog/visitorlog-backend/internal/middleware"
	"github.com/visitorlog/visitorlog-backend/internal/services"
)

// VisitorHandler handles visitor sign-in/sign-out HTTP requests
type VisitorHandler struct {
	visitorService *services.VisitorService
	logger         *logrus.Logger
}

// NewVisitorHandler creates a new visitor handler
func NewVisitorHandler(visitorService *services.VisitorService, logger *logrus.Logger) *VisitorHandler {
	return &VisitorHandler{visitorService: visitorService, logger: logger}
}

// VisitorRequest represents the visitor create/update request body
type VisitorRequest struct {
	FullName      string `json:"full_name" binding:"required"`
	Purpose       string `json:"purpose" binding:"required"`
	ContactNumber string `json:"contact_number"`
	Email         string `json:"email"`
}

func (r VisitorRequest) toInput() services.VisitorInput {
	return services.VisitorInput{
		FullName:      r.FullName,
		Purpose:       r.Purpose,
		ContactNumber: r.ContactNumber,
		Email:         r.Email,
	}
}

// Create handles POST /api/v1/visitors. A returning visitor with a
// known email is refreshed instead of duplicated.
func (h *VisitorHandler) Create(c *gin.Context) {
	var req VisitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "full_name and purpose are required")
		return
	}

	visitor, err := h.visitorService.FindOrCreateByEmail(req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	h.logger.WithFields(logrus.Fields{
		"visitor_id": visitor.ID,
		"staff":      userCtx.Username,
	}).Info("Visitor signed in")

	c.JSON(http.StatusCreated, visitor)
}

// List handles GET /api/v1/visitors
func (h *VisitorHandler) List(c *gin.Context) {
	visitors, err := h.visitorService.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, visitors)
}

// Get handles GET /api/v1/visitors/:id
func (h *VisitorHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	visitor, err := h.visitorService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, visitor)
}

// Update handles PUT /api/v1/visitors/:id. Check-in and check-out
// timestamps are not editable through this endpoint.
func (h *VisitorHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req VisitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "full_name and purpose are required")
		return
	}

	visitor, err := h.visitorService.Update(id, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, visitor)
}

// Delete handles DELETE /api/v1/visitors/:id
func (h *VisitorHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.visitorService.Delete(id); err != nil {
		respondError(c, err)
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	h.logger.WithFields(logrus.Fields{
		"visitor_id": id,
		"admin":      userCtx.Username,
	}).Info("Visitor record deleted")

	c.JSON(http.StatusOK, gin.H{"message": "Visitor deleted"})
}

// CheckOut handles POST /api/v1/visitors/:id/checkout
func (h *VisitorHandler) CheckOut(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.visitorService.CheckOut(id); err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithField("visitor_id", id).Info("Visitor checked out")
	c.JSON(http.StatusOK, gin.H{"message": "Visitor checked out"})
}
