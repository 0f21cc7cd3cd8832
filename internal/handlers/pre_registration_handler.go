package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/visitorlog/visitorlog-backend/internal/middleware"
	"github.com/visitorlog/visitorlog-backend/internal/services"
)

// PreRegistrationHandler handles expected-visitor HTTP requests
type PreRegistrationHandler struct {
	preRegService *services.PreRegistrationService
	logger        *logrus.Logger
}

// NewPreRegistrationHandler creates a new pre-registration handler
func NewPreRegistrationHandler(preRegService *services.PreRegistrationService, logger *logrus.Logger) *PreRegistrationHandler {
	return &PreRegistrationHandler{preRegService: preRegService, logger: logger}
}

// PreRegistrationRequest represents the create/update request body.
// ExpectedVisitDate accepts a plain date (2006-01-02).
type PreRegistrationRequest struct {
	FullName          string `json:"full_name" binding:"required"`
	Purpose           string `json:"purpose" binding:"required"`
	ExpectedVisitDate string `json:"expected_visit_date" binding:"required"`
	HostUserID        int64  `json:"host_user_id"`
	RoomName          string `json:"room_name"`
}

func (r PreRegistrationRequest) toInput(defaultHostID int64) (services.PreRegistrationInput, error) {
	date, err := time.Parse("2006-01-02", r.ExpectedVisitDate)
	if err != nil {
		if date, err = time.Parse(time.RFC3339, r.ExpectedVisitDate); err != nil {
			return services.PreRegistrationInput{}, err
		}
	}

	hostID := r.HostUserID
	if hostID == 0 {
		hostID = defaultHostID
	}

	return services.PreRegistrationInput{
		FullName:          r.FullName,
		Purpose:           r.Purpose,
		ExpectedVisitDate: date,
		HostUserID:        hostID,
		RoomName:          r.RoomName,
	}, nil
}

// Create handles POST /api/v1/pre-registrations. The authenticated
// user becomes the host unless the body names another.
func (h *PreRegistrationHandler) Create(c *gin.Context) {
	var req PreRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "full_name, purpose and expected_visit_date are required")
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	input, err := req.toInput(userCtx.UserID)
	if err != nil {
		respondBadRequest(c, "Invalid expected_visit_date, expected YYYY-MM-DD")
		return
	}

	preReg, err := h.preRegService.Create(input)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"pre_registration_id": preReg.ID,
		"host":                userCtx.Username,
	}).Info("Pre-registration created")

	c.JSON(http.StatusCreated, preReg)
}

// List handles GET /api/v1/pre-registrations. Query parameters narrow
// the listing: pending=true, date=YYYY-MM-DD, host=<id>, search=<term>.
func (h *PreRegistrationHandler) List(c *gin.Context) {
	if term := c.Query("search"); term != "" {
		preRegs, err := h.preRegService.SearchPending(term)
		h.respondList(c, preRegs, err)
		return
	}

	if dateRaw := c.Query("date"); dateRaw != "" {
		date, err := time.Parse("2006-01-02", dateRaw)
		if err != nil {
			respondBadRequest(c, "Invalid date parameter, expected YYYY-MM-DD")
			return
		}
		preRegs, err := h.preRegService.ListPendingByDate(date)
		h.respondList(c, preRegs, err)
		return
	}

	if hostRaw := c.Query("host"); hostRaw != "" {
		hostID := int64(queryInt(c, "host", 0))
		if hostID <= 0 {
			respondBadRequest(c, "Invalid host parameter")
			return
		}
		preRegs, err := h.preRegService.ListByHost(hostID)
		h.respondList(c, preRegs, err)
		return
	}

	if c.Query("pending") == "true" {
		preRegs, err := h.preRegService.ListPending()
		h.respondList(c, preRegs, err)
		return
	}

	preRegs, err := h.preRegService.List()
	h.respondList(c, preRegs, err)
}

func (h *PreRegistrationHandler) respondList(c *gin.Context, preRegs interface{}, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preRegs)
}

// Get handles GET /api/v1/pre-registrations/:id
func (h *PreRegistrationHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	preReg, err := h.preRegService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preReg)
}

// Update handles PUT /api/v1/pre-registrations/:id
func (h *PreRegistrationHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req PreRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "full_name, purpose and expected_visit_date are required")
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	input, err := req.toInput(userCtx.UserID)
	if err != nil {
		respondBadRequest(c, "Invalid expected_visit_date, expected YYYY-MM-DD")
		return
	}

	preReg, err := h.preRegService.Update(id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preReg)
}

// Delete handles DELETE /api/v1/pre-registrations/:id
func (h *PreRegistrationHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.preRegService.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Pre-registration deleted"})
}

// CheckInRequest represents the optional body of a staff check-in
type CheckInRequest struct {
	RoomName string `json:"room_name"`
}

// CheckIn handles POST /api/v1/pre-registrations/:id/check-in
func (h *PreRegistrationHandler) CheckIn(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req CheckInRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "Invalid request body")
			return
		}
	}

	userCtx := middleware.MustGetUserContext(c)
	visit, err := h.preRegService.CheckIn(id, userCtx.UserID, services.CheckInOptions{RoomName: req.RoomName})
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"pre_registration_id": id,
		"room_visit_id":       visit.ID,
		"staff":               userCtx.Username,
	}).Info("Pre-registered visitor checked in")

	c.JSON(http.StatusOK, visit)
}
