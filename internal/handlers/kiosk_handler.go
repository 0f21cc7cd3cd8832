package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/visitorlog/visitorlog-backend/internal/services"
	"github.com/visitorlog/visitorlog-backend/internal/utils"
)

// kioskSystemUserID is the seeded account that self-service check-ins
// are attributed to.
const kioskSystemUserID int64 = 1

// KioskHandler serves the unauthenticated self-service kiosk.
// Pre-registered visitors identify themselves by the exact name their
// host registered; anyone else comes in through the walk-in flow.
type KioskHandler struct {
	preRegService    *services.PreRegistrationService
	visitorService   *services.VisitorService
	roomVisitService *services.RoomVisitService
	audit            *services.AuditService
	logger           *logrus.Logger
}

// NewKioskHandler creates a new kiosk handler. audit may be nil.
func NewKioskHandler(
	preRegService *services.PreRegistrationService,
	visitorService *services.VisitorService,
	roomVisitService *services.RoomVisitService,
	audit *services.AuditService,
	logger *logrus.Logger,
) *KioskHandler {
	return &KioskHandler{
		preRegService:    preRegService,
		visitorService:   visitorService,
		roomVisitService: roomVisitService,
		audit:            audit,
		logger:           logger,
	}
}

// KioskLookupRequest represents the kiosk name lookup body
type KioskLookupRequest struct {
	FullName string `json:"full_name" binding:"required"`
}

// Lookup handles POST /api/v1/kiosk/lookup. It finds today's pending
// pre-registration matching the given name.
func (h *KioskHandler) Lookup(c *gin.Context) {
	var req KioskLookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "full_name is required")
		return
	}

	preReg, err := h.preRegService.FindTodaysPendingByName(req.FullName)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            preReg.ID,
		"full_name":     preReg.FullName,
		"purpose":       preReg.Purpose,
		"host_username": preReg.HostUsername,
		"room_name":     preReg.RoomName,
	})
}

// KioskCheckInRequest represents the kiosk check-in body. Contact
// fields are optional; when given they are stored on the visitor
// record, which pre-registration alone does not capture.
type KioskCheckInRequest struct {
	FullName      string `json:"full_name" binding:"required"`
	RoomName      string `json:"room_name"`
	ContactNumber string `json:"contact_number"`
	Email         string `json:"email"`
}

// CheckIn handles POST /api/v1/kiosk/check-in. The visitor types their
// name exactly as registered; a matching pending pre-registration for
// today is checked in under the kiosk system account.
func (h *KioskHandler) CheckIn(c *gin.Context) {
	var req KioskCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "full_name is required")
		return
	}

	preReg, err := h.preRegService.FindTodaysPendingByName(req.FullName)
	if err != nil {
		respondError(c, err)
		return
	}

	visit, err := h.preRegService.CheckIn(preReg.ID, kioskSystemUserID, services.CheckInOptions{
		RoomName:      req.RoomName,
		ContactNumber: req.ContactNumber,
		Email:         req.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if h.audit != nil {
		if auditErr := h.audit.LogKioskCheckIn(preReg.ID, preReg.FullName, utils.ClientIP(c), c.Request.UserAgent()); auditErr != nil {
			h.logger.WithError(auditErr).Warn("Failed to audit kiosk check-in")
		}
	}

	h.logger.WithFields(logrus.Fields{
		"pre_registration_id": preReg.ID,
		"room":                visit.RoomName,
		"ip":                  c.ClientIP(),
	}).Info("Kiosk check-in completed")

	c.JSON(http.StatusOK, gin.H{
		"message":   "Welcome, " + preReg.FullName,
		"room_name": visit.RoomName,
	})
}

// KioskWalkInRequest represents the kiosk walk-in body
type KioskWalkInRequest struct {
	FullName      string `json:"full_name" binding:"required"`
	Purpose       string `json:"purpose" binding:"required"`
	ContactNumber string `json:"contact_number"`
	Email         string `json:"email"`
	RoomName      string `json:"room_name"`
}

// WalkIn handles POST /api/v1/kiosk/walk-in. A visitor without a
// pre-registration signs themselves in: their visitor record is
// resolved by email (or created fresh) and a room entry is recorded
// for the chosen room.
func (h *KioskHandler) WalkIn(c *gin.Context) {
	var req KioskWalkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "full_name and purpose are required")
		return
	}

	visitor, err := h.visitorService.FindOrCreateByEmail(services.VisitorInput{
		FullName:      req.FullName,
		Purpose:       req.Purpose,
		ContactNumber: req.ContactNumber,
		Email:         req.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	roomName := strings.TrimSpace(req.RoomName)
	if roomName == "" {
		roomName = services.DefaultRoomName
	}

	visit, err := h.roomVisitService.RecordEntry(visitor.ID, roomName, req.Purpose)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.audit != nil {
		if auditErr := h.audit.LogKioskWalkIn(visitor.ID, visitor.FullName, utils.ClientIP(c), c.Request.UserAgent()); auditErr != nil {
			h.logger.WithError(auditErr).Warn("Failed to audit kiosk walk-in")
		}
	}

	h.logger.WithFields(logrus.Fields{
		"visitor_id": visitor.ID,
		"room":       visit.RoomName,
		"ip":         c.ClientIP(),
	}).Info("Kiosk walk-in completed")

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Welcome, " + visitor.FullName,
		"visitor_id": visitor.ID,
		"room_name":  visit.RoomName,
	})
}
