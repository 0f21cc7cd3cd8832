package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/visitorlog/visitorlog-backend/internal/services"
)

// RoomVisitHandler handles room movement HTTP requests
type RoomVisitHandler struct {
	roomVisitService *services.RoomVisitService
	logger           *logrus.Logger
}

// NewRoomVisitHandler creates a new room visit handler
func NewRoomVisitHandler(roomVisitService *services.RoomVisitService, logger *logrus.Logger) *RoomVisitHandler {
	return &RoomVisitHandler{roomVisitService: roomVisitService, logger: logger}
}

// RecordEntryRequest represents the room entry request body
type RecordEntryRequest struct {
	VisitorID int64  `json:"visitor_id" binding:"required"`
	RoomName  string `json:"room_name" binding:"required"`
	Purpose   string `json:"purpose"`
}

// Create handles POST /api/v1/room-visits
func (h *RoomVisitHandler) Create(c *gin.Context) {
	var req RecordEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "visitor_id and room_name are required")
		return
	}

	visit, err := h.roomVisitService.RecordEntry(req.VisitorID, req.RoomName, req.Purpose)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"visitor_id": req.VisitorID,
		"room":       req.RoomName,
	}).Info("Room entry recorded")

	c.JSON(http.StatusCreated, visit)
}

// List handles GET /api/v1/room-visits. Optional from/to query
// parameters (RFC 3339) narrow the range.
func (h *RoomVisitHandler) List(c *gin.Context) {
	fromRaw, toRaw := c.Query("from"), c.Query("to")
	if fromRaw != "" || toRaw != "" {
		from, err := time.Parse(time.RFC3339, fromRaw)
		if err != nil {
			respondBadRequest(c, "Invalid from parameter, expected RFC 3339 timestamp")
			return
		}
		to, err := time.Parse(time.RFC3339, toRaw)
		if err != nil {
			respondBadRequest(c, "Invalid to parameter, expected RFC 3339 timestamp")
			return
		}

		visits, err := h.roomVisitService.HistoryBetween(from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, visits)
		return
	}

	visits, err := h.roomVisitService.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, visits)
}

// Get handles GET /api/v1/room-visits/:id
func (h *RoomVisitHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	visit, err := h.roomVisitService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, visit)
}

// ByVisitor handles GET /api/v1/room-visits/visitor/:visitorId
func (h *RoomVisitHandler) ByVisitor(c *gin.Context) {
	visitorID, ok := pathID(c, "visitorId")
	if !ok {
		return
	}

	visits, err := h.roomVisitService.VisitorHistory(visitorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, visits)
}

// ByRoom handles GET /api/v1/room-visits/room/:roomName
func (h *RoomVisitHandler) ByRoom(c *gin.Context) {
	roomName := c.Param("roomName")

	visits, err := h.roomVisitService.RoomHistory(roomName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, visits)
}

// CurrentLocation handles GET /api/v1/room-visits/visitor/:visitorId/current
func (h *RoomVisitHandler) CurrentLocation(c *gin.Context) {
	visitorID, ok := pathID(c, "visitorId")
	if !ok {
		return
	}

	visit, err := h.roomVisitService.CurrentLocation(visitorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, visit)
}
