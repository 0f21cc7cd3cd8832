package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/visitorlog/visitorlog-backend/internal/middleware"
	"github.com/visitorlog/visitorlog-backend/internal/services"
	"github.com/visitorlog/visitorlog-backend/internal/utils"
)

// UserHandler handles staff account administration. All routes sit
// behind the Admin role guard.
type UserHandler struct {
	userService *services.UserService
	audit       *services.AuditService
	logger      *logrus.Logger
}

// NewUserHandler creates a new user handler. audit may be nil.
func NewUserHandler(userService *services.UserService, audit *services.AuditService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{userService: userService, audit: audit, logger: logger}
}

// auditUserAdmin records an account administration event, logging a
// warning rather than failing the request when the write fails.
func (h *UserHandler) auditUserAdmin(c *gin.Context, adminUserID, targetUserID int64, action string) {
	if h.audit == nil {
		return
	}
	if err := h.audit.LogUserAdmin(adminUserID, targetUserID, action, utils.ClientIP(c), c.Request.UserAgent()); err != nil {
		h.logger.WithError(err).Warn("Failed to audit user administration")
	}
}

// CreateUserRequest represents the account creation body
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// UpdateUserRequest represents the account update body. An empty
// password keeps the current one.
type UpdateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password"`
	Role     string `json:"role" binding:"required"`
}

// Create handles POST /api/v1/admin/users
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "username, password and role are required")
		return
	}

	user, err := h.userService.Create(req.Username, req.Password, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	admin := middleware.MustGetUserContext(c)
	h.auditUserAdmin(c, admin.UserID, user.ID, "user_created")
	h.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
		"admin":    admin.Username,
	}).Info("User account created")

	c.JSON(http.StatusCreated, user)
}

// List handles GET /api/v1/admin/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Get handles GET /api/v1/admin/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Update handles PUT /api/v1/admin/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "username and role are required")
		return
	}

	user, err := h.userService.Update(id, req.Username, req.Password, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	admin := middleware.MustGetUserContext(c)
	h.auditUserAdmin(c, admin.UserID, user.ID, "user_updated")
	h.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"admin":   admin.Username,
	}).Info("User account updated")

	c.JSON(http.StatusOK, user)
}

// Delete handles DELETE /api/v1/admin/users/:id. Admins cannot delete
// their own account.
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	admin := middleware.MustGetUserContext(c)
	if id == admin.UserID {
		respondBadRequest(c, "You cannot delete your own account")
		return
	}

	deleted, err := h.userService.Delete(id, admin.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !deleted {
		respondError(c, services.ErrNotFound)
		return
	}

	h.auditUserAdmin(c, admin.UserID, id, "user_deleted")
	h.logger.WithFields(logrus.Fields{
		"user_id": id,
		"admin":   admin.Username,
	}).Info("User account deleted")

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// AuditTrail handles GET /api/v1/admin/users/:id/audit. It returns the
// most recent security audit events recorded for an account, newest
// first. The optional limit query defaults to 20.
func (h *UserHandler) AuditTrail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if h.audit == nil {
		c.JSON(http.StatusOK, []gin.H{})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 200 {
			respondBadRequest(c, "limit must be between 1 and 200")
			return
		}
		limit = parsed
	}

	events, err := h.audit.GetRecentEvents(id, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// Stats handles GET /api/v1/admin/users/stats
func (h *UserHandler) Stats(c *gin.Context) {
	stats, err := h.userService.Stats()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
