package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/visitorlog/visitorlog-backend/internal/database"
	"github.com/visitorlog/visitorlog-backend/internal/middleware"
	"github.com/visitorlog/visitorlog-backend/internal/models"
	"github.com/visitorlog/visitorlog-backend/internal/services"
	"github.com/visitorlog/visitorlog-backend/internal/utils"
	"github.com/visitorlog/visitorlog-backend/pkg/session"
)

// AuthHandler handles login, logout and session introspection
type AuthHandler struct {
	authService *services.AuthService
	sessions    *database.SessionRepository
	tokens      *session.Service
	cookieOpts  middleware.CookieOptions
	rateLimit   *services.RateLimitService
	audit       *services.AuditService
	logger      *logrus.Logger
}

// NewAuthHandler creates a new auth handler. rateLimit and audit may
// be nil, which disables login throttling and audit logging.
func NewAuthHandler(
	authService *services.AuthService,
	sessions *database.SessionRepository,
	tokens *session.Service,
	cookieOpts middleware.CookieOptions,
	rateLimit *services.RateLimitService,
	audit *services.AuditService,
	logger *logrus.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		tokens:      tokens,
		cookieOpts:  cookieOpts,
		rateLimit:   rateLimit,
		audit:       audit,
		logger:      logger,
	}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Username and password are required")
		return
	}

	clientIP := utils.ClientIP(c)

	if h.rateLimit != nil {
		if err := h.rateLimit.CheckLoginRateLimit(req.Username, clientIP); err != nil {
			var limitErr *services.RateLimitError
			if errors.As(err, &limitErr) {
				if h.audit != nil {
					if auditErr := h.audit.LogRateLimitViolation(req.Username, clientIP, c.Request.UserAgent(), limitErr.Type, limitErr.RetryAfter); auditErr != nil {
						h.logger.WithError(auditErr).Warn("Failed to audit rate limit violation")
					}
				}
				h.logger.WithFields(logrus.Fields{
					"username":   req.Username,
					"ip":         clientIP,
					"limit_type": limitErr.Type,
				}).Warn("Login rate limited")
			}
			respondError(c, err)
			return
		}
	}

	identity, err := h.authService.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			if h.rateLimit != nil {
				if recErr := h.rateLimit.RecordFailedLogin(req.Username, clientIP); recErr != nil {
					h.logger.WithError(recErr).Warn("Failed to record failed login")
				}
			}
			if h.audit != nil {
				if auditErr := h.audit.LogLoginAttempt(nil, req.Username, clientIP, c.Request.UserAgent(), false); auditErr != nil {
					h.logger.WithError(auditErr).Warn("Failed to audit failed login")
				}
			}
		}
		h.logger.WithFields(logrus.Fields{
			"username": req.Username,
			"ip":       clientIP,
		}).Warn("Login failed")
		respondError(c, err)
		return
	}

	sessionID := uuid.New()
	token, expiresAt, err := h.tokens.Issue(identity.UserID, identity.Username, identity.Role, sessionID, req.RememberMe)
	if err != nil {
		respondError(c, err)
		return
	}

	device := utils.ParseUserAgent(c.Request.UserAgent())
	record := &models.UserSession{
		ID:         sessionID,
		UserID:     identity.UserID,
		IPAddress:  models.NewNullString(clientIP),
		DeviceType: models.NewNullString(device.DeviceType),
		OS:         models.NewNullString(device.OS),
		Browser:    models.NewNullString(device.Browser),
		RememberMe: req.RememberMe,
		ExpiresAt:  expiresAt,
	}
	if err := h.sessions.Create(record); err != nil {
		respondError(c, err)
		return
	}

	middleware.SetSessionCookie(c, h.cookieOpts, token, int(h.tokens.TTL(req.RememberMe).Seconds()))

	if h.rateLimit != nil {
		if clearErr := h.rateLimit.ClearFailedLogins(identity.Username); clearErr != nil {
			h.logger.WithError(clearErr).Warn("Failed to clear login failure history")
		}
	}
	if h.audit != nil {
		if auditErr := h.audit.LogLoginAttempt(&identity.UserID, identity.Username, clientIP, c.Request.UserAgent(), true); auditErr != nil {
			h.logger.WithError(auditErr).Warn("Failed to audit login")
		}
	}

	h.logger.WithFields(logrus.Fields{
		"user_id":  identity.UserID,
		"username": identity.Username,
		"ip":       clientIP,
	}).Info("User logged in")

	c.JSON(http.StatusOK, LoginResponse{
		UserID:   identity.UserID,
		Username: identity.Username,
		Role:     identity.Role,
	})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	if sessionID, err := uuid.Parse(userCtx.SessionID); err == nil {
		if err := h.sessions.Revoke(sessionID); err != nil {
			h.logger.WithError(err).Warn("Failed to revoke session on logout")
		}
	}

	middleware.ClearSessionCookie(c, h.cookieOpts)

	if h.audit != nil {
		if auditErr := h.audit.LogLogout(userCtx.UserID, utils.ClientIP(c), c.Request.UserAgent()); auditErr != nil {
			h.logger.WithError(auditErr).Warn("Failed to audit logout")
		}
	}

	h.logger.WithFields(logrus.Fields{
		"user_id":  userCtx.UserID,
		"username": userCtx.Username,
	}).Info("User logged out")

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	c.JSON(http.StatusOK, LoginResponse{
		UserID:   userCtx.UserID,
		Username: userCtx.Username,
		Role:     userCtx.Role,
	})
}
