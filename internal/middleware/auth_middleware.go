package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/visitorlog/visitorlog-backend/internal/models"
	"github.com/visitorlog/visitorlog-backend/pkg/session"
)

// UserContextKey is the key used to store user information in Gin context
const UserContextKey = "user"

// UserContext represents the authenticated user's information
type UserContext struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
}

// IsAdmin reports whether the authenticated user holds the Admin role
func (u UserContext) IsAdmin() bool {
	return u.Role == models.RoleAdmin
}

type sessionStore interface {
	GetByID(id uuid.UUID) (*models.UserSession, error)
	Touch(id uuid.UUID, lastSeen, expiresAt time.Time) error
}

// CookieOptions controls how the session cookie is written
type CookieOptions struct {
	Name   string
	Secure bool
}

// SetSessionCookie writes the session cookie on the response
func SetSessionCookie(c *gin.Context, opts CookieOptions, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(opts.Name, token, maxAge, "/", "", opts.Secure, true)
}

// ClearSessionCookie expires the session cookie
func ClearSessionCookie(c *gin.Context, opts CookieOptions) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(opts.Name, "", -1, "/", "", opts.Secure, true)
}

// AuthMiddleware validates the session cookie on each request. A valid
// token must reference a live session row; revoking the row (logout)
// invalidates the token before its signature expires. Sessions slide:
// when less than half the lifetime remains the cookie is re-issued and
// the row's expiry extended.
func AuthMiddleware(tokens *session.Service, sessions sessionStore, opts CookieOptions, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(opts.Name)
		if err != nil || tokenString == "" {
			unauthorized(c, "Authentication required")
			return
		}

		claims, err := tokens.Validate(tokenString)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"path": c.Request.URL.Path,
				"ip":   c.ClientIP(),
			}).Debug("Session token rejected")
			ClearSessionCookie(c, opts)
			unauthorized(c, "Session is invalid or expired")
			return
		}

		record, err := sessions.GetByID(claims.SessionID)
		if err != nil {
			ClearSessionCookie(c, opts)
			unauthorized(c, "Session is invalid or expired")
			return
		}

		now := time.Now()
		if !record.IsActive(now) || record.UserID != claims.UserID {
			ClearSessionCookie(c, opts)
			unauthorized(c, "Session is invalid or expired")
			return
		}

		ttl := tokens.TTL(claims.Remember)
		if claims.RemainingLifetime(now) < ttl/2 {
			renewed, expiresAt, issueErr := tokens.Issue(claims.UserID, claims.Username, claims.Role, claims.SessionID, claims.Remember)
			if issueErr == nil {
				if touchErr := sessions.Touch(claims.SessionID, now, expiresAt); touchErr != nil {
					logger.WithError(touchErr).Warn("Failed to extend session")
				}
				SetSessionCookie(c, opts, renewed, int(ttl.Seconds()))
			}
		}

		c.Set(UserContextKey, UserContext{
			UserID:    claims.UserID,
			Username:  claims.Username,
			Role:      claims.Role,
			SessionID: claims.SessionID.String(),
		})

		c.Next()
	}
}

// RequireRole aborts with 403 unless the authenticated user holds one
// of the given roles. Must run after AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		if !exists {
			unauthorized(c, "Authentication required")
			return
		}

		for _, role := range roles {
			if userCtx.Role == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "You don't have permission to access this resource",
		})
		c.Abort()
	}
}

// GetUserContext retrieves the user context from Gin context
func GetUserContext(c *gin.Context) (UserContext, bool) {
	value, exists := c.Get(UserContextKey)
	if !exists {
		return UserContext{}, false
	}

	userCtx, ok := value.(UserContext)
	if !ok {
		return UserContext{}, false
	}

	return userCtx, true
}

// MustGetUserContext retrieves the user context or panics (use only after AuthMiddleware)
func MustGetUserContext(c *gin.Context) UserContext {
	userCtx, exists := GetUserContext(c)
	if !exists {
		panic("user context not found - ensure AuthMiddleware is applied")
	}
	return userCtx
}

func unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error":   "unauthorized",
		"message": message,
	})
	c.Abort()
}
