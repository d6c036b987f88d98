package middleware

import (
	"errors"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"musa-backend-go/internal/db"
	"musa-backend-go/internal/models"
)

// Context keys set by the auth middleware.
const (
	ctxUserID    = "userID"
	ctxUserEmail = "userEmail"
	ctxUser      = "currentUser"
)

// errorBody mirrors api.ErrorResponse. Defined locally to keep middleware
// free of an import on internal/api.
type errorBody struct {
	Error string `json:"error"`
}

// AuthMiddleware verifies Firebase ID tokens and loads the caller's profile.
type AuthMiddleware struct {
	authClient *auth.Client
	users      db.UserRepository
	logger     *zap.Logger
}

func NewAuthMiddleware(authClient *auth.Client, users db.UserRepository, logger *zap.Logger) *AuthMiddleware {
	if authClient == nil {
		panic("AuthMiddleware requires a Firebase Auth client")
	}
	return &AuthMiddleware{authClient: authClient, users: users, logger: logger}
}

// VerifyToken checks the Bearer token and stashes the UID and email claims.
// It does not touch the database; use RequireProfile on routes that need the
// stored user record.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "Authorization header is required"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "Authorization header format must be 'Bearer {token}'"})
			return
		}

		token, err := m.authClient.VerifyIDToken(c.Request.Context(), parts[1])
		if err != nil {
			m.logger.Debug("failed to verify ID token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "Invalid or expired authentication token"})
			return
		}

		c.Set(ctxUserID, token.UID)
		if email, ok := token.Claims["email"].(string); ok {
			c.Set(ctxUserEmail, email)
		}
		c.Next()
	}
}

// RequireProfile loads the caller's stored profile and requires it to be
// approved. Runs after VerifyToken.
func (m *AuthMiddleware) RequireProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString(ctxUserID)
		user, err := m.users.GetByID(c.Request.Context(), uid)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusForbidden, errorBody{Error: "No profile found; complete registration first"})
				return
			}
			m.logger.Error("failed to load user profile", zap.String("userId", uid), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: "Failed to load user profile"})
			return
		}
		if user.Status != models.StatusApproved {
			c.AbortWithStatusJSON(http.StatusForbidden, errorBody{Error: "Account is not approved"})
			return
		}
		c.Set(ctxUser, user)
		c.Next()
	}
}

// RequireRole allows only callers whose role is in the given set. Runs after
// RequireProfile.
func (m *AuthMiddleware) RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !allowed[user.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, errorBody{Error: "Insufficient role for this operation"})
			return
		}
		c.Next()
	}
}

// RequireApprover allows admins, estate admins, and users holding the
// delegated approval flag. Estate scoping is enforced in the service layer
// where the target estate is known.
func (m *AuthMiddleware) RequireApprover() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || (user.Role != models.RoleAdmin && user.Role != models.RoleEstateAdmin && !user.CanApproveUsers) {
			c.AbortWithStatusJSON(http.StatusForbidden, errorBody{Error: "Insufficient role for this operation"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the profile loaded by RequireProfile, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// UserID returns the authenticated Firebase UID set by VerifyToken.
func UserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// UserEmail returns the email claim set by VerifyToken, if present.
func UserEmail(c *gin.Context) string {
	return c.GetString(ctxUserEmail)
}
