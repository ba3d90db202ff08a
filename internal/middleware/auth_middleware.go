package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/farellandr/hydrovibe/internal/helpers"
	"github.com/farellandr/hydrovibe/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const userIDKey = "user_id"

// JWTAuthMiddleware requires a valid bearer access token and stores the
// caller's id under "user_id".
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		svc := GetServices(c)

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(authHeader, "Bearer ") {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Authorization header must be a Bearer token")
			c.Abort()
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims, err := svc.Tokens.VerifyAccess(c.Request.Context(), tokenStr)
		if err != nil {
			helpers.RespondWithAppError(c, svc.Logger, err)
			c.Abort()
			return
		}

		userID, _ := claims.UserID()
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func GetUserID(c *gin.Context) uuid.UUID {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return uuid.Nil
	}
	return userID.(uuid.UUID)
}

// StaffOnly must run after JWTAuthMiddleware.
func StaffOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		svc := GetServices(c)

		var user models.User
		err := svc.DB.WithContext(c.Request.Context()).
			Select("id", "is_staff", "is_active").
			Where("id = ?", GetUserID(c)).
			First(&user).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithAppError(c, svc.Logger, err)
			c.Abort()
			return
		}
		if err != nil || !user.IsStaff || !user.IsActive {
			helpers.RespondWithError(c, http.StatusForbidden, "Staff access required")
			c.Abort()
			return
		}
		c.Next()
	}
}
