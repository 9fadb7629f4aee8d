package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gr8monk3ys/rategate/internal/config"
	"github.com/gr8monk3ys/rategate/internal/models"
	"github.com/gr8monk3ys/rategate/internal/security"
	"gorm.io/gorm"
)

// AdminContextKey is the gin context key holding the authenticated admin.
const AdminContextKey = "admin"

// AdminFromContext returns the admin record stored by AdminAuth.
func AdminFromContext(c *gin.Context) (models.Admin, bool) {
	v, ok := c.Get(AdminContextKey)
	if !ok {
		return models.Admin{}, false
	}
	admin, okCast := v.(models.Admin)
	return admin, okCast
}

// AdminAuth validates admin JWTs and loads the admin record into context.
func AdminAuth(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseAdminToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var admin models.Admin
		if errFind := db.WithContext(c.Request.Context()).First(&admin, claims.AdminID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
			return
		}

		c.Set(AdminContextKey, admin)
		c.Next()
	}
}
