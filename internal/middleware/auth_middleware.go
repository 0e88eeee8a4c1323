package middleware

import (
	"strings"

	"fooddash/internal/models"
	"fooddash/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ContextUserID   = "user_id"
	ContextUserRole = "user_role"
)

// AuthRequired validates the bearer token and stores the caller's id and role
// in the gin context. Browsers cannot set headers on a websocket handshake, so
// a token query parameter is accepted as well.
func AuthRequired(secret, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString, issuer, secret)
		if err != nil {
			utils.ErrorResponse(c, utils.ErrUnauthenticated.StatusCode(), "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		role := models.Role(claims.Role)
		if !role.IsValid() {
			utils.ErrorResponse(c, utils.ErrUnauthenticated.StatusCode(), "INVALID_TOKEN", "Token carries an unknown role")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserRole, string(role))
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		token := strings.TrimPrefix(header, "Bearer ")
		if token == header {
			return ""
		}
		return strings.TrimSpace(token)
	}
	return c.Query("token")
}

// RequireRoles aborts with 403 unless the authenticated role is one of roles.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		utils.ForbiddenResponse(c)
		c.Abort()
	}
}

func AdminRequired() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin)
}

func RestaurantRequired() gin.HandlerFunc {
	return RequireRoles(models.RoleRestaurant)
}

func CustomerRequired() gin.HandlerFunc {
	return RequireRoles(models.RoleCustomer)
}

// ActorFrom reads the caller stored by AuthRequired.
func ActorFrom(c *gin.Context) (models.Actor, bool) {
	value, exists := c.Get(ContextUserID)
	if !exists {
		return models.Actor{}, false
	}
	userID, ok := value.(primitive.ObjectID)
	if !ok || userID.IsZero() {
		return models.Actor{}, false
	}
	return models.Actor{ID: userID, Role: models.Role(c.GetString(ContextUserRole))}, true
}
