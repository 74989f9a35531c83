package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tracklite/tracklite/internal/models"
)

const actorContextName = "actor"

// ActorClaims is the token payload minted by the upstream auth service.
// This service never issues tokens; it only verifies and consumes them.
type ActorClaims struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the bearer token and sets the pre-validated
// actor in the Gin context.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims := &ActorClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		role := claims.Role
		if role == "" {
			role = models.RoleGuest
		}
		c.Set(actorContextName, &models.Actor{
			ID:          claims.Subject,
			Email:       claims.Email,
			DisplayName: claims.DisplayName,
			Role:        role,
		})
		c.Next()
	}
}

// GetActorFromContext retrieves the actor from the Gin context.
func GetActorFromContext(c *gin.Context) (*models.Actor, bool) {
	val, ok := c.Get(actorContextName)
	if !ok {
		return nil, false
	}
	actor, ok := val.(*models.Actor)
	return actor, ok
}

// RequireActor checks that an actor is set, writing a 401 if not.
func RequireActor(c *gin.Context) (*models.Actor, bool) {
	actor, ok := GetActorFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	return actor, true
}

// RequireRole checks that the actor holds one of the given roles,
// writing a 403 otherwise.
func RequireRole(c *gin.Context, roles ...string) (*models.Actor, bool) {
	actor, ok := RequireActor(c)
	if !ok {
		return nil, false
	}
	if !actor.HasRole(roles...) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return nil, false
	}
	return actor, true
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}
