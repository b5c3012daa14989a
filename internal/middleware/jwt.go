package middleware

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var secret = []byte(getJWTSecret())

// TokenTTL is how long a login stays valid.
const TokenTTL = 72 * time.Hour

const authKey = "auth"

func getJWTSecret() string {
	if val := os.Getenv("JWT_SECRET"); val != "" {
		return val
	}
	return "supersecret" // fallback
}

// Claims are carried in every token. The registered ID is the session ID
// that scopes the compliance cache.
type Claims struct {
	UserID   uint   `json:"user_id"`
	DriverID uint   `json:"driver_id,omitempty"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AuthContext is the authenticated caller of a request.
type AuthContext struct {
	UserID    uint
	DriverID  uint
	Role      string
	SessionID string
	ExpiresAt time.Time
}

// GenerateToken issues a token for a new session.
func GenerateToken(userID, driverID uint, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		DriverID: driverID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.ID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func (c *Claims) auth() AuthContext {
	a := AuthContext{
		UserID:    c.UserID,
		DriverID:  c.DriverID,
		Role:      c.Role,
		SessionID: c.ID,
	}
	if c.ExpiresAt != nil {
		a.ExpiresAt = c.ExpiresAt.Time
	}
	return a
}

// bearer reads the token from the Authorization header, or from the token
// query parameter for websocket clients that cannot set headers.
func bearer(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return c.Query("token")
}

// authenticate validates the token and stores the caller in the context,
// aborting the request when there is none.
func authenticate(c *gin.Context) bool {
	tokenString := bearer(c)
	if tokenString == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
		return false
	}

	claims, err := ValidateToken(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return false
	}

	// Store claims in context for downstream handlers
	c.Set(authKey, claims.auth())
	c.Set("user_id", claims.UserID)
	c.Set("role", claims.Role)
	return true
}

// RequireAuth ensures a valid JWT is present
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if authenticate(c) {
			c.Next()
		}
	}
}

// RequireAuthWithRole ensures the JWT is valid and the user has one of roles
func RequireAuthWithRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c) {
			return
		}

		a, _ := CurrentAuth(c)
		for _, r := range roles {
			if a.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	}
}

// CurrentAuth returns the caller set by RequireAuth.
func CurrentAuth(c *gin.Context) (AuthContext, bool) {
	v, ok := c.Get(authKey)
	if !ok {
		return AuthContext{}, false
	}
	a, ok := v.(AuthContext)
	return a, ok
}
