package api

import (
	"crypto/subtle"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Rishika-pasricha/Hack-Hub/internal/auth"
	"github.com/Rishika-pasricha/Hack-Hub/internal/metrics"
	"github.com/Rishika-pasricha/Hack-Hub/internal/models"
)

const (
	identityKey  = "identity"
	requestIDKey = "requestID"
)

// Middleware provides API middleware functions
type Middleware struct {
	authService *auth.Service
	log         *slog.Logger
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *auth.Service, log *slog.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		log:         log,
	}
}

// bearer extracts and verifies the token of the Authorization header.
// ok is false when no header was sent.
func (m *Middleware) bearer(c *gin.Context) (id models.Identity, ok bool, msg string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return models.Identity{}, false, "Authorization header required"
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		return models.Identity{}, true, "Invalid authorization format"
	}

	id, err := m.authService.VerifyToken(tokenParts[1])
	if err != nil {
		return models.Identity{}, true, "Invalid token"
	}
	return id, true, ""
}

// AuthRequired ensures the request has a valid JWT token
func (m *Middleware) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _, msg := m.bearer(c)
		if msg != "" {
			c.AbortWithStatusJSON(401, gin.H{"error": msg})
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// OptionalAuth sets the caller identity when a valid token is present and
// lets anonymous requests through.
func (m *Middleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, sent, msg := m.bearer(c); sent && msg == "" {
			c.Set(identityKey, id)
		}
		c.Next()
	}
}

// MunicipalityRequired ensures the caller is a municipality account
func (m *Middleware) MunicipalityRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !identity(c).IsMunicipality() {
			c.AbortWithStatusJSON(403, gin.H{"error": "Municipality access required"})
			return
		}
		c.Next()
	}
}

// OperatorHeader carries the operator token for maintenance endpoints.
const OperatorHeader = "X-Operator-Token"

// OperatorRequired admits requests carrying the configured operator token.
// With no token configured every request is refused.
func (m *Middleware) OperatorRequired(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.AbortWithStatusJSON(403, gin.H{"error": "Operator access is disabled"})
			return
		}
		sent := c.GetHeader(OperatorHeader)
		if subtle.ConstantTimeCompare([]byte(sent), []byte(token)) != 1 {
			c.AbortWithStatusJSON(403, gin.H{"error": "Operator access required"})
			return
		}
		c.Next()
	}
}

// RequestLogger tags each request with an id and logs its outcome.
func (m *Middleware) RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Set(requestIDKey, reqID)
		c.Header("X-Request-ID", reqID)

		start := time.Now()
		c.Next()

		m.log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"request_id", reqID,
		)
	}
}

// Metrics records request counts and latency per route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

func identity(c *gin.Context) models.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}
	}
	id, _ := v.(models.Identity)
	return id
}
