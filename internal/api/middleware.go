package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"alcyxob/fitness-hub/internal/authz"
	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/metrics"
	"alcyxob/fitness-hub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Context keys set by the middleware chain.
const (
	contextActorKey     = "actor"
	contextRequestIDKey = "requestID"
	contextLoggerKey    = "logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags each request with an id, reusing the caller's when given.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(contextRequestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs every request once it completes.
func RequestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		entry := log.WithFields(logrus.Fields{
			"request_id": c.GetString(contextRequestIDKey),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		})
		c.Set(contextLoggerKey, logrus.FieldLogger(entry))

		c.Next()

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		}
		if actor, ok := actorFromContext(c); ok {
			fields["actor_id"] = actor.ID.Hex()
		}
		done := entry.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			done.Error("request completed")
		case status >= http.StatusBadRequest:
			done.Warn("request completed")
		default:
			done.Info("request completed")
		}
	}
}

// Metrics records request counts and latencies per route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		done := metrics.TrackInFlight()
		defer done()

		c.Next()

		metrics.RecordHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

// AuthMiddleware resolves the bearer token to an actor.
func AuthMiddleware(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		actor, err := auth.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			respondError(c, err)
			return
		}
		c.Set(contextActorKey, actor)
		c.Next()
	}
}

// RoleMiddleware creates middleware to check if the actor has one of the roles.
// Must run AFTER AuthMiddleware.
func RoleMiddleware(allowedRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromContext(c)
		if !ok {
			abortWithError(c, http.StatusInternalServerError, "Actor not found in context")
			return
		}
		for _, role := range allowedRoles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, fmt.Sprintf("Access denied: role '%s' does not have permission", actor.Role))
	}
}

func actorFromContext(c *gin.Context) (*authz.Actor, bool) {
	raw, exists := c.Get(contextActorKey)
	if !exists {
		return nil, false
	}
	actor, ok := raw.(*authz.Actor)
	return actor, ok && actor != nil
}

// mustActor returns the authenticated actor; routes using it sit behind AuthMiddleware.
func mustActor(c *gin.Context) *authz.Actor {
	actor, ok := actorFromContext(c)
	if !ok {
		panic("api: handler used without AuthMiddleware")
	}
	return actor
}
