package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/merchantry/merchantry/pkg/apperror"
	"github.com/merchantry/merchantry/pkg/auth"
	"github.com/merchantry/merchantry/pkg/observability/logger"
	"github.com/merchantry/merchantry/pkg/observability/metrics"
)

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}

func recoveryHandler(log logger.Logger) gin.RecoveryFunc {
	return func(c *gin.Context, err interface{}) {
		log.Error("panic recovered", "error", err, "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"message": "internal server error",
			"status":  http.StatusInternalServerError,
		})
	}
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPMetrics(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

// authRequired verifies the bearer token, rejects revoked tokens and stores
// the caller identity on the request context.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortWithError(c, apperror.Unauthorized("authorization token is required"))
			return
		}

		claims, err := s.deps.Tokens.Verify(token)
		if err != nil {
			abortWithError(c, apperror.Unauthorized("invalid or expired token"))
			return
		}

		if s.deps.Denylist != nil {
			revoked, err := s.deps.Denylist.IsRevoked(c.Request.Context(), token)
			if err != nil {
				abortWithError(c, apperror.Internal("token verification failed", err))
				return
			}
			if revoked {
				abortWithError(c, apperror.Unauthorized("token has been revoked"))
				return
			}
		}

		identity := claims.Identity()
		ctx := auth.WithIdentity(c.Request.Context(), &identity)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// requireRoles gates a route group to the given roles. It assumes
// authRequired already ran.
func requireRoles(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := auth.GetIdentity(c.Request.Context())
		if identity == nil {
			abortWithError(c, apperror.Unauthorized("authorization token is required"))
			return
		}
		for _, role := range roles {
			if identity.Role == role {
				c.Next()
				return
			}
		}
		abortWithError(c, apperror.Forbidden("insufficient permissions"))
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(header)
}

func abortWithError(c *gin.Context, err error) {
	status := apperror.StatusOf(err)
	body := gin.H{
		"message": err.Error(),
		"status":  status,
	}
	if fields := apperror.FieldsOf(err); len(fields) > 0 {
		body["errors"] = fields
	}
	c.AbortWithStatusJSON(status, body)
}
