package middleware

import (
	"net/http"
	"strings"
	"time"

	"supplier-service/internal/api/responses"
	"supplier-service/internal/core/auth"
	"supplier-service/internal/core/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Chaves gravadas no gin.Context.
const (
	RequestIDKey = "requestID"
	SessionIDKey = "sessionID"
	UsernameKey  = "username"
)

// RequestID reaproveita o X-Request-ID recebido ou gera um novo.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// Logger registra cada requisição com zap.
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.String("session", c.GetString(SessionIDKey)),
		)
	}
}

// Auth valida o Bearer token e grava a sessão no contexto. Com a autenticação
// desligada todas as requisições usam a sessão padrão.
func Auth(svc auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !svc.Enabled() {
			c.Set(SessionIDKey, session.DefaultID)
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			responses.Error(c, http.StatusUnauthorized, "Token de acesso não informado")
			c.Abort()
			return
		}
		claims, err := svc.Validate(strings.TrimSpace(token))
		if err != nil {
			responses.Error(c, http.StatusUnauthorized, err.Error())
			c.Abort()
			return
		}
		c.Set(SessionIDKey, claims.SessionID)
		c.Set(UsernameKey, claims.Username)
		c.Next()
	}
}
