package http

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	headerRequestID = "X-Request-ID"
	headerUserID    = "X-User-ID"

	ctxKeyRequestID = "request_id"
	ctxKeyUserID    = "user_id"
)

// RequestID проставляет request id из заголовка или генерирует новый.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, rid)
		c.Writer.Header().Set(headerRequestID, rid)
		c.Next()
	}
}

// Logger пишет access log после обработки запроса.
func Logger(logger *log.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(log.Fields{
			"request_id": c.GetString(ctxKeyRequestID),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
		}).Info("http request")
	}
}

// Identity извлекает ID пользователя из заголовка X-User-ID.
// Аутентификация выполняется на внешнем шлюзе, сервис доверяет заголовку.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(headerUserID))
		if userID == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "missing " + headerUserID + " header"})
			return
		}
		c.Set(ctxKeyUserID, userID)
		c.Next()
	}
}

func requesterID(c *gin.Context) string {
	return c.GetString(ctxKeyUserID)
}
