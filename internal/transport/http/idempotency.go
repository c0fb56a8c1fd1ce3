package http

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/marketplace/internal/domain"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	ctxKeyIdempotencyKey = "idempotency_key"
)

// beginIdempotent регистрирует Idempotency-Key запроса, если он передан.
// Возвращает handled=true, когда ответ уже отправлен (replay или конфликт).
func (h *Handler) beginIdempotent(c *gin.Context) (handled bool, err error) {
	if h.idempotency == nil {
		return false, nil
	}

	key := strings.TrimSpace(c.GetHeader(headerIdempotencyKey))
	if key == "" {
		return false, nil
	}

	record, err := h.idempotency.CreateProcessing(key, h.requestHash(c), time.Time{})
	if err != nil {
		if errors.Is(err, domain.ErrIdempotencyHashMismatch) {
			return false, err
		}
		if errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists) {
			if record.Status == domain.IdempotencyStatusProcessing {
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{
					"error": "request with this idempotency key is still being processed",
				})
				return true, nil
			}
			// Повтор запроса: отдаём сохранённый ответ.
			c.Data(record.HTTPStatus, "application/json", record.ResponseBody)
			c.Abort()
			return true, nil
		}
		return false, err
	}

	c.Set(ctxKeyIdempotencyKey, key)
	return false, nil
}

// respondIdempotent отправляет успешный ответ и сохраняет его для replay.
func (h *Handler) respondIdempotent(c *gin.Context, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.WithError(err).Error("failed to marshal response")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.Data(status, "application/json", body)
	h.finishIdempotent(c, status, body, true)
}

// finishIdempotent фиксирует результат обработки по сохранённому ключу.
func (h *Handler) finishIdempotent(c *gin.Context, status int, body []byte, ok bool) {
	key := c.GetString(ctxKeyIdempotencyKey)
	if key == "" || h.idempotency == nil {
		return
	}

	var err error
	if ok {
		err = h.idempotency.MarkDone(key, body, status)
	} else {
		err = h.idempotency.MarkFailed(key, body, status)
	}
	if err != nil {
		h.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to finalize idempotency record")
	}
}

// requestHash считает хэш тела запроса вместе с идентификатором инициатора,
// чтобы переиспользование ключа другим пользователем было отклонено.
func (h *Handler) requestHash(c *gin.Context) string {
	var raw []byte
	if cached, ok := c.Get(gin.BodyBytesKey); ok {
		if body, ok := cached.([]byte); ok {
			raw = body
		}
	}

	sum := sha256.Sum256(append([]byte(requesterID(c)+"\n"), raw...))
	return hex.EncodeToString(sum[:])
}
