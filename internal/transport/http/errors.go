package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/marketplace/internal/domain"
)

// statusForError переводит доменные ошибки в HTTP статусы.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrProductNotInShop),
		errors.Is(err, domain.ErrIdempotencyKeyRequired):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrShopUnavailable),
		errors.Is(err, domain.ErrShopNotFound),
		errors.Is(err, domain.ErrProductUnavailable),
		errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrOrderVersionConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// errorResponse возвращает статус и тело ответа для доменной ошибки.
func errorResponse(err error) (int, gin.H) {
	status := statusForError(err)
	body := gin.H{"error": err.Error()}
	if status == http.StatusInternalServerError {
		// Внутренние детали наружу не отдаём.
		body = gin.H{"error": "internal error"}
	}
	return status, body
}

func writeError(c *gin.Context, err error) {
	status, body := errorResponse(err)
	c.AbortWithStatusJSON(status, body)
}
