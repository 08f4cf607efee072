package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/imrishuroy/todo-list-api/internal/idempotency"
	"github.com/imrishuroy/todo-list-api/internal/validation"
)

// IdempotencyKeyHeader is the optional request header that makes a create replayable.
const IdempotencyKeyHeader = "Idempotency-Key"

// IdempotencyStore is satisfied by *idempotency.Store.
type IdempotencyStore interface {
	CreateIfNotExists(ctx context.Context, key, route string) (bool, error)
	Get(ctx context.Context, key string) (*idempotency.IdempotencyRecord, error)
	MarkDone(ctx context.Context, key, recordID, responseBody string, responseStatus int) error
	MarkFailed(ctx context.Context, key, note string) error
}

// beginIdempotent claims the request key. It returns ok=false when it already wrote
// a response: a replay of the first attempt, a conflict, or an error.
// An empty key means the request is not idempotent and nothing needs finishing.
func (h *todoHandler) beginIdempotent(c *gin.Context, route string) (key string, ok bool) {
	key = c.GetHeader(IdempotencyKeyHeader)
	if h.idem == nil || key == "" {
		return "", true
	}
	ctx := c.Request.Context()

	created, err := h.idem.CreateIfNotExists(ctx, key, route)
	if err != nil {
		h.logger.Error("idempotency claim", "key", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "idempotency check failed"})
		return "", false
	}
	if created {
		return key, true
	}

	rec, err := h.idem.Get(ctx, key)
	if err != nil {
		h.logger.Error("idempotency lookup", "key", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "idempotency check failed"})
		return "", false
	}
	if rec == nil {
		// swept between claim and read; the caller can retry straight away
		c.JSON(http.StatusConflict, gin.H{"detail": "request already in progress"})
		return "", false
	}
	if rec.Route != "" && rec.Route != route {
		validation.Reject(c, validation.FieldError{
			Field:   IdempotencyKeyHeader,
			Message: "key already used for " + rec.Route,
		})
		return "", false
	}

	switch rec.Status {
	case idempotency.StatusDone:
		h.logger.Info("idempotent replay", "key", key, "record_id", rec.RecordID)
		c.Header("Idempotent-Replayed", "true")
		c.Data(rec.ResponseStatus, "application/json; charset=utf-8", []byte(rec.ResponseBody))
	default:
		c.JSON(http.StatusConflict, gin.H{"detail": "request already in progress", "record_id": rec.RecordID})
	}
	return "", false
}

func (h *todoHandler) finishIdempotent(c *gin.Context, key, recordID, body string, status int) {
	if key == "" {
		return
	}
	if err := h.idem.MarkDone(c.Request.Context(), key, recordID, body, status); err != nil {
		h.logger.Warn("idempotency mark done", "key", key, "record_id", recordID, "error", err)
	}
}

func (h *todoHandler) failIdempotent(c *gin.Context, key, note string) {
	if key == "" {
		return
	}
	if err := h.idem.MarkFailed(c.Request.Context(), key, note); err != nil {
		h.logger.Warn("idempotency mark failed", "key", key, "error", err)
	}
}
