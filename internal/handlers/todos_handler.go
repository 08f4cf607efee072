package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/imrishuroy/todo-list-api/internal/todos"
	"github.com/imrishuroy/todo-list-api/internal/validation"
)

const (
	routeCreate         = "POST /list/"
	routeCreateWithFile = "POST /list/file"
	fileField           = "file"
)

// HandlerConfig groups dependencies for the todo list handler.
type HandlerConfig struct {
	Service *todos.Service
	// Idempotency enables replay of create responses. Nil disables it.
	Idempotency IdempotencyStore
	Logger      *slog.Logger
}

type todoHandler struct {
	svc    *todos.Service
	idem   IdempotencyStore
	v      *validatorv10.Validate
	logger *slog.Logger
}

// RegisterTodoRoutes registers the /list routes.
func RegisterTodoRoutes(r gin.IRouter, cfg HandlerConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &todoHandler{
		svc:    cfg.Service,
		idem:   cfg.Idempotency,
		v:      validation.New(),
		logger: logger,
	}

	list := r.Group("/list")
	list.POST("/", h.create)
	list.POST("/file", h.createWithFile)
	list.GET("/", h.list)
	list.GET("/file/:id", h.fetchFile)
	list.DELETE("/", h.delete)
	list.PUT("/", h.update)
}

func (h *todoHandler) create(c *gin.Context) {
	ctx := c.Request.Context()

	var req validation.CreateRecordRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		// BindAndValidate already wrote a 422
		return
	}

	key, ok := h.beginIdempotent(c, routeCreate)
	if !ok {
		return
	}

	rec, err := h.svc.Create(ctx, todos.NewRecord{
		Title:       req.Title,
		Description: *req.Description,
		Timestamp:   *req.Timestamp,
		Done:        req.Done != nil && *req.Done,
	})
	if err != nil {
		h.failIdempotent(c, key, err.Error())
		h.logger.Error("create record", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "could not create item"})
		return
	}

	h.respondCreated(c, key, rec.ID, http.StatusCreated, rec)
}

func (h *todoHandler) createWithFile(c *gin.Context) {
	ctx := c.Request.Context()

	var form validation.CreateWithFileForm
	if err := validation.BindForm(c, &form, fileField, h.v); err != nil {
		return
	}
	fh, err := c.FormFile(fileField)
	if err != nil {
		validation.Reject(c, validation.FieldError{Field: fileField, Message: "field required"})
		return
	}

	key, ok := h.beginIdempotent(c, routeCreateWithFile)
	if !ok {
		return
	}

	title := form.Title
	res := h.svc.CreateWithAttachment(ctx, todos.NewRecord{
		Title:       &title,
		Description: form.Description,
		Timestamp:   form.Timestamp,
	}, uploadFrom(fh))
	if res.Failed() {
		h.failIdempotent(c, key, res.Failure)
		c.JSON(http.StatusOK, gin.H{"message": res.Failure})
		return
	}

	h.respondCreated(c, key, res.Value.ID, http.StatusOK, res.Value)
}

func uploadFrom(fh *multipart.FileHeader) todos.Upload {
	return todos.Upload{
		Filename: fh.Filename,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func (h *todoHandler) list(c *gin.Context) {
	recs, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list records", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "could not list items"})
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (h *todoHandler) fetchFile(c *gin.Context) {
	res := h.svc.FetchAttachment(c.Request.Context(), c.Param("id"))
	if res.Failed() {
		c.JSON(http.StatusOK, gin.H{"message": res.Failure})
		return
	}

	doc := res.Value
	c.DataFromReader(http.StatusOK, int64(len(doc.Contents)), "application/octet-stream",
		bytes.NewReader(doc.Contents), map[string]string{
			"Content-Disposition": contentDisposition(doc.Filename),
		})
}

// contentDisposition renders an attachment header, falling back to the RFC 5987
// form when the name cannot be sent as a plain parameter.
func contentDisposition(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename))
}

func (h *todoHandler) delete(c *gin.Context) {
	var q validation.IDQuery
	if err := validation.BindQuery(c, &q, h.v); err != nil {
		return
	}

	err := h.svc.Delete(c.Request.Context(), q.ID)
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, todos.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": fmt.Sprintf("Item with %s not found", q.ID)})
	default:
		h.logger.Error("delete record", "record_id", q.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "could not delete item"})
	}
}

func (h *todoHandler) update(c *gin.Context) {
	var q validation.UpdateQuery
	if err := validation.BindQuery(c, &q, h.v); err != nil {
		return
	}
	var patch todos.Patch
	if err := validation.BindAndValidate(c, &patch, h.v); err != nil {
		return
	}

	sum, err := h.svc.Update(c.Request.Context(), q.ID, q.RemoveFileSet(), patch)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, sum)
	case errors.Is(err, todos.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": fmt.Sprintf("ListItem with ID %s not found", q.ID)})
	case errors.Is(err, todos.ErrNotModified):
		// gin drops the body for 304, only the status reaches the client
		c.JSON(http.StatusNotModified, gin.H{"detail": fmt.Sprintf("Item with ID %s has not been modified", q.ID)})
	default:
		h.logger.Error("update record", "record_id", q.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "could not update item"})
	}
}

// respondCreated writes v as JSON and stores it for replay when the request carried a key.
func (h *todoHandler) respondCreated(c *gin.Context, key, recordID string, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		h.failIdempotent(c, key, err.Error())
		h.logger.Error("marshal response", "record_id", recordID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "could not encode response"})
		return
	}
	h.finishIdempotent(c, key, recordID, string(body), status)
	if status == http.StatusCreated {
		c.Header("Location", "/list/?id="+url.QueryEscape(recordID))
	}
	c.Data(status, "application/json; charset=utf-8", body)
}
