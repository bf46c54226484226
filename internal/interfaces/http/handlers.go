package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edbgroup/paperflow/internal/application/port"
	"github.com/edbgroup/paperflow/internal/application/service"
	"github.com/edbgroup/paperflow/internal/domain/workflow"
	"github.com/edbgroup/paperflow/internal/storage"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	engine      service.Engine
	timeline    service.TimelineService
	userRepo    port.UserRepository
	attachments *storage.AttachmentStore
	auth        AuthConfig
	logger      Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	engine service.Engine,
	timeline service.TimelineService,
	userRepo port.UserRepository,
	attachments *storage.AttachmentStore,
	auth AuthConfig,
	logger Logger,
) *Handlers {
	return &Handlers{
		engine:      engine,
		timeline:    timeline,
		userRepo:    userRepo,
		attachments: attachments,
		auth:        auth,
		logger:      logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// TokenRequest represents the development token exchange request
type TokenRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// TokenResponse represents the issued token
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// ActionRequest carries the optional inputs of a workflow action
type ActionRequest struct {
	Reason   string `json:"reason,omitempty"`
	OptionID int64  `json:"option_id,omitempty"`
}

// ListRecordsRequest represents query parameters for listing records
type ListRecordsRequest struct {
	WorkflowType string `form:"workflow_type"`
	Limit        int    `form:"limit"`
	Offset       int    `form:"offset"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// IssueToken handles POST /api/auth/token. It exchanges a directory user
// id for a signed token carrying that user's role and department.
func (h *Handlers) IssueToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "user_id is required"})
		return
	}

	user, err := h.userRepo.GetByID(c.Request.Context(), req.UserID)
	if err != nil {
		h.logger.Error("Failed to look up user", "user_id", req.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to look up user"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "unknown user"})
		return
	}

	token, expiresAt, err := GenerateToken(h.auth, user)
	if err != nil {
		h.logger.Error("Failed to issue token", "user_id", req.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: TokenResponse{
			Token:     token,
			ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		},
	})
}

// CreateRecord handles POST /api/records
func (h *Handlers) CreateRecord(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "missing actor"})
		return
	}

	var in service.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	rec, err := h.engine.Create(c.Request.Context(), actor, in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: rec})
}

// ListRecords handles GET /api/records
func (h *Handlers) ListRecords(c *gin.Context) {
	var req ListRecordsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	records, err := h.engine.List(c.Request.Context(), req.WorkflowType, req.Limit, req.Offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

// GetRecord handles GET /api/records/:id
func (h *Handlers) GetRecord(c *gin.Context) {
	id, ok := h.recordID(c)
	if !ok {
		return
	}

	rec, err := h.engine.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: rec})
}

// GetTimeline handles GET /api/records/:id/timeline
func (h *Handlers) GetTimeline(c *gin.Context) {
	id, ok := h.recordID(c)
	if !ok {
		return
	}
	ascending := c.DefaultQuery("order", "asc") != "desc"

	entries, err := h.timeline.GetTimeline(c.Request.Context(), id, ascending)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: entries})
}

// Submit handles POST /api/records/:id/submit
func (h *Handlers) Submit(c *gin.Context) {
	h.applyAction(c, workflow.ActionSubmit)
}

// Approve handles POST /api/records/:id/approve
func (h *Handlers) Approve(c *gin.Context) {
	h.applyAction(c, workflow.ActionApprove)
}

// Reject handles POST /api/records/:id/reject
func (h *Handlers) Reject(c *gin.Context) {
	h.applyAction(c, workflow.ActionReject)
}

// Escalate handles POST /api/records/:id/escalate
func (h *Handlers) Escalate(c *gin.Context) {
	h.applyAction(c, workflow.ActionEscalate)
}

// ChooseOption handles POST /api/records/:id/choose-option
func (h *Handlers) ChooseOption(c *gin.Context) {
	h.applyAction(c, workflow.ActionChooseOption)
}

// Finalize handles POST /api/records/:id/finalize
func (h *Handlers) Finalize(c *gin.Context) {
	h.applyAction(c, workflow.ActionFinalize)
}

// Complete handles POST /api/records/:id/complete
func (h *Handlers) Complete(c *gin.Context) {
	h.applyAction(c, workflow.ActionComplete)
}

// DeleteRecord handles DELETE /api/records/:id
func (h *Handlers) DeleteRecord(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "missing actor"})
		return
	}
	id, ok := h.recordID(c)
	if !ok {
		return
	}

	if err := h.engine.Delete(c.Request.Context(), id, actor); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// AddAttachment handles POST /api/records/:id/attachments. The file is
// sent as multipart form data under the "file" field; the stored copy
// and the audit marker are written together or not at all.
func (h *Handlers) AddAttachment(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "missing actor"})
		return
	}
	id, ok := h.recordID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "a file is required"})
		return
	}

	rec, err := h.engine.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "failed to read file"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "failed to read file"})
		return
	}

	storedPath, err := h.attachments.Save(rec.Code, fileHeader.Filename, content)
	if err != nil {
		h.logger.Error("Failed to store attachment", "record_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to store attachment"})
		return
	}

	if err := h.engine.RecordAttachment(c.Request.Context(), id, actor, fileHeader.Filename); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    gin.H{"file_name": fileHeader.Filename, "stored_path": storedPath},
	})
}

// ListAttachments handles GET /api/records/:id/attachments
func (h *Handlers) ListAttachments(c *gin.Context) {
	id, ok := h.recordID(c)
	if !ok {
		return
	}

	rec, err := h.engine.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	names, err := h.attachments.List(rec.Code)
	if err != nil {
		h.logger.Error("Failed to list attachments", "record_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to list attachments"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: names})
}

// applyAction binds the shared action request shape and runs the engine
func (h *Handlers) applyAction(c *gin.Context, action workflow.Action) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "missing actor"})
		return
	}
	id, ok := h.recordID(c)
	if !ok {
		return
	}

	var req ActionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
			return
		}
	}

	rec, err := h.engine.Apply(c.Request.Context(), id, actor, action, service.Payload{
		Reason:   req.Reason,
		OptionID: req.OptionID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: rec})
}

func (h *Handlers) recordID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid record ID"})
		return 0, false
	}
	return id, true
}

// respondError maps engine errors onto HTTP statuses
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, workflow.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, workflow.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, workflow.ErrInvalidTransition), errors.Is(err, workflow.ErrConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, Response{Success: false, Error: "internal error"})
		return
	}
	c.JSON(status, Response{Success: false, Error: err.Error()})
}
