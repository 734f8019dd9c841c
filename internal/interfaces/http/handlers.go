package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/garyjia/approval-flow/internal/application/service"
	"github.com/garyjia/approval-flow/internal/domain/engine"
	"github.com/garyjia/approval-flow/internal/domain/entity"
	"github.com/garyjia/approval-flow/internal/domain/workflow"
	"github.com/garyjia/approval-flow/internal/report"
	"github.com/garyjia/approval-flow/pkg/pagination"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	approvalService service.ApprovalService
	exporter        *report.Exporter
	logger          Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(approvalService service.ApprovalService, exporter *report.Exporter, logger Logger) *Handlers {
	return &Handlers{
		approvalService: approvalService,
		exporter:        exporter,
		logger:          logger,
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

// CreateItemRequest represents the payload for creating an item
type CreateItemRequest struct {
	Reference   string            `json:"reference"`
	Title       string            `json:"title" binding:"required"`
	Kind        string            `json:"kind" binding:"required"`
	Amount      *string           `json:"amount"`
	SubmittedBy string            `json:"submitted_by" binding:"required"`
	Priority    string            `json:"priority"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
	SubmitNow   bool              `json:"submit_now"`
}

// DecisionRequest represents the payload for submit/approve/reject actions
type DecisionRequest struct {
	ActorID  string `json:"actor_id" binding:"required"`
	Reason   string `json:"reason"`
	Comments string `json:"comments"`
}

// ListItemsResponse wraps a page of items with pagination metadata
type ListItemsResponse struct {
	Items []*entity.Item `json:"items"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// CreateItem handles POST /api/items
func (h *Handlers) CreateItem(c *gin.Context) {
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid create payload", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body: " + err.Error(),
		})
		return
	}

	input := service.CreateItemInput{
		Reference:   req.Reference,
		Title:       req.Title,
		Kind:        req.Kind,
		SubmittedBy: req.SubmittedBy,
		Priority:    entity.Priority(req.Priority),
		Description: req.Description,
		Metadata:    req.Metadata,
		SubmitNow:   req.SubmitNow,
	}

	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{
				Success: false,
				Error:   fmt.Sprintf("invalid amount %q", *req.Amount),
			})
			return
		}
		input.Amount = &amount
	}

	item, err := h.approvalService.Create(c.Request.Context(), input)
	if err != nil {
		h.logger.Error("Failed to create item", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    item,
	})
}

// ListItems handles GET /api/items
func (h *Handlers) ListItems(c *gin.Context) {
	params := pagination.Parse(c)

	items, total, err := h.approvalService.List(c.Request.Context(), params.Limit, params.Offset)
	if err != nil {
		h.logger.Error("Failed to list items", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve items",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: ListItemsResponse{
			Items: items,
			Total: total,
			Page:  params.Page,
			Limit: params.Limit,
		},
	})
}

// GetItem handles GET /api/items/:id
func (h *Handlers) GetItem(c *gin.Context) {
	item, err := h.approvalService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    item,
	})
}

// GetHistory handles GET /api/items/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	records, err := h.approvalService.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    records,
	})
}

// SubmitItem handles POST /api/items/:id/submit
func (h *Handlers) SubmitItem(c *gin.Context) {
	h.decide(c, func(req DecisionRequest) (*entity.Item, error) {
		return h.approvalService.Submit(c.Request.Context(), c.Param("id"), req.ActorID)
	})
}

// ApproveItem handles POST /api/items/:id/approve
func (h *Handlers) ApproveItem(c *gin.Context) {
	h.decide(c, func(req DecisionRequest) (*entity.Item, error) {
		return h.approvalService.Approve(c.Request.Context(), c.Param("id"), req.ActorID, req.Comments)
	})
}

// RejectItem handles POST /api/items/:id/reject
func (h *Handlers) RejectItem(c *gin.Context) {
	h.decide(c, func(req DecisionRequest) (*entity.Item, error) {
		return h.approvalService.Reject(c.Request.Context(), c.Param("id"), req.ActorID, req.Reason, req.Comments)
	})
}

// decide binds the shared decision payload and maps the outcome
func (h *Handlers) decide(c *gin.Context, apply func(DecisionRequest) (*entity.Item, error)) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body: " + err.Error(),
		})
		return
	}

	item, err := apply(req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    item,
	})
}

// GetSummary handles GET /api/summary
func (h *Handlers) GetSummary(c *gin.Context) {
	summary, err := h.approvalService.Summary(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to compute summary", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to compute summary",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    summary,
	})
}

// ListReasons handles GET /api/reasons
func (h *Handlers) ListReasons(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    h.approvalService.Reasons(),
	})
}

// ExportItems handles GET /api/items/export
func (h *Handlers) ExportItems(c *gin.Context) {
	items, err := h.approvalService.ListAll(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to load items for export", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to load items",
		})
		return
	}

	filename := fmt.Sprintf("approval-items-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))

	if err := h.exporter.Write(c.Writer, items); err != nil {
		h.logger.Error("Failed to write export", "error", err)
		// Headers are already out; nothing left to do but abort the stream
		c.Abort()
		return
	}
}

// respondError maps domain errors to HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, workflow.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrMissingReason), errors.Is(err, engine.ErrUnknownReason):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
	}

	c.JSON(status, Response{
		Success: false,
		Error:   err.Error(),
	})
}
