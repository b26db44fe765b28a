package handler

import (
	"errors"
	"net/http"

	"inventory-backend/internal/middleware"
	"inventory-backend/internal/model"
	"inventory-backend/internal/service"
	"inventory-backend/pkg/pagination"
	"inventory-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ApprovalHandler struct {
	approvalService service.ApprovalService
}

func NewApprovalHandler(approvalService service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	approvals := router.Group("/api/approvals")
	{
		approvals.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.ListApprovals)
		approvals.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.GetApproval)
		approvals.PUT("/:id/decide", middleware.RequireRole(model.RoleAdmin), h.DecideApproval)
	}
}

// ListApprovals returns paginated approval requests, filterable by status
// @Summary      List approval requests
// @Tags         approvals
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number (default: 1)"
// @Param        limit   query  int     false  "Items per page (default: 20)"
// @Param        status  query  string  false  "Filter: PENDING, APPROVED, REJECTED"
// @Success      200  {object}  response.PagedResponse
// @Router       /api/approvals [get]
func (h *ApprovalHandler) ListApprovals(c *gin.Context) {
	params := pagination.Parse(c)
	status := c.Query("status")

	approvals, total, err := h.approvalService.GetApprovals(c.Request.Context(), status, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, approvals, params.Page, params.Limit, total))
}

// GetApproval returns a single approval request with requester/decider
// @Summary      Get approval request
// @Tags         approvals
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Approval request ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/approvals/{id} [get]
func (h *ApprovalHandler) GetApproval(c *gin.Context) {
	approval, err := h.approvalService.GetApproval(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, approval))
}

// DecideApproval approves or rejects a pending request. Decisions are final.
// @Summary      Decide approval request
// @Tags         approvals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                         true  "Approval request ID"
// @Param        payload  body  service.DecideApprovalRequest  true  "Decision payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/approvals/{id}/decide [put]
func (h *ApprovalHandler) DecideApproval(c *gin.Context) {
	var req service.DecideApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	approval, err := h.approvalService.Decide(c.Request.Context(), c.Param("id"), c.GetString("userID"), req)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyDecided) {
			c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, approval))
}
