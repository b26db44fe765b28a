package handler

import (
	"net/http"

	"inventory-backend/internal/middleware"
	"inventory-backend/internal/model"
	"inventory-backend/internal/service"
	"inventory-backend/pkg/pagination"
	"inventory-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// PartnerHandler serves all five partner kinds from one set of handlers; the
// route group determines the entity type.
type PartnerHandler struct {
	partnerService service.PartnerService
}

func NewPartnerHandler(partnerService service.PartnerService) *PartnerHandler {
	return &PartnerHandler{partnerService: partnerService}
}

func (h *PartnerHandler) RegisterRoutes(router *gin.RouterGroup) {
	routes := map[string]model.EntityType{
		"/api/vendors":         model.EntityTypeVendor,
		"/api/suppliers":       model.EntityTypeSupplier,
		"/api/distributors":    model.EntityTypeDistributor,
		"/api/retailers":       model.EntityTypeRetailer,
		"/api/billed-entities": model.EntityTypeBilledEntity,
	}

	for path, entityType := range routes {
		group := router.Group(path)
		et := entityType
		{
			group.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.list(et))
			group.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.get(et))
			group.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.create(et))
			group.PUT("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.update(et))
			group.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.delete(et))
		}
	}
}

// list returns paginated partners of one kind
// @Summary      List partners of a kind
// @Tags         partners
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number (default: 1)"
// @Param        limit   query  int     false  "Items per page (default: 20)"
// @Param        search  query  string  false  "Search by name, company, phone, email"
// @Success      200  {object}  response.PagedResponse
// @Router       /api/vendors [get]
func (h *PartnerHandler) list(entityType model.EntityType) gin.HandlerFunc {
	return func(c *gin.Context) {
		params := pagination.Parse(c)
		search := c.Query("search")

		partners, total, err := h.partnerService.GetPartners(c.Request.Context(), entityType, search, params.Page, params.Limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
			return
		}

		c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, partners, params.Page, params.Limit, total))
	}
}

// get returns a single partner by ID
// @Summary      Get partner
// @Tags         partners
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Partner ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/vendors/{id} [get]
func (h *PartnerHandler) get(entityType model.EntityType) gin.HandlerFunc {
	return func(c *gin.Context) {
		partner, err := h.partnerService.GetPartner(c.Request.Context(), entityType, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}

		c.JSON(http.StatusOK, response.Success(http.StatusOK, partner))
	}
}

// create persists a new partner plus its pending approval request
// @Summary      Create partner
// @Tags         partners
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreatePartnerRequest  true  "Partner payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/vendors [post]
func (h *PartnerHandler) create(entityType model.EntityType) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.CreatePartnerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
			return
		}

		result, err := h.partnerService.CreatePartner(c.Request.Context(), entityType, c.GetString("userID"), req)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
			return
		}

		c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
	}
}

// update edits partner contact data; approval state is untouchable here
// @Summary      Update partner
// @Tags         partners
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                        true  "Partner ID"
// @Param        payload  body  service.UpdatePartnerRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/vendors/{id} [put]
func (h *PartnerHandler) update(entityType model.EntityType) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.UpdatePartnerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
			return
		}

		partner, err := h.partnerService.UpdatePartner(c.Request.Context(), entityType, c.Param("id"), req)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
			return
		}

		c.JSON(http.StatusOK, response.Success(http.StatusOK, partner))
	}
}

// delete deactivates a partner (soft delete)
// @Summary      Delete partner
// @Tags         partners
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Partner ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/vendors/{id} [delete]
func (h *PartnerHandler) delete(entityType model.EntityType) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.partnerService.DeletePartner(c.Request.Context(), entityType, c.Param("id")); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
			return
		}

		c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Partner deleted successfully"}))
	}
}
