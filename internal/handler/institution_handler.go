package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sga-api/internal/models"
	"github.com/noah-isme/sga-api/internal/service"
	appErrors "github.com/noah-isme/sga-api/pkg/errors"
	"github.com/noah-isme/sga-api/pkg/response"
)

// InstitutionHandler exposes institution endpoints.
type InstitutionHandler struct {
	institutions *service.InstitutionService
}

// NewInstitutionHandler constructs handler.
func NewInstitutionHandler(institutions *service.InstitutionService) *InstitutionHandler {
	return &InstitutionHandler{institutions: institutions}
}

// Create godoc
// @Summary Create an institution
// @Tags Institutions
// @Accept json
// @Produce json
// @Param payload body service.CreateInstitutionRequest true "Institution payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /institutions [post]
func (h *InstitutionHandler) Create(c *gin.Context) {
	var req service.CreateInstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	inst, err := h.institutions.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, inst)
}

// Get godoc
// @Summary Get an institution by id
// @Tags Institutions
// @Produce json
// @Param id path string true "Institution id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /institutions/{id} [get]
func (h *InstitutionHandler) Get(c *gin.Context) {
	inst, err := h.institutions.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inst, nil)
}

// List godoc
// @Summary List institutions
// @Tags Institutions
// @Produce json
// @Param active_only query bool false "Only active institutions"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /institutions [get]
func (h *InstitutionHandler) List(c *gin.Context) {
	page, pageSize := paginationFromQuery(c)
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active_only", "false"))

	institutions, total, err := h.institutions.List(c.Request.Context(), activeOnly, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, institutions, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total})
}

// Update godoc
// @Summary Update an institution
// @Tags Institutions
// @Accept json
// @Produce json
// @Param id path string true "Institution id"
// @Param payload body service.UpdateInstitutionRequest true "Institution payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /institutions/{id} [put]
func (h *InstitutionHandler) Update(c *gin.Context) {
	var req service.UpdateInstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	inst, err := h.institutions.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inst, nil)
}

// Deactivate godoc
// @Summary Deactivate an institution
// @Tags Institutions
// @Produce json
// @Param id path string true "Institution id"
// @Success 204
// @Security BearerAuth
// @Router /institutions/{id} [delete]
func (h *InstitutionHandler) Deactivate(c *gin.Context) {
	if err := h.institutions.Deactivate(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
