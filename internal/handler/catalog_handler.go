package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/screening-backend/internal/model"
	"github.com/stemsi/screening-backend/internal/response"
	"github.com/stemsi/screening-backend/internal/service"
	"github.com/stemsi/screening-backend/internal/validator"
)

// CatalogHandler handles substance and question bank endpoints.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListSubstances godoc
// GET /api/v1/catalog/substances
func (h *CatalogHandler) ListSubstances(c *gin.Context) {
	substances, err := h.catalog.Substances(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"substances": substances})
}

// GetTemplate godoc
// GET /api/v1/catalog/templates/:type
// Returns an instrument's questions without score weights.
func (h *CatalogHandler) GetTemplate(c *gin.Context) {
	instrument, ok := instrumentParam(c)
	if !ok {
		return
	}

	questions, err := h.catalog.PublicQuestions(c.Request.Context(), instrument)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"instrument_type": instrument, "questions": questions})
}

// ─── Admin ──────────────────────────────────────────────────────────

// GetSubstance godoc
// GET /api/v1/admin/substances/:id
func (h *CatalogHandler) GetSubstance(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	substance, err := h.catalog.GetSubstance(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, substance)
}

// CreateSubstance godoc
// POST /api/v1/admin/substances
func (h *CatalogHandler) CreateSubstance(c *gin.Context) {
	var req model.CreateSubstanceRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	substance := &model.Substance{Name: strings.TrimSpace(req.Name), Description: req.Description}
	if err := h.catalog.CreateSubstance(c.Request.Context(), substance); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, substance)
}

// UpdateSubstance godoc
// PUT /api/v1/admin/substances/:id
func (h *CatalogHandler) UpdateSubstance(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateSubstanceRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	substance := &model.Substance{ID: id, Name: strings.TrimSpace(req.Name), Description: req.Description}
	if err := h.catalog.UpdateSubstance(c.Request.Context(), substance); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, substance)
}

// DeleteSubstance godoc
// DELETE /api/v1/admin/substances/:id
func (h *CatalogHandler) DeleteSubstance(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	if err := h.catalog.DeleteSubstance(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

// ListQuestions godoc
// GET /api/v1/admin/templates/:type/questions
// Returns an instrument's stored questions including weights.
func (h *CatalogHandler) ListQuestions(c *gin.Context) {
	instrument, ok := instrumentParam(c)
	if !ok {
		return
	}

	questions, err := h.catalog.Questions(c.Request.Context(), instrument)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"instrument_type": instrument, "questions": questions})
}

// ReplaceQuestions godoc
// PUT /api/v1/admin/templates/:type/questions
// Replaces an instrument's whole question bank. Option ids are reassigned.
func (h *CatalogHandler) ReplaceQuestions(c *gin.Context) {
	instrument, ok := instrumentParam(c)
	if !ok {
		return
	}

	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.catalog.ReplaceQuestions(c.Request.Context(), instrument, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"instrument_type": instrument, "questions": questions})
}

// RefreshCache godoc
// POST /api/v1/admin/catalog/refresh-cache
// Reloads substances and question banks from the database into Redis.
func (h *CatalogHandler) RefreshCache(c *gin.Context) {
	if err := h.catalog.Warm(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"refreshed": true})
}

func instrumentParam(c *gin.Context) (model.InstrumentType, bool) {
	instrument := model.InstrumentType(strings.ToUpper(c.Param("type")))
	if !instrument.Valid() {
		response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedInstrument)
		return "", false
	}
	return instrument, true
}

func intParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}
