package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/screening-backend/internal/middleware"
	"github.com/stemsi/screening-backend/internal/model"
	"github.com/stemsi/screening-backend/internal/response"
	"github.com/stemsi/screening-backend/internal/screening"
	"github.com/stemsi/screening-backend/internal/service"
	"github.com/stemsi/screening-backend/internal/validator"
)

// AssessmentHandler handles the respondent's screening session endpoints.
type AssessmentHandler struct {
	assessments *service.AssessmentService
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(assessments *service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments}
}

// StartAssessment godoc
// POST /api/v1/assessments
// Plans a new ASSIST or CRAFFT session for the caller.
func (h *AssessmentHandler) StartAssessment(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.StartAssessmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sess, err := h.assessments.Start(c.Request.Context(), claims.UserID, model.InstrumentType(req.InstrumentType), req.SubstanceIDs)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, service.NewSessionView(sess))
}

// GetAssessment godoc
// GET /api/v1/assessments/:session_id
func (h *AssessmentHandler) GetAssessment(c *gin.Context) {
	userID, sessionID, ok := sessionParams(c)
	if !ok {
		return
	}

	sess, err := h.assessments.Get(c.Request.Context(), userID, sessionID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, service.NewSessionView(sess))
}

// AnswerQuestion godoc
// PUT /api/v1/assessments/:session_id/answers
// Records or replaces the answer of one visible question.
func (h *AssessmentHandler) AnswerQuestion(c *gin.Context) {
	userID, sessionID, ok := sessionParams(c)
	if !ok {
		return
	}

	var req model.AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sess, err := h.assessments.Answer(c.Request.Context(), userID, sessionID, screening.UID(req.UID), req.OptionID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, service.NewSessionView(sess))
}

// Navigate godoc
// POST /api/v1/assessments/:session_id/navigate
func (h *AssessmentHandler) Navigate(c *gin.Context) {
	userID, sessionID, ok := sessionParams(c)
	if !ok {
		return
	}

	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sess, err := h.assessments.Navigate(c.Request.Context(), userID, sessionID,
		service.NavigateAction(req.Action), screening.UID(req.UID))
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, service.NewSessionView(sess))
}

// GetPending godoc
// GET /api/v1/assessments/:session_id/pending
// Lists the visible questions still unanswered, in display order.
func (h *AssessmentHandler) GetPending(c *gin.Context) {
	userID, sessionID, ok := sessionParams(c)
	if !ok {
		return
	}

	pending, err := h.assessments.Pending(c.Request.Context(), userID, sessionID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"pending":  pending,
		"complete": len(pending) == 0,
	})
}

// SubmitAssessment godoc
// POST /api/v1/assessments/:session_id/submit
// Scores a complete session and returns the result with recommended courses.
func (h *AssessmentHandler) SubmitAssessment(c *gin.Context) {
	userID, sessionID, ok := sessionParams(c)
	if !ok {
		return
	}

	outcome, err := h.assessments.Submit(c.Request.Context(), userID, sessionID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, outcome)
}

// AbandonAssessment godoc
// DELETE /api/v1/assessments/:session_id
func (h *AssessmentHandler) AbandonAssessment(c *gin.Context) {
	userID, sessionID, ok := sessionParams(c)
	if !ok {
		return
	}

	if err := h.assessments.Abandon(c.Request.Context(), userID, sessionID); err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session_id": sessionID, "status": model.SessionStatusAbandoned})
}

// ListResults godoc
// GET /api/v1/assessments/results?page=1&per_page=10
func (h *AssessmentHandler) ListResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	results, pagination, err := h.assessments.Results(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		fail(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, pagination)
}

// sessionParams resolves the caller and the :session_id param, writing the
// error response itself when either is missing.
func sessionParams(c *gin.Context) (int, uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return 0, uuid.Nil, false
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, uuid.Nil, false
	}
	return claims.UserID, sessionID, true
}
