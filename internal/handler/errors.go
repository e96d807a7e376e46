package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/stemsi/screening-backend/internal/repository"
	"github.com/stemsi/screening-backend/internal/response"
	"github.com/stemsi/screening-backend/internal/screening"
	"github.com/stemsi/screening-backend/internal/service"
)

// apiError is a domain error resolved to its HTTP form.
type apiError struct {
	status int
	code   response.ErrCode
	fields map[string]string
}

// classify maps service and engine errors onto status codes and error codes.
// Unknown errors are internal.
func classify(err error) apiError {
	var incomplete *screening.IncompleteError
	switch {
	case errors.As(err, &incomplete):
		return apiError{http.StatusUnprocessableEntity, response.ErrIncompleteSession,
			map[string]string{"first_pending": string(incomplete.First())}}
	case errors.Is(err, screening.ErrInvalidSelection):
		return apiError{http.StatusUnprocessableEntity, response.ErrInvalidSelection, nil}
	case errors.Is(err, screening.ErrQuestionNotVisible):
		return apiError{http.StatusConflict, response.ErrQuestionNotVisible, nil}
	case errors.Is(err, screening.ErrUnknownQuestion), errors.Is(err, screening.ErrInvalidOption):
		return apiError{http.StatusBadRequest, response.ErrInvalidAnswer, nil}
	case errors.Is(err, screening.ErrUnsupportedInstrument):
		return apiError{http.StatusBadRequest, response.ErrUnsupportedInstrument, nil}
	case errors.Is(err, screening.ErrNoQuestions), errors.Is(err, screening.ErrDuplicateQuestion):
		return apiError{http.StatusServiceUnavailable, response.ErrInstrumentUnavailable, nil}
	case errors.Is(err, screening.ErrSubmissionFailed):
		return apiError{http.StatusBadGateway, response.ErrSubmissionFailed, nil}
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, pgx.ErrNoRows):
		return apiError{http.StatusNotFound, response.ErrNotFound, nil}
	case errors.Is(err, service.ErrSessionClosed):
		return apiError{http.StatusConflict, response.ErrSessionClosed, nil}
	case errors.Is(err, service.ErrInvalidTemplate):
		return apiError{http.StatusUnprocessableEntity, response.ErrInvalidTemplate,
			map[string]string{"detail": err.Error()}}
	case errors.Is(err, repository.ErrDuplicateSubstance):
		return apiError{http.StatusConflict, response.ErrAlreadyExists, nil}
	case errors.Is(err, repository.ErrSubstanceInUse):
		return apiError{http.StatusConflict, response.ErrDependencyExists, nil}
	default:
		return apiError{http.StatusInternalServerError, response.ErrInternal, nil}
	}
}

// fail writes err as an API error response; internal errors are attached to the
// gin context for the access log.
func fail(c *gin.Context, err error) {
	e := classify(err)
	if e.status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	response.FailWithFields(c, e.status, e.code, e.fields)
}
