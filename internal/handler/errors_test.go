package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stemsi/screening-backend/internal/repository"
	"github.com/stemsi/screening-backend/internal/response"
	"github.com/stemsi/screening-backend/internal/screening"
	"github.com/stemsi/screening-backend/internal/service"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   response.ErrCode
	}{
		{"invalid selection", screening.ErrInvalidSelection, http.StatusUnprocessableEntity, response.ErrInvalidSelection},
		{"hidden question", fmt.Errorf("answer: %w", screening.ErrQuestionNotVisible), http.StatusConflict, response.ErrQuestionNotVisible},
		{"unknown question", screening.ErrUnknownQuestion, http.StatusBadRequest, response.ErrInvalidAnswer},
		{"unsupported instrument", screening.ErrUnsupportedInstrument, http.StatusBadRequest, response.ErrUnsupportedInstrument},
		{"empty bank", screening.ErrNoQuestions, http.StatusServiceUnavailable, response.ErrInstrumentUnavailable},
		{"submission", fmt.Errorf("%w: timeout", screening.ErrSubmissionFailed), http.StatusBadGateway, response.ErrSubmissionFailed},
		{"no rows", fmt.Errorf("get: %w", pgx.ErrNoRows), http.StatusNotFound, response.ErrNotFound},
		{"closed", service.ErrSessionClosed, http.StatusConflict, response.ErrSessionClosed},
		{"duplicate", repository.ErrDuplicateSubstance, http.StatusConflict, response.ErrAlreadyExists},
		{"in use", repository.ErrSubstanceInUse, http.StatusConflict, response.ErrDependencyExists},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, response.ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			assert.Equal(t, tt.status, got.status)
			assert.Equal(t, tt.code, got.code)
		})
	}
}

func TestClassify_IncompleteCarriesFirstPending(t *testing.T) {
	err := fmt.Errorf("score: %w", &screening.IncompleteError{Pending: []screening.UID{"t:3:2", "injection"}})

	got := classify(err)
	assert.Equal(t, http.StatusUnprocessableEntity, got.status)
	assert.Equal(t, response.ErrIncompleteSession, got.code)
	assert.Equal(t, "t:3:2", got.fields["first_pending"])
}
