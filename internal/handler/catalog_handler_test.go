package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stemsi/screening-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogHandler_PublicReads(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/v1/catalog/substances", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	subs := decode[struct {
		Substances []model.Substance `json:"substances"`
	}](t, w).Data.Substances
	require.Len(t, subs, 2)
	assert.Equal(t, "Alcohol", subs[0].Name)

	w = env.do(http.MethodGet, "/api/v1/catalog/templates/crafft", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "score_weight")
	tmpl := decode[struct {
		InstrumentType model.InstrumentType   `json:"instrument_type"`
		Questions      []model.PublicQuestion `json:"questions"`
	}](t, w).Data
	assert.Equal(t, model.InstrumentCrafft, tmpl.InstrumentType)
	assert.Len(t, tmpl.Questions, 2)

	w = env.do(http.MethodGet, "/api/v1/catalog/templates/audit", env.userToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNSUPPORTED_INSTRUMENT", decode[any](t, w).Error.Code)
}

func TestCatalogHandler_SubstanceAdmin(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/v1/admin/substances", env.adminToken, model.CreateSubstanceRequest{Name: "  Cocaine "})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[model.Substance](t, w).Data
	assert.Equal(t, "Cocaine", created.Name)
	assert.Equal(t, 3, created.ID)

	w = env.do(http.MethodPost, "/api/v1/admin/substances", env.adminToken, model.CreateSubstanceRequest{Name: "Cocaine"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_EXISTS", decode[any](t, w).Error.Code)

	w = env.do(http.MethodPut, "/api/v1/admin/substances/3", env.adminToken, model.UpdateSubstanceRequest{Name: "Crack cocaine"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodGet, "/api/v1/admin/substances/3", env.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Crack cocaine", decode[model.Substance](t, w).Data.Name)

	env.substances.inUse[1] = true
	w = env.do(http.MethodDelete, "/api/v1/admin/substances/1", env.adminToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DEPENDENCY_EXISTS", decode[any](t, w).Error.Code)

	w = env.do(http.MethodDelete, "/api/v1/admin/substances/3", env.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodDelete, "/api/v1/admin/substances/3", env.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodDelete, "/api/v1/admin/substances/abc", env.adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalogHandler_RequiresAdmin(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/v1/admin/substances", env.userToken, model.CreateSubstanceRequest{Name: "Cocaine"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCatalogHandler_ReplaceQuestions(t *testing.T) {
	env := newTestEnv(t)
	yesNo := []model.AnswerOptionRequest{{Text: "No"}, {Text: "Yes", ScoreWeight: 1}}

	w := env.do(http.MethodPut, "/api/v1/admin/templates/CRAFFT/questions", env.adminToken, model.ReplaceQuestionsRequest{
		Questions: []model.CatalogQuestionRequest{
			{Kind: "FIXED", OrderNum: 1, Text: "Car?", Options: yesNo},
			{Kind: "FIXED", OrderNum: 1, Text: "Relax?", Options: yesNo},
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode[any](t, w)
	assert.Equal(t, "INVALID_TEMPLATE", body.Error.Code)
	assert.True(t, strings.Contains(body.Error.Fields["detail"], "duplicate order"))

	w = env.do(http.MethodPut, "/api/v1/admin/templates/CRAFFT/questions", env.adminToken, model.ReplaceQuestionsRequest{
		Questions: []model.CatalogQuestionRequest{
			{Kind: "FIXED", OrderNum: 1, Text: "Car?", Options: yesNo},
			{Kind: "FIXED", OrderNum: 2, Text: "Relax?", Options: yesNo},
			{Kind: "FIXED", OrderNum: 3, Text: "Alone?", Options: yesNo},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodGet, "/api/v1/admin/templates/CRAFFT/questions", env.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "score_weight")
	stored := decode[struct {
		Questions []model.CatalogQuestion `json:"questions"`
	}](t, w).Data.Questions
	assert.Len(t, stored, 3)

	w = env.do(http.MethodPost, "/api/v1/admin/catalog/refresh-cache", env.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodGet, "/api/v1/catalog/templates/CRAFFT", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[struct {
		Questions []model.PublicQuestion `json:"questions"`
	}](t, w).Data.Questions, 3)
}
