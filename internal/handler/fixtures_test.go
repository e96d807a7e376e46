package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/screening-backend/internal/config"
	"github.com/stemsi/screening-backend/internal/middleware"
	"github.com/stemsi/screening-backend/internal/model"
	"github.com/stemsi/screening-backend/internal/repository"
	"github.com/stemsi/screening-backend/internal/response"
	"github.com/stemsi/screening-backend/internal/screening"
	"github.com/stemsi/screening-backend/internal/service"
	"github.com/stemsi/screening-backend/internal/validator"
	"github.com/stretchr/testify/require"
)

const testUserID = 7

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

// ─── In-memory stores ───────────────────────────────────────────────

type memSubstances struct {
	mu    sync.Mutex
	items map[int]model.Substance
	inUse map[int]bool
	next  int
}

func (m *memSubstances) List(_ context.Context) ([]model.Substance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Substance, 0, len(m.items))
	for id := 1; id < m.next; id++ {
		if s, ok := m.items[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSubstances) GetByID(_ context.Context, id int) (*model.Substance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &s, nil
}

func (m *memSubstances) Create(_ context.Context, s *model.Substance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.Name == s.Name {
			return repository.ErrDuplicateSubstance
		}
	}
	s.ID = m.next
	m.next++
	m.items[s.ID] = *s
	return nil
}

func (m *memSubstances) Update(_ context.Context, s *model.Substance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[s.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.items[s.ID] = *s
	return nil
}

func (m *memSubstances) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inUse[id] {
		return repository.ErrSubstanceInUse
	}
	if _, ok := m.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

type memQuestions struct {
	mu    sync.Mutex
	banks map[model.InstrumentType][]model.CatalogQuestion
}

func (m *memQuestions) ListQuestions(_ context.Context, instrument model.InstrumentType) ([]model.CatalogQuestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.banks[instrument], nil
}

func (m *memQuestions) ReplaceQuestions(_ context.Context, instrument model.InstrumentType, questions []model.CatalogQuestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.banks[instrument] = questions
	return nil
}

type memSessions struct {
	mu      sync.Mutex
	records map[uuid.UUID]model.AssessmentSessionRecord
}

func (m *memSessions) Create(_ context.Context, s *model.AssessmentSessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Status = model.SessionStatusInProgress
	s.StartedAt = time.Now().UTC()
	m.records[s.ID] = *s
	return nil
}

func (m *memSessions) GetByID(_ context.Context, id uuid.UUID, userID int) (*model.AssessmentSessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok || r.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	return &r, nil
}

func (m *memSessions) UpdateStatus(_ context.Context, id uuid.UUID, status model.SessionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok || r.Status != model.SessionStatusInProgress {
		return pgx.ErrNoRows
	}
	r.Status = status
	m.records[id] = r
	return nil
}

func (m *memSessions) ListDraftAnswers(_ context.Context, _ uuid.UUID) ([]model.DraftAnswer, error) {
	return nil, nil
}

type memResults struct {
	mu      sync.Mutex
	results []model.AssessmentResult
	fail    bool
}

func (m *memResults) Submit(_ context.Context, _ screening.Submission, result model.AssessmentResult) (*model.AssessmentResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return nil, context.DeadlineExceeded
	}
	m.results = append([]model.AssessmentResult{result}, m.results...)
	return &result, nil
}

func (m *memResults) ListByUser(_ context.Context, userID, page, perPage int) ([]model.AssessmentResult, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var mine []model.AssessmentResult
	for _, r := range m.results {
		if r.UserID == userID {
			mine = append(mine, r)
		}
	}
	start := min((page-1)*perPage, len(mine))
	end := min(start+perPage, len(mine))
	return mine[start:end], len(mine), nil
}

type staticCourses []model.Course

func (s staticCourses) ForRiskLevel(_ context.Context, level model.RiskLevel) ([]model.Course, error) {
	var out []model.Course
	for _, c := range s {
		if c.RiskLevel == level {
			out = append(out, c)
		}
	}
	return out, nil
}

// ─── Fixture ────────────────────────────────────────────────────────

func option(id, weight int) model.AnswerOption {
	return model.AnswerOption{ID: id, Text: "option", ScoreWeight: weight}
}

func questionBanks() map[model.InstrumentType][]model.CatalogQuestion {
	never := option(21, 0)
	never.NoUse = true
	return map[model.InstrumentType][]model.CatalogQuestion{
		model.InstrumentAssist: {
			{ID: 1, Instrument: model.InstrumentAssist, Kind: model.QuestionKindTemplate, OrderNum: 2,
				Text: "How often {substance}?", Options: []model.AnswerOption{never, option(22, 6)}},
			{ID: 2, Instrument: model.InstrumentAssist, Kind: model.QuestionKindTemplate, OrderNum: 3,
				Text: "Craving {substance}?", Options: []model.AnswerOption{option(31, 0), option(32, 6)}},
			{ID: 3, Instrument: model.InstrumentAssist, Kind: model.QuestionKindInjection, OrderNum: 8,
				Text: "Injected?", Options: []model.AnswerOption{option(81, 0), option(82, 2)}},
		},
		model.InstrumentCrafft: {
			{ID: 10, Instrument: model.InstrumentCrafft, Kind: model.QuestionKindFixed, OrderNum: 1,
				Text: "Car?", Options: []model.AnswerOption{option(101, 0), option(102, 1)}},
			{ID: 11, Instrument: model.InstrumentCrafft, Kind: model.QuestionKindFixed, OrderNum: 2,
				Text: "Relax?", Options: []model.AnswerOption{option(201, 0), option(202, 1)}},
		},
	}
}

type testEnv struct {
	engine     *gin.Engine
	mr         *miniredis.Miniredis
	rdb        *redis.Client
	auth       *service.AuthService
	substances *memSubstances
	sessions   *memSessions
	results    *memResults
	catalog    *service.CatalogService
	assessment *service.AssessmentService
	limiter    *middleware.RateLimiter
	userToken  string
	adminToken string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := zerolog.Nop()
	env := &testEnv{
		mr:   mr,
		rdb:  rdb,
		auth: service.NewAuthService(&config.Config{JWTSecret: "handler-secret"}),
		substances: &memSubstances{
			items: map[int]model.Substance{1: {ID: 1, Name: "Alcohol"}, 2: {ID: 2, Name: "Cannabis"}},
			inUse: map[int]bool{},
			next:  3,
		},
		sessions: &memSessions{records: map[uuid.UUID]model.AssessmentSessionRecord{}},
		results:  &memResults{},
	}
	env.limiter = middleware.NewRateLimiter(rdb, 10, time.Hour)
	env.catalog = service.NewCatalogService(env.substances, &memQuestions{banks: questionBanks()}, rdb, 0, log)
	env.assessment = service.NewAssessmentService(
		env.catalog,
		service.NewRedisSessionStore(rdb, time.Hour),
		env.sessions,
		service.NewRedisAnswerJournal(rdb),
		env.results,
		staticCourses{{ID: 1, Title: "Talk to a counsellor", RiskLevel: model.RiskHigh}},
		env.results,
		screening.NewScorer(screening.DefaultAssistBands, screening.DefaultCrafftBands),
		log,
	)

	var err error
	env.userToken, err = env.auth.IssueToken(service.TokenTypeUser, testUserID, nil, time.Hour)
	require.NoError(t, err)
	env.adminToken, err = env.auth.IssueToken(service.TokenTypeAdmin, 1,
		[]string{middleware.PermCatalogRead, middleware.PermCatalogWrite}, time.Hour)
	require.NoError(t, err)

	env.engine = env.routes()
	return env
}

// routes mirrors the production route table for the handlers under test.
func (e *testEnv) routes() *gin.Engine {
	r := gin.New()
	assessments := NewAssessmentHandler(e.assessment)
	catalog := NewCatalogHandler(e.catalog)

	user := r.Group("/api/v1", middleware.RequireUserJWT(e.auth))
	user.GET("/catalog/substances", catalog.ListSubstances)
	user.GET("/catalog/templates/:type", catalog.GetTemplate)
	user.POST("/assessments", assessments.StartAssessment)
	user.GET("/assessments/results", assessments.ListResults)
	user.GET("/assessments/:session_id", assessments.GetAssessment)
	user.DELETE("/assessments/:session_id", assessments.AbandonAssessment)
	user.PUT("/assessments/:session_id/answers", assessments.AnswerQuestion)
	user.POST("/assessments/:session_id/navigate", assessments.Navigate)
	user.GET("/assessments/:session_id/pending", assessments.GetPending)
	user.POST("/assessments/:session_id/submit", e.limiter.PerUser(), assessments.SubmitAssessment)

	admin := r.Group("/api/v1/admin", middleware.RequireAdminJWT(e.auth))
	admin.GET("/substances/:id", middleware.RequirePermission(middleware.PermCatalogRead), catalog.GetSubstance)
	admin.POST("/substances", middleware.RequirePermission(middleware.PermCatalogWrite), catalog.CreateSubstance)
	admin.PUT("/substances/:id", middleware.RequirePermission(middleware.PermCatalogWrite), catalog.UpdateSubstance)
	admin.DELETE("/substances/:id", middleware.RequirePermission(middleware.PermCatalogWrite), catalog.DeleteSubstance)
	admin.GET("/templates/:type/questions", middleware.RequirePermission(middleware.PermCatalogRead), catalog.ListQuestions)
	admin.PUT("/templates/:type/questions", middleware.RequirePermission(middleware.PermCatalogWrite), catalog.ReplaceQuestions)
	admin.POST("/catalog/refresh-cache", middleware.RequirePermission(middleware.PermCatalogWrite), catalog.RefreshCache)

	ws := NewWSHandler(e.assessment, e.limiter, zerolog.Nop(), nil)
	r.GET("/ws/v1/assessments/:session_id/stream", middleware.RequireWSAuth(e.auth), ws.AssessmentStream)
	return r
}

// ─── Request helpers ────────────────────────────────────────────────

type envelope[T any] struct {
	Data  T `json:"data"`
	Error *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
	Pagination *response.Pagination `json:"pagination"`
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var body envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func (e *testEnv) start(t *testing.T, req model.StartAssessmentRequest) service.SessionView {
	t.Helper()
	w := e.do(http.MethodPost, "/api/v1/assessments", e.userToken, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[service.SessionView](t, w).Data
}
