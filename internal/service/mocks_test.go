package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/screening-backend/internal/model"
	"github.com/stemsi/screening-backend/internal/screening"
	"github.com/stretchr/testify/mock"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// ─── Catalog stores ─────────────────────────────────────────────────

type mockSubstanceStore struct{ mock.Mock }

func (m *mockSubstanceStore) List(ctx context.Context) ([]model.Substance, error) {
	args := m.Called(ctx)
	subs, _ := args.Get(0).([]model.Substance)
	return subs, args.Error(1)
}

func (m *mockSubstanceStore) GetByID(ctx context.Context, id int) (*model.Substance, error) {
	args := m.Called(ctx, id)
	sub, _ := args.Get(0).(*model.Substance)
	return sub, args.Error(1)
}

func (m *mockSubstanceStore) Create(ctx context.Context, s *model.Substance) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSubstanceStore) Update(ctx context.Context, s *model.Substance) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSubstanceStore) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

type mockQuestionStore struct{ mock.Mock }

func (m *mockQuestionStore) ListQuestions(ctx context.Context, instrument model.InstrumentType) ([]model.CatalogQuestion, error) {
	args := m.Called(ctx, instrument)
	qs, _ := args.Get(0).([]model.CatalogQuestion)
	return qs, args.Error(1)
}

func (m *mockQuestionStore) ReplaceQuestions(ctx context.Context, instrument model.InstrumentType, questions []model.CatalogQuestion) error {
	return m.Called(ctx, instrument, questions).Error(0)
}

// ─── Assessment collaborators ───────────────────────────────────────

type stubCatalog struct {
	cat screening.Catalog
	err error
}

func (s stubCatalog) Catalog(_ context.Context, _ model.InstrumentType) (screening.Catalog, error) {
	return s.cat, s.err
}

type mockSessionRepo struct{ mock.Mock }

func (m *mockSessionRepo) Create(ctx context.Context, s *model.AssessmentSessionRecord) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSessionRepo) GetByID(ctx context.Context, id uuid.UUID, userID int) (*model.AssessmentSessionRecord, error) {
	args := m.Called(ctx, id, userID)
	rec, _ := args.Get(0).(*model.AssessmentSessionRecord)
	return rec, args.Error(1)
}

func (m *mockSessionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.SessionStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockSessionRepo) ListDraftAnswers(ctx context.Context, sessionID uuid.UUID) ([]model.DraftAnswer, error) {
	args := m.Called(ctx, sessionID)
	drafts, _ := args.Get(0).([]model.DraftAnswer)
	return drafts, args.Error(1)
}

type mockJournal struct{ mock.Mock }

func (m *mockJournal) Record(ctx context.Context, sessionID uuid.UUID, uid screening.UID, optionID int, answeredAt time.Time) error {
	return m.Called(ctx, sessionID, uid, optionID, answeredAt).Error(0)
}

type mockSubmitter struct{ mock.Mock }

func (m *mockSubmitter) Submit(ctx context.Context, sub screening.Submission, result model.AssessmentResult) (*model.AssessmentResult, error) {
	args := m.Called(ctx, sub, result)
	res, _ := args.Get(0).(*model.AssessmentResult)
	return res, args.Error(1)
}

type mockRecommender struct{ mock.Mock }

func (m *mockRecommender) ForRiskLevel(ctx context.Context, level model.RiskLevel) ([]model.Course, error) {
	args := m.Called(ctx, level)
	courses, _ := args.Get(0).([]model.Course)
	return courses, args.Error(1)
}

type mockResultLister struct{ mock.Mock }

func (m *mockResultLister) ListByUser(ctx context.Context, userID, page, perPage int) ([]model.AssessmentResult, int, error) {
	args := m.Called(ctx, userID, page, perPage)
	res, _ := args.Get(0).([]model.AssessmentResult)
	return res, args.Int(1), args.Error(2)
}

// ─── Catalog fixture ────────────────────────────────────────────────

func opts(pairs ...int) []model.AnswerOption {
	out := make([]model.AnswerOption, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, model.AnswerOption{ID: pairs[i], Text: "opt", ScoreWeight: pairs[i+1]})
	}
	return out
}

// testCatalog has two substances, three template questions (gate, conditional
// order 3, unconditional order 6), an injection question, and two CRAFFT items.
func testCatalog() screening.Catalog {
	gate := opts(21, 0, 22, 2, 25, 6)
	gate[0].NoUse = true
	return screening.Catalog{
		Substances: []model.Substance{{ID: 1, Name: "alcohol"}, {ID: 2, Name: "cannabis"}},
		Assist: model.AssistTemplate{
			TemplateQuestions: []model.TemplateQuestion{
				{ID: 2, Order: 2, TextTemplate: "How often {substance}?", Options: gate},
				{ID: 3, Order: 3, TextTemplate: "Urge for {substance}?", Options: opts(31, 0, 35, 6)},
				{ID: 6, Order: 6, TextTemplate: "Concern about {substance}?", Options: opts(61, 0, 62, 6)},
			},
			InjectionQuestion: &model.InjectionQuestion{ID: 8, Text: "Injected?", Options: opts(81, 0, 82, 2)},
		},
		Fixed: model.FixedTemplate{Questions: []model.FixedQuestion{
			{ID: 11, Order: 1, Text: "Car?", Options: opts(100, 0, 101, 1)},
			{ID: 12, Order: 2, Text: "Relax?", Options: opts(200, 0, 201, 1)},
		}},
	}
}
