package service

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/screening-backend/internal/config"
	"github.com/stemsi/screening-backend/internal/model"
	"github.com/stemsi/screening-backend/internal/screening"
)

// ErrInvalidTemplate is returned when a question bank replacement is malformed.
var ErrInvalidTemplate = errors.New("invalid question bank")

// SubstanceStore is the persistence behind the substance list.
type SubstanceStore interface {
	List(ctx context.Context) ([]model.Substance, error)
	GetByID(ctx context.Context, id int) (*model.Substance, error)
	Create(ctx context.Context, s *model.Substance) error
	Update(ctx context.Context, s *model.Substance) error
	Delete(ctx context.Context, id int) error
}

// QuestionStore is the persistence behind the per-instrument question banks.
type QuestionStore interface {
	ListQuestions(ctx context.Context, instrument model.InstrumentType) ([]model.CatalogQuestion, error)
	ReplaceQuestions(ctx context.Context, instrument model.InstrumentType, questions []model.CatalogQuestion) error
}

// CatalogService serves substances and question banks from a Redis cache
// warmed from PostgreSQL.
type CatalogService struct {
	substances SubstanceStore
	questions  QuestionStore
	rdb        *redis.Client
	ttl        time.Duration
	log        zerolog.Logger
}

// NewCatalogService creates a new CatalogService. A zero ttl keeps cache entries
// until the next write or warm.
func NewCatalogService(
	substances SubstanceStore,
	questions QuestionStore,
	rdb *redis.Client,
	ttl time.Duration,
	log zerolog.Logger,
) *CatalogService {
	return &CatalogService{
		substances: substances,
		questions:  questions,
		rdb:        rdb,
		ttl:        ttl,
		log:        log.With().Str("component", "catalog_service").Logger(),
	}
}

// ─── Reads ──────────────────────────────────────────────────────────

// Substances lists every selectable substance.
func (s *CatalogService) Substances(ctx context.Context) ([]model.Substance, error) {
	var out []model.Substance
	if s.readCache(ctx, config.CacheKey.CatalogSubstancesKey(), &out) {
		return out, nil
	}
	out, err := s.warmSubstances(ctx)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AssistTemplate returns the ASSIST question bank.
func (s *CatalogService) AssistTemplate(ctx context.Context) (model.AssistTemplate, error) {
	var tmpl model.AssistTemplate
	if s.readCache(ctx, config.CacheKey.CatalogTemplateKey(string(model.InstrumentAssist)), &tmpl) {
		return tmpl, nil
	}
	qs, err := s.warmTemplate(ctx, model.InstrumentAssist)
	if err != nil {
		return model.AssistTemplate{}, err
	}
	return assembleAssist(qs), nil
}

// FixedTemplate returns the CRAFFT question bank.
func (s *CatalogService) FixedTemplate(ctx context.Context) (model.FixedTemplate, error) {
	var tmpl model.FixedTemplate
	if s.readCache(ctx, config.CacheKey.CatalogTemplateKey(string(model.InstrumentCrafft)), &tmpl) {
		return tmpl, nil
	}
	qs, err := s.warmTemplate(ctx, model.InstrumentCrafft)
	if err != nil {
		return model.FixedTemplate{}, err
	}
	return assembleFixed(qs), nil
}

// Catalog gathers what the session builder needs for one instrument.
func (s *CatalogService) Catalog(ctx context.Context, instrument model.InstrumentType) (screening.Catalog, error) {
	var cat screening.Catalog
	var err error
	switch instrument {
	case model.InstrumentAssist:
		if cat.Substances, err = s.Substances(ctx); err != nil {
			return cat, err
		}
		cat.Assist, err = s.AssistTemplate(ctx)
	case model.InstrumentCrafft:
		cat.Fixed, err = s.FixedTemplate(ctx)
	default:
		err = fmt.Errorf("%w: %q", screening.ErrUnsupportedInstrument, instrument)
	}
	return cat, err
}

// PublicQuestions lists an instrument's questions in presentation order without weights.
// ASSIST template text keeps its substance placeholder.
func (s *CatalogService) PublicQuestions(ctx context.Context, instrument model.InstrumentType) ([]model.PublicQuestion, error) {
	var out []model.PublicQuestion
	switch instrument {
	case model.InstrumentAssist:
		tmpl, err := s.AssistTemplate(ctx)
		if err != nil {
			return nil, err
		}
		for _, q := range tmpl.TemplateQuestions {
			out = append(out, model.PublicQuestion{
				Kind: model.QuestionKindTemplate, OrderNum: q.Order,
				Text: q.TextTemplate, Options: model.PublicOptions(q.Options),
			})
		}
		if inj := tmpl.InjectionQuestion; inj != nil {
			out = append(out, model.PublicQuestion{
				Kind: model.QuestionKindInjection, Text: inj.Text, Options: model.PublicOptions(inj.Options),
			})
		}
	case model.InstrumentCrafft:
		tmpl, err := s.FixedTemplate(ctx)
		if err != nil {
			return nil, err
		}
		for _, q := range tmpl.Questions {
			out = append(out, model.PublicQuestion{
				Kind: model.QuestionKindFixed, OrderNum: q.Order,
				Text: q.Text, Options: model.PublicOptions(q.Options),
			})
		}
	default:
		return nil, fmt.Errorf("%w: %q", screening.ErrUnsupportedInstrument, instrument)
	}
	if out == nil {
		out = []model.PublicQuestion{}
	}
	return out, nil
}

// Questions lists an instrument's stored questions with weights, for administrators.
func (s *CatalogService) Questions(ctx context.Context, instrument model.InstrumentType) ([]model.CatalogQuestion, error) {
	return s.questions.ListQuestions(ctx, instrument)
}

// GetSubstance retrieves one substance from PostgreSQL.
func (s *CatalogService) GetSubstance(ctx context.Context, id int) (*model.Substance, error) {
	return s.substances.GetByID(ctx, id)
}

// ─── Writes ─────────────────────────────────────────────────────────

// CreateSubstance stores a substance and refreshes the cached list.
func (s *CatalogService) CreateSubstance(ctx context.Context, sub *model.Substance) error {
	if err := s.substances.Create(ctx, sub); err != nil {
		return err
	}
	s.refreshSubstances(ctx)
	return nil
}

// UpdateSubstance modifies a substance and refreshes the cached list.
func (s *CatalogService) UpdateSubstance(ctx context.Context, sub *model.Substance) error {
	if err := s.substances.Update(ctx, sub); err != nil {
		return err
	}
	s.refreshSubstances(ctx)
	return nil
}

// DeleteSubstance removes a substance and refreshes the cached list.
func (s *CatalogService) DeleteSubstance(ctx context.Context, id int) error {
	if err := s.substances.Delete(ctx, id); err != nil {
		return err
	}
	s.refreshSubstances(ctx)
	return nil
}

// ReplaceQuestions validates and stores a new question bank for an instrument,
// then re-warms its cache entry.
func (s *CatalogService) ReplaceQuestions(ctx context.Context, instrument model.InstrumentType, req model.ReplaceQuestionsRequest) ([]model.CatalogQuestion, error) {
	if !instrument.Valid() {
		return nil, fmt.Errorf("%w: %q", screening.ErrUnsupportedInstrument, instrument)
	}

	questions := make([]model.CatalogQuestion, len(req.Questions))
	for i, q := range req.Questions {
		opts := make([]model.AnswerOption, len(q.Options))
		for j, o := range q.Options {
			opts[j] = model.AnswerOption{Text: o.Text, ScoreWeight: o.ScoreWeight, NoUse: o.NoUse}
		}
		questions[i] = model.CatalogQuestion{
			Instrument: instrument,
			Kind:       model.QuestionKind(q.Kind),
			OrderNum:   q.OrderNum,
			Text:       q.Text,
			Options:    opts,
		}
	}

	if err := ValidateQuestionBank(instrument, questions); err != nil {
		return nil, err
	}
	if err := s.questions.ReplaceQuestions(ctx, instrument, questions); err != nil {
		return nil, fmt.Errorf("replace questions: %w", err)
	}

	if _, err := s.warmTemplate(ctx, instrument); err != nil {
		s.log.Warn().Err(err).Str("instrument", string(instrument)).Msg("Failed to re-warm template after replace")
	}

	s.log.Info().
		Str("instrument", string(instrument)).
		Int("questions", len(questions)).
		Msg("Question bank replaced")
	return questions, nil
}

// ValidateQuestionBank checks that a question bank can build sessions.
// ASSIST banks hold TEMPLATE questions with unique orders, a gate question carrying
// a no-use option, and at most one INJECTION question. CRAFFT banks hold FIXED
// questions with unique orders.
func ValidateQuestionBank(instrument model.InstrumentType, questions []model.CatalogQuestion) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidTemplate)
	}

	orders := make(map[int]bool, len(questions))
	injections := 0
	gateHasNoUse := false
	for _, q := range questions {
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: question %d has no options", ErrInvalidTemplate, q.OrderNum)
		}

		switch {
		case instrument == model.InstrumentAssist && q.Kind == model.QuestionKindInjection:
			injections++
			if injections > 1 {
				return fmt.Errorf("%w: more than one injection question", ErrInvalidTemplate)
			}
			continue
		case instrument == model.InstrumentAssist && q.Kind == model.QuestionKindTemplate:
		case instrument == model.InstrumentCrafft && q.Kind == model.QuestionKindFixed:
		default:
			return fmt.Errorf("%w: %s question not allowed for %s", ErrInvalidTemplate, q.Kind, instrument)
		}

		if orders[q.OrderNum] {
			return fmt.Errorf("%w: duplicate order %d", ErrInvalidTemplate, q.OrderNum)
		}
		orders[q.OrderNum] = true

		if instrument == model.InstrumentAssist && q.OrderNum == screening.GateOrder {
			gateHasNoUse = slices.ContainsFunc(q.Options, model.AnswerOption.IndicatesNoUse)
		}
	}

	if instrument == model.InstrumentAssist {
		if !orders[screening.GateOrder] {
			return fmt.Errorf("%w: missing gate question (order %d)", ErrInvalidTemplate, screening.GateOrder)
		}
		if !gateHasNoUse {
			return fmt.Errorf("%w: gate question needs a no-use option with weight 0", ErrInvalidTemplate)
		}
	}
	return nil
}

// ─── Cache ──────────────────────────────────────────────────────────

// Warm loads substances and both question banks into Redis. Call on startup.
func (s *CatalogService) Warm(ctx context.Context) error {
	subs, err := s.warmSubstances(ctx)
	if err != nil {
		return err
	}

	counts := make(map[model.InstrumentType]int, 2)
	for _, instrument := range []model.InstrumentType{model.InstrumentAssist, model.InstrumentCrafft} {
		qs, err := s.warmTemplate(ctx, instrument)
		if err != nil {
			return err
		}
		counts[instrument] = len(qs)
		if len(qs) == 0 {
			s.log.Warn().Str("instrument", string(instrument)).Msg("Instrument has no questions, sessions cannot start")
		}
	}

	s.log.Info().
		Int("substances", len(subs)).
		Int("assist_questions", counts[model.InstrumentAssist]).
		Int("crafft_questions", counts[model.InstrumentCrafft]).
		Msg("Catalog cache warmed")
	return nil
}

func (s *CatalogService) warmSubstances(ctx context.Context) ([]model.Substance, error) {
	subs, err := s.substances.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list substances: %w", err)
	}
	s.writeCache(ctx, config.CacheKey.CatalogSubstancesKey(), subs)
	return subs, nil
}

func (s *CatalogService) warmTemplate(ctx context.Context, instrument model.InstrumentType) ([]model.CatalogQuestion, error) {
	qs, err := s.questions.ListQuestions(ctx, instrument)
	if err != nil {
		return nil, fmt.Errorf("list %s questions: %w", instrument, err)
	}

	key := config.CacheKey.CatalogTemplateKey(string(instrument))
	switch instrument {
	case model.InstrumentAssist:
		s.writeCache(ctx, key, assembleAssist(qs))
	case model.InstrumentCrafft:
		s.writeCache(ctx, key, assembleFixed(qs))
	}
	return qs, nil
}

func (s *CatalogService) refreshSubstances(ctx context.Context) {
	if _, err := s.warmSubstances(ctx); err != nil {
		// Stale list would offer deleted substances; drop it instead.
		s.rdb.Del(ctx, config.CacheKey.CatalogSubstancesKey())
		s.log.Warn().Err(err).Msg("Failed to refresh substance cache")
	}
}

func (s *CatalogService) readCache(ctx context.Context, key string, dst any) bool {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Str("key", key).Msg("Catalog cache read failed, falling back to database")
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Corrupt catalog cache entry")
		return false
	}
	return true
}

func (s *CatalogService) writeCache(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("Marshal catalog cache entry")
		return
	}
	if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Catalog cache write failed")
	}
}

// ─── Assembly ───────────────────────────────────────────────────────

func assembleAssist(qs []model.CatalogQuestion) model.AssistTemplate {
	tmpl := model.AssistTemplate{TemplateQuestions: []model.TemplateQuestion{}}
	for _, q := range qs {
		switch q.Kind {
		case model.QuestionKindTemplate:
			tmpl.TemplateQuestions = append(tmpl.TemplateQuestions, model.TemplateQuestion{
				ID: q.ID, Order: q.OrderNum, TextTemplate: q.Text, Options: q.Options,
			})
		case model.QuestionKindInjection:
			tmpl.InjectionQuestion = &model.InjectionQuestion{ID: q.ID, Text: q.Text, Options: q.Options}
		}
	}
	slices.SortStableFunc(tmpl.TemplateQuestions, func(a, b model.TemplateQuestion) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return tmpl
}

func assembleFixed(qs []model.CatalogQuestion) model.FixedTemplate {
	tmpl := model.FixedTemplate{Questions: []model.FixedQuestion{}}
	for _, q := range qs {
		if q.Kind != model.QuestionKindFixed {
			continue
		}
		tmpl.Questions = append(tmpl.Questions, model.FixedQuestion{
			ID: q.ID, Order: q.OrderNum, Text: q.Text, Options: q.Options,
		})
	}
	slices.SortStableFunc(tmpl.Questions, func(a, b model.FixedQuestion) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return tmpl
}
