package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/screening-backend/internal/model"
	"github.com/stemsi/screening-backend/internal/response"
	"github.com/stemsi/screening-backend/internal/screening"
)

// Domain Errors
var (
	ErrSessionNotFound = errors.New("assessment session not found")
	ErrSessionClosed   = errors.New("assessment session is no longer in progress")
)

// NavigateAction selects how Navigate moves the cursor.
type NavigateAction string

const (
	NavigateNext     NavigateAction = "next"
	NavigatePrevious NavigateAction = "previous"
	NavigateJump     NavigateAction = "jump"
)

// CatalogProvider supplies the catalog a session is planned against.
type CatalogProvider interface {
	Catalog(ctx context.Context, instrument model.InstrumentType) (screening.Catalog, error)
}

// SessionStore holds in-progress sessions.
type SessionStore interface {
	Load(ctx context.Context, userID int, id uuid.UUID) (screening.Session, error)
	Save(ctx context.Context, userID int, s screening.Session) error
	Delete(ctx context.Context, userID int, id uuid.UUID) error
}

// SessionRepository persists session headers and journaled answers.
type SessionRepository interface {
	Create(ctx context.Context, s *model.AssessmentSessionRecord) error
	GetByID(ctx context.Context, id uuid.UUID, userID int) (*model.AssessmentSessionRecord, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.SessionStatus) error
	ListDraftAnswers(ctx context.Context, sessionID uuid.UUID) ([]model.DraftAnswer, error)
}

// AnswerJournal records accepted answers durably.
type AnswerJournal interface {
	Record(ctx context.Context, sessionID uuid.UUID, uid screening.UID, optionID int, answeredAt time.Time) error
}

// Submitter delivers a completed assessment.
type Submitter interface {
	Submit(ctx context.Context, sub screening.Submission, result model.AssessmentResult) (*model.AssessmentResult, error)
}

// Recommender looks up courses for a risk level.
type Recommender interface {
	ForRiskLevel(ctx context.Context, level model.RiskLevel) ([]model.Course, error)
}

// ResultLister pages through stored results.
type ResultLister interface {
	ListByUser(ctx context.Context, userID, page, perPage int) ([]model.AssessmentResult, int, error)
}

// SubmitOutcome is what a successful submission returns to the respondent.
type SubmitOutcome struct {
	Result  model.AssessmentResult `json:"result"`
	Courses []model.Course         `json:"courses"`
}

// AssessmentService runs screening sessions: a session is loaded, transformed by the
// screening engine, and saved back. Each call is a single mutator of its session.
type AssessmentService struct {
	catalog     CatalogProvider
	store       SessionStore
	sessions    SessionRepository
	journal     AnswerJournal
	submitter   Submitter
	recommender Recommender
	results     ResultLister
	scorer      *screening.Scorer
	now         func() time.Time
	log         zerolog.Logger
}

// NewAssessmentService creates a new AssessmentService.
func NewAssessmentService(
	catalog CatalogProvider,
	store SessionStore,
	sessions SessionRepository,
	journal AnswerJournal,
	submitter Submitter,
	recommender Recommender,
	results ResultLister,
	scorer *screening.Scorer,
	log zerolog.Logger,
) *AssessmentService {
	return &AssessmentService{
		catalog:     catalog,
		store:       store,
		sessions:    sessions,
		journal:     journal,
		submitter:   submitter,
		recommender: recommender,
		results:     results,
		scorer:      scorer,
		now:         time.Now,
		log:         log.With().Str("component", "assessment_service").Logger(),
	}
}

// Start plans a new session for the user and stores it.
func (s *AssessmentService) Start(ctx context.Context, userID int, instrument model.InstrumentType, substanceIDs []int) (screening.Session, error) {
	if !instrument.Valid() {
		return screening.Session{}, fmt.Errorf("%w: %q", screening.ErrUnsupportedInstrument, instrument)
	}

	cat, err := s.catalog.Catalog(ctx, instrument)
	if err != nil {
		return screening.Session{}, fmt.Errorf("load catalog: %w", err)
	}

	sess, err := screening.Build(instrument, substanceIDs, cat)
	if err != nil {
		return screening.Session{}, err
	}
	sess.ID = uuid.New()

	record := &model.AssessmentSessionRecord{
		ID:           sess.ID,
		UserID:       userID,
		Instrument:   instrument,
		SubstanceIDs: sess.SubstanceIDs,
	}
	if err := s.sessions.Create(ctx, record); err != nil {
		return screening.Session{}, fmt.Errorf("create session record: %w", err)
	}
	sess.CreatedAt = record.StartedAt

	if err := s.store.Save(ctx, userID, sess); err != nil {
		return screening.Session{}, err
	}

	s.log.Info().
		Int("user_id", userID).
		Str("session_id", sess.ID.String()).
		Str("instrument", string(instrument)).
		Ints("substance_ids", sess.SubstanceIDs).
		Int("questions", len(sess.Questions)).
		Msg("Assessment started")
	return sess, nil
}

// Get returns the user's session, rebuilding it from PostgreSQL when Redis lost it.
func (s *AssessmentService) Get(ctx context.Context, userID int, id uuid.UUID) (screening.Session, error) {
	sess, err := s.store.Load(ctx, userID, id)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, ErrSessionNotCached) {
		return screening.Session{}, err
	}
	return s.rebuild(ctx, userID, id)
}

// Answer records optionID for a visible question.
func (s *AssessmentService) Answer(ctx context.Context, userID int, id uuid.UUID, uid screening.UID, optionID int) (screening.Session, error) {
	sess, err := s.Get(ctx, userID, id)
	if err != nil {
		return screening.Session{}, err
	}

	next, err := sess.SetAnswer(uid, optionID)
	if err != nil {
		return screening.Session{}, err
	}
	if err := s.store.Save(ctx, userID, next); err != nil {
		return screening.Session{}, err
	}

	if err := s.journal.Record(ctx, id, uid, optionID, s.now().UTC()); err != nil {
		// The answer is live in Redis; only a later rebuild would miss it.
		s.log.Warn().Err(err).
			Str("session_id", id.String()).
			Str("uid", string(uid)).
			Msg("Failed to journal answer")
	}
	return next, nil
}

// Navigate moves the session cursor. uid is only read for NavigateJump.
func (s *AssessmentService) Navigate(ctx context.Context, userID int, id uuid.UUID, action NavigateAction, uid screening.UID) (screening.Session, error) {
	sess, err := s.Get(ctx, userID, id)
	if err != nil {
		return screening.Session{}, err
	}

	var next screening.Session
	switch action {
	case NavigateNext:
		next = sess.Next()
	case NavigatePrevious:
		next = sess.Previous()
	case NavigateJump:
		if next, err = sess.JumpTo(uid); err != nil {
			return screening.Session{}, err
		}
	default:
		return screening.Session{}, fmt.Errorf("unknown navigate action %q", action)
	}

	if next.CurrentIndex == sess.CurrentIndex {
		return next, nil
	}
	if err := s.store.Save(ctx, userID, next); err != nil {
		return screening.Session{}, err
	}
	return next, nil
}

// Pending lists the visible questions still unanswered.
func (s *AssessmentService) Pending(ctx context.Context, userID int, id uuid.UUID) ([]screening.UID, error) {
	sess, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return sess.Pending(), nil
}

// Submit scores a complete session and hands it to the submitter. On failure the
// session stays as it was; on success it is consumed.
func (s *AssessmentService) Submit(ctx context.Context, userID int, id uuid.UUID) (*SubmitOutcome, error) {
	sess, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	result, err := s.scorer.Score(sess)
	if err != nil {
		return nil, err
	}
	payload, err := screening.BuildSubmission(sess)
	if err != nil {
		return nil, err
	}

	result.ID = sess.ID
	result.UserID = userID
	result.SubmittedAt = s.now().UTC()

	stored, err := s.submitter.Submit(ctx, payload, result)
	if err != nil {
		s.log.Error().Err(err).
			Int("user_id", userID).
			Str("session_id", id.String()).
			Msg("Submission failed")
		return nil, fmt.Errorf("%w: %v", screening.ErrSubmissionFailed, err)
	}

	// Close the header before dropping the cached copy, otherwise a cache miss
	// would rebuild the submitted session from its draft answers.
	if err := s.sessions.UpdateStatus(ctx, id, model.SessionStatusSubmitted); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.log.Debug().Str("session_id", id.String()).Msg("Session already closed by result worker")
		} else {
			s.log.Error().Err(err).Str("session_id", id.String()).Msg("Failed to close submitted session")
		}
	}
	if err := s.store.Delete(ctx, userID, id); err != nil {
		s.log.Warn().Err(err).Str("session_id", id.String()).Msg("Failed to drop submitted session")
	}

	courses, err := s.recommender.ForRiskLevel(ctx, stored.OverallRiskLevel)
	if err != nil {
		s.log.Warn().Err(err).
			Str("risk_level", string(stored.OverallRiskLevel)).
			Msg("Course lookup failed")
		courses = []model.Course{}
	}

	s.log.Info().
		Int("user_id", userID).
		Str("session_id", id.String()).
		Str("instrument", string(stored.Instrument)).
		Int("overall_score", stored.OverallScore).
		Str("overall_risk", string(stored.OverallRiskLevel)).
		Msg("Assessment submitted")
	return &SubmitOutcome{Result: *stored, Courses: courses}, nil
}

// Abandon closes an in-progress session without a result.
func (s *AssessmentService) Abandon(ctx context.Context, userID int, id uuid.UUID) error {
	if _, err := s.header(ctx, userID, id); err != nil {
		return err
	}
	if err := s.sessions.UpdateStatus(ctx, id, model.SessionStatusAbandoned); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSessionClosed
		}
		return fmt.Errorf("update session status: %w", err)
	}
	if err := s.store.Delete(ctx, userID, id); err != nil {
		s.log.Warn().Err(err).Str("session_id", id.String()).Msg("Failed to drop abandoned session")
	}

	s.log.Info().Int("user_id", userID).Str("session_id", id.String()).Msg("Assessment abandoned")
	return nil
}

// Results pages through the user's stored results, newest first.
func (s *AssessmentService) Results(ctx context.Context, userID, page, perPage int) ([]model.AssessmentResult, *response.Pagination, error) {
	page, perPage = response.NormalizePage(page, perPage)
	results, total, err := s.results.ListByUser(ctx, userID, page, perPage)
	if err != nil {
		return nil, nil, err
	}
	return results, response.NewPagination(page, perPage, total), nil
}

// ─── Internal helpers ───────────────────────────────────────────────

func (s *AssessmentService) header(ctx context.Context, userID int, id uuid.UUID) (*model.AssessmentSessionRecord, error) {
	record, err := s.sessions.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session record: %w", err)
	}
	if record.Status != model.SessionStatusInProgress {
		return nil, ErrSessionClosed
	}
	return record, nil
}

// rebuild replans the session from its header against the current catalog and
// replays journaled answers. Answers the catalog no longer offers are dropped.
func (s *AssessmentService) rebuild(ctx context.Context, userID int, id uuid.UUID) (screening.Session, error) {
	record, err := s.header(ctx, userID, id)
	if err != nil {
		return screening.Session{}, err
	}

	cat, err := s.catalog.Catalog(ctx, record.Instrument)
	if err != nil {
		return screening.Session{}, fmt.Errorf("load catalog: %w", err)
	}
	sess, err := screening.Build(record.Instrument, record.SubstanceIDs, cat)
	if err != nil {
		return screening.Session{}, fmt.Errorf("rebuild session: %w", err)
	}
	sess.ID = record.ID
	sess.CreatedAt = record.StartedAt

	drafts, err := s.sessions.ListDraftAnswers(ctx, id)
	if err != nil {
		return screening.Session{}, fmt.Errorf("list draft answers: %w", err)
	}
	answers := make(map[screening.UID]int, len(drafts))
	for _, d := range drafts {
		answers[screening.UID(d.UID)] = d.OptionID
	}
	sess, dropped := sess.Restore(answers)

	if err := s.store.Save(ctx, userID, sess); err != nil {
		s.log.Warn().Err(err).Str("session_id", id.String()).Msg("Failed to re-cache rebuilt session")
	}

	s.log.Info().
		Int("user_id", userID).
		Str("session_id", id.String()).
		Int("restored", len(answers)-dropped).
		Int("dropped", dropped).
		Msg("Session rebuilt from database")
	return sess, nil
}
