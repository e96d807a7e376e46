package screening

import (
	"fmt"

	"github.com/stemsi/screening-backend/internal/model"
)

// Bands maps a score to a risk level: below MediumFrom is LOW, below HighFrom is
// MEDIUM, anything else HIGH.
type Bands struct {
	MediumFrom int
	HighFrom   int
}

var (
	DefaultAssistBands = Bands{MediumFrom: 10, HighFrom: 20}
	DefaultCrafftBands = Bands{MediumFrom: 1, HighFrom: 2}
)

// Valid reports whether the bands describe three non-empty ranges.
func (b Bands) Valid() bool {
	return b.MediumFrom > 0 && b.HighFrom > b.MediumFrom
}

// Classify returns the risk level of score.
func (b Bands) Classify(score int) model.RiskLevel {
	switch {
	case score >= b.HighFrom:
		return model.RiskHigh
	case score >= b.MediumFrom:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// Scorer computes results for complete sessions using per-instrument bands.
type Scorer struct {
	assist Bands
	crafft Bands
}

// NewScorer creates a Scorer. Invalid bands fall back to the documented defaults.
func NewScorer(assist, crafft Bands) *Scorer {
	if !assist.Valid() {
		assist = DefaultAssistBands
	}
	if !crafft.Valid() {
		crafft = DefaultCrafftBands
	}
	return &Scorer{assist: assist, crafft: crafft}
}

// Bands returns the bands in effect for an instrument.
func (sc *Scorer) Bands(instrument model.InstrumentType) Bands {
	if instrument == model.InstrumentCrafft {
		return sc.crafft
	}
	return sc.assist
}

// Score classifies a complete session. Only visible, answered questions count;
// the injection answer is recorded on the result but never scored.
// The returned result has no ID, user, or submission time yet.
func (sc *Scorer) Score(s Session) (model.AssessmentResult, error) {
	visible, err := s.requireComplete()
	if err != nil {
		return model.AssessmentResult{}, err
	}

	switch s.Instrument {
	case model.InstrumentAssist:
		return sc.scoreAssist(s, visible)
	case model.InstrumentCrafft:
		return sc.scoreFixed(s, visible), nil
	default:
		return model.AssessmentResult{}, fmt.Errorf("%w: %q", ErrUnsupportedInstrument, s.Instrument)
	}
}

func (sc *Scorer) scoreAssist(s Session, visible []SessionQuestion) (model.AssessmentResult, error) {
	if len(s.SubstanceIDs) == 0 {
		return model.AssessmentResult{}, ErrInvalidSelection
	}

	scores := make(map[int]int, len(s.SubstanceIDs))
	var injection *int
	for _, q := range visible {
		optionID := s.Answers[q.UID]
		switch q.Kind {
		case model.QuestionKindTemplate:
			opt, _ := q.Option(optionID)
			scores[q.SubstanceID] += opt.ScoreWeight
		case model.QuestionKindInjection:
			id := optionID
			injection = &id
		}
	}

	results := make([]model.SubstanceResult, 0, len(s.SubstanceIDs))
	top := 0
	for i, id := range s.SubstanceIDs {
		r := model.SubstanceResult{
			SubstanceID: id,
			Score:       scores[id],
			RiskLevel:   sc.assist.Classify(scores[id]),
		}
		results = append(results, r)

		best := results[top]
		if r.RiskLevel.Rank() > best.RiskLevel.Rank() ||
			(r.RiskLevel == best.RiskLevel && r.Score > best.Score) {
			top = i
		}
	}

	return model.AssessmentResult{
		Instrument:          model.InstrumentAssist,
		PerSubstanceResults: results,
		InjectionAnswerID:   injection,
		OverallScore:        results[top].Score,
		OverallRiskLevel:    results[top].RiskLevel,
	}, nil
}

func (sc *Scorer) scoreFixed(s Session, visible []SessionQuestion) model.AssessmentResult {
	total := 0
	for _, q := range visible {
		if q.Kind != model.QuestionKindFixed {
			continue
		}
		opt, _ := q.Option(s.Answers[q.UID])
		total += opt.ScoreWeight
	}
	return model.AssessmentResult{
		Instrument:       model.InstrumentCrafft,
		OverallScore:     total,
		OverallRiskLevel: sc.crafft.Classify(total),
	}
}
