package screening

import "github.com/stemsi/screening-backend/internal/model"

// GateOrder is the template order of the "frequency of use" question.
const GateOrder = 2

// conditionalOrders are hidden for a substance whose gate reports no use.
var conditionalOrders = map[int]bool{3: true, 4: true, 5: true}

// Visible returns the questions to show, in session order. It is a pure function of
// its inputs: an unanswered gate keeps every question of its substance open, and a
// gate answered with the no-use option hides that substance's orders 3 to 5.
// Injection and fixed questions are always visible.
func Visible(questions []SessionQuestion, answers map[UID]int) []SessionQuestion {
	closed := make(map[int]bool)
	for _, q := range questions {
		if q.Kind != model.QuestionKindTemplate || q.Order != GateOrder {
			continue
		}
		optionID, ok := answers[q.UID]
		if !ok {
			continue
		}
		if opt, ok := q.Option(optionID); ok && opt.IndicatesNoUse() {
			closed[q.SubstanceID] = true
		}
	}

	visible := make([]SessionQuestion, 0, len(questions))
	for _, q := range questions {
		if q.Kind == model.QuestionKindTemplate && closed[q.SubstanceID] && conditionalOrders[q.Order] {
			continue
		}
		visible = append(visible, q)
	}
	return visible
}

// Visible recomputes the session's visible questions.
func (s Session) Visible() []SessionQuestion {
	return Visible(s.Questions, s.Answers)
}

// IsVisible reports whether uid is in the current visible set.
func (s Session) IsVisible(uid UID) bool {
	return indexOf(s.Visible(), uid) >= 0
}

func indexOf(questions []SessionQuestion, uid UID) int {
	for i, q := range questions {
		if q.UID == uid {
			return i
		}
	}
	return -1
}
