package screening

// Pending lists the uids of visible questions without an answer, in visible order.
func Pending(visible []SessionQuestion, answers map[UID]int) []UID {
	pending := make([]UID, 0)
	for _, q := range visible {
		if _, ok := answers[q.UID]; !ok {
			pending = append(pending, q.UID)
		}
	}
	return pending
}

// Pending lists the session's unanswered visible questions.
func (s Session) Pending() []UID {
	return Pending(s.Visible(), s.Answers)
}

// Complete reports whether the session may be scored and submitted.
func (s Session) Complete() bool {
	return len(s.Pending()) == 0
}

func (s Session) requireComplete() ([]SessionQuestion, error) {
	visible := s.Visible()
	if pending := Pending(visible, s.Answers); len(pending) > 0 {
		return nil, &IncompleteError{Pending: pending}
	}
	return visible, nil
}
