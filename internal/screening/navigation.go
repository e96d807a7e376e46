package screening

import "fmt"

// Current returns the question under the cursor.
func (s Session) Current() (SessionQuestion, bool) {
	visible := s.Visible()
	if len(visible) == 0 {
		return SessionQuestion{}, false
	}
	return visible[clampIndex(s.CurrentIndex, len(visible))], true
}

// Next moves to the following visible question; no-op on the last one.
func (s Session) Next() Session {
	n := len(s.Visible())
	s.CurrentIndex = clampIndex(s.CurrentIndex, n)
	if s.CurrentIndex < n-1 {
		s.CurrentIndex++
	}
	return s
}

// Previous moves to the preceding visible question; no-op on the first one.
func (s Session) Previous() Session {
	s.CurrentIndex = clampIndex(s.CurrentIndex, len(s.Visible()))
	if s.CurrentIndex > 0 {
		s.CurrentIndex--
	}
	return s
}

// JumpTo moves the cursor onto uid, which must be currently visible.
func (s Session) JumpTo(uid UID) (Session, error) {
	i := indexOf(s.Visible(), uid)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrQuestionNotVisible, uid)
	}
	s.CurrentIndex = i
	return s, nil
}

func clampIndex(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}
