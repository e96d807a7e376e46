package screening

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigation_NextPreviousBounds(t *testing.T) {
	s, err := NewFixedSession(testCatalog().Fixed)
	require.NoError(t, err)

	s = s.Previous()
	assert.Equal(t, 0, s.CurrentIndex)

	s = s.Next().Next().Next().Next()
	assert.Equal(t, 2, s.CurrentIndex)

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, UID("f:3"), cur.UID)

	s = s.Previous()
	assert.Equal(t, 1, s.CurrentIndex)
}

func TestNavigation_JumpTo(t *testing.T) {
	s := newAssist(t, alcohol)

	s, err := s.JumpTo("t:5:1")
	require.NoError(t, err)
	assert.Equal(t, 3, s.CurrentIndex)

	s = answerAll(t, s, answer{"t:2:1", 21})
	_, err = s.JumpTo("t:4:1")
	assert.ErrorIs(t, err, ErrQuestionNotVisible)

	_, err = s.JumpTo("nope")
	assert.ErrorIs(t, err, ErrQuestionNotVisible)
}

func TestNavigation_ReclampAfterVisibleSetShrinks(t *testing.T) {
	cat := testCatalog()
	cat.Assist.InjectionQuestion = nil
	s, err := NewAssistSession([]int{alcohol}, cat.Substances, cat.Assist)
	require.NoError(t, err)

	// Park on the last question, then close the gate: 6 visible questions become 3.
	s = s.Next().Next().Next().Next().Next()
	require.Equal(t, 5, s.CurrentIndex)

	s = answerAll(t, s, answer{"t:2:1", 21})
	assert.Equal(t, 2, s.CurrentIndex)

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, UID("t:7:1"), cur.UID)

	s = s.Next()
	assert.Equal(t, 2, s.CurrentIndex, "next on last visible question is a no-op")
}

func TestNavigation_StaleIndexIsClampedOnMove(t *testing.T) {
	s := newAssist(t, alcohol)
	s.CurrentIndex = 40

	s = s.Previous()
	assert.Equal(t, len(s.Visible())-2, s.CurrentIndex)
}
