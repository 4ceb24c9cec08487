package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := errors.New("boom")
	err := fmt.Errorf("wrapped: %w", E(TranscriptFailure, "transcript.Fetch", base))

	assert.Equal(t, TranscriptFailure, KindOf(err))
	assert.True(t, IsKind(err, TranscriptFailure))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, Internal, KindOf(base))
	assert.False(t, IsKind(nil, Internal))
}

func TestErrorIsMatchesKind(t *testing.T) {
	err := Errorf(NotFound, "db.Get", "session %s", "abc")

	assert.ErrorIs(t, err, &Error{Kind: NotFound})
	assert.NotErrorIs(t, err, &Error{Kind: InvalidInput})
	assert.Equal(t, "db.Get: not_found: session abc", err.Error())
}
