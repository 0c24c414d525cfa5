package scrapeerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesSentinelOfItsKind(t *testing.T) {
	err := Input("episode does already exist")

	assert.ErrorIs(t, err, ErrInput)
	assert.NotErrorIs(t, err, ErrExtraction)
	assert.Equal(t, "input error: episode does already exist", err.Error())
}

func TestWrappedErrorKeepsKind(t *testing.T) {
	inner := Extraction("expected 3 matches, found 2")
	err := fmt.Errorf("field %q: %w", "imgs", inner)

	assert.ErrorIs(t, err, ErrExtraction)
	assert.Equal(t, KindExtraction, KindOf(err))
	assert.Equal(t, "expected 3 matches, found 2", Message(err))
}

func TestWrapExposesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindFetch, cause, "GET https://example.com")

	assert.ErrorIs(t, err, ErrFetch)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "fetch error: GET https://example.com: connection reset", err.Error())
}

func TestIsComparesMessageWhenTargetHasOne(t *testing.T) {
	err := Input("failed to parse episode")

	assert.ErrorIs(t, err, &Error{Kind: KindInput, Msg: "failed to parse episode"})
	assert.NotErrorIs(t, err, &Error{Kind: KindInput, Msg: "episode does already exist"})
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
	assert.Equal(t, "", Message(errors.New("plain")))
}
