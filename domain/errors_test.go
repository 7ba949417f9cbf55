package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&EvaluationUnavailable{Message: "timeout"}))
	assert.True(t, IsRetryable(fmt.Errorf("advance: %w", &PersistenceError{Op: "save"})))
	assert.True(t, IsRetryable(&ConflictError{Message: "busy", Retryable: true}))

	assert.False(t, IsRetryable(&ConflictError{Message: "completed"}))
	assert.False(t, IsRetryable(&ValidationError{Field: "id", Message: "bad"}))
	assert.False(t, IsRetryable(&NotFoundError{Entity: "interview", ID: "x"}))
}

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("boom")
	assert.ErrorIs(t, &EvaluationUnavailable{Message: "call", Cause: cause}, cause)
	assert.ErrorIs(t, &PersistenceError{Op: "update", Cause: cause}, cause)
}

func TestParseID(t *testing.T) {
	id := NewID()
	got, err := ParseID("interview_id", "  "+id+" ")
	assert.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseID("interview_id", "")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = ParseID("interview_id", "65f1c0ffee")
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, "interview_id", verr.Field)
}
