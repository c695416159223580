package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errSample = Precondition("SAMPLE", "sample failed")

func TestIsMatchesByCode(t *testing.T) {
	specific := errSample.Withf("sample failed for %s", "H1")
	wrapped := fmt.Errorf("record: %w", specific)

	assert.True(t, errors.Is(wrapped, errSample))
	assert.False(t, errors.Is(wrapped, Precondition("OTHER", "x")))
	assert.Equal(t, "record: sample failed for H1", wrapped.Error())
	assert.Equal(t, "sample failed", errSample.Message, "sentinel must not be mutated")
}

func TestKindOfAndStatus(t *testing.T) {
	cases := []struct {
		err    error
		kind   Kind
		status int
	}{
		{Validation("V", "bad"), KindValidation, http.StatusBadRequest},
		{fmt.Errorf("ctx: %w", errSample), KindPrecondition, http.StatusUnprocessableEntity},
		{NotFound("N", "missing"), KindNotFound, http.StatusNotFound},
		{Conflict("C", "dup"), KindConflict, http.StatusConflict},
		{Transient("T", "timeout"), KindTransient, http.StatusBadGateway},
		{Unauthorized("U", "bad login"), KindUnauthorized, http.StatusUnauthorized},
		{Integrity(errors.New("constraint")), KindIntegrity, http.StatusInternalServerError},
		{errors.New("plain"), KindUnknown, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, KindOf(tc.err), tc.err.Error())
		assert.Equal(t, tc.status, HTTPStatus(KindOf(tc.err)), tc.err.Error())
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Transient("SMS_DOWN", "sms provider unavailable").Wrap(cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsRetryable(err))
	assert.False(t, IsRetryable(errSample))
}
