package errs

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIs_CategoryAndSpecific(t *testing.T) {
	err := With(ErrMainDeviceConflict, "submit")

	assert.True(t, errors.Is(err, ErrInvariantViolation))
	assert.True(t, errors.Is(err, ErrMainDeviceConflict))
	assert.False(t, errors.Is(err, ErrAliasRequired))
	assert.False(t, errors.Is(err, ErrCapacityExceeded))
}

func TestIs_ThroughWrapping(t *testing.T) {
	inner := Wrap(CodeRemoteCallFailed, "list", fmt.Errorf("dial tcp: refused"), "")
	outer := fmt.Errorf("refresh: %w", inner)

	assert.True(t, errors.Is(outer, ErrRemoteCallFailed))
	assert.Equal(t, CodeRemoteCallFailed, CodeOf(outer))
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "open create: capacity exceeded", With(ErrCapacityExceeded, "open create").Error())
	assert.Equal(t, "submit: alias is required", With(ErrAliasRequired, "submit").Error())

	err := Wrap(CodeRemoteCallFailed, "turn-off", fmt.Errorf("boom"), "could not disconnect the instance")
	assert.Equal(t, "turn-off: could not disconnect the instance: boom", err.Error())
	assert.Equal(t, "could not disconnect the instance", MessageOf(err))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(nil))
	assert.Equal(t, CodeInternal, CodeOf(fmt.Errorf("plain")))
	assert.Equal(t, CodeBusy, CodeOf(ErrBusy))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeTenantUnresolved, http.StatusPreconditionFailed},
		{CodeCapacityExceeded, http.StatusConflict},
		{CodeInvariantViolation, http.StatusUnprocessableEntity},
		{CodeRemoteCallFailed, http.StatusBadGateway},
		{CodeBusy, http.StatusConflict},
		{CodeNotFound, http.StatusNotFound},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.code), tt.code)
	}
}
