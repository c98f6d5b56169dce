package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := New(CodeNotFound, "alert 7 not found")
	assert.Equal(t, "not_found: alert 7 not found", err.Error())

	wrapped := Wrap(errors.New("connection refused"), CodeInternal, "failed to load alert")
	assert.Equal(t, "internal: failed to load alert: connection refused", wrapped.Error())
}

func TestNewf(t *testing.T) {
	err := Newf(CodeValidation, "invalid severity %d", 10)
	assert.Equal(t, "validation: invalid severity 10", err.Error())
}

func TestHasCode(t *testing.T) {
	err := New(CodeUnauthorized, "caller is not the admin")
	assert.True(t, HasCode(err, CodeUnauthorized))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeUnauthorized))
	assert.False(t, HasCode(nil, CodeUnauthorized))
}

func TestHasCodeThroughWrapping(t *testing.T) {
	inner := New(CodeAlreadyAcknowledged, "already acknowledged")
	outer := fmt.Errorf("acknowledge alert 3: %w", inner)
	assert.True(t, HasCode(outer, CodeAlreadyAcknowledged))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("row not found")
	err := Wrap(cause, CodeNotFound, "alert missing")
	assert.ErrorIs(t, err, cause)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeValidation, CodeOf(New(CodeValidation, "bad")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}
