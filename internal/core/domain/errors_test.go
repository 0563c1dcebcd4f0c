package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrNotImplemented", ErrNotImplemented},
		{"ErrMalformedResult", ErrMalformedResult},
		{"ErrInvalidAction", ErrInvalidAction},
		{"ErrSlowSearchUsed", ErrSlowSearchUsed},
		{"ErrIndexCorrupted", ErrIndexCorrupted},
		{"ErrUnsupportedSearch", ErrUnsupportedSearch},
		{"ErrServerFailed", ErrServerFailed},
		{"ErrInvalidAttribute", ErrInvalidAttribute},
		{"ErrMixedReturnTypes", ErrMixedReturnTypes},
		{"ErrActionAttrsWithPackages", ErrActionAttrsWithPackages},
		{"ErrInvalidRepositoryURL", ErrInvalidRepositoryURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestTypedErrors_Unwrap(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"malformed", &MalformedResultError{Fields: []string{"a"}}, ErrMalformedResult},
		{"invalid action", &InvalidActionError{Raw: "bogus", Reason: "x"}, ErrInvalidAction},
		{"invalid attribute", &InvalidAttributeError{Attribute: "action.bogus"}, ErrInvalidAttribute},
		{"corrupted", &IndexCorruptedError{Cause: "hash"}, ErrIndexCorrupted},
		{"servers", &ProblematicServersError{}, ErrServerFailed},
		{"server unsupported", &ServerError{Err: ErrUnsupportedSearch}, ErrUnsupportedSearch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.target))
			wrapped := fmt.Errorf("context: %w", tt.err)
			assert.True(t, errors.Is(wrapped, tt.target))
		})
	}
}

func TestInvalidAttributeError_Message(t *testing.T) {
	err := &InvalidAttributeError{Attribute: "action.bogus"}
	assert.Equal(t, "invalid attribute 'action.bogus'", err.Error())
}

func TestProblematicServersError(t *testing.T) {
	e := &ProblematicServersError{}
	assert.True(t, e.Empty())

	e.Add(&ServerError{Publisher: "example", Origin: "http://a", Err: errors.New("connection refused")})
	e.Add(&ServerError{Origin: "http://b", Err: ErrUnsupportedSearch})

	assert.False(t, e.Empty())
	assert.Len(t, e.Failed, 1)
	assert.Len(t, e.Unsupported, 1)

	msg := e.Error()
	assert.Contains(t, msg, "Some servers failed to respond appropriately:")
	assert.Contains(t, msg, "example:\nconnection refused")
	assert.Contains(t, msg, "Some servers don't support requested search operation:")
	assert.Contains(t, msg, "http://b:")
}

func TestServerError(t *testing.T) {
	err := &ServerError{Publisher: "p", Origin: "http://o", Err: errors.New("boom")}
	assert.Equal(t, "p (http://o): boom", err.Error())
	assert.False(t, err.Unsupported())

	var se *ServerError
	assert.True(t, errors.As(fmt.Errorf("wrap: %w", err), &se))
}
