package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDomainErrors_CallerErrors tests the dispatcher's early rejection messages
func TestDomainErrors_CallerErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
		code    ErrorCode
	}{
		{"unrecognized_gateway", ErrUnrecognizedGateway, "Unrecognized gateway", ErrorCodeUnrecognizedGateway},
		{"unrecognized_action", ErrUnrecognizedAction, "Unrecognized Action", ErrorCodeUnrecognizedAction},
		{"no_action", ErrNoAction, "No action", ErrorCodeUnrecognizedAction},
		{"no_data", ErrNoData, "No Data", ErrorCodeMissingField},
		{"no_secure_data", ErrNoSecureData, "No Secure Data", ErrorCodeMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.message, UserMessage(tt.err))
			assert.Equal(t, tt.code, GetErrorCode(tt.err))
			assert.True(t, IsCallerError(tt.err))
		})
	}
}

func TestDomainErrors_MissingParameter(t *testing.T) {
	err := MissingParameter("cc_number")

	assert.Equal(t, "Missing required parameter: cc_number", UserMessage(err))
	assert.Equal(t, "cc_number", err.Details["parameter"])
	assert.True(t, IsDomainError(err, ErrorCodeMissingField))
}

func TestDomainErrors_InvalidParameter(t *testing.T) {
	cause := errors.New("can't convert $50 to decimal")
	err := InvalidParameter("money", cause)

	assert.Equal(t, "Invalid value for parameter: money", UserMessage(err))
	assert.ErrorIs(t, err, cause)
	assert.True(t, strings.Contains(err.Error(), "$50"))
}

func TestDomainErrors_Wrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapBackendError("Orbital: gateway unavailable", cause)
	wrapped := fmt.Errorf("capture: %w", err)

	assert.True(t, IsDomainError(wrapped, ErrorCodeBackendError))
	assert.Equal(t, "Orbital: gateway unavailable", UserMessage(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.False(t, IsCallerError(wrapped))
}

func TestDomainErrors_UserMessagePlainError(t *testing.T) {
	assert.Equal(t, "boom", UserMessage(errors.New("boom")))
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("boom")))
}
