package apierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindConfiguration, "ConfigurationError"},
		{KindInvalidInvocation, "InvalidInvocation"},
		{KindTransport, "TransportError"},
		{KindMalformedResponse, "MalformedResponse"},
		{KindCallback, "CallbackError"},
		{KindBind, "BindError"},
		{Kind(42), "Unknown(42)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.String())
		})
	}
}

func TestErrorsIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("call failed: %w", E(KindTransport, "GET reports/list", errors.New("connection refused")))

	assert.ErrorIs(t, err, ErrTransport)
	assert.NotErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, KindTransport, KindOf(err))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := E(KindCallback, "dispatch", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrCallback)
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Kind: KindTransport, Op: "GET reports/list", Status: 502, Err: errors.New("bad gateway")}
	assert.Equal(t, "TransportError (GET reports/list) HTTP 502: bad gateway", err.Error())

	bind := &Error{Kind: KindBind, Op: "response.Classify", Mark: "_eapi_reports_list", Err: errors.New("entry 0 is not an object")}
	assert.Equal(t, "BindError (response.Classify) [_eapi_reports_list]: entry 0 is not an object", bind.Error())

	assert.Equal(t, "ConfigurationError", ErrConfiguration.Error())
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestErrorf(t *testing.T) {
	err := Errorf(KindInvalidInvocation, "endpoint.Parse", "need at least %d tokens, got %d", 3, 2)
	assert.ErrorIs(t, err, ErrInvalidInvocation)
	assert.Contains(t, err.Error(), "need at least 3 tokens, got 2")
}
