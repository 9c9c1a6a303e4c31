package clienterr

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	err := NewTransport("get /summary/", io.ErrUnexpectedEOF)
	assert.Equal(t, "TRANSPORT: get /summary/: unexpected EOF", err.Error())

	hs := NewHandshake("AY2024", "nginx default page")
	assert.Equal(t, "HANDSHAKE: invalid response from server", hs.Error())
	assert.Equal(t, "AY2024", hs.Details["want"])
}

func TestNewStatus(t *testing.T) {
	err := NewStatus(503, "http://localhost/summary/", "down")

	assert.Equal(t, KindTransport, err.Kind)
	assert.Equal(t, 503, err.Status)
	assert.Equal(t, "down", err.Details["body"])
}

func TestIs_Wrapped(t *testing.T) {
	cause := errors.New("bad json")
	wrapped := fmt.Errorf("fetch summaries: %w", NewDecode(cause))

	assert.True(t, Is(wrapped, KindDecode))
	assert.False(t, Is(wrapped, KindTransport))
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, KindDecode, KindOf(wrapped))
}

func TestIs_NonClientError(t *testing.T) {
	assert.False(t, Is(errors.New("plain"), KindTransport))
	assert.False(t, Is(nil, KindTransport))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}
