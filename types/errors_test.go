package types

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsSessionClosing(t *testing.T) {
	assert.True(t, IsSessionClosing(ErrSessionClosing))
	assert.True(t, IsSessionClosing(fmtWrap(ErrSessionClosing)))
	assert.False(t, IsSessionClosing(errors.New("other")))
}

func TestProviderErrorUnwrap(t *testing.T) {
	inner := errors.New("network down")
	err := &ProviderError{Op: "send_request", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "send_request")
}

func TestTimeoutErrorMessage(t *testing.T) {
	err := &TimeoutError{Budget: 5 * time.Second}
	assert.Contains(t, err.Error(), "5s")
}

func TestOrderingFaultErrorMessage(t *testing.T) {
	err := &OrderingFaultError{Expected: 3, Got: 5}
	assert.Contains(t, err.Error(), "3")
	assert.Contains(t, err.Error(), "5")
}

func fmtWrap(err error) error {
	return errors.Join(err, errors.New("context"))
}
