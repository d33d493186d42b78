package transport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSendBeforeChannelNegotiated(t *testing.T) {
	tr := NewDataChannelTransport(nil)
	assert.False(t, tr.Open())

	err := tr.SendFrame([]byte{1, 2, 3})
	assert.True(t, errors.Is(err, ErrNotOpen))
}

func TestImplementsInterfaces(t *testing.T) {
	var _ FrameSender = (*DataChannelTransport)(nil)
	var _ FrameReceiver = (*DataChannelTransport)(nil)
}
