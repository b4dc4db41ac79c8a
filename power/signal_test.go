//go:build !windows

package power

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanPoster chan Notification

func (c chanPoster) Post(name Notification) {
	c <- name
}

func TestSignalBridge(t *testing.T) {
	posted := make(chanPoster, 2)

	b := NewSignalBridge()
	require.NoError(t, b.Start(posted))
	require.NoError(t, b.Start(posted))
	defer b.Stop()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))
	assert.Equal(t, WillSleep, waitFor(t, posted))

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR2))
	assert.Equal(t, DidWake, waitFor(t, posted))

	b.Stop()
	b.Stop()
}
