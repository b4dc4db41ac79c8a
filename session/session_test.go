package session

import (
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/darkhz/sleepwatch/engine"
	"github.com/darkhz/sleepwatch/power"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()

	dir := t.TempDir()

	s, err := New(Options{
		Version:       "1.0.0",
		PrefsFile:     filepath.Join(dir, "prefs.json"),
		PowerSource:   power.SourceSignal,
		Networksetup:  filepath.Join(dir, "no-networksetup"),
		Blueutil:      filepath.Join(dir, "no-blueutil"),
		SettleDelay:   time.Millisecond,
		PowerOnDelay:  time.Millisecond,
		WifiInterface: "en0",
	})
	require.NoError(t, err)

	return s
}

func TestNewUnknownPowerSource(t *testing.T) {
	_, err := New(Options{PowerSource: "acpi", PrefsFile: filepath.Join(t.TempDir(), "prefs.json")})
	assert.ErrorIs(t, err, power.ErrUnknownSource)
}

func TestSessionReportsReactions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("signal power events are not supported")
	}

	s := newTestSession(t)
	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	defer s.Stop()

	sub := s.Subscribe()
	defer sub.Unsubscribe()

	s.Post(power.WillSleep)

	timeout := time.After(5 * time.Second)
	for {
		select {
		case event := <-sub.C:
			if report, ok := event.(engine.Report); ok && report.Kind == engine.ReportSleep {
				assert.Equal(t, engine.StateSlept, s.Engine().State())
				return
			}

		case <-timeout:
			require.FailNow(t, "no sleep report")
		}
	}
}

func TestSessionStopIsIdempotent(t *testing.T) {
	s := newTestSession(t)
	s.Stop()
	s.Stop()

	assert.Equal(t, "1.0.0", s.Updater().Current())
}

func TestSessionDropsEventsAfterStop(t *testing.T) {
	s := newTestSession(t)

	sub := s.Subscribe()
	s.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)

		s.Engine().OnWillSleep()
		sub.Unsubscribe()

		late := s.Subscribe()
		late.Unsubscribe()

		_, open := <-late.C
		assert.False(t, open)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "reporting after stop blocked")
	}
}
