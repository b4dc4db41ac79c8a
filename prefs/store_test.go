package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func tempPath(t *testing.T) string {
	t.Helper()

	return filepath.Join(t.TempDir(), DefaultFileName)
}

func writeRaw(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readRaw(t *testing.T, path string) map[string]any {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	return raw
}

func TestOpenMissingFileYieldsDefaults(t *testing.T) {
	path := tempPath(t)

	s := Open(path, nil)
	assert.Equal(t, Defaults(), s.Snapshot())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "opening must not create the file")
}

func TestOpenCorruptFileYieldsDefaults(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed json", content: `{"wifi_enabled": fal`},
		{name: "wrong type", content: `{"wifi_enabled": "maybe"}`},
		{name: "not an object", content: `[1, 2, 3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tempPath(t)
			writeRaw(t, path, tt.content)

			assert.Equal(t, Defaults(), Open(path, nil).Snapshot())
		})
	}
}

func TestOpenMergesDefaults(t *testing.T) {
	path := tempPath(t)
	writeRaw(t, path, `{"wifi_enabled": false, "favorite_devices": ["aa", "bb", "aa"], "unknown_key": 1}`)

	p := Open(path, nil).Snapshot()
	assert.False(t, p.WifiEnabled)
	assert.True(t, p.BluetoothEnabled)
	assert.True(t, p.AutoReconnectWifi)
	assert.Equal(t, []string{"aa", "bb"}, p.FavoriteDevices)
	assert.Equal(t, ReconnectFavorites, p.ReconnectMode)
	assert.True(t, p.CheckUpdatesOnStartup)
}

func TestUnknownKeysAreDropped(t *testing.T) {
	path := tempPath(t)
	writeRaw(t, path, `{"unknown_key": true, "bluetooth_enabled": false}`)

	s := Open(path, nil)
	require.NoError(t, s.SetBool(KeyWifiEnabled, false))

	raw := readRaw(t, path)
	assert.NotContains(t, raw, "unknown_key")
	assert.Equal(t, false, raw["bluetooth_enabled"])
	assert.Len(t, raw, 8)
}

func TestUnknownReconnectModeFallsBack(t *testing.T) {
	path := tempPath(t)
	writeRaw(t, path, `{"reconnect_mode": "everything"}`)

	assert.Equal(t, ReconnectFavorites, Open(path, nil).ReconnectMode())

	writeRaw(t, path, `{"reconnect_mode": "last"}`)
	assert.Equal(t, ReconnectLastConnected, Open(path, nil).ReconnectMode())
}

func TestRoundTrip(t *testing.T) {
	path := tempPath(t)

	s := Open(path, nil)
	require.NoError(t, s.SetBool(KeyAutoReconnectWifi, false))
	require.NoError(t, s.SetReconnectMode(ReconnectLastConnected))
	require.NoError(t, s.SetLastWirelessNetwork("Home"))
	require.NoError(t, s.AddFavorite("aa-bb"))
	require.NoError(t, s.AddFavorite("cc-dd"))

	reloaded := Open(path, nil).Snapshot()
	assert.Equal(t, s.Snapshot(), reloaded)

	network, ok := reloaded.LastNetwork()
	assert.True(t, ok)
	assert.Equal(t, "Home", network)
}

func TestSaveIsPrettyPrinted(t *testing.T) {
	path := tempPath(t)

	s := Open(path, nil)
	require.NoError(t, s.SetBool(KeyWifiEnabled, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "{\n  \"wifi_enabled\": true,")
	assert.Contains(t, string(data), `"last_wifi_network": null`)
}

func TestToggle(t *testing.T) {
	s := Open(tempPath(t), nil)

	value, err := s.Toggle(KeyBluetoothEnabled)
	require.NoError(t, err)
	assert.False(t, value)
	assert.False(t, s.Bool(KeyBluetoothEnabled))

	value, err = s.Toggle(KeyBluetoothEnabled)
	require.NoError(t, err)
	assert.True(t, value)

	_, err = s.Toggle(KeyReconnectMode)
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestSetValidation(t *testing.T) {
	s := Open(tempPath(t), nil)

	assert.ErrorIs(t, s.Set("no_such_key", true), ErrUnknownKey)
	assert.ErrorIs(t, s.Set(KeyWifiEnabled, "yes"), ErrInvalidValue)
	assert.ErrorIs(t, s.Set(KeyFavoriteDevices, "aa"), ErrInvalidValue)
	assert.ErrorIs(t, s.Set(KeyLastWifiNetwork, 42), ErrInvalidValue)

	require.NoError(t, s.Set(KeyLastWifiNetwork, nil))
	value, ok := s.Get(KeyLastWifiNetwork)
	assert.True(t, ok)
	assert.Nil(t, value)
}

func TestFavorites(t *testing.T) {
	s := Open(tempPath(t), nil)

	require.NoError(t, s.AddFavorite("aa"))
	require.NoError(t, s.AddFavorite("bb"))
	require.NoError(t, s.AddFavorite("aa"))
	assert.Equal(t, []string{"aa", "bb"}, s.Favorites())
	assert.ErrorIs(t, s.AddFavorite(""), ErrInvalidValue)

	favorite, err := s.ToggleFavorite("aa")
	require.NoError(t, err)
	assert.False(t, favorite)
	assert.Equal(t, []string{"bb"}, s.Favorites())

	favorite, err = s.ToggleFavorite("cc")
	require.NoError(t, err)
	assert.True(t, favorite)
	assert.True(t, s.IsFavorite("cc"))
	assert.Equal(t, []string{"bb", "cc"}, s.Favorites())
}

func TestSaveFailureKeepsMemoryState(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	writeRaw(t, blocker, "")

	s := Open(filepath.Join(blocker, DefaultFileName), nil)
	assert.Error(t, s.SetBool(KeyWifiEnabled, false))
	assert.False(t, s.Bool(KeyWifiEnabled))
}

func TestSnapshotIsACopy(t *testing.T) {
	s := Open(tempPath(t), nil)
	require.NoError(t, s.AddFavorite("aa"))

	p := s.Snapshot()
	p.FavoriteDevices[0] = "zz"

	assert.Equal(t, []string{"aa"}, s.Favorites())
}

func TestReload(t *testing.T) {
	path := tempPath(t)

	s := Open(path, nil)
	writeRaw(t, path, `{"wifi_enabled": false}`)
	assert.True(t, s.Bool(KeyWifiEnabled))

	s.Reload()
	assert.False(t, s.Bool(KeyWifiEnabled))
}

func TestReloadKeepsCurrentOnCorruptFile(t *testing.T) {
	path := tempPath(t)

	s := Open(path, nil)
	require.NoError(t, s.SetBool(KeyWifiEnabled, false))
	require.NoError(t, s.AddFavorite("aa"))

	writeRaw(t, path, "")
	assert.False(t, s.Reload())

	writeRaw(t, path, "{not json")
	assert.False(t, s.Reload())

	assert.False(t, s.Bool(KeyWifiEnabled))
	assert.Equal(t, []string{"aa"}, s.Favorites())
}

func TestReloadIgnoresOwnWrites(t *testing.T) {
	s := Open(tempPath(t), nil)
	require.NoError(t, s.SetBool(KeyAutoReconnectWifi, false))

	assert.False(t, s.Reload())
	assert.False(t, s.Bool(KeyAutoReconnectWifi))
}

func TestSaveLeavesNoTemporaryFiles(t *testing.T) {
	path := tempPath(t)

	s := Open(path, nil)
	for _, address := range []string{"aa", "bb", "cc"} {
		require.NoError(t, s.AddFavorite(address))
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, DefaultFileName, entries[0].Name())
}

func TestWatchKeepsMutations(t *testing.T) {
	path := tempPath(t)

	s := Open(path, nil)
	require.NoError(t, s.SetBool(KeyWifiEnabled, false))

	var changes atomic.Int32
	require.NoError(t, s.Watch(func() { changes.Inc() }))
	t.Cleanup(func() { _ = s.Close() })

	const count = 100
	for i := range count {
		require.NoError(t, s.AddFavorite(fmt.Sprintf("aa-%03d", i)))
		assert.False(t, s.Bool(KeyWifiEnabled), "mutation %d", i)

		time.Sleep(2 * time.Millisecond)
	}

	// Let the watcher drain the remaining events.
	time.Sleep(100 * time.Millisecond)

	assert.False(t, s.Bool(KeyWifiEnabled))
	assert.Len(t, s.Favorites(), count)
	assert.Zero(t, changes.Load())

	raw := readRaw(t, path)
	assert.Equal(t, false, raw["wifi_enabled"])
	assert.Len(t, raw["favorite_devices"], count)
}

func TestWatchReloadsExternalEdits(t *testing.T) {
	path := tempPath(t)

	s := Open(path, nil)

	var changes atomic.Int32
	require.NoError(t, s.Watch(func() { changes.Inc() }))
	t.Cleanup(func() { _ = s.Close() })

	tmp := path + ".edit"
	writeRaw(t, tmp, `{"bluetooth_enabled": false, "reconnect_mode": "last"}`)
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool {
		return !s.Bool(KeyBluetoothEnabled)
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, ReconnectLastConnected, s.ReconnectMode())
	assert.Positive(t, changes.Load())
}
