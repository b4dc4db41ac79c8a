package keybindings

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsDoNotConflict(t *testing.T) {
	k := NewKeybindings()

	// An empty map is a no-op, so force the conflict check by rebinding
	// a key to its own default.
	require.NoError(t, k.Validate(map[string]string{string(KeyDeviceFavorite): "f"}))
}

func TestKeyLookup(t *testing.T) {
	k := NewKeybindings()

	event := tcell.NewEventKey(tcell.KeyRune, 'f', tcell.ModNone)
	assert.Equal(t, KeyDeviceFavorite, k.Key(event, ContextDevice))

	event = tcell.NewEventKey(tcell.KeyRune, 'w', tcell.ModNone)
	assert.Equal(t, KeyWifiToggleControl, k.Key(event))

	event = tcell.NewEventKey(tcell.KeyRune, 'Q', tcell.ModShift)
	assert.Equal(t, KeyQuit, k.Key(event))
}

func TestValidateRebinds(t *testing.T) {
	k := NewKeybindings()
	require.NoError(t, k.Validate(map[string]string{
		string(KeyBluetoothReconnect): "Ctrl+b",
	}))

	event := tcell.NewEventKey(tcell.KeyCtrlB, ' ', tcell.ModCtrl)
	assert.Equal(t, KeyBluetoothReconnect, k.Key(event))

	event = tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone)
	assert.Empty(t, k.Key(event))
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		kb   map[string]string
	}{
		{name: "unknown key type", kb: map[string]string{"NoSuchKey": "a"}},
		{name: "two keys", kb: map[string]string{string(KeyRefresh): "a+b"}},
		{name: "conflict", kb: map[string]string{string(KeyDeviceFavorite): "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, NewKeybindings().Validate(tt.kb))
		})
	}
}

func TestTitles(t *testing.T) {
	titles := NewKeybindings().Titles(KeyDeviceFavorite, "NoSuchKey")
	assert.Equal(t, []string{"Favorite (f)"}, titles)
}
