package engine

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/darkhz/sleepwatch/prefs"
	"github.com/darkhz/sleepwatch/radio"
	"golang.org/x/sync/errgroup"
)

// Status queries both radios concurrently and returns their current state.
func (e *Engine) Status(ctx context.Context) Status {
	status := Status{
		State:       e.State(),
		Preferences: e.prefs.Snapshot(),
	}

	var paired []radio.PairedDevice

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		status.Wireless.Available = e.wireless.Available()
		status.Wireless.Powered = e.wireless.PowerState(gctx)

		return nil
	})
	g.Go(func() error {
		status.Wireless.Network, _ = e.wireless.CurrentNetwork(gctx)

		return nil
	})
	g.Go(func() error {
		status.ShortRange.Available = e.shortRange.Available()
		status.ShortRange.Powered = e.shortRange.PowerState(gctx)

		return nil
	})
	g.Go(func() error {
		paired = e.shortRange.PairedDevices(gctx)

		return nil
	})
	_ = g.Wait()

	status.ShortRange.Devices = deviceStatuses(status.Preferences, paired)

	return status
}

// Devices returns the paired devices, connected devices first and then by name.
func (e *Engine) Devices(ctx context.Context) []DeviceStatus {
	return deviceStatuses(e.prefs.Snapshot(), e.shortRange.PairedDevices(ctx))
}

// ToggleConnection connects the device if it is disconnected, and
// disconnects it otherwise. It reports whether the command succeeded.
func (e *Engine) ToggleConnection(ctx context.Context, device radio.PairedDevice) bool {
	if device.Connected {
		return e.shortRange.Disconnect(ctx, device.Address)
	}

	return e.shortRange.Connect(ctx, device.Address)
}

func deviceStatuses(p prefs.Preferences, paired []radio.PairedDevice) []DeviceStatus {
	devices := make([]DeviceStatus, 0, len(paired))
	for _, device := range paired {
		devices = append(devices, DeviceStatus{
			PairedDevice: device,
			Favorite:     p.IsFavorite(device.Address),
		})
	}
	SortDevices(devices)

	return devices
}

// SortDevices sorts devices with connected devices first, and then by name.
func SortDevices(devices []DeviceStatus) {
	slices.SortStableFunc(devices, func(a, b DeviceStatus) int {
		if a.Connected != b.Connected {
			if a.Connected {
				return -1
			}

			return 1
		}

		return cmp.Compare(strings.ToLower(a.DisplayName()), strings.ToLower(b.DisplayName()))
	})
}
