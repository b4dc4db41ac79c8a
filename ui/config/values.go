package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/darkhz/sleepwatch/engine"
	"github.com/darkhz/sleepwatch/logging"
	"github.com/darkhz/sleepwatch/power"
	"github.com/darkhz/sleepwatch/prefs"
	"github.com/darkhz/sleepwatch/radio"
	"github.com/darkhz/sleepwatch/ui/keybindings"
	"github.com/darkhz/sleepwatch/ui/theme"
)

const logFile = "sleepwatch.log"

// Values describes the possible configuration values that a user can
// modify and supply to the application.
type Values struct {
	PrefsFile      string            `koanf:"prefs-file"`
	PowerSource    string            `koanf:"power-source"`
	WifiInterface  string            `koanf:"wifi-interface"`
	Networksetup   string            `koanf:"networksetup"`
	Blueutil       string            `koanf:"blueutil"`
	CommandTimeout time.Duration     `koanf:"command-timeout"`
	ConnectTimeout time.Duration     `koanf:"connect-timeout"`
	JoinTimeout    time.Duration     `koanf:"join-timeout"`
	SettleDelay    time.Duration     `koanf:"settle-delay"`
	PowerOnDelay   time.Duration     `koanf:"power-on-delay"`
	LogFile        string            `koanf:"log-file"`
	LogLevel       string            `koanf:"log-level"`
	Headless       bool              `koanf:"headless"`
	NoWarning      bool              `koanf:"no-warning"`
	NoHelpDisplay  bool              `koanf:"no-help-display"`
	ConfirmOnQuit  bool              `koanf:"confirm-on-quit"`
	Theme          map[string]string `koanf:"theme"`
	Keybindings    map[string]string `koanf:"keybindings"`

	Kb *keybindings.Keybindings `koanf:"-"`
}

// defaultValues returns the values used if neither the configuration
// file nor the command-line flags specify them.
func defaultValues() Values {
	return Values{
		PowerSource:    power.DefaultSourceName(),
		WifiInterface:  radio.DefaultInterface,
		CommandTimeout: radio.DefaultCommandTimeout,
		ConnectTimeout: radio.DefaultConnectTimeout,
		JoinTimeout:    radio.DefaultJoinTimeout,
		SettleDelay:    engine.DefaultSettleDelay,
		PowerOnDelay:   engine.DefaultPowerOnDelay,
		LogLevel:       "info",
	}
}

// validateValues validates all configuration values.
func (v *Values) validateValues(configDir string) error {
	for _, validate := range []func() error{
		v.validateKeybindings,
		v.validatePowerSource,
		v.validateLogLevel,
		v.validateDurations,
		v.validateTheme,
		func() error { return v.validatePaths(configDir) },
	} {
		if err := validate(); err != nil {
			return err
		}
	}

	return nil
}

// validateKeybindings validates the keybindings.
func (v *Values) validateKeybindings() error {
	v.Kb = keybindings.NewKeybindings()
	if len(v.Keybindings) == 0 {
		return nil
	}

	return v.Kb.Validate(v.Keybindings)
}

// validatePowerSource validates the source of the power notifications.
func (v *Values) validatePowerSource() error {
	if v.PowerSource == "" {
		v.PowerSource = power.DefaultSourceName()
		return nil
	}

	switch v.PowerSource {
	case power.SourceSignal, power.SourceLogind:
		return nil
	}

	return fmt.Errorf(
		"provided power source '%s' is incorrect.\nValid sources are '%s'",
		v.PowerSource,
		strings.Join([]string{power.SourceSignal, power.SourceLogind}, ", "),
	)
}

// validateLogLevel validates the log level.
func (v *Values) validateLogLevel() error {
	_, err := logging.ParseLevel(v.LogLevel)

	return err
}

// validateDurations validates the command timeouts and reconnect delays.
func (v *Values) validateDurations() error {
	for name, timeout := range map[string]time.Duration{
		"command-timeout": v.CommandTimeout,
		"connect-timeout": v.ConnectTimeout,
		"join-timeout":    v.JoinTimeout,
	} {
		if timeout <= 0 {
			return fmt.Errorf("%s: the timeout must be greater than zero", name)
		}
	}

	for name, delay := range map[string]time.Duration{
		"settle-delay":   v.SettleDelay,
		"power-on-delay": v.PowerOnDelay,
	} {
		if delay < 0 {
			return fmt.Errorf("%s: the delay cannot be negative", name)
		}
	}

	return nil
}

// validatePaths expands the preference and log file paths,
// and fills in their defaults.
func (v *Values) validatePaths(configDir string) error {
	if v.PrefsFile == "" {
		path, err := prefs.DefaultPath()
		if err != nil {
			return fmt.Errorf("cannot determine the preference file path: %w", err)
		}

		v.PrefsFile = path
	}

	if v.LogFile == "" && configDir != "" {
		v.LogFile = filepath.Join(configDir, logFile)
	}

	for _, path := range []*string{&v.PrefsFile, &v.LogFile, &v.Networksetup, &v.Blueutil} {
		expanded, err := expandHome(*path)
		if err != nil {
			return err
		}

		*path = expanded
	}

	if info, err := os.Stat(v.PrefsFile); err == nil && info.IsDir() {
		return fmt.Errorf("%s: the preference file is a directory", v.PrefsFile)
	}

	return nil
}

// validateTheme validates the theme configuration.
func (v *Values) validateTheme() error {
	if len(v.Theme) == 0 {
		return nil
	}

	return theme.ParseThemeConfig(v.Theme)
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	homedir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homedir, strings.TrimPrefix(path, "~")), nil
}
