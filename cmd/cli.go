package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/darkhz/sleepwatch/logging"
	"github.com/darkhz/sleepwatch/session"
	"github.com/darkhz/sleepwatch/ui/app"
	"github.com/darkhz/sleepwatch/ui/config"
	"github.com/darkhz/sleepwatch/update"
	"github.com/knadh/koanf/v2"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
)

// These values are set at compile-time.
var (
	Version  = "1.0.0"
	Revision = ""
)

// Run runs the commandline application.
func Run() error {
	return newApp().Run(os.Args)
}

// newApp returns a new commandline application.
func newApp() *cli.App {
	cli.VersionPrinter = func(cCtx *cli.Context) {
		fmt.Fprintf(cCtx.App.Writer, "%s (%s)\n", Version, Revision)
	}

	return &cli.App{
		Name:                   "sleepwatch",
		Usage:                  "Radio sleep/wake manager.",
		Version:                Version + " (" + Revision + ")",
		Description:            "Turns off Wi-Fi and Bluetooth when the system sleeps, and reconnects them on wake.",
		DefaultCommand:         "sleepwatch",
		Copyright:              "(c) darkhz.",
		Compiled:               time.Now(),
		EnableBashCompletion:   true,
		UseShortOptionHandling: true,
		Suggest:                true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "status",
				Aliases: []string{"s"},
				Usage:   "Show the radio statuses and preferences.",
				Action: func(cliCtx *cli.Context, _ bool) error {
					return withSession(cliCtx, func(ctx context.Context, s *session.Session) error {
						printStatus(cliCtx.App.Writer,
							s.Engine().Status(ctx),
							s.Wireless().PreferredNetworks(ctx),
							s.Preferences().Path(),
							s.Engine().LastState(),
						)

						return nil
					})
				},
			},
			&cli.BoolFlag{
				Name:    "reconnect",
				Aliases: []string{"r"},
				Usage:   "Rejoin the saved Wi-Fi network and reconnect devices.",
				Action: func(cliCtx *cli.Context, _ bool) error {
					return withSession(cliCtx, reconnect)
				},
			},
			&cli.BoolFlag{
				Name:    "check-update",
				Aliases: []string{"u"},
				Usage:   "Check for a new release.",
				Action: func(cliCtx *cli.Context, _ bool) error {
					return withSession(cliCtx, func(ctx context.Context, s *session.Session) error {
						release, err := s.Updater().Check(ctx)
						if err != nil {
							return err
						}

						printRelease(cliCtx.App.Writer, s.Updater().Current(), release)

						return nil
					})
				},
			},
			&cli.BoolFlag{
				Name:    "headless",
				Aliases: []string{"d"},
				EnvVars: []string{"SLEEPWATCH_HEADLESS"},
				Usage:   "Run without the user interface, and log to the terminal.",
			},
			&cli.StringFlag{
				Name:    "power-source",
				Aliases: []string{"p"},
				EnvVars: []string{"SLEEPWATCH_POWER_SOURCE"},
				Usage:   "Specify the source of sleep/wake notifications. ('signal' or 'logind')",
			},
			&cli.StringFlag{
				Name:    "wifi-interface",
				Aliases: []string{"n"},
				EnvVars: []string{"SLEEPWATCH_WIFI_INTERFACE"},
				Usage:   "Specify the Wi-Fi interface. (For example, en0)",
			},
			&cli.StringFlag{
				Name:    "prefs-file",
				Aliases: []string{"f"},
				EnvVars: []string{"SLEEPWATCH_PREFS_FILE"},
				Usage:   "Specify the path to the preferences file.",
			},
			&cli.StringFlag{
				Name:    "networksetup",
				EnvVars: []string{"SLEEPWATCH_NETWORKSETUP"},
				Usage:   "Specify the path to the networksetup utility.",
			},
			&cli.StringFlag{
				Name:    "blueutil",
				EnvVars: []string{"SLEEPWATCH_BLUEUTIL"},
				Usage:   "Specify the path to the blueutil utility.",
			},
			&cli.DurationFlag{
				Name:  "command-timeout",
				Usage: "Specify the timeout for radio commands.",
			},
			&cli.DurationFlag{
				Name:  "connect-timeout",
				Usage: "Specify the timeout for connecting to a device.",
			},
			&cli.DurationFlag{
				Name:  "join-timeout",
				Usage: "Specify the timeout for joining a Wi-Fi network.",
			},
			&cli.DurationFlag{
				Name:  "settle-delay",
				Usage: "Specify the time to wait after wake before reconnecting.",
			},
			&cli.DurationFlag{
				Name:  "power-on-delay",
				Usage: "Specify the time to wait after powering on Bluetooth before connecting devices.",
			},
			&cli.StringFlag{
				Name:    "log-file",
				Aliases: []string{"o"},
				EnvVars: []string{"SLEEPWATCH_LOG_FILE"},
				Usage:   "Specify the path to the log file.",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				EnvVars: []string{"SLEEPWATCH_LOG_LEVEL"},
				Usage:   "Specify the log level. ('debug', 'info', 'warn' or 'error')",
			},
			&cli.BoolFlag{
				Name:    "no-warning",
				Aliases: []string{"w"},
				EnvVars: []string{"SLEEPWATCH_NO_WARNING"},
				Usage:   "Do not display warnings when the application has initialized.",
			},
			&cli.BoolFlag{
				Name:    "no-help-display",
				Aliases: []string{"i"},
				EnvVars: []string{"SLEEPWATCH_NO_HELP_DISPLAY"},
				Usage:   "Do not display help keybindings in the application.",
			},
			&cli.BoolFlag{
				Name:    "confirm-on-quit",
				Aliases: []string{"c"},
				EnvVars: []string{"SLEEPWATCH_CONFIRM_ON_QUIT"},
				Usage:   "Ask for confirmation before quitting the application.",
			},
			&cli.BoolFlag{
				Name:    "generate",
				Aliases: []string{"g"},
				Usage:   "Generate configuration.",
				Action: func(cliCtx *cli.Context, _ bool) error {
					k := koanf.New(".")

					cliCtx.Command.Name = "global"

					conf := config.NewConfig()
					if err := conf.Load(k, cliCtx); err != nil {
						return err
					}

					return conf.GenerateAndSave(k)
				},
			},
		},
		Action: func(cliCtx *cli.Context) error {
			for _, action := range []string{"status", "reconnect", "check-update", "generate"} {
				if cliCtx.Bool(action) {
					return nil
				}
			}

			cfg, err := loadConfig(cliCtx)
			if err != nil {
				return err
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Close()

			s, err := newSession(cfg, logger)
			if err != nil {
				return err
			}
			defer s.Stop()

			if err := s.Start(); err != nil {
				return err
			}
			printMissingTools(cfg, s)

			if cfg.Values.Headless {
				return runHeadless(s)
			}

			return app.NewApplication().Start(s, cfg)
		},
		ExitErrHandler: func(_ *cli.Context, err error) {
			if err == nil {
				return
			}

			printError(err)
		},
	}
}

// loadConfig loads and validates the configuration.
func loadConfig(cliCtx *cli.Context) (*config.Config, error) {
	// required for koanf to merge all global flags under the root namespace.
	cliCtx.Command.Name = "global"

	k, cfg := koanf.New("."), config.NewConfig()
	if err := cfg.Load(k, cliCtx); err != nil {
		return nil, err
	}
	if err := cfg.ValidateValues(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newLogger returns the application logger. Logs are written to the
// terminal only in headless mode, since the user interface owns it otherwise.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	return logging.New(logging.Options{
		File:    cfg.Values.LogFile,
		Level:   cfg.Values.LogLevel,
		Console: cfg.Values.Headless,
	})
}

// newSession returns a new session from the configuration.
func newSession(cfg *config.Config, logger *logging.Logger) (*session.Session, error) {
	v := cfg.Values

	return session.New(session.Options{
		Version:        Version,
		PrefsFile:      v.PrefsFile,
		PowerSource:    v.PowerSource,
		WifiInterface:  v.WifiInterface,
		Networksetup:   v.Networksetup,
		Blueutil:       v.Blueutil,
		CommandTimeout: v.CommandTimeout,
		ConnectTimeout: v.ConnectTimeout,
		JoinTimeout:    v.JoinTimeout,
		SettleDelay:    v.SettleDelay,
		PowerOnDelay:   v.PowerOnDelay,
		Logger:         logger.Logger,
	})
}

// withSession runs a one-shot command with a session which does not
// observe power events. The command is cancelled on an interrupt.
func withSession(cliCtx *cli.Context, fn func(ctx context.Context, s *session.Session) error) error {
	cfg, err := loadConfig(cliCtx)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	s, err := newSession(cfg, logger)
	if err != nil {
		return err
	}
	defer s.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return fn(ctx, s)
}

// reconnect rejoins the saved wireless network, and runs a device reconnect pass.
func reconnect(ctx context.Context, s *session.Session) error {
	if network, ok := s.Preferences().LastWirelessNetwork(); ok {
		printInfo("Joining " + network)

		if _, joined := s.Engine().ReconnectWireless(ctx); joined {
			printInfo("Joined " + network)
		} else {
			printWarn("could not join " + network)
		}
	} else {
		printInfo("No saved Wi-Fi network")
	}

	targets := s.Engine().PassTargets()
	if len(targets) == 0 {
		printInfo("No devices to reconnect (" + s.Preferences().ReconnectMode().String() + ")")
		return nil
	}

	bar := progressbar.NewOptions(len(targets),
		progressbar.OptionSetDescription("Reconnecting devices"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)

	result := s.Engine().ReconnectShortRange(ctx, func(string, bool) {
		_ = bar.Add(1)
	})
	_ = bar.Finish()

	printInfo(fmt.Sprintf("Reconnected %d of %d device(s)", result.Succeeded, result.Attempted))
	if len(result.Failed) > 0 {
		printWarn("could not reconnect: " + strings.Join(result.Failed, ", "))
	}

	return ctx.Err()
}

// runHeadless waits for an interrupt while the session reacts to power events.
func runHeadless(s *session.Session) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.CheckUpdateOnStartup(ctx, func(release update.Release, err error) {
		if err == nil && release.HasUpdate {
			printInfo("Version " + release.Version + " is available at " + release.DownloadURL)
		}
	})

	s.Logger().Info("running headless, press Ctrl+C to exit")
	<-ctx.Done()

	return nil
}

// printMissingTools warns about radio utilities which could not be found.
func printMissingTools(cfg *config.Config, s *session.Session) {
	if cfg.Values.NoWarning {
		return
	}

	var missing []string

	if !s.Wireless().Available() {
		missing = append(missing, "networksetup: Wi-Fi cannot be controlled")
	}
	if !s.Bluetooth().Available() {
		missing = append(missing, "blueutil: Bluetooth cannot be controlled")
	}

	if missing == nil {
		return
	}

	printWarn("The following utilities were not found:\n" + strings.Join(missing, "\n"))
	time.Sleep(1 * time.Second)
}
