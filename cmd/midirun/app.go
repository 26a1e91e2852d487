package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"midirun/internal/config"
	"midirun/internal/dispatch"
	"midirun/internal/keys"
	"midirun/internal/listener"
	"midirun/internal/logger"
	"midirun/internal/mapping"
	"midirun/internal/midi"
	"midirun/internal/shell"
)

var errExclusive = errors.New("--list-io and --listen cannot be combined")

// deps are the outside-world collaborators; tests swap them for fakes.
type deps struct {
	stdout     io.Writer
	stderr     io.Writer
	openDriver func() (midi.Driver, error)
	openKeys   func(*zap.Logger) (keys.Injector, error)
	newRunner  func(*zap.Logger) shell.Runner
}

func defaultDeps() deps {
	return deps{
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		openDriver: midi.Open,
		openKeys:   keys.Open,
		newRunner:  func(l *zap.Logger) shell.Runner { return shell.New(l) },
	}
}

// options is the parsed command line, validated once.
type options struct {
	verbose    bool
	listIO     bool
	listenPort int
	configPath string
}

func newApp(d deps) *cli.Command {
	defaultConfig, err := config.DefaultPath()
	if err != nil {
		defaultConfig = "config.toml"
	}

	return &cli.Command{
		Name:      "midirun",
		Usage:     "run commands and key presses from MIDI messages",
		UsageText: "midirun [--verbose] [--config PATH]\nmidirun [--verbose] --list-io\nmidirun [--verbose] --listen PORT",
		Version:   fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Writer:    d.stdout,
		ErrWriter: d.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   defaultConfig,
				Usage:   "mapping config `FILE`",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "print parsed mappings, every received message and action failures",
			},
			&cli.BoolFlag{
				Name:    "list-io",
				Aliases: []string{"l", "lio"},
				Usage:   "list MIDI input and output ports and exit",
			},
			&cli.IntFlag{
				Name:    "listen",
				Aliases: []string{"n", "ln"},
				Usage:   "print the raw bytes received on input `PORT` (1-based)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			opts := options{
				verbose:    c.Bool("verbose"),
				listIO:     c.Bool("list-io"),
				listenPort: int(c.Int("listen")),
				configPath: c.String("config"),
			}
			if opts.listIO && c.IsSet("listen") {
				return errExclusive
			}

			log := logger.New(d.stderr, opts.verbose)
			defer func() { _ = log.Sync() }()
			log.Debug("verbose mode enabled")

			switch {
			case opts.listIO:
				return runList(d)
			case c.IsSet("listen"):
				return runListen(ctx, d, log, opts.listenPort)
			default:
				return runMapping(ctx, d, log, opts.configPath)
			}
		},
	}
}

func openDriver(d deps) (midi.Driver, error) {
	drv, err := d.openDriver()
	if err != nil {
		return nil, errors.Wrap(err, "opening MIDI driver")
	}
	return drv, nil
}

func runList(d deps) error {
	drv, err := openDriver(d)
	if err != nil {
		return err
	}
	defer drv.Close()

	ins, err := drv.Inputs()
	if err != nil {
		return err
	}
	fmt.Fprintf(d.stdout, "There are %d MIDI input sources available.\n", len(ins))
	for i, n := range ins {
		fmt.Fprintf(d.stdout, "  Input Port #%d: %s\n", i+1, n)
	}

	outs, err := drv.Outputs()
	if err != nil {
		return err
	}
	fmt.Fprintf(d.stdout, "There are %d MIDI output ports available.\n", len(outs))
	for i, n := range outs {
		fmt.Fprintf(d.stdout, "  Output Port #%d: %s\n", i+1, n)
	}
	return nil
}

func runListen(ctx context.Context, d deps, log *zap.Logger, port int) error {
	drv, err := openDriver(d)
	if err != nil {
		return err
	}
	defer drv.Close()

	loop := listener.New(listener.Options{
		Driver: drv,
		Port:   port,
		Logger: log,
		Handler: listener.HandlerFunc(func(m midi.Message) {
			fmt.Fprintln(d.stdout, midi.Format(m))
		}),
	})
	return loop.Run(ctx)
}

func runMapping(ctx context.Context, d deps, log *zap.Logger, path string) error {
	log.Info("loading config", zap.String("path", path))
	cfg, err := config.Load(path, log)
	if err != nil {
		return err
	}
	log.Info("config loaded", zap.Int("input_port", cfg.InputPort), zap.Int("mappings", cfg.Mappings.Len()))

	drv, err := openDriver(d)
	if err != nil {
		return err
	}
	defer drv.Close()

	var injector keys.Injector = keys.Unavailable{}
	if hasKeyRules(cfg.Mappings) {
		injector, err = d.openKeys(log)
		if err != nil {
			log.Warn("key mappings disabled, command mappings still run", zap.Error(err))
			injector = keys.Unavailable{Err: err}
		}
	}

	loop := listener.New(listener.Options{
		Driver:  drv,
		Port:    cfg.InputPort,
		Handler: dispatch.New(cfg.Mappings, d.newRunner(log), injector, log),
		Logger:  log,
		Release: []io.Closer{injector},
	})
	return loop.Run(ctx)
}

func hasKeyRules(t mapping.Table) bool {
	for _, r := range t.Rules() {
		if r.Kind == mapping.KeyPress {
			return true
		}
	}
	return false
}
