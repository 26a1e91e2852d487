// Package listener owns the MIDI input port and polls it until cancelled.
package listener

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"midirun/internal/logger"
	"midirun/internal/midi"
)

// DefaultInterval is the pause between polls. It bounds input latency and
// keeps the idle loop cheap.
const DefaultInterval = 10 * time.Millisecond

// State of a Loop. Transitions only move forward.
type State int32

const (
	Idle State = iota
	PortOpened
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PortOpened:
		return "port_opened"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Handler consumes each non-empty message, synchronously.
type Handler interface {
	Handle(midi.Message)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(midi.Message)

func (f HandlerFunc) Handle(m midi.Message) { f(m) }

type Options struct {
	Driver   midi.Driver
	Port     int // 1-based
	Handler  Handler
	Interval time.Duration // DefaultInterval when zero
	Logger   *zap.Logger
	// Release is closed when Run returns, whatever the outcome. The key
	// injector goes here so its device lives exactly as long as the loop.
	Release []io.Closer
}

type Loop struct {
	opts  Options
	log   *zap.Logger
	state atomic.Int32
}

func New(opts Options) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Loop{opts: opts, log: logger.OrNop(opts.Logger)}
}

func (l *Loop) State() State { return State(l.state.Load()) }

func (l *Loop) setState(s State) {
	l.state.Store(int32(s))
	l.log.Debug("listener state", zap.Stringer("state", s))
}

// Run opens the port and polls it until ctx is cancelled. The port number is
// checked against the available inputs first; an out-of-range port is
// never opened and Run returns midi.ErrPortNotFound. Cancellation is
// observed between iterations only: a message being handled is always
// handled to completion.
func (l *Loop) Run(ctx context.Context) error {
	defer l.release()

	names, err := l.opts.Driver.Inputs()
	if err != nil {
		return errors.Wrap(err, "listing MIDI inputs")
	}
	if err := midi.CheckPort(l.opts.Port, len(names)); err != nil {
		return err
	}
	in, err := l.opts.Driver.Open(l.opts.Port - 1)
	if err != nil {
		return errors.Wrapf(err, "opening MIDI input port %d", l.opts.Port)
	}
	l.setState(PortOpened)
	defer func() {
		if cerr := in.Close(); cerr != nil {
			l.log.Warn("closing MIDI input", zap.Error(cerr))
		}
		l.setState(Stopped)
	}()

	l.log.Info("reading MIDI, quit with Ctrl-C", zap.Int("port", l.opts.Port), zap.String("device", names[l.opts.Port-1]))
	l.setState(Running)

	timer := time.NewTimer(l.opts.Interval)
	defer timer.Stop()
	for ctx.Err() == nil {
		if msg, ok := in.Next(); ok && len(msg.Bytes) > 0 {
			l.opts.Handler.Handle(msg)
		}

		timer.Reset(l.opts.Interval)
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}
	l.log.Debug("cancelled, stopping listener")
	return nil
}

func (l *Loop) release() {
	for _, c := range l.opts.Release {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			l.log.Warn("releasing resource", zap.Error(err))
		}
	}
}
