// Package dispatch maps inbound MIDI messages to mapping actions.
package dispatch

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"midirun/internal/keys"
	"midirun/internal/logger"
	"midirun/internal/mapping"
	"midirun/internal/midi"
	"midirun/internal/shell"
)

// Dispatcher fires at most one rule per message: the first in table order
// whose byte pair equals the message's first two bytes.
//
// Commands are started detached; key presses run synchronously, so a long
// chord delays the next message. Collaborator failures are logged at debug
// level and never stop dispatch.
type Dispatcher struct {
	table  mapping.Table
	runner shell.Runner
	keys   keys.Injector
	log    *zap.Logger
}

func New(table mapping.Table, runner shell.Runner, injector keys.Injector, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		table:  table,
		runner: runner,
		keys:   injector,
		log:    logger.OrNop(log),
	}
}

// Handle dispatches msg, discarding the result.
func (d *Dispatcher) Handle(msg midi.Message) {
	d.Dispatch(msg)
}

// Dispatch runs the action of the rule matching msg and returns that rule.
// Messages shorter than two bytes never match.
func (d *Dispatcher) Dispatch(msg midi.Message) (mapping.Rule, bool) {
	if ce := d.log.Check(zap.DebugLevel, "midi message"); ce != nil && len(msg.Bytes) > 0 {
		typ, ch := midi.Classify(msg.Bytes[0])
		ce.Write(
			zap.Uint8s("bytes", msg.Bytes),
			zap.Float64("stamp", msg.Delta),
			zap.String("type", string(typ)),
			zap.Uint8("channel", ch),
		)
	}
	if len(msg.Bytes) < 2 {
		return mapping.Rule{}, false
	}

	rule, ok := d.table.Match(msg.Bytes[0], msg.Bytes[1])
	if !ok {
		return mapping.Rule{}, false
	}
	d.log.Debug("triggering mapping", zap.String("name", rule.Name), zap.String("kind", string(rule.Kind)))

	if err := d.run(rule); err != nil {
		d.log.Debug("mapping failed", zap.String("name", rule.Name), zap.Error(err))
	}
	return rule, true
}

func (d *Dispatcher) run(rule mapping.Rule) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
	}()

	switch rule.Kind {
	case mapping.KeyPress:
		return d.keys.PressKeys(rule.Keys)
	default:
		return d.runner.RunDetached(rule.Command)
	}
}
