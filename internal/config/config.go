// Package config loads the midirun TOML configuration: the input port and
// the ordered mapping table.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"midirun/internal/logger"
	"midirun/internal/mapping"
)

var (
	ErrUnreadable       = errors.New("config file unreadable")
	ErrSyntax           = errors.New("config file malformed")
	ErrMissingInputPort = errors.New("no input port provided (config.inputPort)")
	ErrInvalidInputPort = errors.New("config.inputPort must be a positive 1-based port number")
	ErrMalformedMapping = errors.New("malformed mapping entry")
)

// maxKeyCode is the widest key code any injection backend accepts.
const maxKeyCode = 0xFFFF

// Config is loaded once at startup and never mutated.
type Config struct {
	InputPort int // 1-based
	Mappings  mapping.Table
}

// file mirrors the TOML document. Pointers tell missing fields from zero.
type file struct {
	Config  section `toml:"config"`
	Mapping []entry `toml:"mapping,omitempty"`
}

type section struct {
	InputPort *int `toml:"inputPort"`
}

type entry struct {
	Name    *string `toml:"name"`
	Byte0   *int    `toml:"byte0"`
	Byte1   *int    `toml:"byte1"`
	Type    *string `toml:"type"`
	Command *string `toml:"command"`
	Key     []int   `toml:"key,omitempty"`
}

// DefaultPath is config.toml in the per-user configuration directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "locating user config directory")
	}
	return filepath.Join(dir, "midirun", "config.toml"), nil
}

// Load reads and parses the config at path.
func Load(path string, log *zap.Logger) (Config, error) {
	bt, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(ErrUnreadable, "%s: %v", path, err)
	}
	cfg, err := Parse(bt, log)
	if err != nil {
		return Config{}, errors.WithMessage(err, path)
	}
	return cfg, nil
}

// Parse builds a Config from TOML text. Optional mapping fields fall back to
// the mapping package defaults; a mapping section that is not an array of
// tables, or a field of the wrong type or range, is an ErrMalformedMapping.
func Parse(data []byte, log *zap.Logger) (Config, error) {
	log = logger.OrNop(log)

	var doc struct {
		Config  section        `toml:"config"`
		Mapping toml.Primitive `toml:"mapping"`
	}
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&doc)
	if err != nil {
		var perr toml.ParseError
		if errors.As(err, &perr) {
			return Config{}, errors.Wrap(ErrSyntax, perr.ErrorWithPosition())
		}
		return Config{}, errors.Wrap(ErrSyntax, err.Error())
	}

	if doc.Config.InputPort == nil {
		return Config{}, ErrMissingInputPort
	}
	if *doc.Config.InputPort < 1 {
		return Config{}, errors.Wrapf(ErrInvalidInputPort, "got %d", *doc.Config.InputPort)
	}

	var entries []entry
	if md.IsDefined("mapping") {
		if err := md.PrimitiveDecode(doc.Mapping, &entries); err != nil {
			return Config{}, errors.Wrapf(ErrMalformedMapping, "mapping must be an array of tables with typed fields: %v", err)
		}
	}

	rules := make([]mapping.Rule, 0, len(entries))
	for i, e := range entries {
		r, err := e.rule()
		if err != nil {
			return Config{}, errors.WithMessagef(err, "mapping #%d", i+1)
		}
		log.Debug("mapping loaded", zap.Int("index", i+1), zap.Stringer("rule", r))
		rules = append(rules, r)
	}

	for _, k := range md.Undecoded() {
		log.Debug("ignoring unknown config key", zap.String("key", k.String()))
	}

	return Config{
		InputPort: *doc.Config.InputPort,
		Mappings:  mapping.NewTable(rules),
	}, nil
}

func (e entry) rule() (mapping.Rule, error) {
	r := mapping.Rule{
		Name:  mapping.DefaultName,
		Byte0: mapping.DefaultByte0,
		Byte1: mapping.DefaultByte1,
		Kind:  mapping.DefaultKind,
	}
	if e.Name != nil {
		r.Name = *e.Name
	}
	if e.Byte0 != nil {
		b, err := dataByte("byte0", *e.Byte0)
		if err != nil {
			return r, err
		}
		r.Byte0 = b
	}
	if e.Byte1 != nil {
		b, err := dataByte("byte1", *e.Byte1)
		if err != nil {
			return r, err
		}
		r.Byte1 = b
	}
	if e.Type != nil {
		k, ok := mapping.ParseActionKind(*e.Type)
		if !ok {
			return r, errors.Wrapf(ErrMalformedMapping, "type must be %q or %q, got %q", mapping.Command, mapping.KeyPress, *e.Type)
		}
		r.Kind = k
	}

	switch r.Kind {
	case mapping.Command:
		r.Command = mapping.DefaultCommand
		if e.Command != nil {
			r.Command = *e.Command
		}
	case mapping.KeyPress:
		r.Keys = make([]int, 0, len(e.Key))
		for _, k := range e.Key {
			if k < 0 || k > maxKeyCode {
				return r, errors.Wrapf(ErrMalformedMapping, "key code out of range 0-%d: %d", maxKeyCode, k)
			}
			r.Keys = append(r.Keys, k)
		}
	}
	return r, nil
}

func dataByte(field string, v int) (uint8, error) {
	if v < 0 || v > 255 {
		return 0, errors.Wrapf(ErrMalformedMapping, "%s out of range 0-255: %d", field, v)
	}
	return uint8(v), nil
}

// Encode writes cfg as TOML. Parse(Encode(cfg)) yields cfg again.
func Encode(w io.Writer, cfg Config) error {
	port := cfg.InputPort
	f := file{Config: section{InputPort: &port}}
	for _, r := range cfg.Mappings.Rules() {
		name, kind := r.Name, string(r.Kind)
		b0, b1 := int(r.Byte0), int(r.Byte1)
		e := entry{Name: &name, Byte0: &b0, Byte1: &b1, Type: &kind}
		switch r.Kind {
		case mapping.KeyPress:
			e.Key = r.Keys
		default:
			cmd := r.Command
			e.Command = &cmd
		}
		f.Mapping = append(f.Mapping, e)
	}
	return errors.Wrap(toml.NewEncoder(w).Encode(f), "encoding config")
}
