package config

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"midirun/internal/mapping"
)

func TestParse_Basics(t *testing.T) {
	data := []byte(`
[config]
inputPort = 2

[[mapping]]
name = "pad"
byte0 = 144
byte1 = 60
type = "key"
key = [29, 46]

[[mapping]]
name = "knob"
byte0 = 176
byte1 = 1
type = "command"
command = "notify-send hi"
`)
	cfg, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if cfg.InputPort != 2 {
		t.Fatalf("InputPort=%d", cfg.InputPort)
	}
	rules := cfg.Mappings.Rules()
	if len(rules) != 2 {
		t.Fatalf("rules=%d %#v", len(rules), rules)
	}
	want0 := mapping.Rule{Name: "pad", Byte0: 144, Byte1: 60, Kind: mapping.KeyPress, Keys: []int{29, 46}}
	if !reflect.DeepEqual(rules[0], want0) {
		t.Fatalf("rule 0 = %#v; want %#v", rules[0], want0)
	}
	want1 := mapping.Rule{Name: "knob", Byte0: 176, Byte1: 1, Kind: mapping.Command, Command: "notify-send hi"}
	if !reflect.DeepEqual(rules[1], want1) {
		t.Fatalf("rule 1 = %#v; want %#v", rules[1], want1)
	}
}

func TestParse_Defaults(t *testing.T) {
	data := []byte(`
[config]
inputPort = 1

[[mapping]]

[[mapping]]
type = "key"
byte1 = 7
`)
	cfg, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	rules := cfg.Mappings.Rules()
	if len(rules) != 2 {
		t.Fatalf("rules=%d", len(rules))
	}
	cmd := rules[0]
	if cmd.Name != "NAN" || cmd.Byte0 != 128 || cmd.Byte1 != 0 || cmd.Kind != mapping.Command || cmd.Command != "0" || cmd.Keys != nil {
		t.Fatalf("command defaults wrong: %#v", cmd)
	}
	key := rules[1]
	if key.Name != "NAN" || key.Byte0 != 128 || key.Byte1 != 7 || key.Kind != mapping.KeyPress || key.Command != "" || len(key.Keys) != 0 {
		t.Fatalf("key defaults wrong: %#v", key)
	}
}

func TestParse_NoMappings(t *testing.T) {
	cfg, err := Parse([]byte("[config]\ninputPort = 3\n"), nil)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if cfg.InputPort != 3 || cfg.Mappings.Len() != 0 {
		t.Fatalf("cfg=%#v", cfg)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		data string
		want error
	}{
		{"missing port", "[[mapping]]\nbyte0 = 144\n", ErrMissingInputPort},
		{"empty file", "", ErrMissingInputPort},
		{"zero port", "[config]\ninputPort = 0\n", ErrInvalidInputPort},
		{"negative port", "[config]\ninputPort = -4\n", ErrInvalidInputPort},
		{"syntax", "[config\ninputPort = 1\n", ErrSyntax},
		{"port type", "[config]\ninputPort = \"one\"\n", ErrSyntax},
		{"mapping scalar", "mapping = 5\n[config]\ninputPort = 1\n", ErrMalformedMapping},
		{"mapping table", "[config]\ninputPort = 1\n[mapping]\nbyte0 = 1\n", ErrMalformedMapping},
		{"byte range", "[config]\ninputPort = 1\n[[mapping]]\nbyte0 = 256\n", ErrMalformedMapping},
		{"byte negative", "[config]\ninputPort = 1\n[[mapping]]\nbyte1 = -1\n", ErrMalformedMapping},
		{"byte type", "[config]\ninputPort = 1\n[[mapping]]\nbyte1 = \"x\"\n", ErrMalformedMapping},
		{"unknown type", "[config]\ninputPort = 1\n[[mapping]]\ntype = \"macro\"\n", ErrMalformedMapping},
		{"key type", "[config]\ninputPort = 1\n[[mapping]]\ntype = \"key\"\nkey = [\"a\"]\n", ErrMalformedMapping},
		{"key too large", "[config]\ninputPort = 1\n[[mapping]]\ntype = \"key\"\nkey = [29, 65566]\n", ErrMalformedMapping},
		{"key negative", "[config]\ninputPort = 1\n[[mapping]]\ntype = \"key\"\nkey = [-1]\n", ErrMalformedMapping},
		{"padded type", "[config]\ninputPort = 1\n[[mapping]]\ntype = \" key \"\nkey = [30]\n", ErrMalformedMapping},
	}
	for _, c := range cases {
		_, err := Parse([]byte(c.data), nil)
		if !errors.Is(err, c.want) {
			t.Fatalf("%s: err=%v; want %v", c.name, err, c.want)
		}
	}
}

func TestParse_KeyCodeBounds(t *testing.T) {
	cfg, err := Parse([]byte("[config]\ninputPort = 1\n[[mapping]]\ntype = \"key\"\nkey = [0, 65535]\n"), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	keys := cfg.Mappings.Rules()[0].Keys
	if len(keys) != 2 || keys[0] != 0 || keys[1] != 65535 {
		t.Fatalf("keys=%v", keys)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[config]\ninputPort = 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.InputPort != 4 {
		t.Fatalf("InputPort=%d", cfg.InputPort)
	}

	_, err = Load(filepath.Join(dir, "missing.toml"), nil)
	if !errors.Is(err, ErrUnreadable) {
		t.Fatalf("missing file err=%v", err)
	}
}

func TestLoad_MissingPortMentionsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[[mapping]]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path, nil)
	if !errors.Is(err, ErrMissingInputPort) {
		t.Fatalf("err=%v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("error does not name the file: %v", err)
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	orig := Config{
		InputPort: 2,
		Mappings: mapping.NewTable([]mapping.Rule{
			{Name: "pad", Byte0: 144, Byte1: 60, Kind: mapping.KeyPress, Keys: []int{30}},
			{Name: "chord", Byte0: 144, Byte1: 62, Kind: mapping.KeyPress, Keys: []int{29, 56, 20}},
			{Name: "empty", Byte0: 144, Byte1: 63, Kind: mapping.KeyPress, Keys: []int{}},
			{Name: "run \"quoted\"", Byte0: 176, Byte1: 0, Kind: mapping.Command, Command: "echo 'a b' && true"},
			{Name: "NAN", Byte0: 255, Byte1: 255, Kind: mapping.Command, Command: "0"},
		}),
	}

	var buf bytes.Buffer
	if err := Encode(&buf, orig); err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	got, err := Parse(buf.Bytes(), nil)
	if err != nil {
		t.Fatalf("Parse of encoded config: %v\n%s", err, buf.String())
	}
	if !reflect.DeepEqual(got, orig) {
		t.Fatalf("round trip mismatch:\n got %#v\nwant %#v\n%s", got, orig, buf.String())
	}
}

func TestParse_VerboseLogsRules(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	data := []byte("[config]\ninputPort = 1\nextra = true\n[[mapping]]\nname = \"a\"\n")
	if _, err := Parse(data, zap.New(core)); err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if n := logs.FilterMessage("mapping loaded").Len(); n != 1 {
		t.Fatalf("mapping loaded logs=%d", n)
	}
	if n := logs.FilterMessage("ignoring unknown config key").Len(); n != 1 {
		t.Fatalf("unknown key logs=%d", n)
	}
}

func TestDefaultPath(t *testing.T) {
	p, err := DefaultPath()
	if err != nil {
		t.Skipf("no user config dir: %v", err)
	}
	if filepath.Base(p) != "config.toml" || filepath.Base(filepath.Dir(p)) != "midirun" {
		t.Fatalf("DefaultPath=%q", p)
	}
}
