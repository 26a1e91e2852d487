// Package mapping holds the ordered table of MIDI byte-pair rules.
package mapping

import "fmt"

// ActionKind is what a rule does when it fires.
type ActionKind string

const (
	Command  ActionKind = "command"
	KeyPress ActionKind = "key"
)

// ParseActionKind accepts the exact config spelling of a kind.
func ParseActionKind(s string) (ActionKind, bool) {
	switch ActionKind(s) {
	case Command:
		return Command, true
	case KeyPress:
		return KeyPress, true
	default:
		return "", false
	}
}

// Defaults for fields missing from a mapping entry.
const (
	DefaultName    = "NAN"
	DefaultByte0   = 128
	DefaultByte1   = 0
	DefaultKind    = Command
	DefaultCommand = "0"
)

// Rule binds the first two bytes of a message to an action.
type Rule struct {
	Name    string
	Byte0   uint8
	Byte1   uint8
	Kind    ActionKind
	Command string // Kind == Command
	Keys    []int  // Kind == KeyPress, platform key codes
}

// Matches reports whether the rule applies to a message starting with b0, b1.
func (r Rule) Matches(b0, b1 byte) bool {
	return r.Byte0 == b0 && r.Byte1 == b1
}

func (r Rule) String() string {
	switch r.Kind {
	case KeyPress:
		return fmt.Sprintf("%s [%d %d] key %v", r.Name, r.Byte0, r.Byte1, r.Keys)
	default:
		return fmt.Sprintf("%s [%d %d] command %q", r.Name, r.Byte0, r.Byte1, r.Command)
	}
}

func (r Rule) clone() Rule {
	if r.Keys != nil {
		r.Keys = append([]int(nil), r.Keys...)
	}
	return r
}

// Table is an immutable, ordered list of rules. The zero Table is empty.
type Table struct {
	rules []Rule
}

// NewTable copies rules into a Table, keeping their order.
func NewTable(rules []Rule) Table {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = r.clone()
	}
	return Table{rules: out}
}

func (t Table) Len() int { return len(t.rules) }

// Rules returns a copy of the rules in load order.
func (t Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	for i, r := range t.rules {
		out[i] = r.clone()
	}
	return out
}

// Match returns the first rule, in load order, whose byte pair is (b0, b1).
// Later rules with the same pair never fire.
func (t Table) Match(b0, b1 byte) (Rule, bool) {
	for _, r := range t.rules {
		if r.Matches(b0, b1) {
			return r.clone(), true
		}
	}
	return Rule{}, false
}
