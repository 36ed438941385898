package overlay

import (
	"fmt"
	"sort"
	"strings"
)

const (
	stateOn  = "on"
	stateOff = "off"
)

// Toggle is a hardware interface setting such as "spi1=on" or "uart4=off".
type Toggle struct {
	Key   string
	Value string
}

// ParseToggle parses a "key=on|off" pair.
func ParseToggle(s string) (Toggle, error) {
	key, val, ok := strings.Cut(strings.TrimSpace(s), "=")
	key, val = strings.TrimSpace(key), strings.TrimSpace(val)
	if !ok || key == "" {
		return Toggle{}, fmt.Errorf("invalid interface toggle %q: want key=on|off", s)
	}
	if val != stateOn && val != stateOff {
		return Toggle{}, fmt.Errorf("invalid interface toggle %q: value must be %q or %q", s, stateOn, stateOff)
	}
	return Toggle{Key: key, Value: val}, nil
}

func (t Toggle) String() string {
	return t.Key + "=" + t.Value
}

// Turn returns the toggle with the opposite state on the same key. It is
// used to find the previous state of an interface before asserting the new
// one. Values other than on/off are returned unchanged.
func (t Toggle) Turn() Toggle {
	switch t.Value {
	case stateOn:
		t.Value = stateOff
	case stateOff:
		t.Value = stateOn
	}
	return t
}

// ToggleSet is the ordered list of toggles an overlay requires.
type ToggleSet []Toggle

// ParseToggleSet parses a comma-separated list such as "uart4=off,spi1=on".
// Empty elements are skipped.
func ParseToggleSet(s string) (ToggleSet, error) {
	var set ToggleSet
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		t, err := ParseToggle(part)
		if err != nil {
			return nil, err
		}
		set = append(set, t)
	}
	return set, nil
}

func (ts ToggleSet) String() string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}

// InterfaceTable maps overlay identifiers to the interface toggles they
// imply. A table is never mutated after construction.
type InterfaceTable struct {
	entries map[string]ToggleSet
}

var builtinInterfaces = map[string]string{
	"devspi1":              "spi1=on",
	"devspi2":              "spi2=on",
	"spi1-waveshare35b-v2": "uart4=off,spi1=on",
	"spi1-waveshare35c":    "uart4=off,spi1=on",
	"spi1-flash":           "uart4=off,spi1=on",
	"hifiberry-dacplus":    "i2c7=on",
	"spi1-mcp2515-can0":    "uart4=off,spi1=on",
}

// DefaultInterfaceTable returns the table of overlays shipped for ROCK Pi
// boards.
func DefaultInterfaceTable() *InterfaceTable {
	entries := make(map[string]ToggleSet, len(builtinInterfaces))
	for id, spec := range builtinInterfaces {
		set, err := ParseToggleSet(spec)
		if err != nil {
			panic(fmt.Sprintf("overlay: builtin interface table: %v", err))
		}
		entries[id] = set
	}
	return &InterfaceTable{entries: entries}
}

// NewInterfaceTable builds a table from the given entries. The map and the
// sets are copied.
func NewInterfaceTable(entries map[string]ToggleSet) *InterfaceTable {
	t := &InterfaceTable{entries: make(map[string]ToggleSet, len(entries))}
	for id, set := range entries {
		t.entries[id] = append(ToggleSet(nil), set...)
	}
	return t
}

// With returns a new table holding the receiver's entries overridden by
// extra.
func (t *InterfaceTable) With(extra map[string]ToggleSet) *InterfaceTable {
	merged := make(map[string]ToggleSet, len(t.entries)+len(extra))
	for id, set := range t.entries {
		merged[id] = set
	}
	for id, set := range extra {
		merged[id] = set
	}
	return NewInterfaceTable(merged)
}

// TogglesFor returns the toggles required by the overlay. Unknown overlays
// need no interface change and yield an empty set.
func (t *InterfaceTable) TogglesFor(id string) ToggleSet {
	if t == nil {
		return nil
	}
	set, ok := t.entries[id]
	if !ok {
		return nil
	}
	return append(ToggleSet(nil), set...)
}

// Overlays returns the identifiers known to the table, sorted.
func (t *InterfaceTable) Overlays() []string {
	ids := make([]string, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
