// Package hotkey provides global hotkey combinations and a listener that
// dispatches their handlers one at a time.
package hotkey

import (
	"fmt"
	"strings"
)

// Modifier is a bit set of modifier keys.
type Modifier uint8

const (
	ModCtrl Modifier = 1 << iota
	ModAlt
	ModShift
	ModSuper
)

var modifierOrder = []struct {
	mod  Modifier
	name string
}{
	{ModCtrl, "ctrl"},
	{ModAlt, "alt"},
	{ModShift, "shift"},
	{ModSuper, "super"},
}

var modifierAliases = map[string]Modifier{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"option":  ModAlt,
	"shift":   ModShift,
	"super":   ModSuper,
	"win":     ModSuper,
	"cmd":     ModSuper,
	"command": ModSuper,
	"meta":    ModSuper,
}

// Key is the canonical name of a non-modifier key, e.g. "c", "f5" or "esc".
type Key string

var keyAliases = map[string]Key{
	"escape": "esc",
	"return": "enter",
}

// Keys lists every key name a Combo may use.
var Keys = buildKeys()

func buildKeys() map[Key]bool {
	keys := map[Key]bool{
		"esc":   true,
		"space": true,
		"enter": true,
		"tab":   true,
	}
	for c := 'a'; c <= 'z'; c++ {
		keys[Key(string(c))] = true
	}
	for c := '0'; c <= '9'; c++ {
		keys[Key(string(c))] = true
	}
	for i := 1; i <= 12; i++ {
		keys[Key(fmt.Sprintf("f%d", i))] = true
	}
	return keys
}

// Combo is a key together with the modifiers held while pressing it.
type Combo struct {
	Mods Modifier
	Key  Key
}

// Has reports whether the combo includes the modifier.
func (c Combo) Has(m Modifier) bool {
	return c.Mods&m != 0
}

// String returns the canonical form, modifiers in ctrl, alt, shift, super order.
func (c Combo) String() string {
	parts := make([]string, 0, len(modifierOrder)+1)
	for _, m := range modifierOrder {
		if c.Has(m.mod) {
			parts = append(parts, m.name)
		}
	}
	parts = append(parts, string(c.Key))
	return strings.Join(parts, "+")
}

// Display returns the combination as shown to users, e.g. "Ctrl+Alt+R".
func (c Combo) Display() string {
	parts := strings.Split(c.String(), "+")
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "+")
}

// ParseCombo parses strings such as "ctrl+alt+c" or "Esc".
func ParseCombo(s string) (Combo, error) {
	var combo Combo

	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return combo, fmt.Errorf("empty hotkey")
	}

	for _, token := range strings.Split(s, "+") {
		token = strings.TrimSpace(token)
		if token == "" {
			return Combo{}, fmt.Errorf("hotkey %q has an empty part", s)
		}

		if mod, ok := modifierAliases[token]; ok {
			combo.Mods |= mod
			continue
		}

		key := Key(token)
		if alias, ok := keyAliases[token]; ok {
			key = alias
		}
		if !Keys[key] {
			return Combo{}, fmt.Errorf("hotkey %q: unknown key %q", s, token)
		}
		if combo.Key != "" {
			return Combo{}, fmt.Errorf("hotkey %q has more than one key", s)
		}
		combo.Key = key
	}

	if combo.Key == "" {
		return Combo{}, fmt.Errorf("hotkey %q has no key", s)
	}

	return combo, nil
}

// MustParseCombo is like ParseCombo but panics on error.
func MustParseCombo(s string) Combo {
	combo, err := ParseCombo(s)
	if err != nil {
		panic(err)
	}
	return combo
}
