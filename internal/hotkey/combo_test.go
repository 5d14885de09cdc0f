package hotkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCombo(t *testing.T) {
	tests := []struct {
		input    string
		wantMods Modifier
		wantKey  Key
		wantStr  string
	}{
		{"ctrl+alt+c", ModCtrl | ModAlt, "c", "ctrl+alt+c"},
		{"Ctrl+Alt+R", ModCtrl | ModAlt, "r", "ctrl+alt+r"},
		{"alt + ctrl + r", ModCtrl | ModAlt, "r", "ctrl+alt+r"},
		{"esc", 0, "esc", "esc"},
		{"Escape", 0, "esc", "esc"},
		{"cmd+shift+return", ModSuper | ModShift, "enter", "shift+super+enter"},
		{"option+f5", ModAlt, "f5", "alt+f5"},
		{"control+9", ModCtrl, "9", "ctrl+9"},
		{"win+space", ModSuper, "space", "super+space"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			combo, err := ParseCombo(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMods, combo.Mods)
			assert.Equal(t, tt.wantKey, combo.Key)
			assert.Equal(t, tt.wantStr, combo.String())
		})
	}
}

func TestParseComboErrors(t *testing.T) {
	tests := []struct {
		input   string
		wantErr string
	}{
		{"", "empty hotkey"},
		{"   ", "empty hotkey"},
		{"ctrl+", "empty part"},
		{"ctrl+alt", "has no key"},
		{"ctrl+a+b", "more than one key"},
		{"ctrl+banana", "unknown key"},
		{"f13", "unknown key"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseCombo(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMustParseComboPanics(t *testing.T) {
	assert.Panics(t, func() { MustParseCombo("nope+nope") })
	assert.NotPanics(t, func() { MustParseCombo("ctrl+alt+c") })
}

func TestComboHas(t *testing.T) {
	combo := MustParseCombo("ctrl+shift+x")
	assert.True(t, combo.Has(ModCtrl))
	assert.True(t, combo.Has(ModShift))
	assert.False(t, combo.Has(ModAlt))
	assert.False(t, combo.Has(ModSuper))
}

func TestComboDisplay(t *testing.T) {
	assert.Equal(t, "Ctrl+Alt+R", MustParseCombo("ctrl+alt+r").Display())
	assert.Equal(t, "Esc", MustParseCombo("escape").Display())
	assert.Equal(t, "Shift+Super+F5", MustParseCombo("cmd+shift+f5").Display())
}
