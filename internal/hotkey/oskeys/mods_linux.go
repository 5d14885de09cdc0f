package oskeys

import (
	"github.com/atinylittleshell/ctxreply/internal/hotkey"
	xhotkey "golang.design/x/hotkey"
)

// X11 reports Alt as Mod1 and Super as Mod4 on common keymaps.
var modifiers = map[hotkey.Modifier]xhotkey.Modifier{
	hotkey.ModCtrl:  xhotkey.ModCtrl,
	hotkey.ModAlt:   xhotkey.Mod1,
	hotkey.ModShift: xhotkey.ModShift,
	hotkey.ModSuper: xhotkey.Mod4,
}
