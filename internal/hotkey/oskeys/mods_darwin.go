package oskeys

import (
	"github.com/atinylittleshell/ctxreply/internal/hotkey"
	xhotkey "golang.design/x/hotkey"
)

var modifiers = map[hotkey.Modifier]xhotkey.Modifier{
	hotkey.ModCtrl:  xhotkey.ModCtrl,
	hotkey.ModAlt:   xhotkey.ModOption,
	hotkey.ModShift: xhotkey.ModShift,
	hotkey.ModSuper: xhotkey.ModCmd,
}
