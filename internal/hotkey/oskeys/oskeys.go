// Package oskeys binds hotkey combos to real global hotkeys through
// golang.design/x/hotkey. On macOS the caller must run inside
// mainthread.Init.
package oskeys

import (
	"fmt"
	"sync"

	"github.com/atinylittleshell/ctxreply/internal/hotkey"
	xhotkey "golang.design/x/hotkey"
)

var keys = map[hotkey.Key]xhotkey.Key{
	"a": xhotkey.KeyA, "b": xhotkey.KeyB, "c": xhotkey.KeyC, "d": xhotkey.KeyD,
	"e": xhotkey.KeyE, "f": xhotkey.KeyF, "g": xhotkey.KeyG, "h": xhotkey.KeyH,
	"i": xhotkey.KeyI, "j": xhotkey.KeyJ, "k": xhotkey.KeyK, "l": xhotkey.KeyL,
	"m": xhotkey.KeyM, "n": xhotkey.KeyN, "o": xhotkey.KeyO, "p": xhotkey.KeyP,
	"q": xhotkey.KeyQ, "r": xhotkey.KeyR, "s": xhotkey.KeyS, "t": xhotkey.KeyT,
	"u": xhotkey.KeyU, "v": xhotkey.KeyV, "w": xhotkey.KeyW, "x": xhotkey.KeyX,
	"y": xhotkey.KeyY, "z": xhotkey.KeyZ,

	"0": xhotkey.Key0, "1": xhotkey.Key1, "2": xhotkey.Key2, "3": xhotkey.Key3,
	"4": xhotkey.Key4, "5": xhotkey.Key5, "6": xhotkey.Key6, "7": xhotkey.Key7,
	"8": xhotkey.Key8, "9": xhotkey.Key9,

	"f1": xhotkey.KeyF1, "f2": xhotkey.KeyF2, "f3": xhotkey.KeyF3, "f4": xhotkey.KeyF4,
	"f5": xhotkey.KeyF5, "f6": xhotkey.KeyF6, "f7": xhotkey.KeyF7, "f8": xhotkey.KeyF8,
	"f9": xhotkey.KeyF9, "f10": xhotkey.KeyF10, "f11": xhotkey.KeyF11, "f12": xhotkey.KeyF12,

	"esc":   xhotkey.KeyEscape,
	"space": xhotkey.KeySpace,
	"enter": xhotkey.KeyReturn,
	"tab":   xhotkey.KeyTab,
}

// Bind satisfies hotkey.Binder.
func Bind(combo hotkey.Combo) (hotkey.Trigger, error) {
	key, ok := keys[combo.Key]
	if !ok {
		return nil, fmt.Errorf("key %q is not supported on this platform", combo.Key)
	}

	var mods []xhotkey.Modifier
	for _, m := range []hotkey.Modifier{hotkey.ModCtrl, hotkey.ModAlt, hotkey.ModShift, hotkey.ModSuper} {
		if !combo.Has(m) {
			continue
		}
		mod, ok := modifiers[m]
		if !ok {
			return nil, fmt.Errorf("modifier in %s is not supported on this platform", combo)
		}
		mods = append(mods, mod)
	}

	return &trigger{
		hk:      xhotkey.New(mods, key),
		pressed: make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

type trigger struct {
	hk      *xhotkey.Hotkey
	pressed chan struct{}
	done    chan struct{}
	stop    sync.Once
}

func (t *trigger) Register() error {
	if err := t.hk.Register(); err != nil {
		return err
	}
	go t.forward()
	return nil
}

func (t *trigger) forward() {
	keydown := t.hk.Keydown()
	for {
		select {
		case <-t.done:
			return
		case _, ok := <-keydown:
			if !ok {
				return
			}
			select {
			case t.pressed <- struct{}{}:
			case <-t.done:
				return
			}
		}
	}
}

func (t *trigger) Unregister() error {
	t.stop.Do(func() { close(t.done) })
	return t.hk.Unregister()
}

func (t *trigger) Pressed() <-chan struct{} {
	return t.pressed
}
