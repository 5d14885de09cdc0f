package hotkey

import (
	"fmt"
	"sync"
	"time"
)

// FakeBinder is an in-memory Binder for tests. Press simulates a key press.
type FakeBinder struct {
	mu       sync.Mutex
	triggers map[Combo]*FakeTrigger

	// RegisterErr, when set for a combo, is returned by that trigger's Register.
	RegisterErr map[Combo]error
}

func NewFakeBinder() *FakeBinder {
	return &FakeBinder{
		triggers:    make(map[Combo]*FakeTrigger),
		RegisterErr: make(map[Combo]error),
	}
}

// Bind satisfies Binder.
func (f *FakeBinder) Bind(combo Combo) (Trigger, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := &FakeTrigger{
		combo:       combo,
		pressed:     make(chan struct{}),
		registerErr: f.RegisterErr[combo],
	}
	f.triggers[combo] = t
	return t, nil
}

// Trigger returns the most recent trigger bound for the combo, or nil.
func (f *FakeBinder) Trigger(combo Combo) *FakeTrigger {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.triggers[combo]
}

// Press delivers one press of the combo, waiting up to timeout for the
// combo to be registered and for the press to be picked up.
func (f *FakeBinder) Press(combo Combo, timeout time.Duration) error {
	deadline := time.After(timeout)
	for {
		t := f.Trigger(combo)
		if t != nil && t.Registered() {
			select {
			case t.pressed <- struct{}{}:
				return nil
			case <-deadline:
				return fmt.Errorf("press of %s was not picked up", combo)
			}
		}
		select {
		case <-deadline:
			return fmt.Errorf("%s was never registered", combo)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// FakeTrigger is the Trigger handed out by FakeBinder.
type FakeTrigger struct {
	combo       Combo
	pressed     chan struct{}
	registerErr error

	mu           sync.Mutex
	registered   bool
	unregistered bool
}

func (t *FakeTrigger) Register() error {
	if t.registerErr != nil {
		return t.registerErr
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.registered = true
	return nil
}

func (t *FakeTrigger) Unregister() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.registered = false
	t.unregistered = true
	return nil
}

func (t *FakeTrigger) Pressed() <-chan struct{} {
	return t.pressed
}

// Registered reports whether the trigger is currently registered.
func (t *FakeTrigger) Registered() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.registered
}

// Unregistered reports whether Unregister has been called.
func (t *FakeTrigger) Unregistered() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.unregistered
}
