package hotkey

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Handler is invoked when a registered combo is pressed.
type Handler func(ctx context.Context)

// Source is an event source that invokes handlers for global hotkeys.
type Source interface {
	// Register binds the combo to the handler.
	Register(combo Combo, handler Handler) error

	// WaitForQuit dispatches handlers until the quit combo is pressed or the
	// context is cancelled.
	WaitForQuit(ctx context.Context, quit Combo) error
}

// Trigger is one OS-level hotkey registration.
type Trigger interface {
	Register() error
	Unregister() error
	// Pressed delivers a value every time the combo goes down.
	Pressed() <-chan struct{}
}

// Binder creates a Trigger for a combo.
type Binder func(combo Combo) (Trigger, error)

type binding struct {
	combo   Combo
	trigger Trigger
	handler Handler
}

// Listener implements Source on top of a Binder. Handlers run on the
// goroutine that called WaitForQuit, one at a time.
type Listener struct {
	bind   Binder
	logger *zap.Logger

	mu       sync.Mutex
	bindings []*binding
	waiting  bool
}

var _ Source = (*Listener)(nil)

func NewListener(bind Binder, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{
		bind:   bind,
		logger: logger,
	}
}

func (l *Listener) Register(combo Combo, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("handler for %s is nil", combo)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.waiting {
		return fmt.Errorf("cannot register %s while waiting for quit", combo)
	}
	for _, b := range l.bindings {
		if b.combo == combo {
			return fmt.Errorf("hotkey %s is already registered", combo)
		}
	}

	trigger, err := l.bind(combo)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", combo, err)
	}
	if err := trigger.Register(); err != nil {
		return fmt.Errorf("failed to register %s: %w", combo, err)
	}

	l.bindings = append(l.bindings, &binding{
		combo:   combo,
		trigger: trigger,
		handler: handler,
	})
	l.logger.Debug("hotkey registered", zap.String("combo", combo.String()))

	return nil
}

// WaitForQuit blocks until quit is pressed (returns nil) or ctx is done
// (returns ctx.Err()). Every trigger, including the quit trigger, is
// unregistered before it returns.
func (l *Listener) WaitForQuit(ctx context.Context, quit Combo) error {
	l.mu.Lock()
	if l.waiting {
		l.mu.Unlock()
		return fmt.Errorf("already waiting for quit")
	}
	for _, b := range l.bindings {
		if b.combo == quit {
			l.mu.Unlock()
			return fmt.Errorf("quit hotkey %s is also bound to a handler", quit)
		}
	}
	l.waiting = true
	bindings := l.bindings
	l.mu.Unlock()

	defer l.unregisterAll()

	quitTrigger, err := l.bind(quit)
	if err != nil {
		return fmt.Errorf("failed to bind quit hotkey %s: %w", quit, err)
	}
	if err := quitTrigger.Register(); err != nil {
		return fmt.Errorf("failed to register quit hotkey %s: %w", quit, err)
	}
	defer func() {
		if err := quitTrigger.Unregister(); err != nil {
			l.logger.Warn("failed to unregister quit hotkey", zap.Error(err))
		}
	}()

	loopCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(loopCtx)
	pressed := make(chan *binding)

	for _, b := range bindings {
		b := b
		g.Go(func() error {
			forward(gctx, b, pressed)
			return nil
		})
	}

	err = l.dispatchLoop(ctx, quitTrigger.Pressed(), pressed)

	cancel()
	_ = g.Wait()

	return err
}

func forward(ctx context.Context, b *binding, pressed chan<- *binding) {
	events := b.trigger.Pressed()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			select {
			case pressed <- b:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (l *Listener) dispatchLoop(ctx context.Context, quit <-chan struct{}, pressed <-chan *binding) error {
	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("hotkey listener cancelled")
			return ctx.Err()
		case <-quit:
			l.logger.Debug("quit hotkey pressed")
			return nil
		case b := <-pressed:
			l.dispatch(ctx, b)
		}
	}
}

func (l *Listener) dispatch(ctx context.Context, b *binding) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("hotkey handler panicked",
				zap.String("combo", b.combo.String()),
				zap.Any("panic", r))
		}
	}()

	l.logger.Debug("hotkey pressed", zap.String("combo", b.combo.String()))
	b.handler(ctx)
}

func (l *Listener) unregisterAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, b := range l.bindings {
		if err := b.trigger.Unregister(); err != nil {
			l.logger.Warn("failed to unregister hotkey",
				zap.String("combo", b.combo.String()),
				zap.Error(err))
		}
	}
	l.bindings = nil
	l.waiting = false
}
