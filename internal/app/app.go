// Package app wires the hotkeys to the reply actions and runs until quit.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/atinylittleshell/ctxreply/internal/clipboard"
	"github.com/atinylittleshell/ctxreply/internal/config"
	"github.com/atinylittleshell/ctxreply/internal/hotkey"
	"github.com/atinylittleshell/ctxreply/internal/postctx"
	"github.com/atinylittleshell/ctxreply/internal/render"
	"github.com/atinylittleshell/ctxreply/internal/reply"
	"go.uber.org/zap"
)

type Options struct {
	Config    *config.Config
	Console   *render.Console
	Logger    *zap.Logger
	Clipboard clipboard.Clipboard
	Completer reply.Completer
	Source    hotkey.Source

	// Recorder is optional.
	Recorder reply.Recorder
}

// App owns the saved post context for the lifetime of the process.
type App struct {
	cfg       *config.Config
	console   *render.Console
	logger    *zap.Logger
	source    hotkey.Source
	store     *postctx.Store
	generator *reply.Generator
}

func New(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("hotkey source is required")
	}
	if opts.Clipboard == nil || opts.Completer == nil || opts.Console == nil {
		return nil, fmt.Errorf("clipboard, completer and console are required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store := &postctx.Store{}

	return &App{
		cfg:     opts.Config,
		console: opts.Console,
		logger:  logger,
		source:  opts.Source,
		store:   store,
		generator: reply.New(reply.Options{
			Config:    opts.Config,
			Clipboard: opts.Clipboard,
			Store:     store,
			Completer: opts.Completer,
			Console:   opts.Console,
			Logger:    logger,
			Recorder:  opts.Recorder,
		}),
	}, nil
}

// Run registers the hotkeys and blocks until the quit combo is pressed or
// ctx is cancelled. Cancellation is a normal exit.
func (a *App) Run(ctx context.Context) error {
	save, generate, quit := a.cfg.SaveCombo(), a.cfg.ReplyCombo(), a.cfg.QuitCombo()

	if err := a.source.Register(save, a.handle("save context", a.generator.SaveContext)); err != nil {
		return fmt.Errorf("failed to register save hotkey: %w", err)
	}
	if err := a.source.Register(generate, a.handle("generate reply", a.generator.GenerateReply)); err != nil {
		return fmt.Errorf("failed to register reply hotkey: %w", err)
	}

	a.console.Info("Social Media Context Bot is running...")
	a.console.Hint("1. Highlight your Post text -> Copy -> Press '%s' (Save Context)", save.Display())
	a.console.Hint("2. Highlight a Comment -> Copy -> Press '%s' (Generate Reply)", generate.Display())
	a.console.Hint("Press '%s' to quit", quit.Display())
	a.logger.Info("listening for hotkeys",
		zap.String("save", save.String()),
		zap.String("reply", generate.String()),
		zap.String("quit", quit.String()))

	err := a.source.WaitForQuit(ctx, quit)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	a.console.Info("Goodbye!")
	a.logger.Info("stopped listening for hotkeys")
	return nil
}

// handle adapts an action to a hotkey handler. Errors were already shown to
// the user, so they are only logged.
func (a *App) handle(name string, action func(context.Context) error) hotkey.Handler {
	return func(ctx context.Context) {
		if err := action(ctx); err != nil {
			a.logger.Debug("hotkey action failed", zap.String("action", name), zap.Error(err))
		}
	}
}
