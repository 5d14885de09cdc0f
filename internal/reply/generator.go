// Package reply implements the two hotkey actions: saving the post context
// and generating a reply to the comment on the clipboard.
package reply

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/atinylittleshell/ctxreply/internal/clipboard"
	"github.com/atinylittleshell/ctxreply/internal/config"
	"github.com/atinylittleshell/ctxreply/internal/history"
	"github.com/atinylittleshell/ctxreply/internal/llm"
	"github.com/atinylittleshell/ctxreply/internal/postctx"
	"github.com/atinylittleshell/ctxreply/internal/render"
	"go.uber.org/zap"
)

const (
	contextPreviewLength = 60
	commentPreviewLength = 50
)

// ErrTooShort means the clipboard text was below the minimum length.
var ErrTooShort = errors.New("clipboard text is too short")

// Completer is the part of the inference client the generator needs.
type Completer interface {
	LoadedModel(ctx context.Context) (string, error)
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// Recorder stores generated replies.
type Recorder interface {
	RecordReply(entry *history.ReplyEntry) error
}

type Options struct {
	Config    *config.Config
	Clipboard clipboard.Clipboard
	Store     *postctx.Store
	Completer Completer
	Console   *render.Console
	Logger    *zap.Logger

	// Recorder is optional.
	Recorder Recorder
}

type Generator struct {
	cfg       *config.Config
	clipboard clipboard.Clipboard
	store     *postctx.Store
	completer Completer
	console   *render.Console
	logger    *zap.Logger
	recorder  Recorder
}

func New(opts Options) *Generator {
	g := &Generator{
		cfg:       opts.Config,
		clipboard: opts.Clipboard,
		store:     opts.Store,
		completer: opts.Completer,
		console:   opts.Console,
		logger:    opts.Logger,
		recorder:  opts.Recorder,
	}
	if g.cfg == nil {
		g.cfg = config.DefaultConfig()
	}
	if g.store == nil {
		g.store = &postctx.Store{}
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	return g
}

// SaveContext stores the clipboard text as the post context.
func (g *Generator) SaveContext(ctx context.Context) error {
	text, err := g.clipboard.ReadAll()
	if err != nil {
		g.console.Error("Could not read the clipboard: %v", err)
		return fmt.Errorf("failed to read clipboard: %w", err)
	}

	if length(text) < g.cfg.Input.MinContextLength {
		g.console.Warn("Clipboard text is too short to be a post.")
		return ErrTooShort
	}

	g.store.Set(text)
	g.logger.Info("post context saved", zap.Int("length", len(text)))

	g.console.Banner("✓ ORIGINAL POST SAVED TO MEMORY",
		"Preview: "+preview(text, contextPreviewLength),
		fmt.Sprintf("Now you can copy comments and press %s", g.cfg.ReplyCombo().Display()),
	)
	return nil
}

// GenerateReply asks the model for a reply to the clipboard comment and
// copies it to the clipboard. On failure the clipboard is left unchanged.
func (g *Generator) GenerateReply(ctx context.Context) error {
	comment, err := g.clipboard.ReadAll()
	if err != nil {
		g.console.Error("Could not read the clipboard: %v", err)
		return fmt.Errorf("failed to read clipboard: %w", err)
	}

	if length(comment) < g.cfg.Input.MinCommentLength {
		g.console.Warn("Clipboard is empty or too short!")
		return ErrTooShort
	}

	post := g.store.Get()
	if g.store.Empty() {
		g.console.Warn("WARNING: No Original Post saved! Reply might be generic.")
		g.console.Hint("Tip: Copy your post and press %s first.", g.cfg.SaveCombo().Display())
	}

	g.console.Newline()
	g.console.Info("Generating reply for comment:")
	g.console.Hint("%s", preview(comment, commentPreviewLength))

	model := g.resolveModel(ctx)

	reply, err := g.completer.Complete(ctx, llm.Request{
		Model:       model,
		System:      g.cfg.Model.SystemPrompt,
		User:        BuildUserMessage(post, comment),
		Temperature: g.cfg.Model.Temperature,
		MaxTokens:   g.cfg.Model.MaxTokens,
	})
	if err != nil {
		g.reportError(err)
		return fmt.Errorf("failed to generate reply: %w", err)
	}

	reply = strings.TrimSpace(reply)
	if err := g.clipboard.WriteAll(reply); err != nil {
		g.console.Error("Could not write the reply to the clipboard: %v", err)
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	g.console.Reply(reply)
	g.logger.Info("reply generated", zap.String("model", model), zap.Int("length", len(reply)))

	g.record(model, comment, reply)
	return nil
}

func (g *Generator) resolveModel(ctx context.Context) string {
	model, err := g.completer.LoadedModel(ctx)
	if err != nil || model == "" {
		g.logger.Debug("loaded model not detected", zap.Error(err))
		g.console.Warn("Warning: Could not detect loaded model. Using default model name.")
		return g.cfg.Model.Name
	}
	g.console.Info("Using model: %s", model)
	return model
}

func (g *Generator) reportError(err error) {
	var httpErr *llm.HTTPError
	if errors.As(err, &httpErr) {
		g.console.Error("HTTP Error: %d %s", httpErr.StatusCode, http.StatusText(httpErr.StatusCode))
		if httpErr.StatusCode == http.StatusBadRequest {
			switch {
			case httpErr.Detail != "":
				g.console.Hint("Error details: %s", httpErr.Detail)
			case httpErr.Body != "":
				g.console.Hint("Response text: %s", httpErr.Body)
			}
		}
		g.console.Hint("Please check the model name and LM Studio configuration.")
		g.logger.Warn("completion request rejected", zap.Int("status", httpErr.StatusCode), zap.Error(err))
		return
	}

	g.console.Error("Error: %v", err)
	g.console.Hint("Please ensure LM Studio is running with the model loaded.")
	g.logger.Warn("completion request failed", zap.Error(err))
}

func (g *Generator) record(model, comment, reply string) {
	if g.recorder == nil {
		return
	}
	err := g.recorder.RecordReply(&history.ReplyEntry{
		Model:   model,
		Comment: comment,
		Reply:   reply,
	})
	if err != nil {
		g.logger.Warn("failed to record reply in history", zap.Error(err))
	}
}
