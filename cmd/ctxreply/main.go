package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atinylittleshell/ctxreply/internal/app"
	"github.com/atinylittleshell/ctxreply/internal/clipboard"
	"github.com/atinylittleshell/ctxreply/internal/config"
	"github.com/atinylittleshell/ctxreply/internal/core"
	"github.com/atinylittleshell/ctxreply/internal/history"
	"github.com/atinylittleshell/ctxreply/internal/hotkey"
	"github.com/atinylittleshell/ctxreply/internal/hotkey/oskeys"
	"github.com/atinylittleshell/ctxreply/internal/llm"
	"github.com/atinylittleshell/ctxreply/internal/lmstudio"
	"github.com/atinylittleshell/ctxreply/internal/render"
	"github.com/atinylittleshell/ctxreply/internal/reply"
	"github.com/atinylittleshell/ctxreply/internal/styles"
	"go.uber.org/zap"
	"golang.design/x/hotkey/mainthread"
	"golang.org/x/term"
)

var BUILD_VERSION = "dev"

var helpFlag = flag.Bool("h", false, "display help information")
var versionFlag = flag.Bool("ver", false, "display build version")
var configFlag = flag.String("config", "", "path to the config file (default ~/.ctxreply/config.yaml)")
var noStartFlag = flag.Bool("no-start", false, "do not check, start or prepare the LM Studio server")
var historyFlag = flag.Int("history", 0, "print the last `n` replies and exit")
var searchFlag = flag.String("search", "", "fuzzy-search past replies for `query` and exit")
var deleteFlag = flag.Uint("delete", 0, "delete the reply with history `id` and exit")
var clearHistoryFlag = flag.Bool("clear-history", false, "delete every recorded reply and exit")

const helpText = `ctxreply - reply to social media comments with a local LLM

USAGE:
  ctxreply [options]

HOW IT WORKS:
  1. Copy the text of your post and press the save hotkey (Ctrl+Alt+C).
  2. Copy a comment and press the reply hotkey (Ctrl+Alt+R).
     A reply is generated by LM Studio and copied to your clipboard.
  3. Press the quit hotkey (Esc) to exit.

  Hotkeys are grabbed for the whole desktop while ctxreply runs, so other
  applications do not receive them. Set hotkeys.quit to a combination such
  as ctrl+alt+q if you need Esc elsewhere. On Linux an X11 display is
  required.

  Hotkeys, the model and the server address can be changed in
  ~/.ctxreply/config.yaml or with CTXREPLY_* environment variables.

OPTIONS:
`

const defaultTermWidth = 80

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Println(BUILD_VERSION)
		return
	}

	if *helpFlag {
		fmt.Print(helpText)
		flag.PrintDefaults()
		return
	}

	// Global hotkeys must be registered from the OS main thread on macOS.
	exitCode := 0
	mainthread.Init(func() {
		exitCode = run()
	})
	os.Exit(exitCode)
}

func run() int {
	configPath := *configFlag
	if configPath == "" {
		configPath = core.ConfigFile()
	}
	loaded, err := config.NewLoader(nil).LoadValidated(configPath, core.EnvFile())
	if err != nil {
		fmt.Fprintln(os.Stderr, styles.ERROR(fmt.Sprintf("ctxreply: %v", err)))
		return 1
	}
	cfg := loaded.Config

	logger, err := initializeLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, styles.ERROR(fmt.Sprintf("ctxreply: failed to initialize logger: %v", err)))
		return 1
	}
	defer logger.Sync() // Flush any buffered log entries

	logger.Info("-------- new ctxreply session --------", zap.Any("args", os.Args))
	for _, loadErr := range loaded.Errors {
		logger.Warn("configuration problem", zap.Error(loadErr))
		fmt.Fprintln(os.Stderr, styles.WARNING(loadErr.Error()))
	}

	historyManager := initializeHistoryManager(cfg, logger)
	if historyManager != nil {
		defer historyManager.Close()
	}

	historyCommand := history.Command{
		Limit:    *historyFlag,
		Search:   *searchFlag,
		DeleteID: *deleteFlag,
		Clear:    *clearHistoryFlag,
	}
	if historyCommand.Requested() {
		if err := historyCommand.Run(os.Stdout, historyManager, time.Now(), terminalWidth()); err != nil {
			fmt.Fprintln(os.Stderr, styles.ERROR(fmt.Sprintf("ctxreply: %v", err)))
			return 1
		}
		return 0
	}

	width := terminalWidth()
	console := render.NewConsole(os.Stdout, render.ReplyWidth(width))
	render.RenderWelcome(os.Stdout, render.WelcomeInfo{
		Model:      cfg.Model.Name,
		Server:     cfg.Server.BaseURL,
		Version:    BUILD_VERSION,
		SaveCombo:  cfg.SaveCombo().Display(),
		ReplyCombo: cfg.ReplyCombo().Display(),
		QuitCombo:  cfg.QuitCombo().Display(),
	}, width)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *noStartFlag || !cfg.Server.AutoStart {
		logger.Info("skipping server preparation")
	} else {
		prepareServer(ctx, cfg, console, logger, os.Stdin)
	}

	var recorder reply.Recorder
	if historyManager != nil {
		recorder = historyManager
	}

	a, err := app.New(app.Options{
		Config:    cfg,
		Console:   console,
		Logger:    logger,
		Clipboard: clipboard.System{},
		Completer: llm.NewClient(llm.Options{
			BaseURL:          cfg.Server.BaseURL,
			APIKey:           cfg.Server.APIKey,
			DiscoveryTimeout: cfg.Server.DiscoveryTimeout,
			RequestTimeout:   cfg.Model.RequestTimeout,
			Logger:           logger,
		}),
		Source:   hotkey.NewListener(oskeys.Bind, logger),
		Recorder: recorder,
	})
	if err != nil {
		logger.Error("failed to initialize app", zap.Error(err))
		fmt.Fprintln(os.Stderr, styles.ERROR(fmt.Sprintf("ctxreply: %v", err)))
		return 1
	}

	if err := a.Run(ctx); err != nil {
		logger.Error("unhandled error", zap.Error(err))
		console.Error("%v", err)
		return 1
	}

	return 0
}

func initializeLogger(level string) (*zap.Logger, error) {
	logLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		logLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	if BUILD_VERSION == "dev" {
		logLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	// Logs only go to file; the terminal is reserved for status lines.
	// Use `tail -f ~/.ctxreply/ctxreply.log` to monitor logs in real-time
	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = logLevel
	loggerConfig.OutputPaths = []string{
		core.LogFile(),
	}
	loggerConfig.ErrorOutputPaths = []string{
		core.LogFile(),
	}

	return loggerConfig.Build()
}

func initializeHistoryManager(cfg *config.Config, logger *zap.Logger) *history.HistoryManager {
	if !cfg.History.Enabled {
		return nil
	}

	historyManager, err := history.NewHistoryManager(core.HistoryFile())
	if err != nil {
		logger.Warn("failed to open reply history", zap.Error(err))
		fmt.Fprintln(os.Stderr, styles.WARNING(fmt.Sprintf("reply history disabled: %v", err)))
		return nil
	}

	return historyManager
}

// prepareServer runs the server start-up sequence. Failures are reported and
// the program continues, as the server may be started later by hand.
func prepareServer(ctx context.Context, cfg *config.Config, console *render.Console, logger *zap.Logger, stdin *os.File) {
	controller, err := lmstudio.NewController(lmstudio.Options{
		Config:  cfg.Server,
		Runner:  &lmstudio.ExecRunner{Logger: logger},
		Console: console,
		Logger:  logger,
	})
	if err != nil {
		console.Error("%v", err)
		return
	}

	report := controller.Initialize(ctx, cfg.Model.Name)
	logger.Info("server preparation finished",
		zap.Bool("serverReady", report.ServerReady()),
		zap.Bool("launchFailed", report.LaunchFailed()),
		zap.Bool("modelLoadFailed", report.ModelLoadFailed()))

	if report.LaunchFailed() {
		console.Newline()
		console.Warn("Could not start LM Studio automatically.")
		console.Hint("Please start LM Studio manually and ensure the server is running on %s", cfg.Server.BaseURL)
		if term.IsTerminal(int(stdin.Fd())) {
			console.Progress("Press Enter to continue anyway...")
			render.WaitForEnter(ctx, stdin)
			console.Newline()
		}
		return
	}

	if report.ModelLoadFailed() {
		console.Newline()
		console.Warn("Could not load the model automatically.")
		console.Hint("You can still use ctxreply, but you'll need to load the model manually in LM Studio")
	}
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultTermWidth
	}
	return width
}
