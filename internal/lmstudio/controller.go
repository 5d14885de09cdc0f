// Package lmstudio checks, starts and prepares the local LM Studio server
// through its HTTP API and its command line tool.
package lmstudio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/atinylittleshell/ctxreply/internal/config"
	"github.com/atinylittleshell/ctxreply/internal/llm"
	"github.com/atinylittleshell/ctxreply/internal/render"
	"go.uber.org/zap"
)

const downloadURL = "https://lmstudio.ai/"

// Step names one stage of server preparation.
type Step string

const (
	StepCheckReady Step = "check-ready"
	StepCheckCLI   Step = "check-cli"
	StepLaunch     Step = "launch"
	StepPollReady  Step = "poll-ready"
	StepLoadModel  Step = "load-model"
)

// StepResult is the outcome of one step. Steps never panic or exit; the
// caller decides whether to continue.
type StepResult struct {
	Step    Step
	OK      bool
	Skipped bool
	Detail  string
	Err     error
}

// Report is the ordered list of step results from Initialize.
type Report struct {
	Steps []StepResult
}

// Step returns the result for s, if that step ran or was skipped.
func (r Report) Step(s Step) (StepResult, bool) {
	for _, result := range r.Steps {
		if result.Step == s {
			return result, true
		}
	}
	return StepResult{}, false
}

// LaunchFailed reports whether the server was down and could not be started.
func (r Report) LaunchFailed() bool {
	for _, s := range []Step{StepCheckCLI, StepLaunch} {
		if result, ok := r.Step(s); ok && !result.OK && !result.Skipped {
			return true
		}
	}
	return false
}

// ModelLoadFailed reports whether the load step ran and failed.
func (r Report) ModelLoadFailed() bool {
	result, ok := r.Step(StepLoadModel)
	return ok && !result.OK && !result.Skipped
}

// ServerReady reports whether the server answered at any point.
func (r Report) ServerReady() bool {
	for _, s := range []Step{StepCheckReady, StepPollReady} {
		if result, ok := r.Step(s); ok && result.OK && result.Err == nil && result.Detail != pollTimeoutDetail {
			return true
		}
	}
	return false
}

const pollTimeoutDetail = "server started but not yet accessible"

// Options configures a Controller.
type Options struct {
	Config     config.ServerConfig
	Runner     Runner
	HTTPClient *http.Client
	Console    *render.Console
	Logger     *zap.Logger

	// Sleep waits between polls. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

type Controller struct {
	cfg        config.ServerConfig
	command    []string
	runner     Runner
	httpClient *http.Client
	console    *render.Console
	logger     *zap.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewController(opts Options) (*Controller, error) {
	command, err := SplitCommand(opts.Config.CLI)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:        opts.Config,
		command:    command,
		runner:     opts.Runner,
		httpClient: opts.HTTPClient,
		console:    opts.Console,
		logger:     opts.Logger,
		sleep:      opts.Sleep,
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.runner == nil {
		c.runner = &ExecRunner{Logger: c.logger}
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.sleep == nil {
		c.sleep = sleepContext
	}
	if c.console == nil {
		c.console = render.NewConsole(io.Discard, 0)
	}

	return c, nil
}

// IsServerReady issues one GET to the models endpoint and returns true only
// on HTTP 200.
func (c *Controller) IsServerReady(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, orDefault(c.cfg.HealthTimeout, 2*time.Second))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, llm.APIBaseURL(c.cfg.BaseURL)+"/models", nil)
	if err != nil {
		c.logger.Debug("invalid health check request", zap.Error(err))
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("server not reachable", zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("server not ready", zap.Int("status", resp.StatusCode))
		return false
	}
	return true
}

var versionPattern = regexp.MustCompile(`v?(\d+\.\d+\.\d+(?:-[0-9A-Za-z.-]+)?)`)

// CheckCLI runs "<cli> --version".
func (c *Controller) CheckCLI(ctx context.Context) StepResult {
	ctx, cancel := context.WithTimeout(ctx, orDefault(c.cfg.CLIVersionTimeout, 5*time.Second))
	defer cancel()

	out, err := c.runner.Run(ctx, c.command, "--version")
	if err != nil {
		c.reportCLIError(err)
		return StepResult{Step: StepCheckCLI, Err: err}
	}

	result := StepResult{Step: StepCheckCLI, OK: true, Detail: "version unknown"}

	match := versionPattern.FindStringSubmatch(out)
	if match == nil {
		c.console.Success("LM Studio CLI found")
		return result
	}

	version, err := semver.NewVersion(match[1])
	if err != nil {
		c.console.Success("LM Studio CLI found")
		return result
	}
	result.Detail = "v" + version.String()
	c.console.Success("LM Studio CLI found (%s)", result.Detail)
	c.logger.Info("LM Studio CLI detected", zap.String("version", version.String()))

	if c.cfg.MinCLIVersion != "" {
		minVersion, err := semver.NewVersion(c.cfg.MinCLIVersion)
		if err != nil {
			c.logger.Warn("invalid minimum CLI version", zap.String("minCLIVersion", c.cfg.MinCLIVersion), zap.Error(err))
		} else if version.LessThan(minVersion) {
			result.Detail = fmt.Sprintf("v%s is older than v%s", version, minVersion)
			c.console.Warn("LM Studio CLI %s; some commands may not work", result.Detail)
		}
	}

	return result
}

// EnsureServerRunning starts the server if it is not answering and waits for
// it. A server that does not answer before the startup timeout still counts
// as launched.
func (c *Controller) EnsureServerRunning(ctx context.Context) StepResult {
	if c.IsServerReady(ctx) {
		return StepResult{Step: StepLaunch, OK: true, Detail: "server already running"}
	}

	results := c.startServer(ctx)
	last := results[len(results)-1]
	for _, r := range results {
		if !r.OK {
			return StepResult{Step: StepLaunch, Err: r.Err, Detail: r.Detail}
		}
	}
	return StepResult{Step: StepLaunch, OK: true, Detail: last.Detail}
}

// EnsureModelLoaded loads name unless "<cli> ps" already lists it. A failing
// "ps" fails the step without attempting the load.
func (c *Controller) EnsureModelLoaded(ctx context.Context, name string) StepResult {
	c.console.Info("Loading model: %s", name)

	psCtx, cancel := context.WithTimeout(ctx, orDefault(c.cfg.PSTimeout, 10*time.Second))
	out, err := c.runner.Run(psCtx, c.command, "ps")
	cancel()
	if err != nil {
		c.console.Error("Error: %v", err)
		c.logger.Warn("listing loaded models failed", zap.Error(err))
		return StepResult{Step: StepLoadModel, Err: err}
	}
	if strings.Contains(out, name) {
		c.console.Success("Model %s is already loaded", name)
		return StepResult{Step: StepLoadModel, OK: true, Detail: "already loaded"}
	}

	loadCtx, cancel := context.WithTimeout(ctx, orDefault(c.cfg.LoadTimeout, 30*time.Second))
	defer cancel()
	if _, err := c.runner.Run(loadCtx, c.command, "load", name); err != nil {
		c.console.Error("Error loading model: %v", err)
		c.console.Hint("Please ensure you have downloaded '%s' in LM Studio", name)
		c.logger.Warn("model load failed", zap.String("model", name), zap.Error(err))
		return StepResult{Step: StepLoadModel, Err: err}
	}

	c.console.Success("Model %s loaded successfully!", name)
	c.logger.Info("model loaded", zap.String("model", name))
	return StepResult{Step: StepLoadModel, OK: true, Detail: "loaded"}
}

// Initialize runs checkReady, launch, pollUntilReady, a settle delay and
// ensureModelLoaded. Model loading is skipped when the launch fails.
func (c *Controller) Initialize(ctx context.Context, model string) Report {
	var report Report

	ready := c.IsServerReady(ctx)
	report.Steps = append(report.Steps, StepResult{Step: StepCheckReady, OK: ready})
	c.logger.Info("server readiness checked", zap.Bool("ready", ready), zap.String("baseURL", c.cfg.BaseURL))

	if !ready {
		results := c.startServer(ctx)
		report.Steps = append(report.Steps, results...)
		if report.LaunchFailed() {
			report.Steps = append(report.Steps, StepResult{Step: StepLoadModel, Skipped: true})
			return report
		}
	}

	if err := c.sleep(ctx, c.cfg.SettleDelay); err != nil {
		report.Steps = append(report.Steps, StepResult{Step: StepLoadModel, Skipped: true, Err: err})
		return report
	}

	report.Steps = append(report.Steps, c.EnsureModelLoaded(ctx, model))
	return report
}

func (c *Controller) startServer(ctx context.Context) []StepResult {
	c.console.Info("Attempting to start LM Studio...")

	cli := c.CheckCLI(ctx)
	if !cli.OK {
		return []StepResult{
			cli,
			{Step: StepLaunch, Skipped: true},
		}
	}

	c.console.Info("Starting LM Studio server...")
	if err := c.runner.Start(c.command, "server", "start"); err != nil {
		c.reportCLIError(err)
		return []StepResult{cli, {Step: StepLaunch, Err: err}}
	}
	launch := StepResult{Step: StepLaunch, OK: true}

	return []StepResult{cli, launch, c.pollUntilReady(ctx)}
}

func (c *Controller) pollUntilReady(ctx context.Context) StepResult {
	interval := orDefault(c.cfg.PollInterval, time.Second)
	timeout := orDefault(c.cfg.StartupTimeout, 30*time.Second)
	attempts := int((timeout + interval - 1) / interval)

	c.console.Info("Waiting for server to start...")
	for i := 0; i < attempts; i++ {
		if err := c.sleep(ctx, interval); err != nil {
			c.console.Newline()
			return StepResult{Step: StepPollReady, Err: err}
		}
		if c.IsServerReady(ctx) {
			if i > 0 {
				c.console.Newline()
			}
			c.console.Success("LM Studio server started successfully!")
			return StepResult{Step: StepPollReady, OK: true, Detail: fmt.Sprintf("ready after %d polls", i+1)}
		}
		c.console.Progress(".")
	}

	c.console.Newline()
	c.console.Warn("Server started but not yet accessible. Continuing anyway...")
	c.logger.Warn("server did not become ready", zap.Duration("timeout", timeout))
	return StepResult{Step: StepPollReady, OK: true, Detail: pollTimeoutDetail}
}

func (c *Controller) reportCLIError(err error) {
	if errors.Is(err, ErrCLINotFound) {
		c.console.Error("LM Studio CLI not found in PATH.")
		c.console.Hint("Please ensure LM Studio is installed and the CLI is in your PATH.")
	} else {
		c.console.Error("LM Studio CLI failed: %v", err)
		c.console.Hint("Please ensure LM Studio is installed.")
	}
	c.console.Hint("You can download it from: %s", downloadURL)
	c.logger.Warn("LM Studio CLI error", zap.Strings("command", c.command), zap.Error(err))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func orDefault(d time.Duration, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
