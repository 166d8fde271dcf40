package assist

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/harrisonrobin/gantta/pkg/errors"
)

// Generator turns a prompt into text. Failures should carry errors.KindService.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Request asks for one action on one task.
type Request struct {
	Action   Action
	TaskName string
}

// Result is the outcome of a Request. Content is already cleaned.
type Result struct {
	Request Request
	Content string
	Err     error
}

// Assistant runs generation requests off the caller's goroutine, one at a time.
type Assistant struct {
	gen     Generator
	timeout time.Duration
	log     *slog.Logger
	busy    atomic.Bool
}

// New returns an Assistant. A zero timeout leaves requests unbounded.
func New(gen Generator, timeout time.Duration, log *slog.Logger) *Assistant {
	return &Assistant{gen: gen, timeout: timeout, log: log}
}

// Busy reports whether a request is in flight.
func (a *Assistant) Busy() bool { return a.busy.Load() }

// Start dispatches req and returns a channel that receives exactly one
// Result and is then closed. A second Start while one is in flight fails.
func (a *Assistant) Start(ctx context.Context, req Request) (<-chan Result, error) {
	req.TaskName = strings.TrimSpace(req.TaskName)
	if req.TaskName == "" {
		return nil, errors.Validation("please enter a task name first")
	}
	if a.gen == nil {
		return nil, errors.New(errors.KindService, "AI assist is not configured: set GOOGLE_API_KEY")
	}
	if !a.busy.CompareAndSwap(false, true) {
		return nil, errors.Validation("an AI request is already running")
	}

	out := make(chan Result, 1)
	go func() {
		defer close(out)
		defer a.busy.Store(false)
		out <- a.run(ctx, req)
	}()
	return out, nil
}

// Run is the blocking form of Start.
func (a *Assistant) Run(ctx context.Context, req Request) Result {
	ch, err := a.Start(ctx, req)
	if err != nil {
		return Result{Request: req, Err: err}
	}
	return <-ch
}

func (a *Assistant) run(ctx context.Context, req Request) Result {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	started := time.Now()
	text, err := a.gen.Generate(ctx, Prompt(req.Action, req.TaskName))
	if err != nil {
		a.log.Warn("AI assist failed", "action", req.Action, "task", req.TaskName, "error", err)
		return Result{Request: req, Err: err}
	}
	a.log.Debug("AI assist completed", "action", req.Action, "task", req.TaskName, "elapsed", time.Since(started))
	return Result{Request: req, Content: Clean(req.TaskName, text)}
}
