package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Limiter gates navigations. A nil Limiter never waits.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Fetcher runs fn against a freshly opened tab and closes it afterwards.
type Fetcher interface {
	WithPage(ctx context.Context, policy RequestPolicy, fn func(Page) error) error
}

// Pool owns the single shared browser process. It launches lazily, hands the
// same process to every caller, and relaunches after Release or a lost
// connection.
type Pool struct {
	opts    *Options
	launch  Launcher
	limiter Limiter
	logger  *slog.Logger

	mu   sync.Mutex
	proc Process

	launches atomic.Int64
	openTabs atomic.Int64
}

func NewPool(opts *Options, launch Launcher, limiter Limiter, logger *slog.Logger) *Pool {
	if opts == nil {
		opts = DefaultOptions()
	}
	if launch == nil {
		launch = LaunchPlaywright
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		opts:    opts,
		launch:  launch,
		limiter: limiter,
		logger:  logger.With("component", "browser"),
	}
}

// Acquire returns the shared process, launching it on first use.
func (p *Pool) Acquire(ctx context.Context) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.proc != nil && !p.proc.Connected() {
		p.logger.Warn("browser is not connected, resetting")
		p.proc.Close()
		p.proc = nil
	}

	if p.proc == nil {
		proc, err := p.launch(p.opts)
		if err != nil {
			p.logger.Error("failed to launch browser", "error", err, "executable", p.opts.ExecutablePath)
			return nil, &LaunchError{Err: err}
		}
		p.proc = proc
		p.launches.Add(1)
		p.logger.Info("browser launched", "headless", p.opts.Headless)
	}

	return p.proc, nil
}

// Release terminates the process. The next Acquire relaunches.
func (p *Pool) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.proc == nil {
		return nil
	}
	err := p.proc.Close()
	p.proc = nil
	p.logger.Info("browser closed")
	if err != nil {
		return fmt.Errorf("failed to release browser: %w", err)
	}
	return nil
}

func (p *Pool) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.proc != nil
}

func (p *Pool) Launches() int64 {
	return p.launches.Load()
}

func (p *Pool) OpenTabs() int64 {
	return p.openTabs.Load()
}

func (p *Pool) WithPage(ctx context.Context, policy RequestPolicy, fn func(Page) error) error {
	proc, err := p.Acquire(ctx)
	if err != nil {
		return err
	}

	raw, err := proc.NewPage(p.opts, policy)
	if err != nil {
		return err
	}
	p.openTabs.Add(1)

	var once sync.Once
	closeTab := func() {
		once.Do(func() {
			if err := raw.Close(); err != nil {
				p.logger.Warn("failed to close page", "error", err)
			}
			p.openTabs.Add(-1)
		})
	}
	defer closeTab()

	page := &limitedPage{Page: raw, ctx: ctx, limiter: p.limiter}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("page handler panicked: %v", r)
			}
		}()
		done <- fn(page)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		// Closing the tab unblocks whatever call fn is parked in.
		closeTab()
		return ctx.Err()
	}
}

// Do is the value-returning form of Fetcher.WithPage.
func Do[T any](ctx context.Context, f Fetcher, policy RequestPolicy, fn func(Page) (T, error)) (T, error) {
	var (
		mu  sync.Mutex
		out T
	)
	err := f.WithPage(ctx, policy, func(page Page) error {
		v, err := fn(page)
		mu.Lock()
		out = v
		mu.Unlock()
		return err
	})

	mu.Lock()
	defer mu.Unlock()
	return out, err
}

type limitedPage struct {
	Page
	ctx     context.Context
	limiter Limiter
}

func (l *limitedPage) Goto(url string, timeout time.Duration) error {
	if l.limiter != nil {
		if err := l.limiter.Wait(l.ctx); err != nil {
			return err
		}
	}
	return l.Page.Goto(url, timeout)
}
