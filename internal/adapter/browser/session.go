package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"quotecheck/internal/domain/port"
)

type Options struct {
	Headless        bool
	ExecPath        string
	NavigateTimeout time.Duration
	PollInterval    time.Duration
}

// Session owns one headless Chrome tab for the lifetime of the process.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	opts        Options
	log         *slog.Logger
	closeOnce   sync.Once
}

var _ port.Browser = (*Session)(nil)

// NewSession starts the browser eagerly so a missing Chrome binary fails at
// startup instead of on the first quote.
func NewSession(opts Options, log *slog.Logger) (*Session, error) {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	log.Info("starting browser", "headless", opts.Headless, "exec_path", opts.ExecPath)
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Session{
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		opts:        opts,
		log:         log,
	}, nil
}

// scoped derives a context from the browser tab that is also cancelled when
// the caller's ctx is.
func (s *Session) scoped(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var (
		sctx   context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		sctx, cancel = context.WithTimeout(s.ctx, timeout)
	} else {
		sctx, cancel = context.WithCancel(s.ctx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return sctx, func() {
		stop()
		cancel()
	}
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	nctx, cancel := s.scoped(ctx, s.opts.NavigateTimeout)
	defer cancel()

	if err := chromedp.Run(nctx, chromedp.Navigate(url)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(nctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("navigate %s: %w", url, context.DeadlineExceeded)
		}
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (s *Session) WaitText(ctx context.Context, selector string, timeout time.Duration) (string, error) {
	wctx, cancel := s.scoped(ctx, timeout)
	defer cancel()

	for {
		var text string
		err := chromedp.Run(wctx, chromedp.Text(selector, &text, chromedp.ByQuery))
		if err == nil {
			if text = strings.TrimSpace(text); text != "" {
				return text, nil
			}
		}

		if wctx.Err() != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", fmt.Errorf("%w: %s after %s", port.ErrWaitTimeout, selector, timeout)
		}
		if err != nil {
			return "", fmt.Errorf("read %s: %w", selector, err)
		}

		select {
		case <-wctx.Done():
		case <-time.After(s.opts.PollInterval):
		}
	}
}

// Close shuts the tab and the browser process. Only the first call has any
// effect.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.log.Info("closing browser")
		err = chromedp.Cancel(s.ctx)
		s.cancel()
		s.allocCancel()
	})
	return err
}
