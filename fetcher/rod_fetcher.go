package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
)

// RodFetcher implements the Fetcher interface using rod (headless browser).
// The browser is launched on first use and shared by all fetches; each fetch
// gets its own tab.
type RodFetcher struct {
	opts    Options
	binPath string

	once     sync.Once
	launcher *launcher.Launcher
	browser  *rod.Browser
	startErr error
}

// NewRodFetcher creates a new RodFetcher instance.
// binPath may be empty, in which case a local Chrome/Chromium is looked up.
func NewRodFetcher(opts Options, binPath string) *RodFetcher {
	return &RodFetcher{
		opts:    opts.withDefaults(),
		binPath: binPath,
	}
}

func (rf *RodFetcher) start() error {
	rf.once.Do(func() {
		l := launcher.New().
			Headless(true).
			NoSandbox(true).
			Leakless(false). // Disable leakless to avoid antivirus issues
			Set("disable-blink-features", "AutomationControlled").
			Set("disable-dev-shm-usage").
			Set("disable-gpu").
			Set("no-first-run").
			Set("no-default-browser-check").
			Set("disable-extensions")

		bin := rf.binPath
		if bin == "" {
			bin, _ = launcher.LookPath()
		}
		if bin != "" {
			l = l.Bin(bin)
		}

		browserURL, err := l.Launch()
		if err != nil {
			rf.startErr = fmt.Errorf("failed to launch browser: %w", err)
			return
		}

		browser := rod.New().ControlURL(browserURL)
		if err := browser.Connect(); err != nil {
			l.Kill()
			rf.startErr = fmt.Errorf("failed to connect to browser: %w", err)
			return
		}

		rf.launcher = l
		rf.browser = browser
	})
	return rf.startErr
}

// Close closes the browser if it was started
func (rf *RodFetcher) Close() error {
	if rf.browser == nil {
		return nil
	}
	err := rf.browser.Close()
	rf.launcher.Cleanup()
	return err
}

// Fetch implements the Fetcher interface
func (rf *RodFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := rf.start(); err != nil {
		return "", err
	}

	log := zerolog.Ctx(ctx)

	ctx, cancel := context.WithTimeout(ctx, rf.opts.Timeout)
	defer cancel()

	page, err := rf.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("failed to open page: %w", err)
	}
	defer func() {
		// The request context may already be done here
		if err := page.Context(context.Background()).Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close browser page")
		}
	}()

	err = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      rf.opts.UserAgent,
		AcceptLanguage: rf.opts.AcceptLanguage,
	})
	if err != nil {
		return "", fmt.Errorf("failed to set user agent: %w", err)
	}

	var status int
	waitDocument := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		status = e.Response.Status
		return true
	})

	if err := page.Navigate(url); err != nil {
		return "", fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	waitDocument()

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if status != http.StatusOK {
		return "", &StatusError{StatusCode: status, URL: url}
	}

	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("failed to wait for page load: %w", err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}

	log.Debug().Str("url", url).Int("bytes", len(html)).Msg("rendered page")
	return html, nil
}
