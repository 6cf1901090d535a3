package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

type playwrightProcess struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

// LaunchPlaywright starts a Chromium process through playwright.
func LaunchPlaywright(opts *Options) (Process, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args: []string{
			"--no-sandbox",
			"--disable-setuid-sandbox",
			"--disable-dev-shm-usage",
			"--disable-accelerated-2d-canvas",
			"--no-first-run",
			"--no-zygote",
			"--disable-gpu",
		},
	}
	if opts.ExecutablePath != "" {
		launchOpts.ExecutablePath = playwright.String(opts.ExecutablePath)
	}

	b, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch chromium: %w", err)
	}

	return &playwrightProcess{pw: pw, browser: b}, nil
}

func (p *playwrightProcess) NewPage(opts *Options, policy RequestPolicy) (Page, error) {
	pageOpts := playwright.BrowserNewPageOptions{
		UserAgent:         playwright.String(opts.UserAgent),
		AcceptDownloads:   playwright.Bool(false),
		JavaScriptEnabled: playwright.Bool(true),
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
	}
	if opts.Locale != "" {
		pageOpts.Locale = playwright.String(opts.Locale)
	}
	if opts.TimezoneID != "" {
		pageOpts.TimezoneId = playwright.String(opts.TimezoneID)
	}
	if opts.AcceptLanguage != "" {
		pageOpts.ExtraHttpHeaders = map[string]string{"Accept-Language": opts.AcceptLanguage}
	}

	page, err := p.browser.NewPage(pageOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create new page: %w", err)
	}
	page.SetDefaultTimeout(float64(opts.Timeout.Milliseconds()))

	if len(policy.BlockResources) > 0 {
		err := page.Route("**/*", func(route playwright.Route) {
			if policy.Blocks(route.Request().ResourceType()) {
				route.Abort()
				return
			}
			route.Continue()
		})
		if err != nil {
			page.Close()
			return nil, fmt.Errorf("failed to install request policy: %w", err)
		}
	}

	return &playwrightPage{page: page}, nil
}

func (p *playwrightProcess) Connected() bool {
	return p.browser != nil && p.browser.IsConnected()
}

func (p *playwrightProcess) Close() error {
	var errs []error

	if p.browser != nil {
		if err := p.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}
	if p.pw != nil {
		if err := p.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}

	return errors.Join(errs...)
}

type playwrightPage struct {
	page playwright.Page
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", ErrNavigationTimeout, err)
	}
	return err
}

func (p *playwrightPage) Goto(url string, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   millis(timeout),
	})
	return translate(err)
}

func (p *playwrightPage) WaitFor(selector string, timeout time.Duration) error {
	_, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: millis(timeout),
	})
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %s", ErrSelectorNotFound, selector)
	}
	return err
}

func (p *playwrightPage) Count(selector string) (int, error) {
	return p.page.Locator(selector).Count()
}

func (p *playwrightPage) Fill(selector, text string) error {
	count, err := p.Count(selector)
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", ErrSelectorNotFound, selector)
	}
	return p.page.Locator(selector).First().Fill(text)
}

func (p *playwrightPage) Submit(timeout time.Duration) error {
	if err := p.page.Keyboard().Press("Enter"); err != nil {
		return err
	}
	return translate(p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateDomcontentloaded,
		Timeout: millis(timeout),
	}))
}

func (p *playwrightPage) Content() (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) InnerHTML(selector string) (string, error) {
	count, err := p.Count(selector)
	if err != nil {
		return "", err
	}
	if count == 0 {
		return "", fmt.Errorf("%w: %s", ErrSelectorNotFound, selector)
	}
	return p.page.Locator(selector).First().InnerHTML()
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}
