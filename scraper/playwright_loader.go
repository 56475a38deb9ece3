package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	pw "github.com/playwright-community/playwright-go"
)

// PlaywrightLoader renders pages through Playwright's Chromium.
// Playwright calls do not take a context, so cancellation is honoured
// between steps and every step carries an explicit timeout.
type PlaywrightLoader struct {
	pw      *pw.Playwright
	browser pw.Browser
	timeout time.Duration
}

// NewPlaywrightLoader starts the Playwright driver and a headless browser
func NewPlaywrightLoader(timeout time.Duration) (*PlaywrightLoader, error) {
	if timeout <= 0 {
		timeout = defaultPageLoadTimeout
	}

	runner, err := pw.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}

	browser, err := runner.Chromium.Launch(pw.BrowserTypeLaunchOptions{
		Headless: pw.Bool(true),
		Args:     []string{"--no-sandbox", "--disable-dev-shm-usage"},
	})
	if err != nil {
		_ = runner.Stop()
		return nil, fmt.Errorf("launching chromium: %w", err)
	}

	return &PlaywrightLoader{pw: runner, browser: browser, timeout: timeout}, nil
}

func (l *PlaywrightLoader) Name() string {
	return "playwright"
}

func (l *PlaywrightLoader) Load(ctx context.Context, url string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := l.browser.NewPage(pw.BrowserNewPageOptions{
		UserAgent: pw.String(defaultUserAgent),
	})
	if err != nil {
		return nil, fmt.Errorf("page creation failed: %w", err)
	}

	if _, err := page.Goto(url, pw.PageGotoOptions{
		WaitUntil: pw.WaitUntilStateLoad,
		Timeout:   pw.Float(float64(l.timeout.Milliseconds())),
	}); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("navigation failed: %w", err)
	}

	if err := ctx.Err(); err != nil {
		_ = page.Close()
		return nil, err
	}

	return &playwrightDocument{url: url, page: page}, nil
}

// Close shuts down the browser and the driver
func (l *PlaywrightLoader) Close() error {
	if l.browser != nil {
		_ = l.browser.Close()
	}
	if l.pw != nil {
		return l.pw.Stop()
	}
	return nil
}

// lookupTimeout bounds single locator reads; the element is expected to
// be present already, so this only absorbs a slow frame
const lookupTimeout = 2 * time.Second

type playwrightDocument struct {
	url  string
	page pw.Page
}

func (d *playwrightDocument) URL() string {
	if u := d.page.URL(); u != "" {
		return u
	}
	return d.url
}

func (d *playwrightDocument) FindFirst(selector string) (Element, error) {
	return firstLocator(d.page.Locator(selector), selector)
}

func (d *playwrightDocument) FindAll(selector string, limit int) ([]Element, error) {
	loc := d.page.Locator(selector)
	n, err := loc.Count()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", selector, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%s: %w", selector, ErrNoElement)
	}
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]Element, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &playwrightElement{loc: loc.Nth(i)})
	}
	return out, nil
}

func (d *playwrightDocument) WaitFor(selector string, timeout time.Duration) error {
	err := d.page.Locator(selector).First().WaitFor(pw.LocatorWaitForOptions{
		State:   pw.WaitForSelectorStateAttached,
		Timeout: pw.Float(float64(timeout.Milliseconds())),
	})
	if errors.Is(err, pw.ErrTimeout) {
		return fmt.Errorf("%s: %w", selector, ErrWaitTimeout)
	}
	return err
}

func (d *playwrightDocument) Text() (string, error) {
	text, err := d.page.Locator("body").InnerText(pw.LocatorInnerTextOptions{
		Timeout: pw.Float(float64(lookupTimeout.Milliseconds())),
	})
	if err != nil {
		return "", err
	}
	return CleanText(text), nil
}

func (d *playwrightDocument) Close() error {
	return d.page.Close()
}

type playwrightElement struct {
	loc pw.Locator
}

func (e *playwrightElement) Text() (string, error) {
	text, err := e.loc.TextContent(pw.LocatorTextContentOptions{
		Timeout: pw.Float(float64(lookupTimeout.Milliseconds())),
	})
	if err != nil {
		return "", err
	}
	return CleanText(text), nil
}

func (e *playwrightElement) Attr(name string) (string, bool, error) {
	v, err := e.loc.GetAttribute(name, pw.LocatorGetAttributeOptions{
		Timeout: pw.Float(float64(lookupTimeout.Milliseconds())),
	})
	if err != nil {
		return "", false, err
	}
	return v, v != "", nil
}

func (e *playwrightElement) FindFirst(selector string) (Element, error) {
	return firstLocator(e.loc.Locator(selector), selector)
}

func firstLocator(loc pw.Locator, selector string) (Element, error) {
	n, err := loc.Count()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", selector, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%s: %w", selector, ErrNoElement)
	}
	return &playwrightElement{loc: loc.First()}, nil
}
