package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const (
	defaultPageLoadTimeout = 20 * time.Second
	settleDuration         = 1 * time.Second
	systemChromium         = "/usr/bin/chromium-browser"
)

// stealthScript masks the most common headless fingerprints
const stealthScript = `
	Object.defineProperty(navigator, 'userAgent', {
		get: function () { return 'Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36'; }
	});
	Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
	Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
	Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
	window.chrome = { runtime: {} };
`

// RodLoader renders pages in a headless Chromium driven by go-rod
type RodLoader struct {
	browser *rod.Browser
	timeout time.Duration
}

// NewRodLoader launches Chromium. bin overrides browser auto-detection.
func NewRodLoader(bin string, timeout time.Duration) (*RodLoader, error) {
	if timeout <= 0 {
		timeout = defaultPageLoadTimeout
	}

	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Leakless(false)

	if bin == "" {
		if _, err := os.Stat(systemChromium); err == nil {
			bin = systemChromium
		}
	}
	if bin != "" {
		l = l.Bin(bin)
		log.Printf("Using Chromium at %s", bin)
	} else {
		log.Printf("Using auto-detected Chromium")
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	return &RodLoader{browser: browser, timeout: timeout}, nil
}

func (rl *RodLoader) Name() string {
	return "rod"
}

// Load opens a new tab, navigates and waits for the load event.
// The whole sequence is bounded by the loader timeout.
func (rl *RodLoader) Load(ctx context.Context, url string) (Document, error) {
	raw, err := rl.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("opening tab: %w", err)
	}

	page := raw.Context(ctx)
	timed := page.Timeout(rl.timeout)
	defer timed.CancelTimeout()

	if err := timed.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width: 1920, Height: 1080, DeviceScaleFactor: 1,
	}); err != nil {
		log.Printf("Failed to set viewport: %v", err)
	}
	if _, err := timed.EvalOnNewDocument(stealthScript); err != nil {
		log.Printf("Failed to install stealth script: %v", err)
	}

	if err := timed.Navigate(url); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("navigating to %s: %w", url, err)
	}
	if err := timed.WaitLoad(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("waiting for %s to load: %w", url, err)
	}
	// Dynamic storefronts keep painting after load; give them a moment
	if err := timed.WaitStable(settleDuration); err != nil {
		log.Printf("Page did not settle: %v", err)
	}

	return &rodDocument{url: url, page: page, raw: raw}, nil
}

// Close closes the browser
func (rl *RodLoader) Close() error {
	if rl.browser != nil {
		return rl.browser.Close()
	}
	return nil
}

type rodDocument struct {
	url  string
	page *rod.Page
	raw  *rod.Page // not bound to the request context, used for Close
}

func (d *rodDocument) URL() string {
	if info, err := d.page.Info(); err == nil && info.URL != "" {
		return info.URL
	}
	return d.url
}

func (d *rodDocument) FindFirst(selector string) (Element, error) {
	has, el, err := d.page.Has(selector)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", selector, err)
	}
	if !has {
		return nil, fmt.Errorf("%s: %w", selector, ErrNoElement)
	}
	return &rodElement{el: el}, nil
}

func (d *rodDocument) FindAll(selector string, limit int) ([]Element, error) {
	els, err := d.page.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", selector, err)
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%s: %w", selector, ErrNoElement)
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

func (d *rodDocument) WaitFor(selector string, timeout time.Duration) error {
	timed := d.page.Timeout(timeout)
	defer timed.CancelTimeout()

	_, err := timed.Element(selector)
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", selector, ErrWaitTimeout)
	}
	return err
}

func (d *rodDocument) Text() (string, error) {
	has, body, err := d.page.Has("body")
	if err != nil || !has {
		return "", fmt.Errorf("reading page body: %w", ErrNoElement)
	}
	text, err := body.Text()
	if err != nil {
		return "", err
	}
	return CleanText(text), nil
}

func (d *rodDocument) Close() error {
	return d.raw.Close()
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Text() (string, error) {
	text, err := e.el.Text()
	if err != nil {
		return "", err
	}
	return CleanText(text), nil
}

func (e *rodElement) Attr(name string) (string, bool, error) {
	v, err := e.el.Attribute(name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (e *rodElement) FindFirst(selector string) (Element, error) {
	has, el, err := e.el.Has(selector)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", selector, err)
	}
	if !has {
		return nil, fmt.Errorf("%s: %w", selector, ErrNoElement)
	}
	return &rodElement{el: el}, nil
}
