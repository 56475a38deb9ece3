package scraper

import (
	"fmt"
	"log"
	"time"
)

// NewLoader builds the page loader for a backend name: "rod" (default),
// "playwright" or "http"
func NewLoader(backend, chromiumBin string, timeout time.Duration) (Loader, error) {
	switch backend {
	case "", "rod":
		return NewRodLoader(chromiumBin, timeout)
	case "playwright":
		return NewPlaywrightLoader(timeout)
	case "http":
		return NewHTTPLoader(timeout), nil
	default:
		return nil, fmt.Errorf("unknown browser backend %q", backend)
	}
}

// NewLoaderWithFallback tries the requested backend and drops to the static
// HTTP loader when no browser can be started
func NewLoaderWithFallback(backend, chromiumBin string, timeout time.Duration) Loader {
	loader, err := NewLoader(backend, chromiumBin, timeout)
	if err == nil {
		return loader
	}
	log.Printf("⚠️  Browser backend %q unavailable (%v), falling back to static HTTP loader", backend, err)
	return NewHTTPLoader(timeout)
}
