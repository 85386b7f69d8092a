// Package fetch captures the rendered timetable page with a headless
// browser. The timetable grid is drawn client-side, so a plain HTTP GET
// returns an empty shell; this is acquisition glue only, and login or
// session handling stays outside the tool.
package fetch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	DefaultWaitSelector = ".divOneClass"
	DefaultTimeout      = 30 * time.Second
)

// Options defines parameters for one page capture.
type Options struct {
	// URL of the rendered timetable page.
	URL string

	// OutputPath, if set, receives the captured HTML.
	OutputPath string

	// WaitSelector is the element that signals the grid has rendered.
	// If empty, DefaultWaitSelector is used.
	WaitSelector string

	// Timeout bounds the entire capture. If zero, DefaultTimeout is used.
	Timeout time.Duration
}

// TimetableHTML navigates to opts.URL in a headless browser, waits until
// the session cells are visible, and returns the document's outer HTML.
// When opts.OutputPath is set the HTML is also written there for later
// offline conversion.
func TimetableHTML(parentCtx context.Context, opts Options) (string, error) {
	if opts.URL == "" {
		return "", fmt.Errorf("fetch: URL is required")
	}
	if opts.WaitSelector == "" {
		opts.WaitSelector = DefaultWaitSelector
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var html string
	tasks := chromedp.Tasks{
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(opts.WaitSelector, chromedp.ByQuery),
		// Small extra delay for late scripts that fill cell labels.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return "", fmt.Errorf("fetch: chromedp run failed: %w", err)
	}

	if opts.OutputPath != "" {
		if err := os.WriteFile(opts.OutputPath, []byte(html), 0o644); err != nil {
			return "", fmt.Errorf("fetch: write HTML: %w", err)
		}
	}

	return html, nil
}
