package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
)

// HeadlessRenderer implements analyzer.Renderer using chromedp and headless
// Chrome. It exists for pages whose server-rendered HTML is too thin for
// content extraction.
type HeadlessRenderer struct {
	userAgent   string
	navTimeout  time.Duration
	allocator   context.Context
	allocCancel context.CancelFunc
}

// NewHeadless creates a renderer backed by a shared Chrome allocator.
func NewHeadless(userAgent string, navTimeout time.Duration) *HeadlessRenderer {
	if navTimeout <= 0 {
		navTimeout = 15 * time.Second
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &HeadlessRenderer{
		userAgent:   userAgent,
		navTimeout:  navTimeout,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}
}

// Close cancels the allocator context.
func (r *HeadlessRenderer) Close() {
	r.allocCancel()
}

// Render navigates with a headless browser and returns the rendered DOM.
func (r *HeadlessRenderer) Render(ctx context.Context, url string) (analyzer.FetchResult, error) {
	taskCtx, taskCancel := chromedp.NewContext(r.allocator)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, r.navTimeout)
	defer cancel()

	stop := context.AfterFunc(ctx, taskCancel)
	defer stop()

	start := time.Now()
	var html string
	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return analyzer.FetchResult{}, fmt.Errorf("chromedp run: %w", err)
	}

	return analyzer.FetchResult{
		URL:        url,
		StatusCode: http.StatusOK,
		Body:       []byte(html),
		Duration:   time.Since(start),
		Rendered:   true,
	}, nil
}
