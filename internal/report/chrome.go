package report

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ChromeConfig configures the headless Chrome converter
type ChromeConfig struct {
	ExecPath string
	Timeout  time.Duration
}

// ChromeConverter prints HTML to PDF with a headless Chrome started per call
type ChromeConverter struct {
	execPath string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewChromeConverter creates a new Chrome based converter
func NewChromeConverter(cfg ChromeConfig, logger *zap.Logger) *ChromeConverter {
	return &ChromeConverter{
		execPath: cfg.ExecPath,
		timeout:  cfg.Timeout,
		logger:   logger,
	}
}

// Convert loads html into a blank page and prints it with backgrounds
func (c *ChromeConverter) Convert(ctx context.Context, html string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	)
	if c.execPath != "" {
		opts = append(opts, chromedp.ExecPath(c.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(c.logger.Sugar().Debugf))
	defer cancelTask()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(taskCtx, c.timeout)
		defer cancel()
	}

	var pdf []byte
	err := chromedp.Run(taskCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome print to PDF: %w", err)
	}

	return pdf, nil
}
