package thumbnail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"mime"
	"os"
	"path/filepath"

	"github.com/chromedp/chromedp"
)

const (
	Width  = 1280
	Height = 720

	jpegQuality = 90
)

var page = template.Must(template.New("thumbnail").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><style>
html, body { margin: 0; width: {{.Width}}px; height: {{.Height}}px; overflow: hidden; }
body { background: #222 url("{{.Background}}") center / cover no-repeat; font-family: "Libre Baskerville", Georgia, serif; }
.panel { position: absolute; left: 0; right: 0; bottom: 0; padding: 40px 60px; background: rgba(0, 0, 0, 0.6); color: #fff; }
h1 { margin: 0 0 12px; font-size: 64px; line-height: 1.15; }
p { margin: 0; font-size: 40px; }
</style></head>
<body><div class="panel"><h1>{{.Title}}</h1><p>{{.Date}}</p></div></body></html>`))

// ChromeRenderer renders frames in headless Chrome.
type ChromeRenderer struct {
	// ExecPath overrides the Chrome binary, usually from CHROME_PATH.
	ExecPath string
}

// Render draws f and returns a JPEG screenshot.
func (r ChromeRenderer) Render(ctx context.Context, f Frame) ([]byte, error) {
	html, err := r.document(f)
	if err != nil {
		return nil, err
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	if r.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.ExecPath))
	}
	opts = append(opts,
		chromedp.Headless,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.WindowSize(Width, Height),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	chromeCtx, chromeCancel := chromedp.NewContext(allocCtx)
	defer chromeCancel()

	var shot []byte
	err = chromedp.Run(chromeCtx,
		chromedp.EmulateViewport(Width, Height),
		chromedp.Navigate("data:text/html;base64,"+base64.StdEncoding.EncodeToString(html)),
		chromedp.WaitVisible(`.panel`, chromedp.ByQuery),
		chromedp.FullScreenshot(&shot, jpegQuality),
	)
	if err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}
	return shot, nil
}

func (r ChromeRenderer) document(f Frame) ([]byte, error) {
	img, err := os.ReadFile(f.BackgroundPath)
	if err != nil {
		return nil, fmt.Errorf("reading background: %w", err)
	}

	mediaType := mime.TypeByExtension(filepath.Ext(f.BackgroundPath))
	if mediaType == "" {
		mediaType = "image/jpeg"
	}

	var buf bytes.Buffer
	err = page.Execute(&buf, struct {
		Width, Height int
		Background    template.URL
		Title, Date   string
	}{
		Width:      Width,
		Height:     Height,
		Background: template.URL(fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(img))),
		Title:      f.Title,
		Date:       f.Date,
	})
	if err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}
	return buf.Bytes(), nil
}
