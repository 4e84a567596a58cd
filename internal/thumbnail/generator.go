package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/renameio/v2"
)

// Frame is what a Renderer draws.
type Frame struct {
	BackgroundPath string
	Title          string
	Date           string
}

// Renderer draws a frame and returns JPEG bytes.
type Renderer interface {
	Render(ctx context.Context, f Frame) ([]byte, error)
}

// Result reports the outcome of Ensure.
type Result struct {
	Key       string
	Path      string
	Generated bool
}

// Generator writes thumbnails into Dir, skipping any that already exist.
type Generator struct {
	Dir      string
	Renderer Renderer
}

// Ensure makes sure the thumbnail for in exists.
func (g *Generator) Ensure(ctx context.Context, in Inputs) (Result, error) {
	key := Key(in)
	res := Result{Key: key, Path: Path(g.Dir, key)}

	_, err := os.Stat(res.Path)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return res, fmt.Errorf("checking thumbnail: %w", err)
	}

	data, err := g.Renderer.Render(ctx, Frame{BackgroundPath: in.Image, Title: in.Title, Date: in.Date})
	if err != nil {
		return res, fmt.Errorf("rendering thumbnail: %w", err)
	}

	if err := os.MkdirAll(g.Dir, 0755); err != nil {
		return res, fmt.Errorf("creating thumbnail dir: %w", err)
	}
	if err := renameio.WriteFile(res.Path, data, 0644); err != nil {
		return res, fmt.Errorf("writing thumbnail: %w", err)
	}

	res.Generated = true
	return res, nil
}
