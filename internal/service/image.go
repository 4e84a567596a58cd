package service

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
)

// ImageKind says where a service image comes from.
type ImageKind int

const (
	ImageDefault ImageKind = iota
	ImageCategory
	ImageServiceSpecific
)

func (k ImageKind) String() string {
	switch k {
	case ImageCategory:
		return "category"
	case ImageServiceSpecific:
		return "service"
	default:
		return "default"
	}
}

// ImageSource is the chosen image before anything is fetched. Path is where
// the image lives, or will live once downloaded.
type ImageSource struct {
	Kind     ImageKind
	Path     string
	URL      string
	Filename string
}

// Transfer describes a completed download.
type Transfer struct {
	Path        string
	ContentType string
	Size        int64
}

// Downloader fetches a remote file to a local path.
type Downloader interface {
	Download(ctx context.Context, url, dest string) (Transfer, error)
}

// ResolvedImage is a local image ready for use.
type ResolvedImage struct {
	Source   ImageSource
	Path     string
	Transfer *Transfer
}

// HasServiceSpecificImage reports whether the record carries its own image.
func (s *Service) HasServiceSpecificImage() bool {
	return len(s.Images()) > 0
}

// HasCategorySpecificImage reports whether the category sets a default image.
func (s *Service) HasCategorySpecificImage() bool {
	_, ok := s.engine.settings.Overrides.DefaultImage(s.categoryID)
	return ok
}

// ImageSource picks the image: service-specific, then category default, then
// the global default. It does not touch the network.
func (s *Service) ImageSource() ImageSource {
	if images := s.Images(); len(images) > 0 {
		first := images[0]
		name := path.Base(filepath.ToSlash(first.Filename))
		return ImageSource{
			Kind:     ImageServiceSpecific,
			Path:     filepath.ToSlash(filepath.Join(s.engine.settings.ServiceImageDir, name)),
			URL:      first.URL,
			Filename: first.Filename,
		}
	}

	if name, ok := s.engine.settings.Overrides.DefaultImage(s.categoryID); ok {
		return ImageSource{
			Kind:     ImageCategory,
			Path:     filepath.ToSlash(filepath.Join(s.engine.settings.ThumbnailDir, name)),
			Filename: name,
		}
	}

	return ImageSource{
		Kind:     ImageDefault,
		Path:     s.engine.settings.DefaultImage,
		Filename: path.Base(s.engine.settings.DefaultImage),
	}
}

// ResolveImage returns a local path for the service image, downloading a
// service-specific image with d. Each call downloads again; callers keep the
// result if they need it more than once.
func (s *Service) ResolveImage(ctx context.Context, d Downloader) (ResolvedImage, error) {
	src := s.ImageSource()
	if src.Kind != ImageServiceSpecific {
		return ResolvedImage{Source: src, Path: src.Path}, nil
	}
	if d == nil {
		return ResolvedImage{}, fmt.Errorf("service %s: no downloader for %s", s.ID(), src.URL)
	}

	transfer, err := d.Download(ctx, src.URL, src.Path)
	if err != nil {
		return ResolvedImage{}, fmt.Errorf("service %s: downloading image: %w", s.ID(), err)
	}
	return ResolvedImage{Source: src, Path: transfer.Path, Transfer: &transfer}, nil
}
