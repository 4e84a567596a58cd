// Package service derives presentation-ready values for a church service from a
// raw record and the category override table.
package service

import (
	"fmt"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"whitkirk-services/internal/overrides"
	"whitkirk-services/internal/record"
)

const (
	DefaultTimeZone     = "Europe/London"
	DefaultVenue        = "St Mary's Church, Whitkirk"
	DefaultThumbnailDir = "images/default_thumbnails"
	DefaultImageName    = "service.jpg"
	DefaultServiceDir   = "images/service_specific"
)

// Settings is the static configuration shared by every Service built by an Engine.
type Settings struct {
	Overrides         *overrides.Table
	DefaultPlaylistID string
	Venue             string
	ThumbnailDir      string
	DefaultImage      string
	ServiceImageDir   string
	Location          *time.Location

	// Record store coordinates, used only to build record links in summaries.
	BaseID  string
	TableID string
}

// Engine builds Services. It holds no mutable state.
type Engine struct {
	settings Settings
}

// NewEngine fills unset settings with defaults and returns an Engine.
func NewEngine(s Settings) (*Engine, error) {
	if s.Overrides == nil {
		s.Overrides = overrides.NewTable(nil)
	}
	if s.Venue == "" {
		s.Venue = DefaultVenue
	}
	if s.ThumbnailDir == "" {
		s.ThumbnailDir = DefaultThumbnailDir
	}
	if s.DefaultImage == "" {
		s.DefaultImage = filepath.ToSlash(filepath.Join(s.ThumbnailDir, DefaultImageName))
	}
	if s.ServiceImageDir == "" {
		s.ServiceImageDir = DefaultServiceDir
	}
	if s.Location == nil {
		loc, err := time.LoadLocation(DefaultTimeZone)
		if err != nil {
			return nil, fmt.Errorf("loading time zone: %w", err)
		}
		s.Location = loc
	}
	return &Engine{settings: s}, nil
}

// Settings returns a copy of the engine settings.
func (e *Engine) Settings() Settings {
	return e.settings
}

// New builds a Service from rec. It fails if a mandatory field is absent or the
// datetime cannot be parsed.
func (e *Engine) New(rec record.Record) (*Service, error) {
	acc := record.NewAccessor(rec)

	required := make(map[record.Field]string, len(record.Mandatory))
	for _, f := range record.Mandatory {
		v, err := acc.Require(f)
		if err != nil {
			return nil, err
		}
		required[f] = v
	}

	utc, err := parseDatetime(required[record.Datetime])
	if err != nil {
		return nil, fmt.Errorf("record %s: parsing %s: %w", rec.ID, record.Datetime, err)
	}

	categoryID, _ := acc.String(record.CategoryID)

	return &Service{
		engine:      e,
		acc:         acc,
		rawDatetime: required[record.Datetime],
		datetime:    utc.In(e.settings.Location),
		name:        required[record.Name],
		slug:        required[record.Slug],
		typ:         required[record.Type],
		categoryID:  categoryID,
	}, nil
}

var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDatetime reads an ISO 8601 timestamp. Values without an offset are UTC.
func parseDatetime(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range datetimeLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
