package service

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"whitkirk-services/internal/overrides"
	"whitkirk-services/internal/record"
)

const (
	// ISOLayout renders offsets as +00:00 rather than Z.
	ISOLayout   = "2006-01-02T15:04:05-07:00"
	NaiveLayout = "2006-01-02 15:04:05"
	DateLayout  = "2 January 2006"
	HumanLayout = "Monday 2 January 2006 at 3.04 PM"
)

// Service is a church service derived from one record snapshot.
type Service struct {
	engine      *Engine
	acc         record.Accessor
	rawDatetime string
	datetime    time.Time
	name        string
	slug        string
	typ         string
	categoryID  string
}

func (s *Service) ID() string { return s.acc.ID() }
func (s *Service) Name() string { return s.name }
func (s *Service) Slug() string { return s.slug }
func (s *Service) Type() string { return s.typ }

// Field exposes the underlying accessor for raw reads.
func (s *Service) Field(f record.Field) (any, bool) { return s.acc.Get(f) }

func (s *Service) LiturgicalName() (string, bool) { return s.nonEmpty(record.LiturgicalName) }
func (s *Service) Location() (string, bool) { return s.nonEmpty(record.Location) }
func (s *Service) CategoryID() (string, bool) { return s.nonEmpty(record.CategoryID) }
func (s *Service) OrderOfServiceID() (string, bool) { return s.nonEmpty(record.OrderOfServiceID) }
func (s *Service) PodcastID() (string, bool) { return s.nonEmpty(record.PodcastID) }
func (s *Service) YouTubeID() (string, bool) { return s.nonEmpty(record.YouTubeID) }
func (s *Service) WordPressImageID() (string, bool) { return s.nonEmpty(record.WordPressImageID) }
func (s *Service) ChurchSuiteID() (string, bool) { return s.nonEmpty(record.ChurchSuiteID) }

func (s *Service) WordPressImageLastUploadedName() (string, bool) {
	return s.nonEmpty(record.WordPressImageLastUploadedName)
}

func (s *Service) YouTubeImageLastUploadedName() (string, bool) {
	return s.nonEmpty(record.YouTubeImageLastUploadedName)
}

// Images returns the service-specific image attachments.
func (s *Service) Images() []record.Attachment {
	return s.acc.Attachments(record.Image)
}

// TechnicianName returns the assigned technician, if any.
func (s *Service) TechnicianName() (string, bool) {
	c, ok := s.acc.Collaborator(record.Technician)
	if !ok {
		return "", false
	}
	return c.Name, true
}

func (s *Service) nonEmpty(f record.Field) (string, bool) {
	v, ok := s.acc.String(f)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// DatetimeField returns the raw datetime string.
func (s *Service) DatetimeField() string { return s.rawDatetime }

// Datetime returns the service start in the configured local zone.
func (s *Service) Datetime() time.Time { return s.datetime }

// NaiveDatetimeString renders the local start without zone information.
func (s *Service) NaiveDatetimeString() string {
	return s.datetime.Format(NaiveLayout)
}

// DefaultPublishDatetime is 24 hours before the service. Across a clock change
// the local wall-clock time moves by the hour gained or lost.
func (s *Service) DefaultPublishDatetime() time.Time {
	return s.datetime.Add(-24 * time.Hour)
}

// PublishDatetime schedules the service's documents. With a previous service the
// result is never earlier than one hour after that service starts.
func (s *Service) PublishDatetime(previous *Service) time.Time {
	publish := s.DefaultPublishDatetime()
	if previous == nil {
		return publish
	}
	notBefore := previous.Datetime().Add(time.Hour).In(s.engine.settings.Location)
	if notBefore.After(publish) {
		return notBefore
	}
	return publish
}

// Title is the liturgical name, or the name, with its first character upper-cased.
func (s *Service) Title() string {
	title := s.name
	if liturgical, ok := s.LiturgicalName(); ok {
		title = liturgical
	}
	return upperFirst(title)
}

// TitleWithDate appends the local date to the title.
func (s *Service) TitleWithDate() string {
	return fmt.Sprintf("%s: %s", s.Title(), s.datetime.Format(DateLayout))
}

func upperFirst(str string) string {
	r, size := utf8.DecodeRuneInString(str)
	if r == utf8.RuneError {
		return str
	}
	return string(unicode.ToUpper(r)) + str[size:]
}

// DescribedAs names the kind of service for prose.
func (s *Service) DescribedAs() string {
	if phrase, ok := s.engine.settings.Overrides.DescribeServiceAs(s.categoryID); ok {
		return phrase
	}
	if strings.Contains(strings.ToLower(s.name), "sung eucharist") {
		return "sung Eucharist"
	}
	return "service"
}

// Description is the one-sentence summary used for excerpts and video descriptions.
func (s *Service) Description() string {
	venue, ok := s.Location()
	if !ok {
		venue = s.engine.settings.Venue
	}

	var b strings.Builder
	fmt.Fprintf(&b, "A %s streamed live from %s", s.DescribedAs(), venue)
	if liturgical, ok := s.LiturgicalName(); ok {
		fmt.Fprintf(&b, " for %s", liturgical)
	}
	b.WriteString(".")
	return b.String()
}

// HasCategoryOverrides reports whether the service's category has an override entry.
func (s *Service) HasCategoryOverrides() bool {
	return s.engine.settings.Overrides.Has(s.categoryID)
}

// CategoryOverrides returns the override entry, empty when there is none.
func (s *Service) CategoryOverrides() overrides.Override {
	return s.engine.settings.Overrides.For(s.categoryID)
}

// FeaturedImageID picks the CMS media id: the record's own id, then the
// category default, then fallback.
func (s *Service) FeaturedImageID(fallback string) string {
	if id, ok := s.WordPressImageID(); ok {
		return id
	}
	if id, ok := s.engine.settings.Overrides.DefaultFeaturedImageID(s.categoryID); ok {
		return id
	}
	return fallback
}

// ShowBCPReproductionNotice reports whether the category requires the notice.
func (s *Service) ShowBCPReproductionNotice() bool {
	return s.engine.settings.Overrides.ShowBCPReproductionNotice(s.categoryID)
}

// YouTubePlaylists is the default playlist plus category additions, minus exclusions.
// A category that excludes the default playlist never lands in it, even when it
// also lists the default among its additions.
func (s *Service) YouTubePlaylists() overrides.Set {
	playlists := overrides.Set{}
	if id := s.engine.settings.DefaultPlaylistID; id != "" {
		playlists[id] = struct{}{}
	}

	additions, exclusions := s.engine.settings.Overrides.PlaylistAdjustments(s.categoryID)
	for id := range additions {
		playlists[id] = struct{}{}
	}
	for id := range exclusions {
		delete(playlists, id)
	}
	if s.engine.settings.Overrides.ExcludesDefaultPlaylist(s.categoryID) {
		delete(playlists, s.engine.settings.DefaultPlaylistID)
	}
	return playlists
}

// YouTubePrivacy is "public" for public streams, otherwise "unlisted".
func (s *Service) YouTubePrivacy() string {
	if s.IsStreamPublic() {
		return "public"
	}
	return "unlisted"
}

// YouTubeEmbeddable reports whether the video may be embedded.
func (s *Service) YouTubeEmbeddable() bool {
	return s.IsStreamPublic()
}

// Summary is a flat view of a service for listings.
type Summary struct {
	ID              string   `json:"id"`
	URL             string   `json:"url"`
	Title           string   `json:"title"`
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	Datetime        string   `json:"datetime"`
	PublishDatetime string   `json:"publish_datetime"`
	Description     string   `json:"description"`
	Technician      *string  `json:"technician"`
	Streaming       bool     `json:"streaming"`
	FeePayable      bool     `json:"fee_payable"`
	Privacy         string   `json:"privacy"`
	Playlists       []string `json:"playlists"`
}

// Summarise builds a Summary. previous is the service before s in date order, or nil.
func (s *Service) Summarise(previous *Service) Summary {
	sum := Summary{
		ID:              s.ID(),
		URL:             fmt.Sprintf("https://airtable.com/%s/%s/%s", s.engine.settings.BaseID, s.engine.settings.TableID, s.ID()),
		Title:           s.Title(),
		Name:            s.name,
		Type:            s.typ,
		Datetime:        s.datetime.Format(HumanLayout),
		PublishDatetime: s.PublishDatetime(previous).Format(ISOLayout),
		Description:     s.Description(),
		Streaming:       s.IsStreaming(),
		FeePayable:      s.IsFeePayable(),
		Privacy:         s.YouTubePrivacy(),
		Playlists:       s.YouTubePlaylists().Sorted(),
	}
	if name, ok := s.TechnicianName(); ok {
		sum.Technician = &name
	}
	return sum
}
