package record

// Field is the logical name of a services table column.
type Field string

const (
	CategoryID                     Field = "churchsuite_category_id"
	ChurchSuiteID                  Field = "churchsuite_id"
	Image                          Field = "churchsuite_image"
	PublicIdentifier               Field = "churchsuite_public_identifier"
	Datetime                       Field = "datetime"
	Location                       Field = "location"
	FeePayable                     Field = "fee_payable"
	HasOOS                         Field = "has_oos"
	LiturgicalName                 Field = "liturgical_name"
	Name                           Field = "name"
	OrderOfServiceID               Field = "oos_id"
	PodcastID                      Field = "podcast_id"
	Slug                           Field = "slug"
	StreamPublic                   Field = "stream_public"
	Streaming                      Field = "streaming"
	Technician                     Field = "technician"
	Type                           Field = "type"
	WordPressImageID               Field = "wp_image_id"
	WordPressImageLastUploadedName Field = "wp_image_last_uploaded_name"
	YouTubeID                      Field = "youtube_id"
	YouTubeImageLastUploadedName   Field = "youtube_image_last_uploaded_name"
	Cancelled                      Field = "cancelled"
)

var aliases = map[Field]string{
	CategoryID:                     "ChurchSuite Category ID",
	ChurchSuiteID:                  "ChurchSuite ID",
	Image:                          "ChurchSuite Image",
	PublicIdentifier:               "ChurchSuite public identifier",
	Datetime:                       "Date & time",
	Location:                       "Location",
	FeePayable:                     "Fee payable?",
	HasOOS:                         "Has order of service?",
	LiturgicalName:                 "Liturgical name",
	Name:                           "Name",
	OrderOfServiceID:               "Order of Service ID",
	PodcastID:                      "Podcast ID",
	Slug:                           "Slug",
	StreamPublic:                   "Stream public?",
	Streaming:                      "Streaming?",
	Technician:                     "Technician",
	Type:                           "Type",
	WordPressImageID:               "Wordpress featured image ID",
	WordPressImageLastUploadedName: "Last uploaded Wordpress image name",
	YouTubeID:                      "YouTube ID",
	YouTubeImageLastUploadedName:   "Last uploaded YouTube thumbnail name",
	Cancelled:                      "Cancelled?",
}

// Mandatory lists the fields whose absence fails service construction.
var Mandatory = []Field{Datetime, Name, Slug, Type}

// ExternalName returns the record store column name for f.
func ExternalName(f Field) (string, bool) {
	name, ok := aliases[f]
	return name, ok
}

// MustExternalName is like ExternalName but panics for fields without an alias.
// It is meant for building queries from the constants above.
func MustExternalName(f Field) string {
	name, ok := aliases[f]
	if !ok {
		panic("record: no alias for field " + string(f))
	}
	return name
}

// Fields builds a write payload keyed by column name.
func Fields(values map[Field]any) map[string]any {
	out := make(map[string]any, len(values))
	for f, v := range values {
		out[MustExternalName(f)] = v
	}
	return out
}
