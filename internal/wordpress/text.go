package wordpress

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// untexturize undoes the punctuation WordPress substitutes when it renders
// plain text.
var untexturize = strings.NewReplacer(
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
	"′", "'",
	"″", `"`,
	"…", "...",
)

// RenderedText returns the visible text of a rendered HTML fragment with
// whitespace collapsed and typographic quotes made plain, so it can be
// compared with plain derived text.
func RenderedText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing rendered html: %w", err)
	}
	return untexturize.Replace(strings.Join(strings.Fields(doc.Text()), " ")), nil
}
