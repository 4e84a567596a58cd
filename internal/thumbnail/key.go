// Package thumbnail names and renders branded video thumbnails.
package thumbnail

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf16"

	"whitkirk-services/internal/service"
)

// GeneratorVersion is part of every cache key. Bump it whenever rendering or
// the key derivation changes so stale thumbnails are regenerated.
const GeneratorVersion = 3

// Inputs are the values a thumbnail depends on.
type Inputs struct {
	Image string
	Title string
	Date  string
}

// InputsFor collects the key inputs for svc, given the resolved image path.
func InputsFor(svc *service.Service, imagePath string) Inputs {
	return Inputs{
		Image: imagePath,
		Title: svc.Title(),
		Date:  svc.Datetime().Format(service.DateLayout),
	}
}

// Key returns the cache key for in at the current generator version.
func Key(in Inputs) string {
	return KeyAt(in, GeneratorVersion)
}

// KeyAt returns the cache key for in at version. The inputs are serialised as
// a key-sorted JSON object with ", " and ": " separators and ASCII-only
// escaping, then hashed with MD5.
func KeyAt(in Inputs, version int) string {
	var b strings.Builder
	b.WriteString(`{"datetime": `)
	writeJSONString(&b, in.Date)
	b.WriteString(`, "image": `)
	writeJSONString(&b, in.Image)
	b.WriteString(`, "title": `)
	writeJSONString(&b, in.Title)
	b.WriteString(`, "version": `)
	b.WriteString(strconv.Itoa(version))
	b.WriteString(`}`)

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Path is where the thumbnail for key is stored under dir.
func Path(dir, key string) string {
	return filepath.Join(dir, key+".jpg")
}

var shortEscapes = map[rune]string{
	'"':  `\"`,
	'\\': `\\`,
	'\n': `\n`,
	'\r': `\r`,
	'\t': `\t`,
	'\b': `\b`,
	'\f': `\f`,
}

func writeJSONString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		if esc, ok := shortEscapes[r]; ok {
			b.WriteString(esc)
			continue
		}
		if r >= 0x20 && r <= 0x7e {
			b.WriteRune(r)
			continue
		}
		if r > 0xffff {
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(b, `\u%04x\u%04x`, hi, lo)
			continue
		}
		fmt.Fprintf(b, `\u%04x`, r)
	}
	b.WriteByte('"')
}
