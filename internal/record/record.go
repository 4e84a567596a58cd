// Package record reads raw service rows from the record store through a
// logical-name alias table.
package record

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrMissingField is returned when a mandatory field is absent from a record.
	ErrMissingField = errors.New("mandatory field missing")
	// ErrUnknownField is returned for logical names that have no alias.
	ErrUnknownField = errors.New("unknown field")
)

// Record is one row of the services table.
type Record struct {
	ID          string         `json:"id"`
	Fields      map[string]any `json:"fields"`
	CreatedTime string         `json:"createdTime,omitempty"`
}

// Attachment is an entry of an attachment field.
type Attachment struct {
	ID       string
	URL      string
	Filename string
	Type     string
	Size     int64
}

// Collaborator is the value of a user field.
type Collaborator struct {
	ID    string
	Email string
	Name  string
}

// Accessor reads logical fields from a record. It never mutates the record.
type Accessor struct {
	rec     Record
	aliases map[Field]string
}

// NewAccessor returns an Accessor over rec using the standard alias table.
func NewAccessor(rec Record) Accessor {
	return Accessor{rec: rec, aliases: aliases}
}

// ID returns the record identifier.
func (a Accessor) ID() string {
	return a.rec.ID
}

// Exists reports whether f has an alias and the aliased key is present in the record.
func (a Accessor) Exists(f Field) bool {
	name, ok := a.aliases[f]
	if !ok {
		return false
	}
	_, ok = a.rec.Fields[name]
	return ok
}

// Get returns the raw value of f, or false when it is absent.
func (a Accessor) Get(f Field) (any, bool) {
	name, ok := a.aliases[f]
	if !ok {
		return nil, false
	}
	v, ok := a.rec.Fields[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String returns f as a string. Numbers are formatted without a trailing
// fraction so numeric ids read the same as text ids.
func (a Accessor) String(f Field) (string, bool) {
	v, ok := a.Get(f)
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

// StringOrEmpty returns f as a string, or "" when absent.
func (a Accessor) StringOrEmpty(f Field) string {
	s, _ := a.String(f)
	return s
}

// Require returns f as a string and fails if f is absent.
func (a Accessor) Require(f Field) (string, error) {
	if _, ok := a.aliases[f]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownField, f)
	}
	s, ok := a.String(f)
	if !ok {
		return "", fmt.Errorf("record %s: %w: %s", a.rec.ID, ErrMissingField, f)
	}
	return s, nil
}

// Attachments returns the entries of an attachment field. Malformed entries are skipped.
func (a Accessor) Attachments(f Field) []Attachment {
	v, ok := a.Get(f)
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil
	}

	var out []Attachment
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		att := Attachment{}
		att.ID, _ = m["id"].(string)
		att.URL, _ = m["url"].(string)
		att.Filename, _ = m["filename"].(string)
		att.Type, _ = m["type"].(string)
		if size, ok := m["size"].(float64); ok {
			att.Size = int64(size)
		}
		out = append(out, att)
	}
	return out
}

// Collaborator returns the value of a user field.
func (a Accessor) Collaborator(f Field) (Collaborator, bool) {
	v, ok := a.Get(f)
	if !ok {
		return Collaborator{}, false
	}
	m, ok := v.(map[string]any)
	if !ok {
		return Collaborator{}, false
	}
	c := Collaborator{}
	c.ID, _ = m["id"].(string)
	c.Email, _ = m["email"].(string)
	c.Name, _ = m["name"].(string)
	return c, true
}
