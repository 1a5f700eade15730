package api

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ContentKind discriminates the payload carried by a Content value.
type ContentKind string

const (
	// ContentNone is the zero Content: no payload at all.
	ContentNone ContentKind = ""

	// ContentText is a plain-text payload.
	ContentText ContentKind = "text"

	// ContentData is a structured key/value payload.
	ContentData ContentKind = "data"
)

// Content is the tagged value passed between steps. A step may produce
// plain text or a structured record; downstream steps inspect the kind
// and read the matching payload. The zero value means "no content".
type Content struct {
	kind ContentKind
	text string
	data map[string]any
}

// Text creates a text Content.
func Text(s string) Content {
	return Content{kind: ContentText, text: s}
}

// Data creates a structured Content. The map is shared, not copied;
// callers must not mutate it after handing it to a step output.
func Data(m map[string]any) Content {
	return Content{kind: ContentData, data: m}
}

// Kind returns the content's discriminator.
func (c Content) Kind() ContentKind { return c.kind }

// IsZero reports whether the content carries no payload.
func (c Content) IsZero() bool { return c.kind == ContentNone }

// Text returns the text payload, or "" for non-text content.
func (c Content) Text() string { return c.text }

// Data returns the structured payload, or nil for non-data content.
func (c Content) Data() map[string]any { return c.data }

// Get looks up a key in a structured payload.
func (c Content) Get(key string) (any, bool) {
	if c.kind != ContentData {
		return nil, false
	}
	v, ok := c.data[key]
	return v, ok
}

// String renders the content for display: text verbatim, structured
// payloads as "key=value" pairs in key order, none as "".
func (c Content) String() string {
	switch c.kind {
	case ContentText:
		return c.text
	case ContentData:
		keys := make([]string, 0, len(c.data))
		for k := range c.data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, c.data[k]))
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

// contentJSON is the wire shape of Content.
type contentJSON struct {
	Kind ContentKind    `json:"kind"`
	Text string         `json:"text,omitempty"`
	Data map[string]any `json:"data,omitempty"`
}

// MarshalJSON encodes the content; the zero value encodes as null.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.kind == ContentNone {
		return []byte("null"), nil
	}
	return json.Marshal(contentJSON{Kind: c.kind, Text: c.text, Data: c.data})
}

// UnmarshalJSON decodes the wire shape produced by MarshalJSON.
func (c *Content) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Content{}
		return nil
	}
	var w contentJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Kind {
	case ContentNone, ContentText, ContentData:
	default:
		return fmt.Errorf("content: unknown kind %q", w.Kind)
	}
	*c = Content{kind: w.Kind, text: w.Text, data: w.Data}
	return nil
}
