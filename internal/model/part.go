package model

import (
	"fmt"
	"strings"
)

// PartKind classifies a tokenized part of a page
type PartKind int

const (
	KindHTMLElement PartKind = iota // Markup tag, text spans < ... >
	KindTextEmpty                   // Whitespace or &nbsp; only
	KindTextReal                    // Non-trivial text
	KindStyle                       // Embedded style source
	KindScript                      // Embedded script source
)

var kindNames = [...]string{
	KindHTMLElement: "html_element",
	KindTextEmpty:   "text_empty",
	KindTextReal:    "text_real",
	KindStyle:       "style",
	KindScript:      "script",
}

func (k PartKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("PartKind(%d)", int(k))
	}
	return kindNames[k]
}

// ParsePartKind parses the string form of a PartKind
func ParsePartKind(s string) (PartKind, error) {
	for i, name := range kindNames {
		if strings.EqualFold(name, s) {
			return PartKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown part kind: %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (k PartKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *PartKind) UnmarshalText(text []byte) error {
	parsed, err := ParsePartKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Part is one tokenized unit of a page. Parts are compared structurally.
type Part struct {
	Kind PartKind `json:"kind" yaml:"kind"`
	Text string   `json:"text" yaml:"text"`
}

// Element creates an HTMLElement part
func Element(text string) Part { return Part{Kind: KindHTMLElement, Text: text} }

// Text creates a TextReal part
func Text(text string) Part { return Part{Kind: KindTextReal, Text: text} }

// Empty creates a TextEmpty part
func Empty(text string) Part { return Part{Kind: KindTextEmpty, Text: text} }

// Equal reports whether both kind and text match exactly
func (p Part) Equal(other Part) bool {
	return p.Kind == other.Kind && p.Text == other.Text
}

// TagName returns the lower-cased element name of an HTMLElement part
// ("img" for `<IMG src=x>`, "p" for `</p>`). Comments, doctypes and
// non-element parts yield "".
func (p Part) TagName() string {
	if p.Kind != KindHTMLElement {
		return ""
	}
	s := strings.TrimPrefix(p.Text, "<")
	s = strings.TrimPrefix(s, "/")
	end := strings.IndexFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '/' || r == '>'
	})
	if end >= 0 {
		s = s[:end]
	}
	if s == "" || s[0] == '!' || s[0] == '?' {
		return ""
	}
	return strings.ToLower(s)
}

// IsEndTag reports whether p is a closing tag such as `</p>`
func (p Part) IsEndTag() bool {
	return p.Kind == KindHTMLElement && strings.HasPrefix(p.Text, "</")
}

// Document is the ordered part sequence of one page
type Document struct {
	ID    string `json:"id" yaml:"id"`
	Parts []Part `json:"parts" yaml:"parts"`
}

// NewDocument creates a document from parts
func NewDocument(id string, parts ...Part) Document {
	return Document{ID: id, Parts: parts}
}

// Len returns the number of parts
func (d Document) Len() int {
	return len(d.Parts)
}

// CountKind counts parts of the given kind
func (d Document) CountKind(kind PartKind) int {
	n := 0
	for _, p := range d.Parts {
		if p.Kind == kind {
			n++
		}
	}
	return n
}
